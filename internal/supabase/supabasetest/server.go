// Package supabasetest runs an in-memory stand-in for the PostgREST and
// GoTrue endpoints the supabase client talks to.
package supabasetest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"study-planner-lite/internal/auth"
	"study-planner-lite/internal/supabase"
)

const (
	AnonKey   = "test-anon-key"
	JWTSecret = "test-jwt-secret"
)

type RecordedRequest struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	Prefer        string
	Accept        string
}

type user struct {
	ID       string
	Email    string
	Password string
	Metadata map[string]any
}

// Server is safe for concurrent use.
type Server struct {
	*httptest.Server

	// IgnoreOrder makes table reads return rows in storage order.
	IgnoreOrder bool

	mu        sync.Mutex
	tables    map[string][]map[string]any
	users     map[string]*user
	refresh   map[string]string
	revoked   map[string]bool
	failures  map[string]int
	requests  []RecordedRequest
	redirects map[string]string
	recovered []string
}

func New(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		tables:    make(map[string][]map[string]any),
		users:     make(map[string]*user),
		refresh:   make(map[string]string),
		revoked:   make(map[string]bool),
		failures:  make(map[string]int),
		redirects: make(map[string]string),
	}

	r := gin.New()
	r.Use(s.record, s.requireAPIKey)

	rest := r.Group("/rest/v1")
	rest.GET("/:table", s.selectRows)
	rest.POST("/:table", s.insertRows)
	rest.PATCH("/:table", s.updateRows)
	rest.DELETE("/:table", s.deleteRows)

	authGroup := r.Group("/auth/v1")
	authGroup.POST("/signup", s.signUp)
	authGroup.POST("/token", s.token)
	authGroup.GET("/user", s.getUser)
	authGroup.POST("/logout", s.logout)
	authGroup.POST("/recover", s.recover)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Client returns a supabase client pointed at the fake.
func (s *Server) Client(t testing.TB) *supabase.Client {
	t.Helper()
	c, err := supabase.New(s.URL, AnonKey, supabase.WithJWTSecret(JWTSecret), supabase.WithHTTPClient(s.Server.Client()))
	if err != nil {
		t.Fatalf("supabase.New: %v", err)
	}
	return c
}

func (s *Server) Seed(table string, rows ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		cp := normalize(row)
		if _, ok := cp["id"]; !ok {
			cp["id"] = uuid.NewString()
		}
		s.tables[table] = append(s.tables[table], cp)
	}
}

func (s *Server) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.tables[table]))
	for _, row := range s.tables[table] {
		out = append(out, copyRow(row))
	}
	return out
}

// FailTable makes every request against table answer with status.
func (s *Server) FailTable(table string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures["table:"+table] = status
}

// FailAuth makes the named auth endpoint (signup, token, user, logout,
// recover) answer with status.
func (s *Server) FailAuth(endpoint string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures["auth:"+endpoint] = status
}

func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// Redirect returns the redirect_to sent with the last call to endpoint.
func (s *Server) Redirect(endpoint string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redirects[endpoint]
}

func (s *Server) RecoveredEmails() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.recovered...)
}

// CreateUser registers a confirmed user and returns its id.
func (s *Server) CreateUser(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUserLocked(email, password, nil).ID
}

func (s *Server) createUserLocked(email, password string, metadata map[string]any) *user {
	u := &user{ID: uuid.NewString(), Email: email, Password: password, Metadata: metadata}
	s.users[strings.ToLower(email)] = u
	return u
}

// Session mints a live session for an existing user.
func (s *Server) Session(t testing.TB, email string) *supabase.Session {
	t.Helper()
	return s.mintSession(t, email, time.Now)
}

// ExpiredSession mints a session whose access token expired an hour ago but
// whose refresh token still works.
func (s *Server) ExpiredSession(t testing.TB, email string) *supabase.Session {
	t.Helper()
	return s.mintSession(t, email, func() time.Time { return time.Now().Add(-2 * time.Hour) })
}

func (s *Server) mintSession(t testing.TB, email string, now func() time.Time) *supabase.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		t.Fatalf("supabasetest: unknown user %q", email)
	}
	session, err := s.issueLocked(u, now)
	if err != nil {
		t.Fatalf("supabasetest: issue session: %v", err)
	}
	return session
}

func (s *Server) issueLocked(u *user, now func() time.Time) (*supabase.Session, error) {
	cfg := auth.TokenConfig{Secret: JWTSecret, Expiry: time.Hour, Issuer: "supabasetest", Now: now}
	access, err := auth.CreateToken(u.ID, u.Email, cfg)
	if err != nil {
		return nil, err
	}
	refresh := uuid.NewString()
	s.refresh[refresh] = u.ID
	issued := now()
	return &supabase.Session{
		AccessToken:  access,
		TokenType:    "bearer",
		ExpiresIn:    int64(time.Hour / time.Second),
		ExpiresAt:    issued.Add(time.Hour).Unix(),
		RefreshToken: refresh,
		User:         u.public(),
	}, nil
}

func (u *user) public() *supabase.User {
	return &supabase.User{ID: u.ID, Email: u.Email, Role: "authenticated", UserMetadata: u.Metadata}
}

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		Query:         c.Request.URL.RawQuery,
		Authorization: c.GetHeader("Authorization"),
		Prefer:        c.GetHeader("Prefer"),
		Accept:        c.GetHeader("Accept"),
	})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) requireAPIKey(c *gin.Context) {
	if c.GetHeader("apikey") != AnonKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid API key"})
		return
	}
	c.Next()
}

func (s *Server) failure(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[key]
}

func (s *Server) bearerUser(c *gin.Context) (*supabase.User, bool) {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == AnonKey {
		return nil, false
	}
	claims, err := auth.VerifyToken(token, auth.TokenConfig{Secret: JWTSecret})
	if err != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[claims.SessionID] {
		return nil, false
	}
	for _, u := range s.users {
		if u.ID == claims.UserID() {
			return u.public(), true
		}
	}
	return nil, false
}

func copyRow(row map[string]any) map[string]any {
	cp := make(map[string]any, len(row))
	for k, v := range row {
		cp[k] = v
	}
	return cp
}

// orderRows applies a PostgREST order clause such as
// "due_date.asc.nullslast,priority.desc.nullslast".
func orderRows(rows []map[string]any, clause string) {
	if clause == "" {
		return
	}
	type term struct {
		column     string
		ascending  bool
		nullsFirst bool
	}
	var terms []term
	for _, part := range strings.Split(clause, ",") {
		fields := strings.Split(part, ".")
		tm := term{column: fields[0], ascending: true}
		for _, f := range fields[1:] {
			switch f {
			case "desc":
				tm.ascending = false
			case "nullsfirst":
				tm.nullsFirst = true
			}
		}
		terms = append(terms, tm)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, tm := range terms {
			a, b := rows[i][tm.column], rows[j][tm.column]
			switch {
			case a == nil && b == nil:
				continue
			case a == nil:
				return tm.nullsFirst
			case b == nil:
				return !tm.nullsFirst
			}
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if tm.ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compareValues(a, b any) int {
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	return strings.Compare(sa, sb)
}
