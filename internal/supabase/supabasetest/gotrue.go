package supabasetest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"study-planner-lite/internal/auth"
)

func (s *Server) authFailure(c *gin.Context, endpoint string) bool {
	if status := s.failure("auth:" + endpoint); status != 0 {
		c.JSON(status, gin.H{"code": status, "error_code": "unexpected_failure", "msg": "injected failure"})
		return true
	}
	return false
}

func (s *Server) noteRedirect(c *gin.Context, endpoint string) {
	if to := c.Query("redirect_to"); to != "" {
		s.mu.Lock()
		s.redirects[endpoint] = to
		s.mu.Unlock()
	}
}

func (s *Server) signUp(c *gin.Context) {
	if s.authFailure(c, "signup") {
		return
	}
	s.noteRedirect(c, "signup")

	var body struct {
		Email    string         `json:"email"`
		Password string         `json:"password"`
		Data     map[string]any `json:"data"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error_code": "validation_failed", "msg": "Signup requires a valid email"})
		return
	}
	if len(body.Password) < 6 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "error_code": "weak_password", "msg": "Password should be at least 6 characters."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[strings.ToLower(body.Email)]; exists {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "error_code": "user_already_exists", "msg": "User already registered"})
		return
	}
	u := s.createUserLocked(body.Email, body.Password, body.Data)
	session, err := s.issueLocked(u, time.Now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) token(c *gin.Context) {
	if s.authFailure(c, "token") {
		return
	}
	invalid := func(desc string) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant", "error_description": desc})
	}

	switch c.Query("grant_type") {
	case "password":
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			invalid("Invalid login credentials")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		u, ok := s.users[strings.ToLower(body.Email)]
		if !ok || u.Password != body.Password {
			invalid("Invalid login credentials")
			return
		}
		session, err := s.issueLocked(u, time.Now)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, session)

	case "refresh_token":
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			invalid("Invalid Refresh Token")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		userID, ok := s.refresh[body.RefreshToken]
		if !ok {
			invalid("Invalid Refresh Token: Refresh Token Not Found")
			return
		}
		delete(s.refresh, body.RefreshToken)
		for _, u := range s.users {
			if u.ID != userID {
				continue
			}
			session, err := s.issueLocked(u, time.Now)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
				return
			}
			c.JSON(http.StatusOK, session)
			return
		}
		invalid("Invalid Refresh Token: User Not Found")

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_grant_type", "error_description": "unsupported grant type"})
	}
}

func (s *Server) getUser(c *gin.Context) {
	if s.authFailure(c, "user") {
		return
	}
	u, ok := s.bearerUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "error_code": "bad_jwt", "msg": "invalid JWT: unable to parse or verify signature"})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) logout(c *gin.Context) {
	if s.authFailure(c, "logout") {
		return
	}
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	claims, err := auth.VerifyToken(token, auth.TokenConfig{Secret: JWTSecret})
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "error_code": "bad_jwt", "msg": "invalid JWT"})
		return
	}

	s.mu.Lock()
	s.revoked[claims.SessionID] = true
	for refresh, userID := range s.refresh {
		if userID == claims.UserID() {
			delete(s.refresh, refresh)
		}
	}
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func (s *Server) recover(c *gin.Context) {
	if s.authFailure(c, "recover") {
		return
	}
	s.noteRedirect(c, "recover")

	var body struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error_code": "validation_failed", "msg": "email required"})
		return
	}
	s.mu.Lock()
	s.recovered = append(s.recovered, body.Email)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{})
}
