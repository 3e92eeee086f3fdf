// Package account wraps the remote auth service: sessions, sign-up with a
// profile row, sign-in, sign-out and password recovery.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"study-planner-lite/internal/auth"
	"study-planner-lite/internal/model"
	"study-planner-lite/internal/store"
	"study-planner-lite/internal/supabase"
)

const (
	profilesTable = "user_profiles"

	resetPasswordPath = "/reset-password.html"
	profileWarning    = "Account created successfully. Please complete your profile after logging in."
)

type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeSucceeded
	// OutcomePartial is a sign-up whose identity exists but whose profile
	// row could not be written.
	OutcomePartial
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomePartial:
		return "partial"
	default:
		return "failed"
	}
}

// AuthResult is what every auth action returns. Actions never fail with an
// error value; failures are reported in Error.
type AuthResult struct {
	Success        bool              `json:"success"`
	Error          string            `json:"error,omitempty"`
	User           *supabase.User    `json:"user,omitempty"`
	Session        *supabase.Session `json:"session,omitempty"`
	ProfileCreated *bool             `json:"profileCreated,omitempty"`
	Warning        string            `json:"warning,omitempty"`
}

func (r AuthResult) Outcome() Outcome {
	switch {
	case !r.Success:
		return OutcomeFailed
	case r.ProfileCreated != nil && !*r.ProfileCreated:
		return OutcomePartial
	default:
		return OutcomeSucceeded
	}
}

func failed(msg string) AuthResult {
	return AuthResult{Success: false, Error: msg}
}

type Options struct {
	Backend      store.ClientSource
	SiteURL      string
	LoginPath    string
	ProfileDelay time.Duration
	Logger       zerolog.Logger
	Now          func() time.Time
}

type Service struct {
	backend      store.ClientSource
	siteURL      string
	loginPath    string
	profileDelay time.Duration
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(opts Options) *Service {
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = "/login.html"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		backend:      opts.Backend,
		siteURL:      strings.TrimRight(opts.SiteURL, "/"),
		loginPath:    loginPath,
		profileDelay: opts.ProfileDelay,
		logger:       opts.Logger.With().Str("component", "account").Logger(),
		now:          now,
	}
}

func (s *Service) client(ctx context.Context) (*supabase.Client, error) {
	if s.backend == nil {
		return nil, store.ErrDatabaseUnavailable
	}
	c, err := s.backend.Client(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("remote store unavailable")
		return nil, store.ErrDatabaseUnavailable
	}
	return c, nil
}

func errorMessage(err error) string {
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// GetSession returns the caller's live session, refreshing it once when the
// access token has expired and a refresh token is available. Any failure
// yields nil.
func (s *Service) GetSession(ctx context.Context) *supabase.Session {
	creds, ok := supabase.CredentialsFromContext(ctx)
	if !ok {
		return nil
	}
	client, err := s.client(ctx)
	if err != nil {
		return nil
	}

	claims, err := auth.ParseAccessToken(creds.AccessToken, auth.TokenConfig{Secret: client.JWTSecret(), Now: s.now})
	if err == nil {
		session := sessionFromClaims(creds, claims)
		if client.JWTSecret() != "" {
			return session
		}
		// Without a secret the claims are unsigned input; only the auth
		// service can vouch for the token.
		user, err := client.GetUser(ctx, creds.AccessToken)
		if err != nil {
			s.logger.Debug().Err(err).Msg("auth service rejected access token")
			return nil
		}
		session.User = user
		return session
	}
	if !errors.Is(err, jwt.ErrTokenExpired) || creds.RefreshToken == "" {
		s.logger.Debug().Err(err).Msg("rejected access token")
		return nil
	}

	session, err := client.RefreshSession(ctx, creds.RefreshToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to refresh session")
		return nil
	}
	s.logger.Debug().Msg("refreshed expired session")
	return session
}

func sessionFromClaims(creds supabase.Credentials, claims *auth.Claims) *supabase.Session {
	session := &supabase.Session{
		AccessToken:  creds.AccessToken,
		TokenType:    "bearer",
		RefreshToken: creds.RefreshToken,
		User: &supabase.User{
			ID:    claims.UserID(),
			Email: claims.Email,
			Role:  claims.Role,
		},
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return session
}

// GetCurrentUser asks the auth service who the caller is.
func (s *Service) GetCurrentUser(ctx context.Context) *supabase.User {
	creds, ok := supabase.CredentialsFromContext(ctx)
	if !ok {
		return nil
	}
	client, err := s.client(ctx)
	if err != nil {
		return nil
	}
	user, err := client.GetUser(ctx, creds.AccessToken)
	if err != nil {
		s.logger.Debug().Err(err).Msg("failed to resolve current user")
		return nil
	}
	return user
}

// UserID makes Service usable as the store's identity resolver.
func (s *Service) UserID(ctx context.Context) (string, bool) {
	user := s.GetCurrentUser(ctx)
	if user == nil {
		return "", false
	}
	return user.ID, true
}

func (s *Service) GetUserProfile(ctx context.Context) *model.UserProfile {
	user := s.GetCurrentUser(ctx)
	if user == nil {
		return nil
	}
	client, err := s.client(ctx)
	if err != nil {
		return nil
	}

	var profile model.UserProfile
	err = client.From(profilesTable).Eq("user_id", user.ID).Single().Select(ctx, "*", &profile)
	if err != nil {
		if !supabase.IsNotFound(err) {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to fetch user profile")
		}
		return nil
	}
	return &profile
}

// SignUp creates the identity and then, after ProfileDelay, the profile row.
// The two steps are not atomic: a profile failure still reports success with
// a warning.
func (s *Service) SignUp(ctx context.Context, form model.SignUpForm) AuthResult {
	client, err := s.client(ctx)
	if err != nil {
		return failed(err.Error())
	}

	resp, err := client.SignUp(ctx, supabase.SignUpRequest{
		Email:      form.Email,
		Password:   form.Password,
		Data:       form.Metadata(),
		RedirectTo: s.siteURL + s.loginPath,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("sign-up rejected")
		return failed(errorMessage(err))
	}
	if resp.User == nil || resp.User.ID == "" {
		return failed("failed to create user")
	}

	result := AuthResult{Success: true, User: resp.User, Session: resp.Session}
	partial := func() AuthResult {
		created := false
		result.ProfileCreated = &created
		result.Warning = profileWarning
		return result
	}

	if s.profileDelay > 0 {
		timer := time.NewTimer(s.profileDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			s.logger.Warn().Err(ctx.Err()).Str("user_id", resp.User.ID).Msg("sign-up interrupted before profile creation")
			return partial()
		}
	}

	profileCtx := ctx
	if resp.Session != nil {
		profileCtx = supabase.WithCredentials(ctx, resp.Session.Credentials())
	}
	if err := client.From(profilesTable).Insert(profileCtx, form.Profile(resp.User.ID), nil); err != nil {
		s.logger.Error().Err(err).Str("user_id", resp.User.ID).Msg("failed to create user profile")
		return partial()
	}

	created := true
	result.ProfileCreated = &created
	s.logger.Info().Str("user_id", resp.User.ID).Msg("signed up")
	return result
}

func (s *Service) SignIn(ctx context.Context, email, password string) AuthResult {
	client, err := s.client(ctx)
	if err != nil {
		return failed(err.Error())
	}
	session, err := client.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.logger.Info().Err(err).Msg("sign-in rejected")
		return failed(errorMessage(err))
	}
	return AuthResult{Success: true, User: session.User, Session: session}
}

// SignOut revokes the caller's session. Signing out without a session
// succeeds.
func (s *Service) SignOut(ctx context.Context) AuthResult {
	client, err := s.client(ctx)
	if err != nil {
		return failed(err.Error())
	}
	creds, ok := supabase.CredentialsFromContext(ctx)
	if !ok {
		return AuthResult{Success: true}
	}
	if err := client.SignOut(ctx, creds.AccessToken); err != nil {
		s.logger.Warn().Err(err).Msg("sign-out failed")
		return failed(errorMessage(err))
	}
	return AuthResult{Success: true}
}

func (s *Service) ResetPassword(ctx context.Context, email string) AuthResult {
	client, err := s.client(ctx)
	if err != nil {
		return failed(err.Error())
	}
	if err := client.ResetPasswordForEmail(ctx, email, s.siteURL+resetPasswordPath); err != nil {
		s.logger.Warn().Err(err).Msg("password reset failed")
		return failed(errorMessage(err))
	}
	return AuthResult{Success: true}
}

// RequireAuth reports whether the caller has a live session.
func (s *Service) RequireAuth(ctx context.Context) (*supabase.Session, bool) {
	session := s.GetSession(ctx)
	return session, session != nil
}

func (s *Service) LoginPath() string { return s.loginPath }
