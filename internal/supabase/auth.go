package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    string         `json:"created_at,omitempty"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

func (s *Session) Credentials() Credentials {
	return Credentials{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
}

type SignUpRequest struct {
	Email      string
	Password   string
	Data       map[string]any
	RedirectTo string
}

// SignUpResponse carries the new user. Session is nil when the project
// requires email confirmation before the first sign-in.
type SignUpResponse struct {
	User    *User
	Session *Session
}

func redirectQuery(redirectTo string) url.Values {
	if redirectTo == "" {
		return nil
	}
	return url.Values{"redirect_to": []string{redirectTo}}
}

func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error) {
	body := map[string]any{
		"email":    req.Email,
		"password": req.Password,
	}
	if len(req.Data) > 0 {
		body["data"] = req.Data
	}

	var raw json.RawMessage
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   authPrefix + "signup",
		query:  redirectQuery(req.RedirectTo),
		body:   body,
		bearer: c.anonKey,
	}, &raw)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err == nil && session.AccessToken != "" && session.User != nil {
		return &SignUpResponse{User: session.User, Session: &session}, nil
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("supabase: decode signup: %w", err)
	}
	if user.ID == "" {
		return &SignUpResponse{}, nil
	}
	return &SignUpResponse{User: &user}, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	return c.token(ctx, "password", map[string]string{"email": email, "password": password})
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, errors.New("supabase: missing refresh token")
	}
	return c.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

func (c *Client) token(ctx context.Context, grant string, body map[string]string) (*Session, error) {
	var session Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   authPrefix + "token",
		query:  url.Values{"grant_type": []string{grant}},
		body:   body,
		bearer: c.anonKey,
	}, &session)
	if err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, errors.New("supabase: token response without access token")
	}
	return &session, nil
}

// GetUser asks the auth service who owns accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, errors.New("supabase: missing access token")
	}
	var user User
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   authPrefix + "user",
		bearer: accessToken,
	}, &user)
	if err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, errors.New("supabase: user response without id")
	}
	return &user, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return errors.New("supabase: missing access token")
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   authPrefix + "logout",
		bearer: accessToken,
	}, nil)
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   authPrefix + "recover",
		query:  redirectQuery(redirectTo),
		body:   map[string]string{"email": email},
		bearer: c.anonKey,
	}, nil)
}
