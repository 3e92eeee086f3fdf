package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"study-planner-lite/internal/supabase"
)

const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"

	sessionCookieMaxAge = 30 * 24 * 60 * 60
	userIDContextKey    = "userID"
)

// SessionChecker is satisfied by account.Service.
type SessionChecker interface {
	RequireAuth(ctx context.Context) (*supabase.Session, bool)
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Get(userIDContextKey)
	if !ok {
		return "", false
	}
	value, ok := userID.(string)
	return value, ok && value != ""
}

func credentialsFromRequest(c *gin.Context) supabase.Credentials {
	var creds supabase.Credentials
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		creds.AccessToken = strings.TrimSpace(parts[1])
	}
	if creds.AccessToken == "" {
		creds.AccessToken, _ = c.Cookie(AccessTokenCookie)
	}
	creds.RefreshToken, _ = c.Cookie(RefreshTokenCookie)
	if creds.RefreshToken == "" {
		creds.RefreshToken = c.GetHeader("X-Refresh-Token")
	}
	return creds
}

// Credentials moves the caller's tokens (Bearer header or session cookies)
// into the request context. It never rejects a request.
func Credentials() gin.HandlerFunc {
	return func(c *gin.Context) {
		if creds := credentialsFromRequest(c); creds.AccessToken != "" {
			c.Request = c.Request.WithContext(supabase.WithCredentials(c.Request.Context(), creds))
		}
		c.Next()
	}
}

// RequireSession guards routes behind a live session. Page requests are
// redirected to loginPath; API requests get 401 with the redirect target.
// A session refreshed during the check is written back as cookies.
func RequireSession(checker SessionChecker, loginPath string, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !applySession(c, checker, secureCookies) {
			deny(c, loginPath)
			return
		}
		c.Next()
	}
}

// OptionalSession records the caller's user id when a live session exists
// and lets every request through.
func OptionalSession(checker SessionChecker, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := supabase.CredentialsFromContext(c.Request.Context()); ok {
			applySession(c, checker, secureCookies)
		}
		c.Next()
	}
}

func applySession(c *gin.Context, checker SessionChecker, secureCookies bool) bool {
	ctx := c.Request.Context()
	session, ok := checker.RequireAuth(ctx)
	if !ok || session == nil {
		return false
	}

	if creds, _ := supabase.CredentialsFromContext(ctx); creds.AccessToken != session.AccessToken {
		SetSessionCookies(c, session, secureCookies)
		c.Request = c.Request.WithContext(supabase.WithCredentials(ctx, session.Credentials()))
	}
	if session.User != nil {
		c.Set(userIDContextKey, session.User.ID)
	}
	return true
}

func wantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

func deny(c *gin.Context, loginPath string) {
	if wantsJSON(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "redirect": loginPath})
		return
	}
	c.Redirect(http.StatusFound, loginPath)
	c.Abort()
}

func SetSessionCookies(c *gin.Context, session *supabase.Session, secure bool) {
	if session == nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, session.AccessToken, sessionCookieMaxAge, "/", "", secure, true)
	if session.RefreshToken != "" {
		c.SetCookie(RefreshTokenCookie, session.RefreshToken, sessionCookieMaxAge, "/", "", secure, true)
	}
}

func ClearSessionCookies(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}
