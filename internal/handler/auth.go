package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"study-planner-lite/internal/account"
	"study-planner-lite/internal/middleware"
	"study-planner-lite/internal/model"
	"study-planner-lite/internal/supabase"
)

type AuthHandler struct {
	Accounts      *account.Service
	SecureCookies bool
}

type signInBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type resetPasswordBody struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *AuthHandler) respond(c *gin.Context, res account.AuthResult) {
	if res.Success && res.Session != nil {
		middleware.SetSessionCookies(c, res.Session, h.SecureCookies)
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, res)
}

func invalidRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, account.AuthResult{Success: false, Error: "Invalid request"})
}

func (h *AuthHandler) Session(c *gin.Context) {
	ctx := c.Request.Context()
	session := h.Accounts.GetSession(ctx)
	if session != nil {
		if creds, _ := supabase.CredentialsFromContext(ctx); creds.AccessToken != session.AccessToken {
			middleware.SetSessionCookies(c, session, h.SecureCookies)
		}
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *AuthHandler) User(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": h.Accounts.GetCurrentUser(c.Request.Context())})
}

func (h *AuthHandler) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profile": h.Accounts.GetUserProfile(c.Request.Context())})
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var form model.SignUpForm
	if err := c.ShouldBindJSON(&form); err != nil {
		invalidRequest(c)
		return
	}
	h.respond(c, h.Accounts.SignUp(c.Request.Context(), form))
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var body signInBody
	if err := c.ShouldBindJSON(&body); err != nil {
		invalidRequest(c)
		return
	}
	h.respond(c, h.Accounts.SignIn(c.Request.Context(), body.Email, body.Password))
}

// SignOut always clears the session cookies, even when revocation fails.
func (h *AuthHandler) SignOut(c *gin.Context) {
	res := h.Accounts.SignOut(c.Request.Context())
	middleware.ClearSessionCookies(c, h.SecureCookies)
	h.respond(c, res)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var body resetPasswordBody
	if err := c.ShouldBindJSON(&body); err != nil {
		invalidRequest(c)
		return
	}
	h.respond(c, h.Accounts.ResetPassword(c.Request.Context(), body.Email))
}
