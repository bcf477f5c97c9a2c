package auth

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hotelweb/internal/domain"
	"github.com/simp-lee/hotelweb/internal/middleware"
	"github.com/simp-lee/hotelweb/internal/pkg"
	"github.com/simp-lee/hotelweb/internal/session"
)

const (
	homePath  = "/dashboard"
	loginPath = "/login"
)

// AuthPageHandler renders the login, registration and email confirmation
// pages and handles their htmx form posts.
type AuthPageHandler struct {
	svc      Service
	sessions *session.Manager
}

// NewPageHandler creates a new AuthPageHandler.
func NewPageHandler(svc Service, sessions *session.Manager) *AuthPageHandler {
	return &AuthPageHandler{svc: svc, sessions: sessions}
}

// LoginPage renders the login form.
// GET /login
func (h *AuthPageHandler) LoginPage(c *gin.Context) {
	if session.Current(c) != nil {
		c.Redirect(http.StatusFound, homePath)
		return
	}
	c.HTML(http.StatusOK, "auth/login.html", gin.H{
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// Login handles the login form.
// POST /login
func (h *AuthPageHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.DebugContext(c.Request.Context(), "login: bind error", "error", err)
		h.formError(c, "auth/login.html", http.StatusBadRequest, "Enter your username or email and password", gin.H{
			"Errors": pkg.FormErrors(err, &req),
			"Form":   req,
		})
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Identifier, req.Password)
	if err == nil {
		_, err = h.sessions.Create(c, domain.Session{
			Token:    res.Token,
			UserID:   res.UserID,
			Username: res.Username,
			Email:    res.Email,
		})
	}
	if err != nil {
		h.formError(c, "auth/login.html", domain.HTTPStatusCode(err),
			safePageErrorMessage(err, "Login failed, please try again later"), gin.H{"Form": req})
		return
	}

	pkg.SetToast(c, "Welcome back, "+res.Username, pkg.ToastSuccess)
	pkg.HXRedirect(c, homePath)
}

// RegisterPage renders the registration form.
// GET /register
func (h *AuthPageHandler) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "auth/register.html", gin.H{
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// Register handles the registration form.
// POST /register
func (h *AuthPageHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.DebugContext(c.Request.Context(), "register: bind error", "error", err)
		h.formError(c, "auth/register.html", http.StatusBadRequest, "Please check the form", gin.H{
			"Errors": pkg.FormErrors(err, &req),
			"Form":   req,
		})
		return
	}

	if err := h.svc.Register(c.Request.Context(), req); err != nil {
		h.formError(c, "auth/register.html", domain.HTTPStatusCode(err),
			safePageErrorMessage(err, "Registration failed, please try again later"), gin.H{"Form": req})
		return
	}

	pkg.SetToast(c, "Account created. Check your email for the confirmation link.", pkg.ToastSuccess)
	pkg.HXRedirect(c, loginPath)
}

// Logout ends the session.
// POST /logout
func (h *AuthPageHandler) Logout(c *gin.Context) {
	if err := h.sessions.Destroy(c); err != nil {
		slog.WarnContext(c.Request.Context(), "logout: failed to delete session", "error", err)
	}
	pkg.HXRedirect(c, loginPath)
}

// EmailConfirmationPage confirms an account with the emailed code.
// GET /email-confirmation/:code
func (h *AuthPageHandler) EmailConfirmationPage(c *gin.Context) {
	msg, err := h.svc.ConfirmEmail(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.HTML(domain.HTTPStatusCode(err), "auth/email_confirmation.html", gin.H{
			"Success": false,
			"Message": safePageErrorMessage(err, "We could not confirm your email. The link may have expired."),
		})
		return
	}
	c.HTML(http.StatusOK, "auth/email_confirmation.html", gin.H{
		"Success": true,
		"Message": msg,
	})
}

// formError reports a failed form post. htmx posts get a toast and keep the
// form as typed; plain posts re-render the page with the message.
func (h *AuthPageHandler) formError(c *gin.Context, tmpl string, status int, msg string, data gin.H) {
	if pkg.IsHTMX(c) {
		pkg.ToastOnly(c, msg, pkg.ToastError)
		return
	}
	data["Error"] = msg
	data["CSRFToken"] = middleware.GetCSRFToken(c)
	c.HTML(status, tmpl, data)
}

// safePageErrorMessage returns the AppError message for user-facing codes and
// fallback for everything else, so technical details do not reach the page.
func safePageErrorMessage(err error, fallback string) string {
	switch {
	case domain.IsValidation(err), domain.IsUnauthorized(err), domain.IsNotFound(err):
		return domain.UserMessage(err, fallback)
	default:
		return fallback
	}
}
