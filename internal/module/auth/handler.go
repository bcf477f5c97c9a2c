package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hotelweb/internal/domain"
	"github.com/simp-lee/hotelweb/internal/pkg"
	"github.com/simp-lee/hotelweb/internal/session"
)

// AuthHandler handles REST API requests for authentication.
type AuthHandler struct {
	svc      Service
	sessions *session.Manager
}

// NewHandler creates a new AuthHandler.
func NewHandler(svc Service, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{svc: svc, sessions: sessions}
}

// Login handles POST /api/v1/auth/login. The session cookie it sets
// authorizes the other API routes.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	s, err := h.sessions.Create(c, domain.Session{
		Token:    res.Token,
		UserID:   res.UserID,
		Username: res.Username,
		Email:    res.Email,
	})
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, SessionResponse{
		UserID:    s.UserID,
		Username:  s.Username,
		Email:     s.Email,
		ExpiresAt: s.ExpiresAt,
	})
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	if err := h.svc.Register(c.Request.Context(), req); err != nil {
		pkg.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, pkg.Response{
		Code:    http.StatusCreated,
		Message: "account created, check your email for the confirmation code",
	})
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Destroy(c); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}
