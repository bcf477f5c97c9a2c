package auth

import "github.com/gin-gonic/gin"

// AuthModule implements the app.Module interface for authentication.
type AuthModule struct {
	handler     *AuthHandler
	pageHandler *AuthPageHandler
}

// NewModule creates a new AuthModule. Panics if a handler is nil.
func NewModule(h *AuthHandler, ph *AuthPageHandler) *AuthModule {
	if h == nil {
		panic("auth.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("auth.NewModule: pageHandler must not be nil")
	}
	return &AuthModule{handler: h, pageHandler: ph}
}

// RegisterRoutes registers auth API and page routes. None of them require a
// session.
func (m *AuthModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	auth := api.Group("/auth")
	auth.POST("/login", m.handler.Login)
	auth.POST("/register", m.handler.Register)
	auth.POST("/logout", m.handler.Logout)

	pages.GET("/login", m.pageHandler.LoginPage)
	pages.POST("/login", m.pageHandler.Login)
	pages.GET("/register", m.pageHandler.RegisterPage)
	pages.POST("/register", m.pageHandler.Register)
	pages.POST("/logout", m.pageHandler.Logout)
	pages.GET("/email-confirmation/:code", m.pageHandler.EmailConfirmationPage)
}
