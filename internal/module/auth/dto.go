package auth

import "time"

// LoginRequest is a login by username or email.
type LoginRequest struct {
	Identifier string `json:"identifier" form:"identifier" binding:"required,max=255"`
	Password   string `json:"password" form:"password" binding:"required"`
}

// RegisterRequest is the account creation form.
type RegisterRequest struct {
	Username        string `json:"username" form:"username" binding:"required,min=3,max=50"`
	Email           string `json:"email" form:"email" binding:"required,email"`
	CPF             string `json:"cpf" form:"cpf" binding:"required"`
	Password        string `json:"password" form:"password" binding:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" binding:"required"`
}

// SessionResponse describes the session opened by a login.
type SessionResponse struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}
