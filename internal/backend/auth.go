package backend

import (
	"context"
	"net/http"
)

const (
	pathLogin         = "/external/auth/login"
	pathRegister      = "/external/auth/register"
	pathValidateEmail = "/external/auth/validate-email"

	msgLogin         = "invalid credentials"
	msgRegister      = "failed to register"
	msgValidateEmail = "failed to validate email code"
)

// LoginResult is the backend's answer to a successful login.
type LoginResult struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RegisterPayload is the account creation request.
type RegisterPayload struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	CPF             string `json:"cpf"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Login exchanges credentials for a backend token. identifier is a
// username or an email address.
func (c *Client) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   pathLogin,
		body: map[string]string{
			"identifier": identifier,
			"password":   password,
		},
		fallback: msgLogin,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. The backend then mails a confirmation code.
func (c *Client) Register(ctx context.Context, p RegisterPayload) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		path:     pathRegister,
		body:     p,
		fallback: msgRegister,
	}, nil)
}

// ValidateEmail confirms an account with the code sent by email.
func (c *Client) ValidateEmail(ctx context.Context, code string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     pathValidateEmail,
		body:     map[string]string{"code": code},
		fallback: msgValidateEmail,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}
