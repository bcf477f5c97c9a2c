package auth

import (
	"context"
	"strings"
	"unicode"

	"github.com/simp-lee/hotelweb/internal/backend"
	"github.com/simp-lee/hotelweb/internal/domain"
)

// Backend is the part of the booking backend the auth pages use.
type Backend interface {
	Login(ctx context.Context, identifier, password string) (*backend.LoginResult, error)
	Register(ctx context.Context, p backend.RegisterPayload) error
	ValidateEmail(ctx context.Context, code string) (string, error)
}

// Service defines the authentication operations.
type Service interface {
	Login(ctx context.Context, identifier, password string) (*backend.LoginResult, error)
	Register(ctx context.Context, req RegisterRequest) error
	ConfirmEmail(ctx context.Context, code string) (string, error)
}

type authService struct {
	backend Backend
}

// NewService creates an auth Service that forwards to the backend.
// Credentials are never stored here.
func NewService(b Backend) Service {
	return &authService{backend: b}
}

func (s *authService) Login(ctx context.Context, identifier, password string) (*backend.LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, domain.NewAppError(domain.CodeValidation, "username or email and password are required", nil)
	}
	res, err := s.backend.Login(ctx, identifier, password)
	if err != nil {
		// A rejected login is a 4xx from the backend; present it as bad credentials.
		if domain.IsValidation(err) || domain.IsUnauthorized(err) || domain.IsNotFound(err) {
			return nil, domain.NewAppError(domain.CodeUnauthorized,
				domain.UserMessage(err, "invalid credentials"), err)
		}
		return nil, err
	}
	if res.Token == "" {
		return nil, domain.NewAppError(domain.CodeUpstream, "login returned no token", nil)
	}
	return res, nil
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) error {
	if req.Password != req.ConfirmPassword {
		return domain.NewAppError(domain.CodeValidation, "passwords do not match", nil)
	}
	cpf, err := NormalizeCPF(req.CPF)
	if err != nil {
		return err
	}
	return s.backend.Register(ctx, backend.RegisterPayload{
		Username:        strings.TrimSpace(req.Username),
		Email:           strings.TrimSpace(req.Email),
		CPF:             cpf,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
}

func (s *authService) ConfirmEmail(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", domain.NewAppError(domain.CodeValidation, "confirmation code is required", nil)
	}
	msg, err := s.backend.ValidateEmail(ctx, code)
	if err != nil {
		return "", err
	}
	if msg == "" {
		msg = "Email confirmed. You can now log in."
	}
	return msg, nil
}

// NormalizeCPF strips the punctuation of a CPF ("123.456.789-09") and
// checks that 11 digits remain.
func NormalizeCPF(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == ' ':
		default:
			return "", domain.NewAppError(domain.CodeValidation, "CPF must contain digits only", nil)
		}
	}
	if b.Len() != 11 {
		return "", domain.NewAppError(domain.CodeValidation, "CPF must have 11 digits", nil)
	}
	return b.String(), nil
}
