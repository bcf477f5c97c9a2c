package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hotelweb/internal/pkg"
)

const (
	csrfCookieName = "_csrf_token"
	csrfFormField  = "_csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfContextKey = "CSRFToken"
)

const csrfExpiredMessage = "Your form has expired. Reload the page and try again."

// CSRF protects page forms and htmx requests with a signed double-submit
// cookie. Tokens look like hex(nonce) + "." + base64url(HMAC-SHA256(nonce)).
//
// Safe methods get a token cookie (readable by the page script, SameSite
// Strict) and the token in gin.Context under "CSRFToken" for templates.
// Unsafe methods must echo the cookie in the "_csrf_token" form field or the
// X-CSRF-Token header (the layout configures htmx to send the header).
//
// Rejections are 403: htmx requests get a toast, others a JSON body.
// API groups are exempt by not using this middleware.
func CSRF(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "csrf secret is required"})
		}
	}

	secure := gin.Mode() == gin.ReleaseMode
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			token, err := c.Cookie(csrfCookieName)
			if err != nil || !validToken(token, secret) {
				if token, err = generateToken(secret); err != nil {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to generate CSRF token"})
					return
				}
				setCSRFCookie(c, token, secure)
			}
			c.Set(csrfContextKey, token)
			c.Next()

		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			cookieToken, err := c.Cookie(csrfCookieName)
			if err != nil || cookieToken == "" {
				rejectCSRF(c, "CSRF token missing")
				return
			}
			requestToken := c.PostForm(csrfFormField)
			if requestToken == "" {
				requestToken = c.GetHeader(csrfHeaderName)
			}
			if requestToken == "" {
				rejectCSRF(c, "CSRF token missing")
				return
			}
			if !validToken(cookieToken, secret) || !validToken(requestToken, secret) ||
				!tokensMatch(cookieToken, requestToken) {
				rejectCSRF(c, "CSRF token invalid")
				return
			}
			c.Set(csrfContextKey, cookieToken)
			c.Next()

		default:
			c.Next()
		}
	}
}

func rejectCSRF(c *gin.Context, reason string) {
	if pkg.IsHTMX(c) {
		pkg.SetToast(c, csrfExpiredMessage, pkg.ToastError)
		c.Header("HX-Reswap", "none")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": reason})
}

// GetCSRFToken returns the token stored by CSRF, or "".
func GetCSRFToken(c *gin.Context) string {
	token, _ := c.Get(csrfContextKey)
	s, _ := token.(string)
	return s
}

func generateToken(secret string) (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	nonceHex := hex.EncodeToString(nonce)
	return nonceHex + "." + signNonce(nonceHex, secret), nil
}

func signNonce(nonce, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// validToken checks the token format and its HMAC signature.
func validToken(token, secret string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" || sig == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sig), []byte(signNonce(nonce, secret))) == 1
}

func tokensMatch(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func setCSRFCookie(c *gin.Context, token string, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
