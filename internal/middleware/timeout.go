package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/hotelweb/internal/pkg"
)

const timeoutMessage = "The request took too long. Please try again."

// Timeout puts a deadline of d on the request context. Backend calls made
// with that context give up when it passes. A handler that wrote nothing by
// then gets a 504.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if c.Writer.Written() || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		if pkg.IsHTMX(c) {
			c.Header("HX-Reswap", "none")
			pkg.SetToast(c, timeoutMessage, pkg.ToastError)
			c.Status(http.StatusGatewayTimeout)
			return
		}
		c.JSON(http.StatusGatewayTimeout, pkg.Response{
			Code:    http.StatusGatewayTimeout,
			Message: "request timeout",
		})
	}
}
