package pkg

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Toast types understood by the page script.
const (
	ToastSuccess = "success"
	ToastError   = "error"
	ToastInfo    = "info"
)

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// SetToast sets the HX-Trigger response header with a showToast event.
func SetToast(c *gin.Context, message, toastType string) {
	trigger, _ := json.Marshal(map[string]any{
		"showToast": map[string]string{
			"message": message,
			"type":    toastType,
		},
	})
	c.Header("HX-Trigger", string(trigger))
}

// ToastOnly answers an htmx request with a toast and no swap.
func ToastOnly(c *gin.Context, message, toastType string) {
	c.Header("HX-Reswap", "none")
	SetToast(c, message, toastType)
	c.Status(http.StatusOK)
}

// HXRedirect sends the browser to path. Plain requests get a 303.
func HXRedirect(c *gin.Context, path string) {
	if IsHTMX(c) {
		c.Header("HX-Redirect", path)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, path)
}
