package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS reflects the request origin when allowedOrigin is empty; otherwise only
// allowedOrigin is accepted. Credentials are allowed only for a pinned origin.
func CORS(allowedOrigin, initDataHeader string) gin.HandlerFunc {
	allowHeaders := "Content-Type, Authorization, " + requestIDHeader
	if initDataHeader != "" {
		allowHeaders += ", " + initDataHeader
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowedOrigin == "" || origin == allowedOrigin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			if allowedOrigin != "" {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
