package middleware

import "github.com/gin-gonic/gin"

// SecurityHeadersMiddleware sets response headers for a JSON API that also
// serves credential-bearing pages. Nothing it returns should be cached.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		headers := c.Writer.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		headers.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		headers.Set("Cache-Control", "no-store")

		c.Next()
	}
}
