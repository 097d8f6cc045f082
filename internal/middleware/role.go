package middleware

import (
	"lab-checkout/internal/domain/access"

	"github.com/gin-gonic/gin"
)

// ErrorResponder renders an error into the response.
type ErrorResponder func(c *gin.Context, err error)

// RequireTier guards routes that have no page controller of their own to
// check access, such as the event stream.
func RequireTier(tier access.Tier, respond ErrorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, err := CurrentViewer(c)
		if err == nil {
			err = access.Require(viewer, tier)
		}
		if err != nil {
			respond(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func AdminOnly(respond ErrorResponder) gin.HandlerFunc {
	return RequireTier(access.TierAdmin, respond)
}

func InternalOnly(respond ErrorResponder) gin.HandlerFunc {
	return RequireTier(access.TierInternal, respond)
}
