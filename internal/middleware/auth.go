package middleware

import (
	"context"
	"strings"

	domainUser "lab-checkout/internal/domain/user"

	"github.com/gin-gonic/gin"
)

const (
	ViewerKey    = "viewer"
	PrincipalKey = "principal"
	identityErr  = "identity_error"
)

type Authenticator interface {
	CurrentPrincipal(ctx context.Context, token string) (*domainUser.Principal, error)
}

type ViewerResolver interface {
	Resolve(ctx context.Context, p *domainUser.Principal) (*domainUser.Viewer, error)
}

// IdentityMiddleware resolves the caller from a bearer token or the session
// cookie. It never rejects a request: pages decide what a signed-out caller
// may see. A lookup failure is kept for CurrentViewer to report.
func IdentityMiddleware(auth Authenticator, resolver ViewerResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(cookieName)
		}
		if token == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		principal, err := auth.CurrentPrincipal(ctx, token)
		if err != nil {
			c.Set(identityErr, err)
			c.Next()
			return
		}
		if principal == nil {
			c.Next()
			return
		}
		c.Set(PrincipalKey, principal)

		viewer, err := resolver.Resolve(ctx, principal)
		if err != nil {
			c.Set(identityErr, err)
			c.Next()
			return
		}
		if viewer != nil {
			c.Set(ViewerKey, viewer)
		}

		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CurrentViewer returns the signed-in caller, nil when signed out, or the
// error that prevented resolving the caller.
func CurrentViewer(c *gin.Context) (*domainUser.Viewer, error) {
	if v, ok := c.Get(identityErr); ok {
		if err, ok := v.(error); ok {
			return nil, err
		}
	}
	if v, ok := c.Get(ViewerKey); ok {
		if viewer, ok := v.(*domainUser.Viewer); ok {
			return viewer, nil
		}
	}
	return nil, nil
}

// CurrentPrincipal returns the session behind the request, if any.
func CurrentPrincipal(c *gin.Context) *domainUser.Principal {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(*domainUser.Principal); ok {
			return p
		}
	}
	return nil
}
