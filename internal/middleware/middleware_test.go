package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lab-checkout/internal/domain/access"
	domainUser "lab-checkout/internal/domain/user"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	principals map[string]*domainUser.Principal
	err        error
}

func (f *fakeAuth) CurrentPrincipal(_ context.Context, token string) (*domainUser.Principal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.principals[token], nil
}

type fakeResolver struct {
	viewers map[string]*domainUser.Viewer
}

func (f *fakeResolver) Resolve(_ context.Context, p *domainUser.Principal) (*domainUser.Viewer, error) {
	return f.viewers[p.UserID], nil
}

func newIdentityRouter(auth Authenticator) *gin.Engine {
	resolver := &fakeResolver{viewers: map[string]*domainUser.Viewer{
		"u-1": {ID: "u-1", Name: "Ada", Role: domainUser.RoleStudent},
	}}

	r := gin.New()
	r.Use(RequestIDMiddleware(), IdentityMiddleware(auth, resolver, "lab_session"))
	r.GET("/whoami", func(c *gin.Context) {
		viewer, err := CurrentViewer(c)
		switch {
		case err != nil:
			c.String(http.StatusServiceUnavailable, err.Error())
		case viewer == nil:
			c.String(http.StatusOK, "anonymous")
		default:
			c.String(http.StatusOK, viewer.ID)
		}
	})
	return r
}

func TestIdentityMiddleware(t *testing.T) {
	auth := &fakeAuth{principals: map[string]*domainUser.Principal{
		"good": {UserID: "u-1", SessionID: "s-1"},
	}}
	r := newIdentityRouter(auth)

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"no credentials", "", "", "anonymous"},
		{"bearer token", "Bearer good", "", "u-1"},
		{"cookie", "", "good", "u-1"},
		{"unknown token", "Bearer bad", "", "anonymous"},
		{"malformed header", "Token good", "", "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "lab_session", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Body.String() != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, w.Body.String())
			}
		})
	}
}

func TestIdentityMiddlewareKeepsLookupError(t *testing.T) {
	r := newIdentityRouter(&fakeAuth{err: errors.New("session store unavailable")})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestRequireTier(t *testing.T) {
	var seen error
	respond := func(c *gin.Context, err error) {
		seen = err
		c.Status(http.StatusForbidden)
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Role"); role != "" {
			c.Set(ViewerKey, &domainUser.Viewer{ID: "v", Role: domainUser.Role(role)})
		}
	})
	r.GET("/events", InternalOnly(respond), func(c *gin.Context) { c.Status(http.StatusOK) })

	for role, want := range map[string]int{"student": http.StatusOK, "external": http.StatusForbidden, "": http.StatusForbidden} {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		if role != "" {
			req.Header.Set("X-Role", role)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("role %q: expected %d, got %d", role, want, w.Code)
		}
		if role == "" && !errors.Is(seen, access.ErrNotSignedIn) {
			t.Fatalf("expected ErrNotSignedIn for anonymous caller, got %v", seen)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter("auth", 0.001, 2)
	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatalf("expected burst to be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatalf("expected third request to be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatalf("expected another client to have its own bucket")
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" {
		t.Fatalf("expected client request id to be kept, got %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id\n"+strings.Repeat("x", 100))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Body.String(); got == "" || strings.Contains(got, "bad") {
		t.Fatalf("expected a generated request id, got %q", got)
	}
}
