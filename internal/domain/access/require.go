package access

import (
	"errors"
	"net/url"
	"strings"

	"lab-checkout/internal/domain/user"
)

const (
	LoginPath = "/login"
	// RedirectParam carries the page to return to after signing in.
	RedirectParam = "redirect"
)

// ErrNotSignedIn asks the caller to sign in and come back.
var ErrNotSignedIn = errors.New("sign in required")

// DeniedError is returned to a signed-in caller whose role is below the tier
// a page requires.
type DeniedError struct {
	Required Tier
}

func (e *DeniedError) Error() string {
	return "access denied: requires " + e.Required.String()
}

// Message is the wording shown to the caller.
func (e *DeniedError) Message() string {
	switch e.Required {
	case TierAdmin:
		return "Access to this page requires that you sign in as an administrator."
	case TierElevated:
		return "Access to this page requires that you sign in as a faculty member or administrator."
	case TierInternal:
		return "Access to this page is restricted to internal organization members."
	}
	return "You do not have access to this page."
}

// Require checks viewer against tier. A nil viewer is a signed-out caller.
func Require(viewer *user.Viewer, tier Tier) error {
	if tier == TierPublic {
		return nil
	}
	if viewer == nil {
		return ErrNotSignedIn
	}
	if !Satisfies(viewer.Role, tier) {
		return &DeniedError{Required: tier}
	}
	return nil
}

// IsDenied extracts a DeniedError from err's chain.
func IsDenied(err error) (*DeniedError, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied, true
	}
	return nil, false
}

// LoginRedirect returns the login location that brings the caller back to
// returnPath. Pages that are themselves part of signing in, and unsafe
// targets, produce a bare login location, so applying it repeatedly is
// stable.
func LoginRedirect(returnPath string) string {
	p := SafeReturnPath(returnPath)
	if p == "/" || isAuthPage(p) {
		return LoginPath
	}
	return LoginPath + "?" + RedirectParam + "=" + url.QueryEscape(p)
}

// SafeReturnPath accepts only same-site absolute paths and falls back to "/".
func SafeReturnPath(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return raw
}

func isAuthPage(p string) bool {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSuffix(p, "/")
	switch p {
	case LoginPath, "/register", "/password-reset":
		return true
	}
	return false
}
