package access

import "lab-checkout/internal/domain/user"

// Route is a page and the tier needed to open it.
type Route struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	Tier  Tier   `json:"-"`
	// Nav marks pages linked from the navigation bar.
	Nav bool `json:"-"`
	// SignedOutOnly hides the link once a caller has signed in.
	SignedOutOnly bool `json:"-"`
}

var Routes = []Route{
	{Path: "/", Title: "Home", Tier: TierPublic},
	{Path: "/login", Title: "Sign In", Tier: TierPublic, Nav: true, SignedOutOnly: true},
	{Path: "/register", Title: "Register", Tier: TierPublic, Nav: true, SignedOutOnly: true},
	{Path: "/password-reset", Title: "Reset Password", Tier: TierPublic, SignedOutOnly: true},
	{Path: "/account", Title: "Account", Tier: TierSignedIn, Nav: true},
	{Path: "/computers", Title: "Computers", Tier: TierInternal, Nav: true},
	{Path: "/computers/details/:id", Title: "Computer Details", Tier: TierInternal},
	{Path: "/computers/checkout/:id", Title: "Check Out", Tier: TierInternal},
	{Path: "/computers/checkin/:id", Title: "Check In", Tier: TierInternal},
	{Path: "/computers/extend/:id", Title: "Extend Reservation", Tier: TierElevated},
	{Path: "/computers/reactivate/:id", Title: "Make Available", Tier: TierAdmin},
	{Path: "/computers/edit/:id", Title: "Edit Computer", Tier: TierAdmin},
	{Path: "/users", Title: "Users", Tier: TierElevated, Nav: true},
	{Path: "/users/edit/:id", Title: "Edit User", Tier: TierAdmin},
	{Path: "/backup", Title: "Backup", Tier: TierAdmin, Nav: true},
}

// RouteTier returns the tier registered for path, and false when the path is
// not a known page.
func RouteTier(path string) (Tier, bool) {
	for _, r := range Routes {
		if r.Path == path {
			return r.Tier, true
		}
	}
	return TierPublic, false
}

// NavFor lists the navigation entries viewer may open.
func NavFor(viewer *user.Viewer) []Route {
	var out []Route
	for _, r := range Routes {
		if !r.Nav {
			continue
		}
		if r.SignedOutOnly && viewer != nil {
			continue
		}
		if Require(viewer, r.Tier) != nil {
			continue
		}
		out = append(out, r)
	}
	return out
}
