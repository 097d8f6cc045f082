package access

import (
	"errors"
	"testing"
	"time"

	"lab-checkout/internal/domain/device"
	"lab-checkout/internal/domain/user"
)

func strPtr(s string) *string { return &s }

func ownedBy(uid string) *device.Device {
	end := time.Now().Add(time.Hour)
	return &device.Device{
		AssetTag:        "LAB-1",
		Status:          device.StatusInUse,
		ReservationEnd:  &end,
		ReservationUser: strPtr(uid),
		ReservationName: strPtr("Student"),
	}
}

var allStatuses = []device.Status{
	device.StatusAvailable, device.StatusInUse, device.StatusPending, device.StatusOffline, device.StatusArchived,
}

func TestRoleTiers(t *testing.T) {
	tests := []struct {
		role     user.Role
		internal bool
		elevated bool
		admin    bool
	}{
		{user.RoleAdmin, true, true, true},
		{user.RoleFaculty, true, true, false},
		{user.RoleStudent, true, false, false},
		{user.RoleExternal, false, false, false},
		{user.Role("visitor"), false, false, false},
	}

	for _, tt := range tests {
		if got := CanViewCheckoutArea(tt.role); got != tt.internal {
			t.Fatalf("CanViewCheckoutArea(%s): expected %v, got %v", tt.role, tt.internal, got)
		}
		for name, got := range map[string]bool{
			"CanSeeAllDeviceStates": CanSeeAllDeviceStates(tt.role),
			"CanManageUsers":        CanManageUsers(tt.role),
			"CanExtendReservation":  CanExtendReservation(tt.role),
			"CanViewHistory":        CanViewHistory(tt.role),
			"CanSeeLastUser":        CanSeeLastUser(tt.role),
		} {
			if got != tt.elevated {
				t.Fatalf("%s(%s): expected %v, got %v", name, tt.role, tt.elevated, got)
			}
		}
		for name, got := range map[string]bool{
			"CanAccessBackup":        CanAccessBackup(tt.role),
			"CanEditDevice":          CanEditDevice(tt.role),
			"CanSetLoginCredentials": CanSetLoginCredentials(tt.role),
			"CanChangeUserRole":      CanChangeUserRole(tt.role),
			"CanEditUsers":           CanEditUsers(tt.role),
			"CanMakeAvailable":       CanMakeAvailable(tt.role),
		} {
			if got != tt.admin {
				t.Fatalf("%s(%s): expected %v, got %v", name, tt.role, tt.admin, got)
			}
		}
	}
}

func TestAdminAlwaysSeesDeviceLogin(t *testing.T) {
	devices := []*device.Device{ownedBy("someone"), {AssetTag: "LAB-2", Status: device.StatusAvailable}}
	for _, d := range devices {
		for _, s := range allStatuses {
			for _, caller := range []string{"", "admin-1", "someone"} {
				if !CanViewDeviceLogin(user.RoleAdmin, caller, d, s) {
					t.Fatalf("expected admin to see login for %s in %s", d.AssetTag, s)
				}
			}
		}
	}
}

func TestExpiredOccupantLosesLogin(t *testing.T) {
	d := ownedBy("stu-1")
	if CanViewDeviceLogin(user.RoleStudent, "stu-1", d, device.StatusPending) {
		t.Fatalf("expected pending occupant to lose login visibility")
	}
	if !CanViewDeviceLogin(user.RoleStudent, "stu-1", d, device.StatusInUse) {
		t.Fatalf("expected active occupant to see login")
	}
	if CanViewDeviceLogin(user.RoleStudent, "stu-2", d, device.StatusInUse) {
		t.Fatalf("expected non-occupant student to be refused")
	}
	if CanViewDeviceLogin(user.RoleFaculty, "fac-1", d, device.StatusInUse) {
		t.Fatalf("expected non-occupant faculty to be refused")
	}
	if CanViewDeviceLogin(user.RoleExternal, "stu-1", d, device.StatusInUse) {
		t.Fatalf("expected external role to be refused even as recorded occupant")
	}
}

func TestCheckInRules(t *testing.T) {
	d := ownedBy("stu-1")
	if !CanCheckIn(user.RoleStudent, "stu-1", d, device.StatusInUse) {
		t.Fatalf("expected occupant to check in")
	}
	if CanCheckIn(user.RoleStudent, "stu-2", d, device.StatusInUse) {
		t.Fatalf("expected other student to be refused")
	}
	if !CanCheckIn(user.RoleFaculty, "fac-1", d, device.StatusInUse) {
		t.Fatalf("expected faculty to check in for others")
	}
	if CanCheckIn(user.RoleAdmin, "adm-1", d, device.StatusPending) {
		t.Fatalf("expected pending device to refuse check in")
	}
}

// Every predicate that holds for a lower role must hold for the roles above
// it, with the same caller and resource.
func TestPredicatesAreMonotonic(t *testing.T) {
	type contextual func(role user.Role, caller string, d *device.Device, s device.Status) bool
	lift := func(f func(user.Role) bool) contextual {
		return func(role user.Role, _ string, _ *device.Device, _ device.Status) bool { return f(role) }
	}

	predicates := map[string]contextual{
		"CanViewCheckoutArea":    lift(CanViewCheckoutArea),
		"CanSeeAllDeviceStates":  lift(CanSeeAllDeviceStates),
		"CanManageUsers":         lift(CanManageUsers),
		"CanEditUsers":           lift(CanEditUsers),
		"CanAccessBackup":        lift(CanAccessBackup),
		"CanEditDevice":          lift(CanEditDevice),
		"CanSetLoginCredentials": lift(CanSetLoginCredentials),
		"CanChangeUserRole":      lift(CanChangeUserRole),
		"CanExtendReservation":   lift(CanExtendReservation),
		"CanMakeAvailable":       lift(CanMakeAvailable),
		"CanViewHistory":         lift(CanViewHistory),
		"CanSeeLastUser":         lift(CanSeeLastUser),
		"CanViewDeviceLogin":     CanViewDeviceLogin,
		"CanCheckIn":             CanCheckIn,
		"CanCheckOut": func(role user.Role, _ string, _ *device.Device, s device.Status) bool {
			return CanCheckOut(role, s)
		},
	}

	devices := []*device.Device{ownedBy("u-1"), ownedBy("u-2"), {AssetTag: "LAB-3", Status: device.StatusAvailable}}
	lower := []user.Role{user.RoleExternal, user.RoleStudent}
	higher := map[user.Role][]user.Role{
		user.RoleExternal: {user.RoleStudent, user.RoleFaculty, user.RoleAdmin},
		user.RoleStudent:  {user.RoleFaculty, user.RoleAdmin},
	}

	for name, p := range predicates {
		for _, d := range devices {
			for _, s := range allStatuses {
				for _, low := range lower {
					if !p(low, "u-1", d, s) {
						continue
					}
					for _, high := range higher[low] {
						if !p(high, "u-1", d, s) {
							t.Fatalf("%s: true for %s but false for %s (device %s, %s)", name, low, high, d.AssetTag, s)
						}
					}
				}
			}
		}
	}
}

func TestRequire(t *testing.T) {
	student := &user.Viewer{ID: "s", Role: user.RoleStudent}
	external := &user.Viewer{ID: "e", Role: user.RoleExternal}

	if err := Require(nil, TierPublic); err != nil {
		t.Fatalf("expected public page to allow signed-out caller, got %v", err)
	}
	if err := Require(nil, TierInternal); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
	if err := Require(external, TierSignedIn); err != nil {
		t.Fatalf("expected external caller to reach account page, got %v", err)
	}

	err := Require(external, TierInternal)
	denied, ok := IsDenied(err)
	if !ok || denied.Required != TierInternal {
		t.Fatalf("expected internal-member denial, got %v", err)
	}
	if denied.Message() != "Access to this page is restricted to internal organization members." {
		t.Fatalf("unexpected message %q", denied.Message())
	}

	err = Require(student, TierElevated)
	if denied, ok := IsDenied(err); !ok || denied.Required != TierElevated {
		t.Fatalf("expected elevated denial, got %v", err)
	}
	err = Require(student, TierAdmin)
	if denied, ok := IsDenied(err); !ok || denied.Message() == (&DeniedError{Required: TierElevated}).Message() {
		t.Fatalf("expected admin denial wording to differ from elevated, got %v", err)
	}
}

func TestLoginRedirect(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/computers", "/login?redirect=%2Fcomputers"},
		{"/computers/details/LAB-1?x=1", "/login?redirect=%2Fcomputers%2Fdetails%2FLAB-1%3Fx%3D1"},
		{"/", "/login"},
		{"", "/login"},
		{"/login", "/login"},
		{"/login?redirect=%2Fusers", "/login"},
		{"/register", "/login"},
		{"//evil.test/x", "/login"},
		{"https://evil.test/", "/login"},
	}
	for _, tt := range tests {
		if got := LoginRedirect(tt.in); got != tt.want {
			t.Fatalf("LoginRedirect(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}

	// Redirecting from the login location itself must not nest.
	first := LoginRedirect("/users")
	if again := LoginRedirect(first); again != LoginPath {
		t.Fatalf("expected repeated redirect to settle on %q, got %q", LoginPath, again)
	}
}

func TestSafeReturnPath(t *testing.T) {
	for raw, want := range map[string]string{
		"/computers":        "/computers",
		"computers":         "/",
		"//evil.test":       "/",
		`/\evil.test`:       "/",
		"http://evil.test/": "/",
	} {
		if got := SafeReturnPath(raw); got != want {
			t.Fatalf("SafeReturnPath(%q): expected %q, got %q", raw, want, got)
		}
	}
}

func TestNavFor(t *testing.T) {
	paths := func(routes []Route) map[string]bool {
		m := map[string]bool{}
		for _, r := range routes {
			m[r.Path] = true
		}
		return m
	}

	anon := paths(NavFor(nil))
	if !anon["/login"] || !anon["/register"] || anon["/computers"] || anon["/account"] {
		t.Fatalf("unexpected signed-out nav %v", anon)
	}

	student := paths(NavFor(&user.Viewer{Role: user.RoleStudent}))
	if !student["/computers"] || student["/users"] || student["/login"] {
		t.Fatalf("unexpected student nav %v", student)
	}

	admin := paths(NavFor(&user.Viewer{Role: user.RoleAdmin}))
	if !admin["/backup"] || !admin["/users"] || !admin["/account"] {
		t.Fatalf("unexpected admin nav %v", admin)
	}

	if tier, ok := RouteTier("/computers/extend/:id"); !ok || tier != TierElevated {
		t.Fatalf("expected extend route to need elevated, got %s", tier)
	}
}
