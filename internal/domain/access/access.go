// Package access is the authorization matrix: pure predicates deciding what
// a role may see or do, and the tier each page requires.
package access

import (
	"lab-checkout/internal/domain/device"
	"lab-checkout/internal/domain/user"
)

// Tier is an ordered capability level. A role at a tier holds every lower
// tier as well.
type Tier int

const (
	TierPublic Tier = iota
	TierSignedIn
	TierInternal
	TierElevated
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierPublic:
		return "public"
	case TierSignedIn:
		return "signed_in"
	case TierInternal:
		return "internal_member"
	case TierElevated:
		return "elevated"
	case TierAdmin:
		return "admin"
	}
	return "unknown"
}

// TierOf maps a role onto its tier. Unknown roles get no more than a signed-in caller.
func TierOf(role user.Role) Tier {
	switch role {
	case user.RoleAdmin:
		return TierAdmin
	case user.RoleFaculty:
		return TierElevated
	case user.RoleStudent:
		return TierInternal
	}
	return TierSignedIn
}

func Satisfies(role user.Role, tier Tier) bool {
	return TierOf(role) >= tier
}

// IsInternalMember is true for admin, faculty and student.
func IsInternalMember(role user.Role) bool { return Satisfies(role, TierInternal) }

// IsElevated is true for admin and faculty.
func IsElevated(role user.Role) bool { return Satisfies(role, TierElevated) }

func IsAdmin(role user.Role) bool { return Satisfies(role, TierAdmin) }

func CanViewCheckoutArea(role user.Role) bool { return IsInternalMember(role) }

// CanSeeAllDeviceStates allows pending, offline and archived devices to be
// listed. Everyone else sees available and in-use devices only.
func CanSeeAllDeviceStates(role user.Role) bool { return IsElevated(role) }

// CanManageUsers allows viewing the user list. Editing needs CanEditUsers.
func CanManageUsers(role user.Role) bool { return IsElevated(role) }

func CanEditUsers(role user.Role) bool { return IsAdmin(role) }

func CanAccessBackup(role user.Role) bool { return IsAdmin(role) }

func CanEditDevice(role user.Role) bool { return IsAdmin(role) }

func CanSetLoginCredentials(role user.Role) bool { return IsAdmin(role) }

func CanChangeUserRole(role user.Role) bool { return IsAdmin(role) }

func CanExtendReservation(role user.Role) bool { return IsElevated(role) }

func CanMakeAvailable(role user.Role) bool { return IsAdmin(role) }

func CanViewHistory(role user.Role) bool { return IsElevated(role) }

// CanSeeLastUser governs the occupant annotation on pending devices, in the
// list and on the detail page alike.
func CanSeeLastUser(role user.Role) bool { return IsElevated(role) }

// CanViewDeviceLogin allows admins always, and otherwise only the occupant of
// a reservation that is still running.
func CanViewDeviceLogin(role user.Role, callerID string, d *device.Device, derived device.Status) bool {
	if IsAdmin(role) {
		return true
	}
	return IsInternalMember(role) && derived == device.StatusInUse && d.IsOccupant(callerID)
}

// CanCheckIn allows ending a running reservation by its occupant or by an
// elevated role.
func CanCheckIn(role user.Role, callerID string, d *device.Device, derived device.Status) bool {
	if !IsInternalMember(role) || derived != device.StatusInUse {
		return false
	}
	return IsElevated(role) || d.IsOccupant(callerID)
}

// CanCheckOut allows any internal member to reserve an available device.
func CanCheckOut(role user.Role, derived device.Status) bool {
	return IsInternalMember(role) && derived == device.StatusAvailable
}
