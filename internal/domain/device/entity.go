package device

import "time"

// NewDeviceKeyword is the route id that asks for a blank device form
// instead of an existing asset tag.
const NewDeviceKeyword = "new"

// Device is a reservable lab computer keyed by its asset tag.
type Device struct {
	AssetTag     string
	Hostname     string
	SerialNumber string
	Manufacturer string
	Model        string
	CPU          string
	Memory       string
	Disks        []string
	GPUs         []string
	Notes        string

	// Status is the stored status. Decisions use DeriveStatus instead.
	Status           Status
	ReservationBegin *time.Time
	ReservationEnd   *time.Time
	ReservationUser  *string
	ReservationName  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status is a device lifecycle state. Only the storable subset is persisted;
// StatusPending exists only as a derived value.
type Status string

const (
	StatusAvailable Status = "available"
	StatusInUse     Status = "in_use"
	StatusPending   Status = "pending"
	StatusOffline   Status = "offline"
	StatusArchived  Status = "archived"
)

// StorableStatuses lists the values a device record may persist.
var StorableStatuses = []Status{StatusAvailable, StatusInUse, StatusOffline, StatusArchived}

func (s Status) IsStorable() bool {
	for _, v := range StorableStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsOccupant reports whether userID is the device's recorded reservation user.
func (d *Device) IsOccupant(userID string) bool {
	return userID != "" && d.ReservationUser != nil && *d.ReservationUser == userID
}

// Reservation is the set of fields written by a checkout.
type Reservation struct {
	Begin    time.Time
	End      time.Time
	UserID   string
	UserName string
}

// Login holds the sign-in credentials posted on a device. It shares the
// device's asset tag and is read under a narrower rule than the device.
type Login struct {
	AssetTag string
	Password string
	PIN      string
}

// History is an append-only snapshot of a finished reservation.
type History struct {
	ID               string
	AssetTag         string
	UserID           string
	ReservationBegin time.Time
	ReservationEnd   time.Time
	CreatedAt        time.Time
}
