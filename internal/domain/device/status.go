package device

import (
	"fmt"
	"time"
)

// DeriveStatus classifies a device at instant now. A zero now means the
// current wall-clock time.
//
// available, offline and archived pass through. in_use stays in_use while
// the reservation end is strictly after now, compared in whole seconds, and
// becomes pending once it is not. Any other stored value is an error.
func DeriveStatus(d *Device, now time.Time) (Status, error) {
	if now.IsZero() {
		now = time.Now()
	}

	switch d.Status {
	case StatusAvailable, StatusOffline, StatusArchived:
		return d.Status, nil
	case StatusInUse:
		if d.ReservationEnd == nil {
			return "", fmt.Errorf("%w: device %q", ErrIncompleteReservation, d.AssetTag)
		}
		if d.ReservationEnd.Unix() > now.Unix() {
			return StatusInUse, nil
		}
		return StatusPending, nil
	default:
		return "", fmt.Errorf("%w: device %q has status %q", ErrUnknownStatus, d.AssetTag, d.Status)
	}
}
