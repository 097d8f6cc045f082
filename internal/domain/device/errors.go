package device

import "errors"

var (
	ErrDeviceNotFound      = errors.New("device not found")
	ErrDeviceAlreadyExists = errors.New("device already exists")
	ErrLoginNotFound       = errors.New("device login not found")
	ErrInvalidStatus       = errors.New("invalid device status")

	// Corrupt stored state. These are never recovered from.
	ErrUnknownStatus         = errors.New("unknown device status")
	ErrIncompleteReservation = errors.New("in-use device has no reservation end")
)

// IsCorrupt reports whether err stems from a device record that cannot be
// classified.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrUnknownStatus) || errors.Is(err, ErrIncompleteReservation)
}
