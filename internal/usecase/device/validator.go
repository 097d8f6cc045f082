package device

import (
	"fmt"
	"time"

	domainDevice "lab-checkout/internal/domain/device"
	appErrors "lab-checkout/pkg/errors"
)

// MaxReservationEnd is the latest end a checkout made at now may request:
// 23:59 on the day maxDays+1 days ahead, in now's location.
func MaxReservationEnd(now time.Time, maxDays int) time.Time {
	d := now.AddDate(0, 0, maxDays+1)
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, now.Location())
}

func validateCheckoutEnd(end, now time.Time, maxDays int) error {
	if !end.After(now) {
		return appErrors.NewAppError(appErrors.CodeValidation, "Reservation end must be in the future", nil)
	}
	if limit := MaxReservationEnd(now, maxDays); end.After(limit) {
		return appErrors.NewAppError(appErrors.CodeValidation,
			fmt.Sprintf("Reservations may not end after %s", limit.Format("Jan 2, 2006 15:04")), nil)
	}
	return nil
}

func validateExtensionEnd(end, now time.Time) error {
	if !end.After(now) {
		return appErrors.NewAppError(appErrors.CodeValidation,
			"Reservation end must be in the future; check the computer in to end it now", nil)
	}
	return nil
}

func notAvailableError(assetTag string) error {
	return appErrors.Precondition(fmt.Sprintf("Computer %q is not available for checkout", assetTag))
}

func notInUseError(assetTag string, derived domainDevice.Status) error {
	return appErrors.Precondition(fmt.Sprintf("Computer %q is not in use (status %s)", assetTag, derived))
}

func notPendingError(assetTag string) error {
	return appErrors.Precondition(fmt.Sprintf(
		"Device %q is not listed as \"pending.\"  Please check in devices before attempting to make them available.",
		assetTag))
}
