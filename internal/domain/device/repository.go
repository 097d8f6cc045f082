package device

import (
	"context"
	"time"
)

// Repository defines device record operations. Writes touch only the named
// fields; there are no transactions across calls.
type Repository interface {
	Create(ctx context.Context, device *Device) error
	GetByAssetTag(ctx context.Context, assetTag string) (*Device, error)
	List(ctx context.Context, filter *Filter) ([]*Device, error)
	Update(ctx context.Context, device *Device) error

	SetReservation(ctx context.Context, assetTag string, r Reservation) error
	SetReservationEnd(ctx context.Context, assetTag string, end time.Time) error
	ClearReservation(ctx context.Context, assetTag string) error
	SetReservationName(ctx context.Context, assetTag, name string) error
}

// Filter narrows List. Zero values mean no constraint.
type Filter struct {
	Statuses        []Status
	ReservationUser *string
}

// LoginRepository stores device credentials.
type LoginRepository interface {
	Upsert(ctx context.Context, login *Login) error
	Get(ctx context.Context, assetTag string) (*Login, error)
	List(ctx context.Context) ([]*Login, error)
}

// HistoryRepository is append-only.
type HistoryRepository interface {
	Append(ctx context.Context, h *History) error
	ListByAssetTag(ctx context.Context, assetTag string) ([]*History, error)
	List(ctx context.Context) ([]*History, error)
}
