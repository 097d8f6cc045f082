// Package events fans reservation changes out to listeners. Delivery is
// best-effort and never affects the outcome of the change itself.
package events

import (
	"context"
	"errors"
	"time"

	"lab-checkout/internal/logger"

	"go.uber.org/zap"
)

type Type string

const (
	ComputerCheckedOut    Type = "checked_out"
	ComputerCheckedIn     Type = "checked_in"
	ReservationExtended   Type = "reservation_extended"
	ComputerMadeAvailable Type = "made_available"
	ComputerCreated       Type = "computer_created"
	ComputerUpdated       Type = "computer_updated"
	UserUpdated           Type = "user_updated"
)

type Event struct {
	Type     Type      `json:"type"`
	AssetTag string    `json:"asset_tag,omitempty"`
	UserID   string    `json:"user_id,omitempty"`
	ActorID  string    `json:"actor_id"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi publishes to every publisher, joining their failures.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Emit publishes e and logs a failure instead of returning it.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("event_type", string(e.Type)),
			zap.String("asset_tag", e.AssetTag),
			zap.Error(err),
		)
	}
}
