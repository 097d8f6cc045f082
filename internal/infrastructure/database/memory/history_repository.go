package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lab-checkout/internal/domain/device"

	"github.com/google/uuid"
)

type HistoryRepository struct {
	mu      sync.RWMutex
	records []device.History
}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

func (r *HistoryRepository) Append(_ context.Context, h *device.History) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h.ID = uuid.NewString()
	h.CreatedAt = time.Now()
	r.records = append(r.records, *h)
	return nil
}

func (r *HistoryRepository) ListByAssetTag(_ context.Context, assetTag string) ([]*device.History, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*device.History
	for _, h := range r.records {
		if h.AssetTag == assetTag {
			h := h
			out = append(out, &h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReservationEnd.Before(out[j].ReservationEnd) })
	return out, nil
}

func (r *HistoryRepository) List(_ context.Context) ([]*device.History, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*device.History, 0, len(r.records))
	for _, h := range r.records {
		h := h
		out = append(out, &h)
	}
	return out, nil
}
