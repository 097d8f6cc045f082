package memory

import (
	"context"
	"sort"
	"sync"

	"lab-checkout/internal/domain/device"
)

type LoginRepository struct {
	mu     sync.RWMutex
	logins map[string]device.Login
}

func NewLoginRepository() *LoginRepository {
	return &LoginRepository{logins: make(map[string]device.Login)}
}

func (r *LoginRepository) Upsert(_ context.Context, l *device.Login) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins[l.AssetTag] = *l
	return nil
}

func (r *LoginRepository) Get(_ context.Context, assetTag string) (*device.Login, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.logins[assetTag]
	if !ok {
		return nil, device.ErrLoginNotFound
	}
	return &l, nil
}

func (r *LoginRepository) List(_ context.Context) ([]*device.Login, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*device.Login, 0, len(r.logins))
	for _, l := range r.logins {
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetTag < out[j].AssetTag })
	return out, nil
}
