package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lab-checkout/internal/domain/device"
)

type DeviceRepository struct {
	mu      sync.RWMutex
	devices map[string]*device.Device
}

func NewDeviceRepository() *DeviceRepository {
	return &DeviceRepository{devices: make(map[string]*device.Device)}
}

func cloneDevice(d *device.Device) *device.Device {
	c := *d
	c.Disks = append([]string(nil), d.Disks...)
	c.GPUs = append([]string(nil), d.GPUs...)
	if d.ReservationBegin != nil {
		t := *d.ReservationBegin
		c.ReservationBegin = &t
	}
	if d.ReservationEnd != nil {
		t := *d.ReservationEnd
		c.ReservationEnd = &t
	}
	c.ReservationUser = cloneString(d.ReservationUser)
	c.ReservationName = cloneString(d.ReservationName)
	return &c
}

func (r *DeviceRepository) Create(_ context.Context, d *device.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[d.AssetTag]; ok {
		return device.ErrDeviceAlreadyExists
	}
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	r.devices[d.AssetTag] = cloneDevice(d)
	return nil
}

func (r *DeviceRepository) GetByAssetTag(_ context.Context, assetTag string) (*device.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[assetTag]
	if !ok {
		return nil, device.ErrDeviceNotFound
	}
	return cloneDevice(d), nil
}

func (r *DeviceRepository) List(_ context.Context, filter *device.Filter) ([]*device.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*device.Device, 0, len(r.devices))
	for _, d := range r.devices {
		if filter != nil && !matches(d, filter) {
			continue
		}
		out = append(out, cloneDevice(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetTag < out[j].AssetTag })
	return out, nil
}

func matches(d *device.Device, f *device.Filter) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if d.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ReservationUser != nil && (d.ReservationUser == nil || *d.ReservationUser != *f.ReservationUser) {
		return false
	}
	return true
}

func (r *DeviceRepository) Update(_ context.Context, d *device.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.devices[d.AssetTag]
	if !ok {
		return device.ErrDeviceNotFound
	}
	c := cloneDevice(d)
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now()
	r.devices[d.AssetTag] = c
	return nil
}

func (r *DeviceRepository) mutate(assetTag string, fn func(d *device.Device)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[assetTag]
	if !ok {
		return device.ErrDeviceNotFound
	}
	fn(d)
	d.UpdatedAt = time.Now()
	return nil
}

func (r *DeviceRepository) SetReservation(_ context.Context, assetTag string, res device.Reservation) error {
	return r.mutate(assetTag, func(d *device.Device) {
		begin, end := res.Begin, res.End
		uid, name := res.UserID, res.UserName
		d.ReservationBegin = &begin
		d.ReservationEnd = &end
		d.ReservationUser = &uid
		d.ReservationName = &name
		d.Status = device.StatusInUse
	})
}

func (r *DeviceRepository) SetReservationEnd(_ context.Context, assetTag string, end time.Time) error {
	return r.mutate(assetTag, func(d *device.Device) {
		d.ReservationEnd = &end
	})
}

func (r *DeviceRepository) ClearReservation(_ context.Context, assetTag string) error {
	return r.mutate(assetTag, func(d *device.Device) {
		d.ReservationBegin = nil
		d.ReservationEnd = nil
		d.ReservationUser = nil
		d.ReservationName = nil
		d.Status = device.StatusAvailable
	})
}

func (r *DeviceRepository) SetReservationName(_ context.Context, assetTag, name string) error {
	return r.mutate(assetTag, func(d *device.Device) {
		d.ReservationName = &name
	})
}
