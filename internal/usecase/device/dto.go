package device

import (
	"time"

	domainDevice "lab-checkout/internal/domain/device"
	domainUser "lab-checkout/internal/domain/user"
)

// ComputerView is a device as rendered, with its derived status.
type ComputerView struct {
	AssetTag         string              `json:"asset_tag"`
	Hostname         string              `json:"hostname"`
	SerialNumber     string              `json:"serial_number"`
	Manufacturer     string              `json:"manufacturer"`
	Model            string              `json:"model"`
	CPU              string              `json:"cpu"`
	Memory           string              `json:"memory"`
	Disks            []string            `json:"disks"`
	GPUs             []string            `json:"gpus"`
	Notes            string              `json:"notes"`
	Status           domainDevice.Status `json:"status"`
	ReservationBegin *time.Time          `json:"reservation_begin,omitempty"`
	ReservationEnd   *time.Time          `json:"reservation_end,omitempty"`
}

// Actions lists what the viewer may do with a device right now.
type Actions struct {
	CanCheckOut      bool `json:"can_check_out"`
	CanCheckIn       bool `json:"can_check_in"`
	CanExtend        bool `json:"can_extend"`
	CanMakeAvailable bool `json:"can_make_available"`
	CanEdit          bool `json:"can_edit"`
}

type ComputerRow struct {
	AssetTag       string              `json:"asset_tag"`
	Hostname       string              `json:"hostname"`
	Manufacturer   string              `json:"manufacturer"`
	Model          string              `json:"model"`
	CPU            string              `json:"cpu"`
	Memory         string              `json:"memory"`
	Notes          string              `json:"notes"`
	Status         domainDevice.Status `json:"status"`
	ReservationEnd *time.Time          `json:"reservation_end,omitempty"`
	ReservedBy     string              `json:"reserved_by,omitempty"`
	Actions        Actions             `json:"actions"`
}

type BucketKey string

const (
	BucketAvailable BucketKey = "available"
	BucketMine      BucketKey = "mine"
	BucketOthers    BucketKey = "others"
	BucketPending   BucketKey = "pending"
	BucketOffline   BucketKey = "offline"
	BucketArchived  BucketKey = "archived"
)

type Bucket struct {
	Key       BucketKey      `json:"key"`
	Title     string         `json:"title"`
	Computers []*ComputerRow `json:"computers"`
}

type ComputerListResponse struct {
	Buckets   []*Bucket `json:"buckets"`
	CanCreate bool      `json:"can_create"`
}

// Bucket returns the bucket with key, or nil when the viewer does not get it.
func (r *ComputerListResponse) Bucket(key BucketKey) *Bucket {
	for _, b := range r.Buckets {
		if b.Key == key {
			return b
		}
	}
	return nil
}

type OccupantView struct {
	Heading string     `json:"heading"`
	UserID  string     `json:"user_id"`
	Name    string     `json:"name"`
	Begin   *time.Time `json:"begin,omitempty"`
	End     *time.Time `json:"end,omitempty"`
}

type LoginView struct {
	Password string `json:"password"`
	PIN      string `json:"pin"`
}

type HistoryRow struct {
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	Begin        time.Time `json:"reservation_begin"`
	End          time.Time `json:"reservation_end"`
	DurationDays float64   `json:"duration_days"`
}

type ComputerDetailResponse struct {
	Computer *ComputerView `json:"computer"`
	Occupant *OccupantView `json:"occupant,omitempty"`
	Login    *LoginView    `json:"login,omitempty"`
	History  []*HistoryRow `json:"history,omitempty"`
	Actions  Actions       `json:"actions"`
}

type CheckoutView struct {
	Computer *ComputerView `json:"computer"`
	MinEnd   time.Time     `json:"min_end"`
	MaxEnd   time.Time     `json:"max_end"`
	Terms    string        `json:"terms"`
}

type CheckoutRequest struct {
	ReservationEnd time.Time `json:"reservation_end" validate:"required"`
	AcceptTerms    bool      `json:"accept_terms" validate:"required"`
}

type ExtendView struct {
	Computer *ComputerView `json:"computer"`
	Occupant *OccupantView `json:"occupant"`
	MinEnd   time.Time     `json:"min_end"`
}

type ExtendRequest struct {
	ReservationEnd time.Time `json:"reservation_end" validate:"required"`
}

type MakeAvailableView struct {
	Computer *ComputerView `json:"computer"`
	Occupant *OccupantView `json:"occupant"`
	Login    *LoginView    `json:"login"`
}

// MakeAvailableRequest optionally rotates the posted credentials.
type MakeAvailableRequest struct {
	Password *string `json:"password" validate:"omitempty,max=255"`
	PIN      *string `json:"pin" validate:"omitempty,max=64"`
}

// ComputerForm carries every editable device field plus its credentials.
type ComputerForm struct {
	AssetTag         string     `json:"asset_tag" validate:"max=64"`
	Hostname         string     `json:"hostname" validate:"max=255"`
	SerialNumber     string     `json:"serial_number" validate:"max=255"`
	Manufacturer     string     `json:"manufacturer" validate:"max=255"`
	Model            string     `json:"model" validate:"max=255"`
	CPU              string     `json:"cpu" validate:"max=255"`
	Memory           string     `json:"memory" validate:"max=255"`
	Disks            []string   `json:"disks" validate:"dive,max=255"`
	GPUs             []string   `json:"gpus" validate:"dive,max=255"`
	Notes            string     `json:"notes" validate:"max=4000"`
	Status           string     `json:"status" validate:"required,oneof=available in_use offline archived"`
	ReservationBegin *time.Time `json:"reservation_begin"`
	ReservationEnd   *time.Time `json:"reservation_end"`
	ReservationUser  *string    `json:"reservation_user"`
	Password         string     `json:"password" validate:"max=255"`
	PIN              string     `json:"pin" validate:"max=64"`
}

type UserOption struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Role domainUser.Role `json:"role"`
}

type EditComputerView struct {
	IsNew    bool                  `json:"is_new"`
	Form     *ComputerForm         `json:"form"`
	Users    []*UserOption         `json:"users"`
	Statuses []domainDevice.Status `json:"statuses"`
}

func ToComputerView(d *domainDevice.Device, derived domainDevice.Status) *ComputerView {
	return &ComputerView{
		AssetTag:         d.AssetTag,
		Hostname:         d.Hostname,
		SerialNumber:     d.SerialNumber,
		Manufacturer:     d.Manufacturer,
		Model:            d.Model,
		CPU:              d.CPU,
		Memory:           d.Memory,
		Disks:            nonNil(d.Disks),
		GPUs:             nonNil(d.GPUs),
		Notes:            d.Notes,
		Status:           derived,
		ReservationBegin: d.ReservationBegin,
		ReservationEnd:   d.ReservationEnd,
	}
}

func toLoginView(l *domainDevice.Login) *LoginView {
	if l == nil {
		return &LoginView{}
	}
	return &LoginView{Password: l.Password, PIN: l.PIN}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
