// Package backup exports each collection as a JSON document keyed by record id.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lab-checkout/internal/domain/access"
	"lab-checkout/internal/domain/device"
	"lab-checkout/internal/domain/user"
	"lab-checkout/internal/logger"

	"go.uber.org/zap"
)

const (
	CollectionComputers          = "computers"
	CollectionLogins             = "logins"
	CollectionReservationHistory = "reservation_history"
	CollectionUsers              = "users"
)

var ErrUnknownCollection = errors.New("unknown backup collection")

// Collection describes one downloadable export.
type Collection struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Group    string `json:"group"`
}

var collections = []Collection{
	{Name: CollectionComputers, Title: "Computer list", Group: "Device Data"},
	{Name: CollectionLogins, Title: "Device login information", Group: "Device Data"},
	{Name: CollectionReservationHistory, Title: "Reservation history", Group: "Device Data"},
	{Name: CollectionUsers, Title: "List of users", Group: "User Data"},
}

type computerRecord struct {
	CPU               string     `json:"cpu"`
	Disks             []string   `json:"disks"`
	GPUs              []string   `json:"gpus"`
	Hostname          string     `json:"hostname"`
	Manufacturer      string     `json:"manufacturer"`
	Memory            string     `json:"memory"`
	Model             string     `json:"model"`
	Notes             string     `json:"notes"`
	ReservationBegin  *time.Time `json:"reservation_begin"`
	ReservationEnd    *time.Time `json:"reservation_end"`
	ReservationName   *string    `json:"reservation_name"`
	ReservationStatus string     `json:"reservation_status"`
	ReservationUser   *string    `json:"reservation_user"`
	SerialNumber      string     `json:"serial_number"`
}

type loginRecord struct {
	Password string `json:"password"`
	PIN      string `json:"pin"`
}

type historyRecord struct {
	AssetTag         string    `json:"asset_tag"`
	ReservationBegin time.Time `json:"reservation_begin"`
	ReservationEnd   time.Time `json:"reservation_end"`
	User             string    `json:"user"`
}

type userRecord struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
}

type Service struct {
	deviceRepo  device.Repository
	loginRepo   device.LoginRepository
	historyRepo device.HistoryRepository
	userRepo    user.Repository
}

func NewService(
	deviceRepo device.Repository,
	loginRepo device.LoginRepository,
	historyRepo device.HistoryRepository,
	userRepo user.Repository,
) *Service {
	return &Service{
		deviceRepo:  deviceRepo,
		loginRepo:   loginRepo,
		historyRepo: historyRepo,
		userRepo:    userRepo,
	}
}

// Collections lists the exports offered on the backup page.
func (s *Service) Collections(_ context.Context, viewer *user.Viewer) ([]Collection, error) {
	if err := access.Require(viewer, access.TierAdmin); err != nil {
		return nil, err
	}
	out := make([]Collection, len(collections))
	for i, c := range collections {
		c.Filename = c.Name + ".json"
		out[i] = c
	}
	return out, nil
}

// Export renders one collection for an administrator.
func (s *Service) Export(ctx context.Context, viewer *user.Viewer, collection string) ([]byte, error) {
	if err := access.Require(viewer, access.TierAdmin); err != nil {
		return nil, err
	}
	data, err := s.Dump(ctx, collection)
	if err != nil {
		return nil, err
	}
	logger.Info("Collection exported",
		zap.String("collection", collection),
		zap.String("user_id", viewer.ID),
		zap.Int("bytes", len(data)),
		zap.String("event", "backup_exported"),
	)
	return data, nil
}

// Dump renders a collection without an access check. It serves the offline
// backup command, which runs with direct store credentials.
func (s *Service) Dump(ctx context.Context, collection string) ([]byte, error) {
	var (
		doc any
		err error
	)
	switch collection {
	case CollectionComputers:
		doc, err = s.computers(ctx)
	case CollectionLogins:
		doc, err = s.logins(ctx)
	case CollectionReservationHistory:
		doc, err = s.history(ctx)
	case CollectionUsers:
		doc, err = s.users(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", collection, err)
	}
	return data, nil
}

// Names returns every collection name in page order.
func Names() []string {
	names := make([]string, len(collections))
	for i, c := range collections {
		names[i] = c.Name
	}
	return names
}

func (s *Service) computers(ctx context.Context) (map[string]computerRecord, error) {
	devices, err := s.deviceRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	out := make(map[string]computerRecord, len(devices))
	for _, d := range devices {
		out[d.AssetTag] = computerRecord{
			CPU:               d.CPU,
			Disks:             nonNil(d.Disks),
			GPUs:              nonNil(d.GPUs),
			Hostname:          d.Hostname,
			Manufacturer:      d.Manufacturer,
			Memory:            d.Memory,
			Model:             d.Model,
			Notes:             d.Notes,
			ReservationBegin:  d.ReservationBegin,
			ReservationEnd:    d.ReservationEnd,
			ReservationName:   d.ReservationName,
			ReservationStatus: string(d.Status),
			ReservationUser:   d.ReservationUser,
			SerialNumber:      d.SerialNumber,
		}
	}
	return out, nil
}

func (s *Service) logins(ctx context.Context) (map[string]loginRecord, error) {
	logins, err := s.loginRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list device logins: %w", err)
	}
	out := make(map[string]loginRecord, len(logins))
	for _, l := range logins {
		out[l.AssetTag] = loginRecord{Password: l.Password, PIN: l.PIN}
	}
	return out, nil
}

func (s *Service) history(ctx context.Context) (map[string]historyRecord, error) {
	records, err := s.historyRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservation history: %w", err)
	}
	out := make(map[string]historyRecord, len(records))
	for _, h := range records {
		out[h.ID] = historyRecord{
			AssetTag:         h.AssetTag,
			ReservationBegin: h.ReservationBegin,
			ReservationEnd:   h.ReservationEnd,
			User:             h.UserID,
		}
	}
	return out, nil
}

func (s *Service) users(ctx context.Context) (map[string]userRecord, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make(map[string]userRecord, len(users))
	for _, u := range users {
		out[u.ID] = userRecord{Name: u.Name, Email: u.Email, Role: u.Role}
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
