package device

import (
	"context"
	"fmt"
	"math"
	"time"

	"lab-checkout/internal/domain/access"
	domainDevice "lab-checkout/internal/domain/device"
	domainUser "lab-checkout/internal/domain/user"
	"lab-checkout/internal/events"
	"lab-checkout/pkg/utils"
)

const notesPreviewLength = 25

// Service serves the computer pages. Every operation checks the viewer
// against the authorization matrix before reading any record.
type Service struct {
	deviceRepo  domainDevice.Repository
	loginRepo   domainDevice.LoginRepository
	historyRepo domainDevice.HistoryRepository
	userRepo    domainUser.Repository
	publisher   events.Publisher

	maxReserveDays int
	terms          string
	now            func() time.Time
}

// NewService creates a new device service
func NewService(
	deviceRepo domainDevice.Repository,
	loginRepo domainDevice.LoginRepository,
	historyRepo domainDevice.HistoryRepository,
	userRepo domainUser.Repository,
	publisher events.Publisher,
	maxReserveDays int,
	terms string,
) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		deviceRepo:     deviceRepo,
		loginRepo:      loginRepo,
		historyRepo:    historyRepo,
		userRepo:       userRepo,
		publisher:      publisher,
		maxReserveDays: maxReserveDays,
		terms:          terms,
		now:            time.Now,
	}
}

// load fetches a device and classifies it at now.
func (s *Service) load(ctx context.Context, assetTag string, now time.Time) (*domainDevice.Device, domainDevice.Status, error) {
	d, err := s.deviceRepo.GetByAssetTag(ctx, assetTag)
	if err != nil {
		return nil, "", err
	}
	derived, err := domainDevice.DeriveStatus(d, now)
	if err != nil {
		return nil, "", err
	}
	return d, derived, nil
}

func actionsFor(viewer *domainUser.Viewer, d *domainDevice.Device, derived domainDevice.Status) Actions {
	return Actions{
		CanCheckOut:      access.CanCheckOut(viewer.Role, derived),
		CanCheckIn:       access.CanCheckIn(viewer.Role, viewer.ID, d, derived),
		CanExtend:        access.CanExtendReservation(viewer.Role) && derived == domainDevice.StatusInUse,
		CanMakeAvailable: access.CanMakeAvailable(viewer.Role) && derived == domainDevice.StatusPending,
		CanEdit:          access.CanEditDevice(viewer.Role),
	}
}

// ListComputers partitions the devices the viewer may see into buckets by
// derived status and occupant.
func (s *Service) ListComputers(ctx context.Context, viewer *domainUser.Viewer) (*ComputerListResponse, error) {
	if err := access.Require(viewer, access.TierInternal); err != nil {
		return nil, err
	}

	// Every record is derived, so corrupt state fails the page for any role.
	// Bucket visibility decides what a viewer sees.
	seeAll := access.CanSeeAllDeviceStates(viewer.Role)
	devices, err := s.deviceRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	resp := &ComputerListResponse{CanCreate: access.CanEditDevice(viewer.Role)}
	buckets := map[BucketKey]*Bucket{}
	add := func(key BucketKey, title string) {
		b := &Bucket{Key: key, Title: title, Computers: []*ComputerRow{}}
		buckets[key] = b
		resp.Buckets = append(resp.Buckets, b)
	}
	add(BucketAvailable, "Available")
	add(BucketMine, "Your Computers")
	add(BucketOthers, "Other In-Use Computers")
	if seeAll {
		add(BucketPending, "Computers Under Maintenance")
		add(BucketOffline, "Offline")
		add(BucketArchived, "Retired")
	}

	showLastUser := access.CanSeeLastUser(viewer.Role)
	now := s.now()
	for _, d := range devices {
		derived, err := domainDevice.DeriveStatus(d, now)
		if err != nil {
			return nil, err
		}

		row := &ComputerRow{
			AssetTag:     d.AssetTag,
			Hostname:     d.Hostname,
			Manufacturer: d.Manufacturer,
			Model:        d.Model,
			CPU:          d.CPU,
			Memory:       d.Memory,
			Notes:        utils.Truncate(d.Notes, notesPreviewLength),
			Status:       derived,
			Actions:      actionsFor(viewer, d, derived),
		}

		var key BucketKey
		switch derived {
		case domainDevice.StatusAvailable:
			key = BucketAvailable
		case domainDevice.StatusInUse:
			key = BucketOthers
			if d.IsOccupant(viewer.ID) {
				key = BucketMine
			}
			row.ReservationEnd = d.ReservationEnd
			row.ReservedBy = deref(d.ReservationName)
		case domainDevice.StatusPending:
			key = BucketPending
			row.ReservationEnd = d.ReservationEnd
			if showLastUser {
				row.ReservedBy = deref(d.ReservationName)
			}
		case domainDevice.StatusOffline:
			key = BucketOffline
		case domainDevice.StatusArchived:
			key = BucketArchived
		}

		if b, ok := buckets[key]; ok {
			b.Computers = append(b.Computers, row)
		}
	}

	return resp, nil
}

// GetDetails renders one device. Credentials, history and the occupant block
// are included only where the matrix allows.
func (s *Service) GetDetails(ctx context.Context, viewer *domainUser.Viewer, assetTag string) (*ComputerDetailResponse, error) {
	if err := access.Require(viewer, access.TierInternal); err != nil {
		return nil, err
	}

	d, derived, err := s.load(ctx, assetTag, s.now())
	if err != nil {
		return nil, err
	}

	resp := &ComputerDetailResponse{
		Computer: ToComputerView(d, derived),
		Actions:  actionsFor(viewer, d, derived),
	}

	switch {
	case derived == domainDevice.StatusInUse:
		resp.Occupant = occupantOf(d, "Current User")
	case derived == domainDevice.StatusPending && access.CanSeeLastUser(viewer.Role):
		resp.Occupant = occupantOf(d, "Last User")
	}

	if access.CanViewDeviceLogin(viewer.Role, viewer.ID, d, derived) {
		login, err := s.loginRepo.Get(ctx, d.AssetTag)
		if err != nil && !isLoginMissing(err) {
			return nil, fmt.Errorf("failed to get device login: %w", err)
		}
		resp.Login = toLoginView(login)
	}

	if access.CanViewHistory(viewer.Role) {
		history, err := s.historyRows(ctx, d.AssetTag)
		if err != nil {
			return nil, err
		}
		resp.History = history
	}

	return resp, nil
}

func occupantOf(d *domainDevice.Device, heading string) *OccupantView {
	if d.ReservationUser == nil {
		return nil
	}
	return &OccupantView{
		Heading: heading,
		UserID:  *d.ReservationUser,
		Name:    deref(d.ReservationName),
		Begin:   d.ReservationBegin,
		End:     d.ReservationEnd,
	}
}

func (s *Service) historyRows(ctx context.Context, assetTag string) ([]*HistoryRow, error) {
	records, err := s.historyRepo.ListByAssetTag(ctx, assetTag)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation history: %w", err)
	}
	rows := []*HistoryRow{}
	if len(records) == 0 {
		return rows, nil
	}

	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	for _, h := range records {
		name, ok := names[h.UserID]
		if !ok {
			name = "Unknown user"
		}
		rows = append(rows, &HistoryRow{
			UserID:       h.UserID,
			UserName:     name,
			Begin:        h.ReservationBegin,
			End:          h.ReservationEnd,
			DurationDays: durationDays(h.ReservationBegin, h.ReservationEnd),
		})
	}
	return rows, nil
}

func durationDays(begin, end time.Time) float64 {
	days := end.Sub(begin).Hours() / 24
	return math.Round(days*1000) / 1000
}
