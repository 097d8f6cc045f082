package device

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lab-checkout/internal/domain/access"
	domainDevice "lab-checkout/internal/domain/device"
	domainUser "lab-checkout/internal/domain/user"
	"lab-checkout/internal/events"
	"lab-checkout/internal/logger"
	appErrors "lab-checkout/pkg/errors"
	"lab-checkout/pkg/utils"

	"go.uber.org/zap"
)

// GetForEdit loads the device edit form. The id NewDeviceKeyword yields a
// blank template for a new device.
func (s *Service) GetForEdit(ctx context.Context, viewer *domainUser.Viewer, id string) (*EditComputerView, error) {
	if err := access.Require(viewer, access.TierAdmin); err != nil {
		return nil, err
	}

	users, err := s.userOptions(ctx)
	if err != nil {
		return nil, err
	}
	view := &EditComputerView{Users: users, Statuses: domainDevice.StorableStatuses}

	if id == domainDevice.NewDeviceKeyword {
		view.IsNew = true
		view.Form = &ComputerForm{
			Disks:  []string{},
			GPUs:   []string{},
			Status: string(domainDevice.StatusAvailable),
		}
		return view, nil
	}

	d, err := s.deviceRepo.GetByAssetTag(ctx, id)
	if err != nil {
		return nil, err
	}
	login, err := s.loginRepo.Get(ctx, d.AssetTag)
	if err != nil && !isLoginMissing(err) {
		return nil, fmt.Errorf("failed to get device login: %w", err)
	}
	creds := toLoginView(login)

	view.Form = &ComputerForm{
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
		Status:           string(d.Status),
		ReservationBegin: d.ReservationBegin,
		ReservationEnd:   d.ReservationEnd,
		ReservationUser:  d.ReservationUser,
		Password:         creds.Password,
		PIN:              creds.PIN,
	}
	return view, nil
}

func (s *Service) userOptions(ctx context.Context) ([]*UserOption, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	opts := make([]*UserOption, 0, len(users))
	for _, u := range users {
		opts = append(opts, &UserOption{ID: u.ID, Name: u.Name, Role: u.Role})
	}
	return opts, nil
}

// Save creates a device when id is NewDeviceKeyword and otherwise overwrites
// every editable field of the existing device and its login.
func (s *Service) Save(ctx context.Context, viewer *domainUser.Viewer, id string, form *ComputerForm) (*ComputerView, error) {
	if err := access.Require(viewer, access.TierAdmin); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(form); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	if id == domainDevice.NewDeviceKeyword {
		return s.create(ctx, viewer, form)
	}
	return s.update(ctx, viewer, id, form)
}

func (s *Service) create(ctx context.Context, viewer *domainUser.Viewer, form *ComputerForm) (*ComputerView, error) {
	tag := strings.TrimSpace(form.AssetTag)
	if tag == "" {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Asset tag cannot be blank", nil)
	}
	if tag == domainDevice.NewDeviceKeyword {
		return nil, appErrors.NewAppError(appErrors.CodeValidation,
			fmt.Sprintf("Asset tag %q is reserved", domainDevice.NewDeviceKeyword), nil)
	}

	d := &domainDevice.Device{AssetTag: tag, Status: domainDevice.StatusAvailable}
	applyHardware(d, form)

	if err := s.deviceRepo.Create(ctx, d); err != nil {
		if errors.Is(err, domainDevice.ErrDeviceAlreadyExists) {
			return nil, appErrors.NewAppError(appErrors.CodePrecondition,
				fmt.Sprintf("Device %q already exists", tag), err)
		}
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	if err := s.loginRepo.Upsert(ctx, &domainDevice.Login{AssetTag: tag, Password: form.Password, PIN: form.PIN}); err != nil {
		return nil, fmt.Errorf("failed to save device login: %w", err)
	}

	now := s.now()
	logger.Info("Computer created",
		zap.String("asset_tag", tag),
		zap.String("created_by", viewer.ID),
		zap.String("event", "device_created"),
	)
	events.Emit(ctx, s.publisher, events.Event{
		Type: events.ComputerCreated, AssetTag: tag, ActorID: viewer.ID, At: now,
	})

	return ToComputerView(d, domainDevice.StatusAvailable), nil
}

func (s *Service) update(ctx context.Context, viewer *domainUser.Viewer, id string, form *ComputerForm) (*ComputerView, error) {
	d, err := s.deviceRepo.GetByAssetTag(ctx, id)
	if err != nil {
		return nil, err
	}

	status := domainDevice.Status(form.Status)
	if !status.IsStorable() {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid status",
			fmt.Errorf("%w: %q", domainDevice.ErrInvalidStatus, form.Status))
	}

	applyHardware(d, form)
	d.Status = status

	if err := s.applyReservation(ctx, d, form); err != nil {
		return nil, err
	}

	if err := s.deviceRepo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}
	if err := s.loginRepo.Upsert(ctx, &domainDevice.Login{AssetTag: d.AssetTag, Password: form.Password, PIN: form.PIN}); err != nil {
		return nil, fmt.Errorf("failed to save device login: %w", err)
	}

	now := s.now()
	logger.Info("Computer updated",
		zap.String("asset_tag", d.AssetTag),
		zap.String("status", string(d.Status)),
		zap.String("updated_by", viewer.ID),
		zap.String("event", "device_updated"),
	)
	events.Emit(ctx, s.publisher, events.Event{
		Type: events.ComputerUpdated, AssetTag: d.AssetTag, UserID: deref(d.ReservationUser), ActorID: viewer.ID, At: now,
	})

	derived, err := domainDevice.DeriveStatus(d, now)
	if err != nil {
		return nil, err
	}
	return ToComputerView(d, derived), nil
}

// applyHardware copies the descriptive fields. The asset tag is never changed.
func applyHardware(d *domainDevice.Device, form *ComputerForm) {
	d.Hostname = strings.TrimSpace(form.Hostname)
	d.SerialNumber = strings.TrimSpace(form.SerialNumber)
	d.Manufacturer = strings.TrimSpace(form.Manufacturer)
	d.Model = strings.TrimSpace(form.Model)
	d.CPU = strings.TrimSpace(form.CPU)
	d.Memory = strings.TrimSpace(form.Memory)
	d.Disks = utils.CleanList(form.Disks)
	d.GPUs = utils.CleanList(form.GPUs)
	d.Notes = utils.SanitizeText(form.Notes)
}

// applyReservation keeps the four reservation fields null together or set
// together. The cached name always follows the selected user.
func (s *Service) applyReservation(ctx context.Context, d *domainDevice.Device, form *ComputerForm) error {
	userID := strings.TrimSpace(deref(form.ReservationUser))
	if userID == "" {
		if d.Status == domainDevice.StatusInUse {
			return appErrors.NewAppError(appErrors.CodeValidation,
				"An in-use computer needs a reservation user and dates", nil)
		}
		d.ReservationBegin, d.ReservationEnd, d.ReservationUser, d.ReservationName = nil, nil, nil, nil
		return nil
	}

	if form.ReservationBegin == nil || form.ReservationEnd == nil {
		return appErrors.NewAppError(appErrors.CodeValidation, "Reservation begin and end are required with a user", nil)
	}
	if form.ReservationEnd.Before(*form.ReservationBegin) {
		return appErrors.NewAppError(appErrors.CodeValidation, "Reservation end must not be before its begin", nil)
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return appErrors.NewAppError(appErrors.CodeValidation, fmt.Sprintf("Unknown user %q", userID), err)
		}
		return fmt.Errorf("failed to get reservation user: %w", err)
	}

	begin, end := *form.ReservationBegin, *form.ReservationEnd
	d.ReservationBegin = &begin
	d.ReservationEnd = &end
	d.ReservationUser = &u.ID
	d.ReservationName = &u.Name
	return nil
}
