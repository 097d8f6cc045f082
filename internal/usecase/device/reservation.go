package device

import (
	"context"
	"errors"
	"fmt"

	"lab-checkout/internal/domain/access"
	domainDevice "lab-checkout/internal/domain/device"
	domainUser "lab-checkout/internal/domain/user"
	"lab-checkout/internal/events"
	"lab-checkout/internal/logger"
	appErrors "lab-checkout/pkg/errors"
	"lab-checkout/pkg/utils"

	"go.uber.org/zap"
)

func isLoginMissing(err error) bool {
	return errors.Is(err, domainDevice.ErrLoginNotFound)
}

// GetCheckout renders the checkout form for an available device.
func (s *Service) GetCheckout(ctx context.Context, viewer *domainUser.Viewer, assetTag string) (*CheckoutView, error) {
	if err := access.Require(viewer, access.TierInternal); err != nil {
		return nil, err
	}

	now := s.now()
	d, derived, err := s.load(ctx, assetTag, now)
	if err != nil {
		return nil, err
	}
	if !access.CanCheckOut(viewer.Role, derived) {
		return nil, notAvailableError(d.AssetTag)
	}

	return &CheckoutView{
		Computer: ToComputerView(d, derived),
		MinEnd:   now,
		MaxEnd:   MaxReservationEnd(now, s.maxReserveDays),
		Terms:    s.terms,
	}, nil
}

// Checkout reserves an available device for the viewer until req.ReservationEnd.
func (s *Service) Checkout(ctx context.Context, viewer *domainUser.Viewer, assetTag string, req *CheckoutRequest) (*ComputerView, error) {
	if err := access.Require(viewer, access.TierInternal); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		if !req.AcceptTerms {
			return nil, appErrors.NewAppError(appErrors.CodeValidation, "You must accept the terms of use", err)
		}
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	now := s.now()
	d, derived, err := s.load(ctx, assetTag, now)
	if err != nil {
		return nil, err
	}
	if !access.CanCheckOut(viewer.Role, derived) {
		return nil, notAvailableError(d.AssetTag)
	}
	if err := validateCheckoutEnd(req.ReservationEnd, now, s.maxReserveDays); err != nil {
		return nil, err
	}

	res := domainDevice.Reservation{
		Begin:    now,
		End:      req.ReservationEnd,
		UserID:   viewer.ID,
		UserName: viewer.Name,
	}
	if err := s.deviceRepo.SetReservation(ctx, d.AssetTag, res); err != nil {
		return nil, fmt.Errorf("failed to check out device: %w", err)
	}

	logger.Info("Computer checked out",
		zap.String("asset_tag", d.AssetTag),
		zap.String("user_id", viewer.ID),
		zap.Time("reservation_end", res.End),
		zap.String("event", "device_checked_out"),
	)
	events.Emit(ctx, s.publisher, events.Event{
		Type: events.ComputerCheckedOut, AssetTag: d.AssetTag, UserID: viewer.ID, ActorID: viewer.ID, At: now,
	})

	d.Status = domainDevice.StatusInUse
	d.ReservationBegin = &res.Begin
	d.ReservationEnd = &res.End
	d.ReservationUser = &res.UserID
	d.ReservationName = &res.UserName
	return ToComputerView(d, domainDevice.StatusInUse), nil
}

// CheckIn ends a running reservation now. The occupant may check in their own
// device; elevated roles may check in anyone's.
func (s *Service) CheckIn(ctx context.Context, viewer *domainUser.Viewer, assetTag string) (*ComputerView, error) {
	if err := access.Require(viewer, access.TierInternal); err != nil {
		return nil, err
	}

	now := s.now()
	d, derived, err := s.load(ctx, assetTag, now)
	if err != nil {
		return nil, err
	}
	if derived != domainDevice.StatusInUse {
		return nil, notInUseError(d.AssetTag, derived)
	}
	if !access.CanCheckIn(viewer.Role, viewer.ID, d, derived) {
		return nil, &access.DeniedError{Required: access.TierElevated}
	}

	if err := s.deviceRepo.SetReservationEnd(ctx, d.AssetTag, now); err != nil {
		return nil, fmt.Errorf("failed to check in device: %w", err)
	}

	logger.Info("Computer checked in",
		zap.String("asset_tag", d.AssetTag),
		zap.String("user_id", deref(d.ReservationUser)),
		zap.String("checked_in_by", viewer.ID),
		zap.String("event", "device_checked_in"),
	)
	events.Emit(ctx, s.publisher, events.Event{
		Type: events.ComputerCheckedIn, AssetTag: d.AssetTag, UserID: deref(d.ReservationUser), ActorID: viewer.ID, At: now,
	})

	d.ReservationEnd = &now
	derived, err = domainDevice.DeriveStatus(d, now)
	if err != nil {
		return nil, err
	}
	return ToComputerView(d, derived), nil
}

func (s *Service) GetExtend(ctx context.Context, viewer *domainUser.Viewer, assetTag string) (*ExtendView, error) {
	if err := access.Require(viewer, access.TierElevated); err != nil {
		return nil, err
	}

	now := s.now()
	d, derived, err := s.load(ctx, assetTag, now)
	if err != nil {
		return nil, err
	}
	if derived != domainDevice.StatusInUse {
		return nil, notInUseError(d.AssetTag, derived)
	}

	return &ExtendView{
		Computer: ToComputerView(d, derived),
		Occupant: occupantOf(d, "Current User"),
		MinEnd:   now,
	}, nil
}

// Extend moves the end of a running reservation. Only the end changes.
func (s *Service) Extend(ctx context.Context, viewer *domainUser.Viewer, assetTag string, req *ExtendRequest) (*ComputerView, error) {
	if err := access.Require(viewer, access.TierElevated); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	now := s.now()
	d, derived, err := s.load(ctx, assetTag, now)
	if err != nil {
		return nil, err
	}
	if derived != domainDevice.StatusInUse {
		return nil, notInUseError(d.AssetTag, derived)
	}
	if err := validateExtensionEnd(req.ReservationEnd, now); err != nil {
		return nil, err
	}

	if err := s.deviceRepo.SetReservationEnd(ctx, d.AssetTag, req.ReservationEnd); err != nil {
		return nil, fmt.Errorf("failed to extend reservation: %w", err)
	}

	logger.Info("Reservation extended",
		zap.String("asset_tag", d.AssetTag),
		zap.String("user_id", deref(d.ReservationUser)),
		zap.String("extended_by", viewer.ID),
		zap.Timep("previous_end", d.ReservationEnd),
		zap.Time("reservation_end", req.ReservationEnd),
		zap.String("event", "reservation_extended"),
	)
	events.Emit(ctx, s.publisher, events.Event{
		Type: events.ReservationExtended, AssetTag: d.AssetTag, UserID: deref(d.ReservationUser), ActorID: viewer.ID, At: now,
	})

	end := req.ReservationEnd
	d.ReservationEnd = &end
	return ToComputerView(d, domainDevice.StatusInUse), nil
}

func (s *Service) GetMakeAvailable(ctx context.Context, viewer *domainUser.Viewer, assetTag string) (*MakeAvailableView, error) {
	if err := access.Require(viewer, access.TierAdmin); err != nil {
		return nil, err
	}

	d, derived, err := s.load(ctx, assetTag, s.now())
	if err != nil {
		return nil, err
	}
	if derived != domainDevice.StatusPending {
		return nil, notPendingError(d.AssetTag)
	}

	login, err := s.loginRepo.Get(ctx, d.AssetTag)
	if err != nil && !isLoginMissing(err) {
		return nil, fmt.Errorf("failed to get device login: %w", err)
	}

	return &MakeAvailableView{
		Computer: ToComputerView(d, derived),
		Occupant: occupantOf(d, "Last User"),
		Login:    toLoginView(login),
	}, nil
}

// MakeAvailable returns a pending device to service. It clears the
// reservation, optionally rotates the credentials and appends the finished
// reservation to the history, as three independent writes in that order.
func (s *Service) MakeAvailable(
	ctx context.Context,
	viewer *domainUser.Viewer,
	assetTag string,
	req *MakeAvailableRequest,
) (*ComputerView, error) {
	if err := access.Require(viewer, access.TierAdmin); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	now := s.now()
	d, derived, err := s.load(ctx, assetTag, now)
	if err != nil {
		return nil, err
	}
	if derived != domainDevice.StatusPending {
		return nil, notPendingError(d.AssetTag)
	}

	record := &domainDevice.History{
		AssetTag:         d.AssetTag,
		UserID:           deref(d.ReservationUser),
		ReservationBegin: derefTime(d.ReservationBegin),
		ReservationEnd:   derefTime(d.ReservationEnd),
	}

	if err := s.deviceRepo.ClearReservation(ctx, d.AssetTag); err != nil {
		return nil, fmt.Errorf("failed to make device available: %w", err)
	}

	if req.Password != nil || req.PIN != nil {
		login, err := s.loginRepo.Get(ctx, d.AssetTag)
		if err != nil {
			if !isLoginMissing(err) {
				return nil, fmt.Errorf("failed to get device login: %w", err)
			}
			login = &domainDevice.Login{AssetTag: d.AssetTag}
		}
		if req.Password != nil {
			login.Password = *req.Password
		}
		if req.PIN != nil {
			login.PIN = *req.PIN
		}
		if err := s.loginRepo.Upsert(ctx, login); err != nil {
			return nil, fmt.Errorf("failed to update device login: %w", err)
		}
	}

	if err := s.historyRepo.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record reservation history: %w", err)
	}

	logger.Info("Computer made available",
		zap.String("asset_tag", d.AssetTag),
		zap.String("previous_user", record.UserID),
		zap.String("history_id", record.ID),
		zap.Bool("credentials_rotated", req.Password != nil || req.PIN != nil),
		zap.String("updated_by", viewer.ID),
		zap.String("event", "device_made_available"),
	)
	events.Emit(ctx, s.publisher, events.Event{
		Type: events.ComputerMadeAvailable, AssetTag: d.AssetTag, UserID: record.UserID, ActorID: viewer.ID, At: now,
	})

	d.Status = domainDevice.StatusAvailable
	d.ReservationBegin, d.ReservationEnd, d.ReservationUser, d.ReservationName = nil, nil, nil, nil
	return ToComputerView(d, domainDevice.StatusAvailable), nil
}
