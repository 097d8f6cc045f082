package user

import (
	"context"
	"fmt"
	"time"

	"lab-checkout/internal/domain/access"
	"lab-checkout/internal/domain/device"
	domainUser "lab-checkout/internal/domain/user"
	"lab-checkout/internal/events"
	"lab-checkout/internal/logger"
	appErrors "lab-checkout/pkg/errors"
	"lab-checkout/pkg/utils"

	"go.uber.org/zap"
)

// Manager serves the account, user list and user edit pages.
type Manager struct {
	userRepo   domainUser.Repository
	deviceRepo device.Repository
	publisher  events.Publisher
	now        func() time.Time
}

func NewManager(userRepo domainUser.Repository, deviceRepo device.Repository, publisher events.Publisher) *Manager {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Manager{
		userRepo:   userRepo,
		deviceRepo: deviceRepo,
		publisher:  publisher,
		now:        time.Now,
	}
}

func (m *Manager) GetAccount(_ context.Context, viewer *domainUser.Viewer) (*AccountResponse, error) {
	if err := access.Require(viewer, access.TierSignedIn); err != nil {
		return nil, err
	}
	return &AccountResponse{
		ID:        viewer.ID,
		Name:      viewer.Name,
		Email:     viewer.Email,
		Role:      viewer.Role,
		RoleTitle: RoleTitle(viewer.Role),
	}, nil
}

// ListUsers groups every account by role, most privileged first.
func (m *Manager) ListUsers(ctx context.Context, viewer *domainUser.Viewer) (*UserListResponse, error) {
	if err := access.Require(viewer, access.TierElevated); err != nil {
		return nil, err
	}

	users, err := m.userRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	canEdit := access.CanEditUsers(viewer.Role)
	groups := make(map[domainUser.Role]*UserGroup, len(domainUser.Roles))
	resp := &UserListResponse{CanEdit: canEdit}
	for _, r := range domainUser.Roles {
		g := &UserGroup{Role: r, Title: RoleTitle(r), Users: []*UserRow{}}
		groups[r] = g
		resp.Groups = append(resp.Groups, g)
	}

	for _, u := range users {
		g, ok := groups[u.Role]
		if !ok {
			return nil, fmt.Errorf("user %q: %w: %q", u.ID, domainUser.ErrInvalidUserRole, u.Role)
		}
		g.Users = append(g.Users, &UserRow{
			ID:      u.ID,
			Name:    u.Name,
			Email:   u.Email,
			Role:    u.Role,
			CanEdit: canEdit,
		})
	}

	return resp, nil
}

func (m *Manager) GetForEdit(ctx context.Context, viewer *domainUser.Viewer, userID string) (*EditUserResponse, error) {
	if err := access.Require(viewer, access.TierAdmin); err != nil {
		return nil, err
	}

	u, err := m.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &EditUserResponse{
		User:          ToUserResponse(u),
		Roles:         domainUser.Roles,
		CanChangeRole: access.CanChangeUserRole(viewer.Role),
	}, nil
}

// UpdateUser writes the account, then rewrites the cached occupant name on
// every device the account has reserved. The device writes are independent:
// a failed one is reported in the returned outcomes and does not stop the
// rest. Failing to write the account or to find its devices fails the call.
func (m *Manager) UpdateUser(
	ctx context.Context,
	viewer *domainUser.Viewer,
	userID string,
	req *UpdateUserRequest,
) (*UpdateUserResponse, error) {
	if err := access.Require(viewer, access.TierAdmin); err != nil {
		return nil, err
	}
	req.Name = utils.SanitizeText(req.Name)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}
	role, err := domainUser.ParseRole(req.Role)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid role", err)
	}

	u, err := m.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := m.userRepo.UpdateProfile(ctx, u.ID, req.Name, role); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	previousRole := u.Role
	u.Name = req.Name
	u.Role = role

	fanOut, err := m.renameReservations(ctx, u.ID, u.Name)
	if err != nil {
		return nil, err
	}

	logger.Info("User updated",
		zap.String("user_id", u.ID),
		zap.String("updated_by", viewer.ID),
		zap.String("previous_role", string(previousRole)),
		zap.String("role", string(role)),
		zap.Int("devices_renamed", fanOut.Updated),
		zap.Int("devices_failed", fanOut.Failed),
		zap.String("event", "user_updated"),
	)
	events.Emit(ctx, m.publisher, events.Event{
		Type:    events.UserUpdated,
		UserID:  u.ID,
		ActorID: viewer.ID,
		At:      m.now(),
	})

	return &UpdateUserResponse{User: ToUserResponse(u), FanOut: fanOut}, nil
}

func (m *Manager) renameReservations(ctx context.Context, userID, name string) (*FanOutResult, error) {
	devices, err := m.deviceRepo.List(ctx, &device.Filter{ReservationUser: &userID})
	if err != nil {
		return nil, fmt.Errorf("failed to find devices reserved by user: %w", err)
	}

	result := &FanOutResult{Matched: len(devices), Outcomes: []*FanOutOutcome{}}
	for _, d := range devices {
		if d.ReservationName != nil && *d.ReservationName == name {
			continue
		}

		outcome := &FanOutOutcome{AssetTag: d.AssetTag}
		if err := m.deviceRepo.SetReservationName(ctx, d.AssetTag, name); err != nil {
			outcome.Error = err.Error()
			result.Failed++
			logger.Warn("Failed to rename device reservation",
				zap.String("asset_tag", d.AssetTag),
				zap.String("user_id", userID),
				zap.Error(err),
			)
		} else {
			outcome.Updated = true
			result.Updated++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result, nil
}
