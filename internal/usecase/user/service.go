package user

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"lab-checkout/internal/config"
	"lab-checkout/internal/domain/access"
	domainUser "lab-checkout/internal/domain/user"
	"lab-checkout/internal/logger"
	appErrors "lab-checkout/pkg/errors"
	"lab-checkout/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	resetTokenTTL   = time.Hour
	resetTokenBytes = 32
)

// Service signs callers in and out and manages their credentials.
type Service struct {
	userRepo    domainUser.Repository
	resetTokens domainUser.ResetTokenRepository
	sessions    domainUser.SessionStore
	mailer      Mailer
	config      *config.Config
	now         func() time.Time
}

// NewService creates a new user service
func NewService(
	userRepo domainUser.Repository,
	resetTokens domainUser.ResetTokenRepository,
	sessions domainUser.SessionStore,
	mailer Mailer,
	cfg *config.Config,
) *Service {
	return &Service{
		userRepo:    userRepo,
		resetTokens: resetTokens,
		sessions:    sessions,
		mailer:      mailer,
		config:      cfg,
		now:         time.Now,
	}
}

func accountError(err error) error {
	code := appErrors.CodeValidation
	if errors.Is(err, appErrors.ErrEmailAlreadyRegistered) {
		code = "ACCOUNT_EXISTS"
	}
	return appErrors.NewAppError(code, "Cannot create account: "+err.Error(), err)
}

// Register creates an external account and signs it in.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	email := utils.SanitizeEmail(req.Email)
	if !utils.IsValidEmail(email) {
		return nil, accountError(appErrors.ErrInvalidEmail)
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, accountError(appErrors.ErrWeakPassword)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domainUser.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		logger.Warn("Registration attempt with existing email",
			zap.String("email", email),
			zap.String("event", "registration_failed_duplicate_email"),
		)
		return nil, accountError(appErrors.ErrEmailAlreadyRegistered)
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &domainUser.User{
		ID:             uuid.NewString(),
		Name:           utils.SanitizeText(req.Name),
		Email:          email,
		PasswordHashed: hashedPassword,
		Role:           domainUser.RoleExternal,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, domainUser.ErrUserAlreadyExists) {
			return nil, accountError(appErrors.ErrEmailAlreadyRegistered)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("User registered successfully",
		zap.String("user_id", u.ID),
		zap.String("email", u.Email),
		zap.String("event", "user_registered"),
	)

	return s.startSession(ctx, u, "")
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	email := utils.SanitizeEmail(req.Email)
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Warn("Login attempt with non-existent email",
				zap.String("email", email),
				zap.String("event", "user_not_found"),
			)
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !utils.CheckPassword(u.PasswordHashed, req.Password) {
		logger.Warn("Login attempt with invalid password",
			zap.String("user_id", u.ID),
			zap.String("event", "login_failed_invalid_password"),
		)
		return nil, appErrors.ErrInvalidCredentials
	}

	resp, err := s.startSession(ctx, u, req.Redirect)
	if err != nil {
		return nil, err
	}

	logger.Info("User logged in successfully",
		zap.String("user_id", u.ID),
		zap.String("role", string(u.Role)),
		zap.String("event", "login_success"),
	)
	return resp, nil
}

func (s *Service) startSession(ctx context.Context, u *domainUser.User, redirect string) (*AuthResponse, error) {
	now := s.now()
	ttl := s.config.Session.TTL()
	sess := &domainUser.Session{ID: uuid.NewString(), UserID: u.ID, CreatedAt: now}

	if err := s.sessions.Create(ctx, sess, ttl); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := utils.GenerateToken(u.ID, sess.ID, s.config.Session.Secret, ttl, now)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:      ToUserResponse(u),
		Token:     token,
		ExpiresAt: now.Add(ttl).Unix(),
		Redirect:  access.SafeReturnPath(redirect),
	}, nil
}

// CurrentPrincipal resolves a bearer token to a live session. Tokens that are
// malformed, expired or revoked yield a nil principal and no error.
func (s *Service) CurrentPrincipal(ctx context.Context, token string) (*domainUser.Principal, error) {
	if token == "" {
		return nil, nil
	}

	claims, err := utils.ValidateToken(token, s.config.Session.Secret)
	if err != nil {
		return nil, nil
	}

	sess, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domainUser.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess.UserID != claims.UserID {
		return nil, nil
	}

	return &domainUser.Principal{UserID: sess.UserID, SessionID: sess.ID}, nil
}

func (s *Service) Logout(ctx context.Context, principal *domainUser.Principal) error {
	if principal == nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, principal.SessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	logger.Info("User logged out",
		zap.String("user_id", principal.UserID),
		zap.String("event", "logout"),
	)
	return nil
}

// ForgotPassword mails a reset link when the address belongs to an account.
// The outcome is the same either way so callers cannot discover which accounts exist.
func (s *Service) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Info("Password reset requested for non-existent email",
				zap.String("email", req.Email),
				zap.String("event", "password_reset_requested_non_existent_email"),
			)
			return nil
		}
		return fmt.Errorf("failed to retrieve user: %w", err)
	}

	secret, err := utils.GenerateSecureToken(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	resetToken := &domainUser.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Token:     secret,
		ExpiresAt: s.now().Add(resetTokenTTL),
	}
	if err := s.resetTokens.Create(ctx, resetToken); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	link := fmt.Sprintf("%s/password-reset?token=%s", s.config.Server.BaseURL, url.QueryEscape(secret))
	if err := s.mailer.SendPasswordReset(ctx, u.Email, u.Name, link); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	logger.Info("Password reset token generated",
		zap.String("user_id", u.ID),
		zap.String("token_id", resetToken.ID),
		zap.Time("expires_at", resetToken.ExpiresAt),
		zap.String("event", "password_reset_token_generated"),
	)
	return nil
}

// ResetPassword consumes a reset token and signs the account out everywhere.
func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return appErrors.NewAppError(appErrors.CodeValidation, err.Error(), err)
	}

	resetToken, err := s.resetTokens.GetByToken(ctx, strings.TrimSpace(req.Token))
	if err != nil {
		if errors.Is(err, domainUser.ErrTokenInvalid) {
			logger.Warn("Password reset attempt with invalid token",
				zap.String("event", "password_reset_failed_invalid_token"),
			)
			return appErrors.ErrInvalidToken
		}
		return fmt.Errorf("failed to load reset token: %w", err)
	}
	if resetToken.Used {
		return fmt.Errorf("%w: %v", appErrors.ErrInvalidToken, domainUser.ErrResetTokenUsed)
	}
	if resetToken.IsExpired(s.now()) {
		return fmt.Errorf("%w: %v", appErrors.ErrInvalidToken, domainUser.ErrTokenExpired)
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, resetToken.UserID, hashedPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.resetTokens.MarkUsed(ctx, resetToken.ID); err != nil {
		logger.Error("Failed to mark password reset token as used",
			zap.String("user_id", resetToken.UserID),
			zap.String("token_id", resetToken.ID),
			zap.Error(err),
		)
	}
	if err := s.sessions.RevokeAllForUser(ctx, resetToken.UserID); err != nil {
		logger.Error("Failed to revoke sessions after password reset",
			zap.String("user_id", resetToken.UserID),
			zap.Error(err),
		)
	}

	logger.Info("Password reset successfully",
		zap.String("user_id", resetToken.UserID),
		zap.String("event", "password_reset_success"),
	)
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, viewer *domainUser.Viewer, req *ChangePasswordRequest) error {
	if err := access.Require(viewer, access.TierSignedIn); err != nil {
		return err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return appErrors.NewAppError(appErrors.CodeValidation, err.Error(), err)
	}

	u, err := s.userRepo.GetByID(ctx, viewer.ID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !utils.CheckPassword(u.PasswordHashed, req.OldPassword) {
		logger.Warn("Password change attempt with invalid old password",
			zap.String("user_id", u.ID),
			zap.String("event", "password_change_failed_invalid_old_password"),
		)
		return appErrors.ErrPasswordMismatch
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, u.ID, hashedPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	logger.Info("Password changed successfully",
		zap.String("user_id", u.ID),
		zap.String("event", "password_change_success"),
	)
	return nil
}
