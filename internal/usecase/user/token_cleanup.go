package user

import (
	"context"
	"time"

	"lab-checkout/internal/logger"

	"go.uber.org/zap"
)

// StartTokenCleanupJob purges expired and consumed password reset tokens
// every interval until ctx is done.
func (s *Service) StartTokenCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Token cleanup job started",
		zap.Duration("interval", interval),
	)

	s.cleanupExpiredTokens(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Token cleanup job stopped")
			return
		case <-ticker.C:
			s.cleanupExpiredTokens(ctx)
		}
	}
}

func (s *Service) cleanupExpiredTokens(ctx context.Context) {
	n, err := s.resetTokens.DeleteExpired(ctx, s.now())
	if err != nil {
		logger.Error("Failed to delete expired reset tokens", zap.Error(err))
		return
	}

	logger.Debug("Expired reset tokens cleaned up",
		zap.Int64("deleted", n),
	)
}
