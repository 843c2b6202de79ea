package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wowcampus/auth-api/pkg/config"
)

type expiredRowStore interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurgeService periodically removes token rows that have passed their
// expiry. Purging is purely hygienic: expired refresh tokens are
// already unusable and expired blacklist entries guard tokens the
// codec rejects anyway, so a missed run never affects correctness.
type PurgeService struct {
	refreshTokens expiredRowStore
	blacklist     expiredRowStore
	interval      time.Duration
	retention     time.Duration
	logger        *zap.Logger
	metrics       *MetricsService

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPurgeService wires the purge loop. metrics may be nil.
func NewPurgeService(refreshTokens, blacklist expiredRowStore, cfg config.AuthConfig, logger *zap.Logger, metrics *MetricsService) *PurgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.PurgeInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &PurgeService{
		refreshTokens: refreshTokens,
		blacklist:     blacklist,
		interval:      interval,
		retention:     cfg.PurgeRetention,
		logger:        logger,
		metrics:       metrics,
	}
}

// Start launches the background loop. Safe to call once.
func (s *PurgeService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()

	s.logger.Info("token purge loop started", zap.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for the current sweep to finish.
func (s *PurgeService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

// RunOnce performs a single sweep. Refresh rows are kept for the
// retention window past expiry so recent session history stays
// inspectable; blacklist rows go as soon as they expire.
func (s *PurgeService) RunOnce(ctx context.Context) {
	now := time.Now().UTC()

	if n, err := s.refreshTokens.DeleteExpired(ctx, now.Add(-s.retention)); err != nil {
		s.logger.Warn("failed to purge expired refresh tokens", zap.Error(err))
	} else if n > 0 {
		s.metrics.AddPurgedRows("refresh_tokens", n)
		s.logger.Info("purged expired refresh tokens", zap.Int64("rows", n))
	}

	if n, err := s.blacklist.DeleteExpired(ctx, now); err != nil {
		s.logger.Warn("failed to purge expired blacklist entries", zap.Error(err))
	} else if n > 0 {
		s.metrics.AddPurgedRows("token_blacklist", n)
		s.logger.Info("purged expired blacklist entries", zap.Int64("rows", n))
	}
}
