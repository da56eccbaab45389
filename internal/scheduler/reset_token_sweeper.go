package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const sweepTimeout = 30 * time.Second

// ExpiredTokenSweeper clears password reset tokens past their expiry
type ExpiredTokenSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// ResetTokenSweeper periodically removes stale reset token/expiry pairs.
// Expired tokens are already unusable; this only keeps the users table tidy.
type ResetTokenSweeper struct {
	cron    *cron.Cron
	sweeper ExpiredTokenSweeper
	spec    string
}

func NewResetTokenSweeper(sweeper ExpiredTokenSweeper, spec string) *ResetTokenSweeper {
	return &ResetTokenSweeper{
		cron:    cron.New(),
		sweeper: sweeper,
		spec:    spec,
	}
}

// Start registers the sweep job and starts the scheduler
func (s *ResetTokenSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(context.Background()) }); err != nil {
		logger.Error("Failed to add cron job for reset token sweep", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Reset token sweeper started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// RunOnce performs a single sweep
func (s *ResetTokenSweeper) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := s.sweeper.SweepExpired(ctx)
	if err != nil {
		logger.Error("Reset token sweep failed", err)
		return 0
	}
	return n
}

// Stop halts the scheduler and waits for a running sweep to finish
func (s *ResetTokenSweeper) Stop() {
	logger.Info("Stopping reset token sweeper...")
	<-s.cron.Stop().Done()
	logger.Info("Reset token sweeper stopped")
}
