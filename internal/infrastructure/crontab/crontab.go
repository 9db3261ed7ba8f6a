package crontab

import (
	"context"
	"fmt"
	"time"

	"github.com/mileusna/crontab"

	"tangent-server/internal/config"
	"tangent-server/internal/domain/conversation"
	"tangent-server/internal/infrastructure/logger"
	"tangent-server/internal/utils/apperrors"
)

const (
	DefaultSweepInterval = 60               // in minutes
	CronJobTimeout       = 10 * time.Minute // Timeout for each cron job execution
)

type Crontab struct {
	ctab    *crontab.Crontab
	janitor *conversation.Janitor
}

func NewCrontab(janitor *conversation.Janitor) *Crontab {
	return &Crontab{
		ctab:    crontab.New(),
		janitor: janitor,
	}
}

func (c *Crontab) Run(ctx context.Context) error {
	log := logger.GetLogger()

	// execute once on server start
	c.sweepOrphans(ctx)

	cfg := config.GetGlobal()
	if cfg != nil && cfg.OrphanSweepEnabled {
		sweepInterval := cfg.OrphanSweepInterval
		if sweepInterval <= 0 {
			sweepInterval = DefaultSweepInterval
		}

		cronExpr := fmt.Sprintf("*/%d * * * *", sweepInterval)
		if err := c.ctab.AddJob(cronExpr, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
			defer cancel()
			c.sweepOrphans(jobCtx)
		}); err != nil {
			return apperrors.Wrap(ctx, apperrors.LayerDomain, err, "failed to add orphan sweep job")
		}
		log.Warn().Msgf("Orphan sweep scheduled: every %d minute(s)", sweepInterval)
	}

	// Schedule environment reload job
	if err := c.ctab.AddJob("* * * * *", func() {
		config.Load()
	}); err != nil {
		return apperrors.Wrap(ctx, apperrors.LayerDomain, err, "failed to add env reload job")
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) sweepOrphans(ctx context.Context) {
	log := logger.GetLogger()
	if _, err := c.janitor.SweepOrphans(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to sweep orphaned conversations")
	}
}
