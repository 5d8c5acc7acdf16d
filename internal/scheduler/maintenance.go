package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Trainyard/internal/cache"
	"github.com/codr1/Trainyard/internal/config"
	"github.com/codr1/Trainyard/internal/db"
)

const (
	passExpiryJobName        = "member_product_expiry"
	bookingCompletionJobName = "booking_completion"
	maintenanceJobTimeout    = time.Minute
)

// ExpirePasses marks active passes whose expiry has passed as expired.
func ExpirePasses(ctx context.Context, database *db.DB, now time.Time) (int64, error) {
	if database == nil {
		return 0, fmt.Errorf("pass expiry requires database")
	}
	expired, err := database.Queries.ExpireMemberProducts(ctx, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("expire member products: %w", err)
	}
	return expired, nil
}

// CompleteBookings moves scheduled bookings that have ended to completed.
func CompleteBookings(ctx context.Context, database *db.DB, now time.Time) (int64, error) {
	if database == nil {
		return 0, fmt.Errorf("booking completion requires database")
	}
	completed, err := database.Queries.CompletePastBookings(ctx, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("complete past bookings: %w", err)
	}
	return completed, nil
}

// RegisterMaintenanceJobs registers pass expiry and booking completion.
// Cached reports are dropped whenever a run changes rows.
func RegisterMaintenanceJobs(database *db.DB, store cache.Store, cfg config.SchedulerConfig) error {
	if database == nil {
		return fmt.Errorf("maintenance jobs require database")
	}

	jobs := []struct {
		name string
		cron string
		run  func(context.Context, *db.DB, time.Time) (int64, error)
	}{
		{passExpiryJobName, cfg.PassExpiryCron, ExpirePasses},
		{bookingCompletionJobName, cfg.BookingCompletionCron, CompleteBookings},
	}

	for _, job := range jobs {
		run := job.run
		_, err := Register(Job{
			Name:    job.name,
			Cron:    job.cron,
			Timeout: maintenanceJobTimeout,
			Run: func(ctx context.Context) error {
				changed, err := run(ctx, database, time.Now())
				if err != nil {
					return err
				}
				if changed > 0 {
					log.Ctx(ctx).Info().Int64("rows", changed).Msg("Maintenance job updated rows")
					cache.Invalidate(ctx, store, cache.ScopeReports)
				}
				return nil
			},
		})
		if err != nil {
			return fmt.Errorf("add %s job: %w", job.name, err)
		}
	}

	return nil
}
