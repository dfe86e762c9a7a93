package di

import (
	"fmt"

	"github.com/cartera-ar/cartera/internal/config"
	"github.com/cartera-ar/cartera/internal/reliability"
	"github.com/cartera-ar/cartera/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the background jobs, schedules them and exposes them
// for manual triggering
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	checkWAL := scheduler.NewCheckWALCheckpointsJob(container.Databases()...)
	checkWAL.SetLogger(log.With().Str("job", "check_wal_checkpoints").Logger())

	jobs := &JobInstances{
		PriceRefresh: scheduler.NewPriceRefreshJob(
			container.TransactionStore,
			container.YahooClient,
			container.DolarAPIClient,
			container.PriceStore,
			cfg.PriceRefresh.DolarCasa,
			log,
		),
		CheckWAL:         checkWAL,
		DailyMaintenance: reliability.NewDailyMaintenanceJob(container.Databases(), container.HistoryProvider, cfg.DataDir, log),
	}
	if container.BackupService != nil {
		jobs.Backup = reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
	}

	schedules := []struct {
		enabled  bool
		schedule string
		job      scheduler.Job
	}{
		{cfg.PriceRefresh.Enabled, cfg.PriceRefresh.Schedule, jobs.PriceRefresh},
		{true, "@hourly", jobs.CheckWAL},
		{true, cfg.MaintenanceSchedule, jobs.DailyMaintenance},
		{jobs.Backup != nil, cfg.Backup.Schedule, jobs.Backup},
	}
	for _, s := range schedules {
		if s.job == nil {
			continue
		}
		container.SystemHandlers.RegisterJob(s.job)
		if !s.enabled {
			continue
		}
		if err := container.Scheduler.AddJob(s.schedule, s.job); err != nil {
			return nil, fmt.Errorf("failed to schedule %s: %w", s.job.Name(), err)
		}
	}
	return jobs, nil
}
