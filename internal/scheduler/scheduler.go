package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nutrilog/nutrilog/internal/config"
	"github.com/nutrilog/nutrilog/internal/repository/mongodb"
)

// Scheduler rolls finished days into the daily_summaries collection.
type Scheduler struct {
	cron   *cron.Cron
	store  mongodb.LogStore
	cfg    config.SummaryConfig
	logger *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.SummaryConfig, store mongodb.LogStore, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// robfig/cron/v3 default parser is standard cron (5 fields: min, hour,
	// dom, month, dow).
	c := cron.New()

	return &Scheduler{
		cron:   c,
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers and starts the nightly snapshot job.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	_, err := s.cron.AddFunc(s.cfg.CronSchedule, s.snapshotYesterday)
	if err != nil {
		s.logger.Error("failed to schedule summary snapshot", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) snapshotYesterday() {
	s.logger.Info("rolling up daily summaries")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	day := time.Now().UTC().AddDate(0, 0, -1)

	userIDs, err := s.store.ActiveUserIDs(ctx, day)
	if err != nil {
		s.logger.Error("failed listing active users", zap.Error(err))
		return
	}

	for _, userID := range userIDs {
		summary, err := s.store.SummarizeDay(ctx, userID, day)
		if err != nil {
			s.logger.Error("failed summarizing day",
				zap.String("user", userID), zap.Error(err))
			continue
		}
		if err := s.store.SaveDailySummary(ctx, summary); err != nil {
			s.logger.Error("failed saving daily summary",
				zap.String("user", userID), zap.Error(err))
		}
	}

	s.logger.Info("daily summary rollup finished", zap.Int("users", len(userIDs)))
}
