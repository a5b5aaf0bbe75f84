package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/azure/ai-content-detector/internal/config"
)

// DigestRunner sends a digest of recent activity; *monitoring.Service satisfies it
type DigestRunner interface {
	RunDigest() error
}

// Service handles scheduling of digest runs
type Service struct {
	config *config.Config
	runner DigestRunner
	cron   *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, runner DigestRunner) *Service {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	return &Service{
		config: cfg,
		runner: runner,
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
	}
}

// CronExpression returns the six-field cron expression for a digest schedule
func CronExpression(schedule string) (string, error) {
	switch schedule {
	case "daily":
		// Run daily at 9 AM
		return "0 0 9 * * *", nil
	case "weekly":
		// Run weekly on Monday at 9 AM
		return "0 0 9 * * MON", nil
	}
	return "", fmt.Errorf("unknown digest schedule %q", schedule)
}

// Start begins the scheduled digests. It does nothing when digests are off.
func (s *Service) Start() error {
	if s.config.DigestSchedule == "off" || s.config.DigestSchedule == "" {
		logrus.Info("Digest schedule is off, scheduler not started")
		return nil
	}

	cronExpression, err := CronExpression(s.config.DigestSchedule)
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc(cronExpression, s.runDigest)
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s digest schedule (%s)", s.config.DigestSchedule, s.config.TimeZone)
	return nil
}

func (s *Service) runDigest() {
	logrus.Info("Starting scheduled digest run")
	if err := s.runner.RunDigest(); err != nil {
		logrus.Errorf("Scheduled digest run failed: %v", err)
	}
}

// Entries returns the number of scheduled jobs
func (s *Service) Entries() int {
	return len(s.cron.Entries())
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
