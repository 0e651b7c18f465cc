package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"

	"github.com/mtgleague/leaguebot/internal/config"
	"github.com/mtgleague/leaguebot/internal/service"
)

type Scheduler struct {
	s             gocron.Scheduler
	leagueService *service.Service
	sendMessage   func(string) error
	cronExpr      string
}

func NewScheduler(cfg config.Reports, leagueService *service.Service, sendMessage func(string) error) (*Scheduler, error) {
	// Fail fast on a bad operator-supplied expression instead of letting
	// the job silently never fire.
	if _, err := cron.ParseStandard(cfg.LeaderboardCron); err != nil {
		return nil, fmt.Errorf("invalid leaderboard cron %q: %w", cfg.LeaderboardCron, err)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Error("Failed to load location", "error", err)
		location = time.UTC
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(location),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:             s,
		leagueService: leagueService,
		sendMessage:   sendMessage,
		cronExpr:      cfg.LeaderboardCron,
	}, nil
}

func (s *Scheduler) Start() error {
	_, err := s.s.NewJob(
		gocron.CronJob(s.cronExpr, false),
		gocron.NewTask(s.sendLeaderboard),
	)
	if err != nil {
		return fmt.Errorf("failed to create leaderboard job: %w", err)
	}

	s.s.Start()
	return nil
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) sendLeaderboard() {
	report, err := s.leagueService.LeaderboardReport()
	if err != nil {
		slog.Error("Failed to get leaderboard", "error", err)
		return
	}
	s.sendMessage(report)
}
