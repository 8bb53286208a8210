package main

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
)

// setupScheduler configures the recurring background jobs: the nightly
// backlog refill and an hourly spend summary.
func (app *application) setupScheduler() *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)

	// 03:00 UTC is the quietest window across the user base.
	if _, err := s.Every(1).Day().At("03:00").Do(func() {
		if err := app.dailyService.RefillStarvedBacklogs(context.Background()); err != nil {
			app.logger.Error("backlog refill sweep failed", "error", err)
		}
	}); err != nil {
		app.logger.Error("failed to schedule backlog refill job", "error", err)
	}

	if _, err := s.Every(1).Hour().Do(func() {
		summary := app.costMonitor.GetCostSummary()
		app.logger.Info("generation spend summary",
			"hour_usd", summary.HourUSD,
			"day_usd", summary.DayUSD,
			"calls", summary.Calls,
			"cached_calls", summary.CachedCalls,
			"emergency_mode", summary.EmergencyMode)
	}); err != nil {
		app.logger.Error("failed to schedule spend summary job", "error", err)
	}

	return s
}
