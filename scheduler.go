package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// StartRunScheduler blocks, running the pipeline on a standard 5-field
// cron expression (minute hour day-of-month month day-of-week).
// Examples: "0 9 * * *" (daily 9am), "0 9 * * 1-5" (weekdays 9am).
// Each run covers the trailing run_window_days up to now; the processed
// ledger keeps overlapping windows from re-counting emails.
func StartRunScheduler(ctx context.Context, cfg Config, pipeline *Pipeline, notifier *Notifier) {
	schedule := strings.TrimSpace(cfg.RunSchedule)

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Fatalf("Invalid run_schedule '%s': %v", schedule, err)
	}
	log.Printf("Sync scheduled (cron: %s) window=%dd", schedule, cfg.RunWindowDays)

	for {
		now := time.Now()
		next := sched.Next(now)
		wait := next.Sub(now)
		log.Printf("Next sync at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

		select {
		case <-ctx.Done():
			log.Println("Scheduler stopped")
			return
		case <-time.After(wait):
		}

		end := time.Now()
		start := end.AddDate(0, 0, -cfg.RunWindowDays)
		summary, runErr := pipeline.Run(ctx, start, end)
		if runErr != nil {
			log.Printf("Sync error: %v", runErr)
			continue
		}
		log.Printf("Sync complete: %s", FormatRunSummary(summary))
		notifier.PostRunSummary(summary)
	}
}
