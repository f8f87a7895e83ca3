package main

import (
	"context"
	"log"
	"time"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cfg := LoadConfig()
	ctx := context.Background()

	// sqlite is always opened: it backs the processed-email ledger even
	// when applications live in a spreadsheet.
	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer db.Close()
	sqliteStore := NewSQLiteStore(db)

	var store ReconciliationStore = sqliteStore
	if cfg.StoreBackend == "sheets" {
		sheetsStore, err := NewSheetsStore(ctx, cfg.CredentialsFile, cfg.SheetsTokenFile, cfg.SpreadsheetIDFile)
		if err != nil {
			log.Fatalf("Error initializing Sheets store: %v", err)
		}
		store = sheetsStore
	}

	source, err := NewGmailSource(ctx, cfg.CredentialsFile, cfg.GmailTokenFile, int64(cfg.MaxEmailsPerRun))
	if err != nil {
		log.Fatalf("Error initializing Gmail source: %v", err)
	}

	llm := newLLMClient(cfg)
	classifier := NewClassifier(llm, cfg.ClassificationTemplate, cfg.BodyMaxChars)
	extractor := NewExtractor(llm, cfg.ExtractionTemplate, cfg.BodyMaxChars)
	pacer := NewPacer(cfg.LLMRequestsPerMinute)
	pipeline := NewPipeline(cfg, source, classifier, extractor, store, sqliteStore, pacer)
	notifier := NewNotifier(cfg)

	log.Printf("StatusSync starting provider=%s store=%s", cfg.LLMProvider, cfg.StoreBackend)

	if cfg.RunSchedule != "" {
		StartRunScheduler(ctx, cfg, pipeline, notifier)
		return
	}

	start, end := runWindow(cfg)
	summary, err := pipeline.Run(ctx, start, end)
	if err != nil {
		log.Fatalf("Sync failed: %v", err)
	}
	log.Printf("Sync complete: added=%d updated=%d skipped=%d errors=%d",
		summary.Added, summary.Updated, summary.Skipped, summary.Errors)
	notifier.PostRunSummary(summary)
}

// runWindow resolves the one-shot date range: the configured dates when
// set, otherwise the trailing run_window_days up to now.
func runWindow(cfg Config) (time.Time, time.Time) {
	if cfg.StartDate != "" || cfg.EndDate != "" {
		start, end, err := ParseDateRange(cfg.StartDate, cfg.EndDate)
		if err != nil {
			log.Fatalf("invalid date range: %v", err)
		}
		return start, end
	}
	end := time.Now()
	return end.AddDate(0, 0, -cfg.RunWindowDays), end
}
