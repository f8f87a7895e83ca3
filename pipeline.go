package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// EmailSource yields raw emails for a date range. A fetch failure is
// fatal for the run: there is nothing to process.
type EmailSource interface {
	Fetch(ctx context.Context, start, end time.Time) ([]Email, error)
}

// StoredApplication is what the reconciliation store already holds for
// a dedup key.
type StoredApplication struct {
	CompanyName   string
	PositionTitle string
	Status        Status
	Location      string
	ActionDate    string
}

// ReconciliationStore is the persistent table of tracked applications.
// Single writer, read-before-write dedup; no cross-run locking.
type ReconciliationStore interface {
	Lookup(key string) (StoredApplication, bool, error)
	Append(app JobApplication) error
	UpdateStatus(key string, app JobApplication) error
}

// ProcessedLedger remembers which email IDs were already classified so
// repeat runs over an overlapping window skip them outright.
type ProcessedLedger interface {
	WasProcessed(emailID string) (bool, error)
	MarkProcessed(emailID string) error
}

// RunSummary is the aggregate outcome of one pipeline run.
type RunSummary struct {
	Fetched int
	Added   int
	Updated int
	Skipped int
	Errors  int

	NewApplications []JobApplication
}

type Pipeline struct {
	cfg        Config
	source     EmailSource
	classifier *Classifier
	extractor  *Extractor
	store      ReconciliationStore
	ledger     ProcessedLedger // may be nil
	pacer      Pacer
}

func NewPipeline(cfg Config, source EmailSource, classifier *Classifier, extractor *Extractor,
	store ReconciliationStore, ledger ProcessedLedger, pacer Pacer) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		source:     source,
		classifier: classifier,
		extractor:  extractor,
		store:      store,
		ledger:     ledger,
		pacer:      pacer,
	}
}

// Run processes all emails in [start, end): fetch, batch-classify,
// extract, reconcile. Per-item failures become counters; the run always
// finishes with a summary unless the fetch itself fails.
func (p *Pipeline) Run(ctx context.Context, start, end time.Time) (RunSummary, error) {
	var summary RunSummary

	emails, err := p.source.Fetch(ctx, start, end)
	if err != nil {
		return summary, fmt.Errorf("fetching emails: %w", err)
	}

	emails = p.selectEmails(emails, &summary)
	summary.Fetched = len(emails)
	log.Printf("pipeline run %s - %s emails=%d",
		start.Format("2006-01-02"), end.Format("2006-01-02"), len(emails))

	for batchStart := 0; batchStart < len(emails); batchStart += p.cfg.LLMBatchSize {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		batchEnd := batchStart + p.cfg.LLMBatchSize
		if batchEnd > len(emails) {
			batchEnd = len(emails)
		}
		p.processBatch(ctx, emails[batchStart:batchEnd], &summary)
	}

	return summary, nil
}

// selectEmails drops emails with no subject and those already resolved
// in a previous run, and caps the run size.
func (p *Pipeline) selectEmails(emails []Email, summary *RunSummary) []Email {
	var kept []Email
	for _, email := range emails {
		if strings.TrimSpace(email.Subject) == "" {
			continue
		}
		if p.ledger != nil {
			done, err := p.ledger.WasProcessed(email.ID)
			if err != nil {
				log.Printf("ledger lookup error id=%s: %v", email.ID, err)
			} else if done {
				continue
			}
		}
		kept = append(kept, email)
		if p.cfg.MaxEmailsPerRun > 0 && len(kept) == p.cfg.MaxEmailsPerRun {
			break
		}
	}
	return kept
}

func (p *Pipeline) processBatch(ctx context.Context, batch []Email, summary *RunSummary) {
	var results []ClassificationResult
	err := withRetry(p.cfg.LLMMaxRetries, p.retryBackoff(), func() error {
		p.pacer.Wait()
		var classifyErr error
		results, classifyErr = p.classifier.ClassifyBatch(ctx, batch)
		return classifyErr
	})
	if err != nil {
		// Fail closed: an unclassifiable batch is excluded, not guessed at.
		log.Printf("classification batch failed, skipping %d emails: %v", len(batch), err)
		summary.Skipped += len(batch)
		summary.Errors++
		return
	}

	for i, result := range results {
		email := batch[i]
		p.markProcessed(email.ID)

		if !result.IsJobRelated || result.Confidence < p.cfg.ClassifyConfidence {
			summary.Skipped++
			continue
		}
		p.processEmail(ctx, email, summary)
	}
}

func (p *Pipeline) processEmail(ctx context.Context, email Email, summary *RunSummary) {
	p.pacer.Wait()
	app, rejection := p.extractor.Extract(ctx, email)
	if rejection != nil {
		log.Printf("extraction rejected id=%s: %s", email.ID, rejection.Reason)
		if rejection.ProviderFault {
			summary.Errors++
		}
		summary.Skipped++
		return
	}

	if !app.IsUpdate || app.Confidence < p.cfg.ExtractConfidence {
		summary.Skipped++
		return
	}

	p.reconcile(app, summary)
}

// reconcile applies the dedup contract: identical status for a known
// key is a duplicate, a new status updates the stored row in place, and
// an unseen key appends.
func (p *Pipeline) reconcile(app JobApplication, summary *RunSummary) {
	key := app.UniqueKey()

	stored, exists, err := p.store.Lookup(key)
	if err != nil {
		log.Printf("store lookup error key=%q: %v", key, err)
		summary.Errors++
		return
	}

	switch {
	case exists && stored.Status == app.Status:
		log.Printf("duplicate key=%q status=%s", key, app.Status)
		summary.Skipped++
	case exists:
		err := withRetry(p.cfg.LLMMaxRetries, p.retryBackoff(), func() error {
			return p.store.UpdateStatus(key, app)
		})
		if err != nil {
			log.Printf("store update error key=%q: %v", key, err)
			summary.Errors++
			return
		}
		log.Printf("updated key=%q status %s -> %s", key, stored.Status, app.Status)
		summary.Updated++
	default:
		err := withRetry(p.cfg.LLMMaxRetries, p.retryBackoff(), func() error {
			return p.store.Append(app)
		})
		if err != nil {
			log.Printf("store append error key=%q: %v", key, err)
			summary.Errors++
			return
		}
		summary.Added++
		summary.NewApplications = append(summary.NewApplications, app)
	}
}

func (p *Pipeline) markProcessed(emailID string) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.MarkProcessed(emailID); err != nil {
		log.Printf("ledger mark error id=%s: %v", emailID, err)
	}
}

func (p *Pipeline) retryBackoff() time.Duration {
	return time.Duration(p.cfg.LLMRetryBackoffSeconds) * time.Second
}

// withRetry runs fn up to attempts times with doubling backoff between
// tries. Blocked responses are final: retrying them wastes quota.
func withRetry(attempts int, backoff time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && backoff > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, errResponseBlocked) {
			return err
		}
	}
	return err
}
