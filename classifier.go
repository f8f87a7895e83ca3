package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// Classifier decides which emails in a batch are job-application
// related, with one LLM call per batch to conserve request quota.
type Classifier struct {
	llm          llmClient
	template     PromptTemplate
	maxBodyChars int
}

func NewClassifier(llm llmClient, template PromptTemplate, maxBodyChars int) *Classifier {
	return &Classifier{llm: llm, template: template, maxBodyChars: maxBodyChars}
}

type classifiedItem struct {
	Index        int     `json:"index"`
	IsJobRelated bool    `json:"is_job_related"`
	Confidence   float64 `json:"confidence"`
}

// ClassifyBatch returns one verdict per input email, positionally
// aligned. Any count or index mismatch in the model output fails the
// whole batch; the caller treats a failed batch as not job-related.
func (c *Classifier) ClassifyBatch(ctx context.Context, emails []Email) ([]ClassificationResult, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	var batch strings.Builder
	for i, email := range emails {
		fmt.Fprintf(&batch, "INDEX:%d\nFrom: %s\nSubject: %s\nBody: %s\n\n",
			i, email.Sender, email.Subject, truncateBody(email.Body, c.maxBodyChars))
	}

	prompt := c.template.Render(map[string]string{"email_batch": batch.String()})

	log.Printf("llm classify emails=%d", len(emails))
	responseText, err := c.llm.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	items, err := parseClassificationResponse(responseText, len(emails))
	if err != nil {
		return nil, err
	}

	results := make([]ClassificationResult, len(emails))
	for _, item := range items {
		results[item.Index] = ClassificationResult{
			EmailID:      emails[item.Index].ID,
			IsJobRelated: item.IsJobRelated,
			Confidence:   clampConfidence(item.Confidence),
		}
	}
	return results, nil
}

func parseClassificationResponse(responseText string, want int) ([]classifiedItem, error) {
	responseText = stripCodeFences(responseText)

	var items []classifiedItem
	if err := json.Unmarshal([]byte(responseText), &items); err != nil {
		return nil, fmt.Errorf("parsing classification response: %w (response: %s)", err, responseText)
	}
	if len(items) != want {
		return nil, fmt.Errorf("classification returned %d verdicts for %d emails", len(items), want)
	}

	seen := make(map[int]bool, want)
	for _, item := range items {
		if item.Index < 0 || item.Index >= want {
			return nil, fmt.Errorf("classification index %d out of range [0,%d)", item.Index, want)
		}
		if seen[item.Index] {
			return nil, fmt.Errorf("classification returned duplicate index %d", item.Index)
		}
		seen[item.Index] = true
	}
	return items, nil
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
