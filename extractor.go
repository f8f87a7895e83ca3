package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
)

// ExtractionRejection is a first-class outcome, not an error: the email
// yielded no usable application record and should be skipped. A
// provider fault (blocked or failed call) is flagged so the pipeline
// can count it separately from a semantic "nothing here".
type ExtractionRejection struct {
	Reason        string
	ProviderFault bool
}

// Extractor turns one job-related email into a JobApplication record.
type Extractor struct {
	llm          llmClient
	template     PromptTemplate
	maxBodyChars int
}

func NewExtractor(llm llmClient, template PromptTemplate, maxBodyChars int) *Extractor {
	return &Extractor{llm: llm, template: template, maxBodyChars: maxBodyChars}
}

type extractedApplication struct {
	CompanyName   *string  `json:"company_name"`
	PositionTitle *string  `json:"position_title"`
	Status        *string  `json:"status"`
	Location      string   `json:"location"`
	ActionDate    string   `json:"action_date"`
	IsUpdate      bool     `json:"is_job_application_update"`
	Confidence    *float64 `json:"confidence"`
}

// Extract never panics and never aborts a run: every failure mode comes
// back as a rejection value.
func (e *Extractor) Extract(ctx context.Context, email Email) (JobApplication, *ExtractionRejection) {
	prompt := e.template.Render(map[string]string{
		"email_subject": email.Subject,
		"email_sender":  email.Sender,
		"email_body":    truncateBody(email.Body, e.maxBodyChars),
	})

	log.Printf("llm extract subject=%q", truncateBody(email.Subject, 60))
	responseText, err := e.llm.complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, errResponseBlocked) {
			return JobApplication{}, &ExtractionRejection{Reason: "response blocked by provider", ProviderFault: true}
		}
		return JobApplication{}, &ExtractionRejection{Reason: err.Error(), ProviderFault: true}
	}

	raw, ok := extractJSONObject(responseText)
	if !ok {
		return JobApplication{}, &ExtractionRejection{Reason: "no JSON object in response"}
	}

	var parsed extractedApplication
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return JobApplication{}, &ExtractionRejection{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}

	if parsed.CompanyName == nil || parsed.PositionTitle == nil || parsed.Status == nil {
		return JobApplication{}, &ExtractionRejection{Reason: "missing required fields"}
	}
	company := strings.TrimSpace(*parsed.CompanyName)
	position := strings.TrimSpace(*parsed.PositionTitle)
	if company == "" || position == "" {
		return JobApplication{}, &ExtractionRejection{Reason: "empty company or position"}
	}

	status := statusToken(*parsed.Status)
	if !ValidStatus(status) {
		return JobApplication{}, &ExtractionRejection{Reason: fmt.Sprintf("status %q outside the known set", *parsed.Status)}
	}

	confidence := 0.0
	if parsed.Confidence != nil {
		confidence = clampConfidence(*parsed.Confidence)
	}

	app := JobApplication{
		CompanyName:   company,
		PositionTitle: position,
		Status:        status,
		Location:      defaultUnknown(parsed.Location),
		ActionDate:    defaultUnknown(parsed.ActionDate),
		IsUpdate:      parsed.IsUpdate,
		Confidence:    confidence,
	}
	log.Printf("extracted company=%q position=%q status=%s update=%t confidence=%.2f",
		app.CompanyName, app.PositionTitle, app.Status, app.IsUpdate, app.Confidence)
	return app, nil
}

func defaultUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}

// extractJSONObject pulls the first {...} span out of a response that
// may carry fences or prose around the JSON.
func extractJSONObject(responseText string) (string, bool) {
	s := stripCodeFences(responseText)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
