package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Prompt templates are configuration: plain text with {name} placeholders.
// Placeholder sets are checked at startup so a typo in a custom template
// surfaces as a config error, never mid-run.

const defaultClassificationTemplate = `You review emails and decide which ones relate to a job application the
recipient has submitted: application confirmations, recruiter replies,
interview invitations, rejections, offers. Job advertisements, newsletters
and promotions are NOT job related.

Emails (one per INDEX marker):
{email_batch}

Respond with JSON only (no markdown), one object per INDEX, in index order:
[{"index": 0, "is_job_related": true, "confidence": 0.95}, ...]`

const defaultExtractionTemplate = `Analyze this email and determine whether it is an update about a job
application the recipient submitted. A job advertisement or promotion is
not an update.

From: {email_sender}
Subject: {email_subject}
Body:
{email_body}

Use "unknown" for any value that cannot be determined. status must be one
of: applied, rejected, interview_scheduled, interview_completed, offer,
offer_accepted, offer_declined, withdrawn, on_hold, unknown.

Respond with JSON only (no markdown):
{"company_name": "...", "position_title": "...", "status": "...", "location": "...", "action_date": "YYYY-MM-DD", "is_job_application_update": true, "confidence": 0.9}`

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

type PromptTemplate struct {
	name string
	text string
}

// LoadPromptTemplate reads a template from path, or uses the built-in
// fallback when path is empty.
func LoadPromptTemplate(name, path, fallback string) (PromptTemplate, error) {
	if strings.TrimSpace(path) == "" {
		return PromptTemplate{name: name, text: fallback}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return PromptTemplate{}, fmt.Errorf("read %s template: %w", name, err)
	}
	return PromptTemplate{name: name, text: string(data)}, nil
}

// Validate rejects templates referencing placeholders the caller will
// never substitute.
func (t PromptTemplate) Validate(allowed ...string) error {
	known := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		known[name] = true
	}
	for _, match := range placeholderPattern.FindAllStringSubmatch(t.text, -1) {
		if !known[match[1]] {
			return fmt.Errorf("%s template references unknown placeholder {%s}", t.name, match[1])
		}
	}
	return nil
}

func (t PromptTemplate) Render(vars map[string]string) string {
	out := t.text
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}
