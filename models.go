package main

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle stage of a tracked job application.
type Status string

const (
	StatusApplied            Status = "applied"
	StatusRejected           Status = "rejected"
	StatusInterviewScheduled Status = "interview_scheduled"
	StatusInterviewCompleted Status = "interview_completed"
	StatusOffer              Status = "offer"
	StatusOfferAccepted      Status = "offer_accepted"
	StatusOfferDeclined      Status = "offer_declined"
	StatusWithdrawn          Status = "withdrawn"
	StatusOnHold             Status = "on_hold"
	StatusUnknown            Status = "unknown"
)

var allStatuses = []Status{
	StatusApplied, StatusRejected, StatusInterviewScheduled,
	StatusInterviewCompleted, StatusOffer, StatusOfferAccepted,
	StatusOfferDeclined, StatusWithdrawn, StatusOnHold, StatusUnknown,
}

func ValidStatus(s Status) bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// statusToken canonicalizes case, spacing and dashes without forcing
// membership in the status set.
func statusToken(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return Status(s)
}

// NormalizeStatus maps free-form model output onto the fixed status set.
// Anything unrecognizable becomes StatusUnknown.
func NormalizeStatus(raw string) Status {
	if s := statusToken(raw); ValidStatus(s) {
		return s
	}
	return StatusUnknown
}

// Email is one mailbox message after body sanitization.
type Email struct {
	ID        string
	Subject   string
	Sender    string
	Recipient string
	Body      string // plain text, HTML already stripped
	Date      time.Time
}

// ClassificationResult is the per-email verdict of a classification batch.
// Results are positionally aligned with the batch input.
type ClassificationResult struct {
	EmailID      string
	IsJobRelated bool
	Confidence   float64
}

// JobApplication is the structured record extracted from one email.
// Unknown fields carry the "unknown" sentinel.
type JobApplication struct {
	CompanyName   string
	PositionTitle string
	Status        Status
	Location      string
	ActionDate    string
	IsUpdate      bool // genuine status update vs. job ad / promotion
	Confidence    float64
}

// UniqueKey is the dedup identity: a changed status for the same
// company/position pair updates the stored row instead of adding one.
func (a JobApplication) UniqueKey() string {
	return strings.ToLower(strings.TrimSpace(a.CompanyName)) + "|" +
		strings.ToLower(strings.TrimSpace(a.PositionTitle))
}

// resolveField keeps the previously stored value when the extracted one
// is the "unknown" sentinel, so updates never erase known data.
func resolveField(extracted, stored string) string {
	if extracted == "" || extracted == "unknown" {
		return stored
	}
	return extracted
}

var dateLayouts = []string{"2006-01-02", "2006/1/2", "2006-1-2"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
}

// ParseDateRange parses the run window. The end date is exclusive at day
// granularity, matching the mailbox query semantics.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	from, err := parseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return from, to, nil
}
