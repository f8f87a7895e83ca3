package main

import (
	"testing"
)

func TestFormatRunSummary_NoEmails(t *testing.T) {
	got := FormatRunSummary(RunSummary{})
	want := "Sync complete: no new emails to process."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatRunSummary_AddedOnly(t *testing.T) {
	summary := RunSummary{
		Fetched: 5,
		Added:   1,
		NewApplications: []JobApplication{
			{CompanyName: "Acme", PositionTitle: "Software Engineer", Status: StatusApplied},
		},
	}
	got := FormatRunSummary(summary)
	want := "Sync complete: processed 5 emails, 1 added.\n• Acme — Software Engineer (applied)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatRunSummary_Mixed(t *testing.T) {
	summary := RunSummary{Fetched: 12, Added: 2, Updated: 1, Skipped: 9,
		NewApplications: []JobApplication{
			{CompanyName: "Acme", PositionTitle: "SE", Status: StatusApplied},
			{CompanyName: "Globex", PositionTitle: "SRE", Status: StatusInterviewScheduled},
		},
	}
	got := FormatRunSummary(summary)
	want := "Sync complete: processed 12 emails, 2 added, 1 updated, 9 skipped.\n" +
		"• Acme — SE (applied)\n• Globex — SRE (interview_scheduled)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatRunSummary_WithErrors(t *testing.T) {
	summary := RunSummary{Fetched: 3, Added: 0, Skipped: 2, Errors: 1}
	got := FormatRunSummary(summary)
	want := "Sync complete: processed 3 emails, 0 added, 2 skipped.\nWarnings: 1 errors during the run, see logs."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
