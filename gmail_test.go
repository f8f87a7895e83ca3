package main

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/gmail/v1"
)

func encodeBody(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestParseMessageHeadersAndBody(t *testing.T) {
	msg := &gmail.Message{
		Id: "m1",
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: " Your application to Acme "},
				{Name: "From", Value: "jobs@acme.com"},
				{Name: "To", Value: "me@example.com"},
				{Name: "Date", Value: "Mon, 24 Aug 2026 10:30:00 +0200"},
			},
			MimeType: "text/plain",
			Body:     &gmail.MessagePartBody{Data: encodeBody("Thanks for applying.")},
		},
	}

	email := parseMessage(msg)
	if email.ID != "m1" || email.Subject != "Your application to Acme" {
		t.Errorf("got %+v", email)
	}
	if email.Sender != "jobs@acme.com" || email.Recipient != "me@example.com" {
		t.Errorf("got %+v", email)
	}
	if email.Body != "Thanks for applying." {
		t.Errorf("got body %q", email.Body)
	}
	if email.Date.IsZero() {
		t.Error("date not parsed")
	}
}

func TestCollectBodySanitizesHTMLParts(t *testing.T) {
	part := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "text/html",
				Body:     &gmail.MessagePartBody{Data: encodeBody("<p>Interview on <b>Friday</b></p>")},
			},
		},
	}
	body := collectBody(part)
	if strings.ContainsAny(body, "<>") {
		t.Errorf("markup left in body: %q", body)
	}
	if !strings.Contains(body, "Interview on Friday") {
		t.Errorf("got body %q", body)
	}
}

func TestCollectBodyIgnoresAttachments(t *testing.T) {
	part := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: encodeBody("see attachment")},
			},
			{
				MimeType: "application/pdf",
				Body:     &gmail.MessagePartBody{Data: encodeBody("%PDF-1.4")},
			},
		},
	}
	body := collectBody(part)
	if body != "see attachment" {
		t.Errorf("got body %q", body)
	}
}

func TestDecodeBodyRawEncodingFallback(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString([]byte("no padding here"))
	if got := decodeBody(raw); got != "no padding here" {
		t.Errorf("got %q", got)
	}
}

func TestParseMessageDateLayouts(t *testing.T) {
	cases := []string{
		"Mon, 24 Aug 2026 10:30:00 +0200",
		"24 Aug 2026 10:30:00 +0200",
		"Mon, 24 Aug 2026 10:30:00 +0200 (CEST)",
	}
	for _, value := range cases {
		got := parseMessageDate(value)
		if got.IsZero() {
			t.Errorf("failed to parse %q", value)
			continue
		}
		if got.Year() != 2026 || got.Month() != time.August || got.Day() != 24 {
			t.Errorf("parsed %q as %v", value, got)
		}
	}
}
