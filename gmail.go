package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailUser = "me"

// GmailSource fetches inbox emails for a date range through the Gmail
// API, sanitizing HTML parts on the way out.
type GmailSource struct {
	srv        *gmail.Service
	maxResults int64
}

func NewGmailSource(ctx context.Context, credentialsPath, tokenPath string, maxResults int64) (*GmailSource, error) {
	httpClient, err := googleHTTPClient(ctx, credentialsPath, tokenPath, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, err
	}
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return &GmailSource{srv: srv, maxResults: maxResults}, nil
}

// Fetch lists primary-inbox messages in [start, end). A failed list
// call means the source is unavailable; a single unreadable message is
// logged and skipped.
func (s *GmailSource) Fetch(ctx context.Context, start, end time.Time) ([]Email, error) {
	query := fmt.Sprintf("after:%s before:%s category:primary",
		start.Format("2006/01/02"), end.Format("2006/01/02"))

	list, err := s.srv.Users.Messages.List(gmailUser).
		Q(query).
		LabelIds("INBOX").
		MaxResults(s.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	if len(list.Messages) == 0 {
		log.Printf("gmail no messages for %s", query)
		return nil, nil
	}

	var emails []Email
	for _, msg := range list.Messages {
		full, err := s.srv.Users.Messages.Get(gmailUser, msg.Id).Format("full").Context(ctx).Do()
		if err != nil {
			log.Printf("gmail get message %s failed: %v", msg.Id, err)
			continue
		}
		emails = append(emails, parseMessage(full))
	}
	log.Printf("gmail fetched=%d query=%q", len(emails), query)
	return emails, nil
}

func parseMessage(msg *gmail.Message) Email {
	email := Email{ID: msg.Id}
	if msg.Payload == nil {
		return email
	}
	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "Subject":
			email.Subject = strings.TrimSpace(header.Value)
		case "From":
			email.Sender = strings.TrimSpace(header.Value)
		case "To":
			email.Recipient = strings.TrimSpace(header.Value)
		case "Date":
			email.Date = parseMessageDate(header.Value)
		}
	}
	email.Body = collectBody(msg.Payload)
	return email
}

// collectBody walks the MIME tree concatenating text parts, converting
// HTML parts to plain text so the invariant "no markup past the source"
// holds.
func collectBody(part *gmail.MessagePart) string {
	var body strings.Builder
	if part.Body != nil && part.Body.Data != "" {
		switch part.MimeType {
		case "text/plain":
			body.WriteString(decodeBody(part.Body.Data))
		case "text/html":
			body.WriteString(Sanitize(decodeBody(part.Body.Data)))
		}
	}
	for _, child := range part.Parts {
		body.WriteString(collectBody(child))
	}
	return body.String()
}

func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			log.Printf("gmail body decode failed: %v", err)
			return ""
		}
	}
	return string(decoded)
}

var messageDateLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
}

func parseMessageDate(value string) time.Time {
	for _, layout := range messageDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	log.Printf("gmail unparseable date %q", value)
	return time.Time{}
}
