package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/slack-go/slack"
)

// Notifier posts run summaries to a Slack channel. It is optional: with
// no token or channel configured NewNotifier returns nil and callers
// skip posting.
type Notifier struct {
	api       *slack.Client
	channelID string
}

func NewNotifier(cfg Config) *Notifier {
	if cfg.SlackBotToken == "" || cfg.SlackChannelID == "" {
		log.Println("Slack notifications disabled (slack_bot_token or slack_channel_id not set)")
		return nil
	}
	return &Notifier{
		api:       slack.New(cfg.SlackBotToken),
		channelID: cfg.SlackChannelID,
	}
}

func (n *Notifier) PostRunSummary(summary RunSummary) {
	if n == nil {
		return
	}
	_, _, err := n.api.PostMessage(n.channelID, slack.MsgOptionText(FormatRunSummary(summary), false))
	if err != nil {
		log.Printf("Slack post error: %v", err)
	}
}

// FormatRunSummary returns a human-readable summary of a pipeline run.
func FormatRunSummary(summary RunSummary) string {
	if summary.Fetched == 0 {
		return "Sync complete: no new emails to process."
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d added", summary.Added))
	if summary.Updated > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", summary.Updated))
	}
	if summary.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", summary.Skipped))
	}
	msg := fmt.Sprintf("Sync complete: processed %d emails, %s.",
		summary.Fetched, strings.Join(parts, ", "))

	for _, app := range summary.NewApplications {
		msg += fmt.Sprintf("\n• %s — %s (%s)", app.CompanyName, app.PositionTitle, app.Status)
	}
	if summary.Errors > 0 {
		msg += fmt.Sprintf("\nWarnings: %d errors during the run, see logs.", summary.Errors)
	}
	return msg
}
