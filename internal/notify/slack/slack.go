// Package slack posts escalation alerts for critical assessments to Slack via
// incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linnemanlabs/firstline/internal/assess"
	"github.com/linnemanlabs/firstline/internal/triage"
)

const (
	maxFindings     = 3
	maxSummaryLen   = 1500
	httpTimeout     = 10 * time.Second
	timeLayoutSlack = "2006-01-02 15:04 UTC"
)

// Notifier implements assess.Notifier against a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a Slack notifier. If webhookURL is empty, Notify is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout:   httpTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Notify posts the assessment to the configured webhook.
func (n *Notifier) Notify(ctx context.Context, r *assess.Result) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(buildMessage(r))
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(r *assess.Result) map[string]any {
	return map[string]any{
		"text": fallbackText(r),
		"blocks": []map[string]any{
			headerBlock(r),
			fieldsBlock(r),
			findingsBlock(r),
			{"type": "divider"},
			contextBlock(r),
		},
	}
}

// fallbackText is shown in notifications where blocks are not rendered.
func fallbackText(r *assess.Result) string {
	return fmt.Sprintf("%s patient, score %d", r.Triage.Priority, r.Triage.Score)
}

func headerBlock(r *assess.Result) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": fmt.Sprintf("%s %s: %s", priorityEmoji(r.Triage.Priority), r.Triage.Priority, r.Triage.RecommendedAction),
		},
	}
}

func fieldsBlock(r *assess.Result) map[string]any {
	mode := "remote"
	if r.UsedOffline {
		mode = "offline"
	}
	return map[string]any{
		"type": "section",
		"fields": []map[string]any{
			{"type": "mrkdwn", "text": fmt.Sprintf("*Score:* %d", r.Triage.Score)},
			{"type": "mrkdwn", "text": fmt.Sprintf("*Pathway:* %s", r.Triage.DecisionPathway)},
			{"type": "mrkdwn", "text": fmt.Sprintf("*Mode:* %s", mode)},
			{"type": "mrkdwn", "text": fmt.Sprintf("*Language:* %s", r.Language)},
		},
	}
}

func findingsBlock(r *assess.Result) map[string]any {
	text := "_No abnormal findings recorded._"
	if n := len(r.Triage.Reasons); n > 0 {
		var b bytes.Buffer
		b.WriteString("*Findings*\n")
		for i, reason := range r.Triage.Reasons {
			if i == maxFindings {
				fmt.Fprintf(&b, "• and %d more\n", n-maxFindings)
				break
			}
			fmt.Fprintf(&b, "• %s\n", reason)
		}
		text = truncate(b.String(), maxSummaryLen)
	}
	return map[string]any{
		"type": "section",
		"text": map[string]any{"type": "mrkdwn", "text": text},
	}
}

func contextBlock(r *assess.Result) map[string]any {
	ts := r.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{
				"type": "mrkdwn",
				"text": fmt.Sprintf("firstline • assessment %s • %s", r.ID, ts.UTC().Format(timeLayoutSlack)),
			},
		},
	}
}

func priorityEmoji(p triage.Priority) string {
	switch p {
	case triage.PriorityCritical:
		return "\U0001f534" // red circle
	case triage.PriorityUrgent:
		return "\U0001f7e0" // orange circle
	case triage.PriorityStable:
		return "\U0001f7e2" // green circle
	default:
		return "\u26aa" // white circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
