package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"radiograb/internal/config"
)

const (
	userAgent      = "radiograb/0.1"
	maxListedItems = 10
)

// Service defines the notification surface used by the run command.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary RunSummary) error
	NotifyError(ctx context.Context, err error, label string) error
	TestNotification(ctx context.Context) error
}

// RunSummary is what one run achieved.
type RunSummary struct {
	RunID      string
	Downloaded []string
	Converted  []string
	Failed     int
	Skipped    int
	Duration   time.Duration
}

// Changed reports whether the run produced or failed anything.
func (s RunSummary) Changed() bool {
	return len(s.Downloaded) > 0 || len(s.Converted) > 0 || s.Failed > 0
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		onlyOnChange: cfg.Notifications.OnlyOnChange,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	onlyOnChange bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary RunSummary) error {
	if n.onlyOnChange && !summary.Changed() {
		return nil
	}

	duration := summary.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d downloaded, %d converted", len(summary.Downloaded), len(summary.Converted))
	if summary.Failed > 0 {
		fmt.Fprintf(&b, ", %d failed", summary.Failed)
	}
	if summary.Skipped > 0 {
		fmt.Fprintf(&b, ", %d already present", summary.Skipped)
	}
	fmt.Fprintf(&b, " in %s", duration)
	writeList(&b, summary.Downloaded)

	data := payload{
		title:   "radiograb - Run Complete",
		message: b.String(),
		tags:    []string{"radiograb", "run", "completed"},
	}
	if summary.Failed > 0 {
		data.title = "radiograb - Run Complete (with errors)"
		data.tags = []string{"radiograb", "run", "warning"}
	}
	if summary.RunID != "" {
		data.tags = append(data.tags, "run-"+shortID(summary.RunID))
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "radiograb - Error",
		message:  builder.String(),
		tags:     []string{"radiograb", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "radiograb - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"radiograb", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func writeList(b *strings.Builder, items []string) {
	for i, item := range items {
		if i == maxListedItems {
			fmt.Fprintf(b, "\n… and %d more", len(items)-maxListedItems)
			return
		}
		b.WriteString("\n• ")
		b.WriteString(item)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunSummary) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error    { return nil }
func (noopService) TestNotification(context.Context) error              { return nil }
