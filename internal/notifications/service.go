package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dailycast/internal/config"
	"dailycast/internal/logging"
)

const userAgent = "dailycast/0.1.0"

// Service is the notification surface the pipeline and CLI depend on.
type Service interface {
	IngestCompleted(ctx context.Context, locale, title string)
	IngestFailed(ctx context.Context, locale string, err error)
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config, logger *slog.Logger) Service {
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
		ingestEvents: cfg.Notifications.Ingest,
		errorEvents:  cfg.Notifications.Errors,
		logger:       logging.NewComponentLogger(logger, "notifications"),
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
	ingestEvents bool
	errorEvents  bool
	logger       *slog.Logger
}

func (n *ntfyService) IngestCompleted(ctx context.Context, locale, title string) {
	if !n.ingestEvents {
		return
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Dailycast - New Episode",
		message: fmt.Sprintf("Published %q (%s)", title, locale),
		tags:    []string{"dailycast", "ingest", "completed"},
	}
	n.deliver(ctx, data)
}

func (n *ntfyService) IngestFailed(ctx context.Context, locale string, err error) {
	if !n.errorEvents {
		return
	}
	detail := "unknown"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "Dailycast - Ingest Failed",
		message:  fmt.Sprintf("Ingest for %s failed: %s", locale, detail),
		tags:     []string{"dailycast", "ingest", "failed"},
		priority: "high",
	}
	n.deliver(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Dailycast - Test",
		message:  "Notification system test",
		tags:     []string{"dailycast", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) deliver(ctx context.Context, data payload) {
	if err := n.send(ctx, data); err != nil {
		n.logger.Warn("notification delivery failed",
			logging.String("title", data.title),
			logging.Error(err))
	}
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

type noopService struct{}

func (noopService) IngestCompleted(context.Context, string, string) {}

func (noopService) IngestFailed(context.Context, string, error) {}

func (noopService) TestNotification(context.Context) error { return nil }
