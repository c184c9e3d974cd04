package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"platepipe/internal/config"
)

const userAgent = "platepipe/0.1.0"

// Service defines the notification surface exposed to the run command.
type Service interface {
	NotifyRunStarted(ctx context.Context, units int) error
	NotifyRunCompleted(ctx context.Context, completed, failed, review int, duration time.Duration) error
	NotifyTaskFailed(ctx context.Context, stage, groupKey string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, units int) error {
	data := payload{
		title:   "platepipe - Run Started",
		message: fmt.Sprintf("Started run with %d task units", units),
		tags:    []string{"platepipe", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, completed, failed, review int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title, message string
	switch {
	case failed == 0 && review == 0:
		title = "platepipe - Run Complete"
		message = fmt.Sprintf("Run complete: %d units in %s", completed, durationText)
	case failed == 0:
		title = "platepipe - Run Complete (review needed)"
		message = fmt.Sprintf("Run complete: %d succeeded, %d parked for review in %s", completed, review, durationText)
	default:
		title = "platepipe - Run Complete (with errors)"
		message = fmt.Sprintf("Run complete: %d succeeded, %d failed, %d for review in %s", completed, failed, review, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"platepipe", "run", "completed"},
	}
	if failed > 0 {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTaskFailed(ctx context.Context, stage, groupKey string, err error) error {
	detail := "unknown"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "platepipe - Task Failed",
		message:  fmt.Sprintf("%s %s: %s", stage, groupKey, detail),
		tags:     []string{"platepipe", "task", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "platepipe - Test",
		message:  "Notification system test",
		tags:     []string{"platepipe", "test"},
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

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, int) error { return nil }
func (noopService) NotifyRunCompleted(context.Context, int, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyTaskFailed(context.Context, string, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
