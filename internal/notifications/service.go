package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"downmix/internal/config"
)

const userAgent = "downmix/0.1.0"

// Service defines the notification surface exposed to the batch driver.
type Service interface {
	NotifyRunStarted(ctx context.Context, root string, candidates int) error
	NotifyRunCompleted(ctx context.Context, processed, skipped, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, detail string) error
	TestNotification(ctx context.Context) error
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
		runStarted:   cfg.Notifications.RunStarted,
		runCompleted: cfg.Notifications.RunCompleted,
		errors:       cfg.Notifications.Errors,
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
	runStarted   bool
	runCompleted bool
	errors       bool
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, root string, candidates int) error {
	if !n.runStarted {
		return nil
	}
	return n.send(ctx, payload{
		title:   "downmix - Run Started",
		message: fmt.Sprintf("Scanning %s (%d candidate files)", root, candidates),
		tags:    []string{"downmix", "run", "started"},
	})
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, processed, skipped, failed int, duration time.Duration) error {
	if !n.runCompleted {
		return nil
	}
	priority := ""
	if failed > 0 {
		priority = "high"
	}
	return n.send(ctx, payload{
		title: "downmix - Run Completed",
		message: fmt.Sprintf("%d processed, %d skipped, %d failed in %s",
			processed, skipped, failed, duration.Round(time.Second)),
		tags:     []string{"downmix", "run", "completed"},
		priority: priority,
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, detail string) error {
	if !n.errors {
		return nil
	}
	message := detail
	if err != nil {
		if message != "" {
			message += ": "
		}
		message += err.Error()
	}
	return n.send(ctx, payload{
		title:    "downmix - Error",
		message:  message,
		tags:     []string{"downmix", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:   "downmix - Test",
		message: "Notifications are working",
		tags:    []string{"downmix", "test"},
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification rejected: status %d", resp.StatusCode)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, string, int) error { return nil }
func (noopService) NotifyRunCompleted(context.Context, int, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
