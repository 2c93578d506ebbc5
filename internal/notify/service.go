package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mediascribe/internal/config"
)

const userAgent = "mediascribe/0.1.0"

// Service is the push-notification surface used by the CLI and the watch
// monitor.
type Service interface {
	NotifyBatchStarted(ctx context.Context, workspace string, total int) error
	NotifyWorkspaceCompleted(ctx context.Context, workspace string, completed, failed int) error
	NotifyProcessingError(ctx context.Context, workspace string, err error) error
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

func (n *ntfyService) NotifyBatchStarted(ctx context.Context, workspace string, total int) error {
	data := payload{
		title:   "mediascribe - Batch Started",
		message: fmt.Sprintf("Describing %d files in %s", total, workspace),
		tags:    []string{"mediascribe", "batch", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyWorkspaceCompleted(ctx context.Context, workspace string, completed, failed int) error {
	data := payload{
		title:   "mediascribe - Workspace Complete",
		message: fmt.Sprintf("%s finished: %d described, %d failed", workspace, completed, failed),
		tags:    []string{"mediascribe", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProcessingError(ctx context.Context, workspace string, err error) error {
	data := payload{
		title:    "mediascribe - Error",
		message:  fmt.Sprintf("%s: %v", workspace, err),
		tags:     []string{"mediascribe", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "mediascribe - Test",
		message:  "Notification system test",
		tags:     []string{"mediascribe", "test"},
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

func (noopService) NotifyBatchStarted(context.Context, string, int) error           { return nil }
func (noopService) NotifyWorkspaceCompleted(context.Context, string, int, int) error { return nil }
func (noopService) NotifyProcessingError(context.Context, string, error) error      { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
