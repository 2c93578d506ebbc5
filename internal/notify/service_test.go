package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mediascribe/internal/config"
)

type captured struct {
	method   string
	body     string
	title    string
	tags     string
	priority string
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.method = r.Method
		got.body = string(body)
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, got
}

func serviceFor(topic string) Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	return NewService(&cfg)
}

func TestWorkspaceCompletedNotification(t *testing.T) {
	server, got := newCaptureServer(t, http.StatusOK)
	svc := serviceFor(server.URL)

	if err := svc.NotifyWorkspaceCompleted(context.Background(), "photos2024", 42, 3); err != nil {
		t.Fatalf("NotifyWorkspaceCompleted failed: %v", err)
	}

	if got.method != http.MethodPost {
		t.Fatalf("method = %s, want POST", got.method)
	}
	if !strings.Contains(got.body, "photos2024") || !strings.Contains(got.body, "42 described") {
		t.Fatalf("body = %q", got.body)
	}
	if got.title != "mediascribe - Workspace Complete" {
		t.Fatalf("title = %q", got.title)
	}
	if got.tags != "mediascribe,batch,completed" {
		t.Fatalf("tags = %q", got.tags)
	}
	if got.priority != "" {
		t.Fatalf("default priority should not set the header, got %q", got.priority)
	}
}

func TestErrorNotificationUsesHighPriority(t *testing.T) {
	server, got := newCaptureServer(t, http.StatusOK)
	svc := serviceFor(server.URL)

	if err := svc.NotifyProcessingError(context.Background(), "photos2024", errors.New("boom")); err != nil {
		t.Fatalf("NotifyProcessingError failed: %v", err)
	}
	if got.priority != "high" {
		t.Fatalf("priority = %q, want high", got.priority)
	}
}

func TestSendReportsServerErrors(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusForbidden)
	svc := serviceFor(server.URL)

	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("error = %v, want 403 mention", err)
	}
}

func TestUnconfiguredTopicIsNoop(t *testing.T) {
	svc := serviceFor("")
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("service = %T, want noopService", svc)
	}
	if err := svc.NotifyBatchStarted(context.Background(), "ws", 10); err != nil {
		t.Fatalf("noop returned error: %v", err)
	}
}
