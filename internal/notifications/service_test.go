package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"downmix/internal/config"
)

func newTestService(t *testing.T, handler http.HandlerFunc) Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	return NewService(&cfg)
}

func TestNoopWhenUnconfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	service := NewService(&cfg)
	if _, ok := service.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", service)
	}
	if err := service.NotifyRunStarted(context.Background(), "/library", 3); err != nil {
		t.Fatalf("noop should never error: %v", err)
	}
}

func TestNotifyRunCompletedPayload(t *testing.T) {
	var gotTitle, gotBody, gotPriority string
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotPriority = r.Header.Get("Priority")
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
	})

	err := service.NotifyRunCompleted(context.Background(), 4, 10, 1, 95*time.Second)
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if gotTitle != "downmix - Run Completed" {
		t.Fatalf("unexpected title: %q", gotTitle)
	}
	if !strings.Contains(gotBody, "4 processed, 10 skipped, 1 failed") {
		t.Fatalf("unexpected body: %q", gotBody)
	}
	if gotPriority != "high" {
		t.Fatalf("expected high priority when failures exist, got %q", gotPriority)
	}
}

func TestNotifyRejectedStatus(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	if err := service.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for rejected notification")
	}
}

func TestEventTogglesSuppressSends(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RunStarted = false
	service := NewService(&cfg)

	if err := service.NotifyRunStarted(context.Background(), "/library", 1); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected suppressed send, got %d calls", calls)
	}
}
