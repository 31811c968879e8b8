// Package notifications delivers sync events via ntfy push messages.
//
// The default implementation publishes to the topic configured in
// config.toml and degrades to a no-op when no topic is set. Per-event
// toggles let users silence completion chatter while keeping error
// alerts.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"satchel/internal/config"
)

const userAgent = "Satchel/0.1.0"

// Service is the notification surface exposed to the sync engine.
type Service interface {
	NotifySyncCompleted(ctx context.Context, synced, total int, duration time.Duration) error
	NotifyDownloadCompleted(ctx context.Context, itemName, serverName string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when
// configured. When no ntfy topic is configured, a noop implementation
// is returned.
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
		syncComplete: cfg.Notifications.SyncComplete,
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
	syncComplete bool
	errors       bool
}

func (n *ntfyService) NotifySyncCompleted(ctx context.Context, synced, total int, duration time.Duration) error {
	if !n.syncComplete {
		return nil
	}

	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title, message string
	if synced == total {
		title = "Satchel - Sync Complete"
		message = fmt.Sprintf("Synced %d servers in %s", synced, duration)
	} else {
		title = "Satchel - Sync Complete (with errors)"
		message = fmt.Sprintf("Synced %d of %d servers in %s", synced, total, duration)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"satchel", "sync", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDownloadCompleted(ctx context.Context, itemName, serverName string) error {
	if !n.syncComplete {
		return nil
	}

	itemName = strings.TrimSpace(itemName)
	message := fmt.Sprintf("Downloaded: %s", itemName)
	if serverName = strings.TrimSpace(serverName); serverName != "" {
		message = fmt.Sprintf("%s (%s)", message, serverName)
	}

	data := payload{
		title:   "Satchel - Download Complete",
		message: message,
		tags:    []string{"satchel", "download", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}

	var builder strings.Builder
	builder.WriteString("Error")
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
		title:    "Satchel - Error",
		message:  builder.String(),
		tags:     []string{"satchel", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Satchel - Test",
		message:  "Notification system test",
		tags:     []string{"satchel", "test"},
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

func (noopService) NotifySyncCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyDownloadCompleted(context.Context, string, string) error      { return nil }
func (noopService) NotifyError(context.Context, error, string) error                   { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
