package channel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/engine"
)

// PushChannel delivers native device notifications through an ntfy-style
// relay: the body is POSTed to {server}/{topic} and the phone app subscribed
// to that topic raises a local notification.
type PushChannel struct {
	httpClient *http.Client
	endpoint   string
	token      string
	logger     *slog.Logger
}

// PushConfig configures a PushChannel. Token is optional.
type PushConfig struct {
	ServerURL string
	Topic     string
	Token     string
	Timeout   time.Duration
	Logger    *slog.Logger
}

func NewPushChannel(cfg PushConfig) *PushChannel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PushChannel{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimRight(cfg.ServerURL, "/") + "/" + strings.TrimLeft(cfg.Topic, "/"),
		token:      cfg.Token,
		logger:     logger,
	}
}

func (c *PushChannel) Name() string             { return "native_push" }
func (c *PushChannel) Kind() engine.ChannelKind { return engine.KindNative }

func (c *PushChannel) Send(ctx context.Context, n engine.Notification) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(n.Body))
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", engine.ErrChannelDeliveryFailed, err)
	}

	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", n.Title)
	req.Header.Set("Tags", "bell")
	req.Header.Set("Priority", pushPriority(n.Offset))
	req.Header.Set("X-Reminder-ID", n.Tag)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", engine.ErrChannelDeliveryFailed, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	c.logger.Debug("push relay response", "tag", n.Tag, "status_code", resp.StatusCode)

	return statusError(resp.StatusCode, body)
}

// pushPriority keeps reminders for today and tomorrow on screen.
func pushPriority(offset int) string {
	if offset <= 1 {
		return "high"
	}
	return "default"
}
