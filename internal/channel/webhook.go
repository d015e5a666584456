package channel

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/engine"
)

// Limiter caps sends per target.
type Limiter interface {
	Allow(ctx context.Context, target string, limit int) bool
}

// WebhookPayload is the JSON body posted to the web push relay.
type WebhookPayload struct {
	Type         string              `json:"type"`
	Notification engine.Notification `json:"notification"`
	SentAt       time.Time           `json:"sent_at"`
}

// WebhookChannel posts signed reminders to a web push relay, which forwards
// them to the user's browser.
type WebhookChannel struct {
	httpClient *http.Client
	url        string
	secret     string
	limiter    Limiter
	rateLimit  int
	logger     *slog.Logger
}

// WebhookConfig configures a WebhookChannel. Limiter may be nil.
type WebhookConfig struct {
	URL       string
	Secret    string
	Timeout   time.Duration
	Limiter   Limiter
	RateLimit int
	Logger    *slog.Logger
}

func NewWebhookChannel(cfg WebhookConfig) *WebhookChannel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookChannel{
		httpClient: &http.Client{Timeout: timeout},
		url:        cfg.URL,
		secret:     cfg.Secret,
		limiter:    cfg.Limiter,
		rateLimit:  cfg.RateLimit,
		logger:     logger,
	}
}

func (c *WebhookChannel) Name() string             { return "web_push" }
func (c *WebhookChannel) Kind() engine.ChannelKind { return engine.KindWebPush }

// Send signs the payload with HMAC-SHA256 and POSTs it. 401 and 403 mean the
// relay has no permission to notify this user.
func (c *WebhookChannel) Send(ctx context.Context, n engine.Notification) error {
	if c.limiter != nil && !c.limiter.Allow(ctx, c.Name(), c.rateLimit) {
		return fmt.Errorf("%w: web push rate limited", engine.ErrChannelDeliveryFailed)
	}

	payload, err := json.Marshal(WebhookPayload{
		Type:         "subscription.reminder",
		Notification: n,
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %v", engine.ErrChannelDeliveryFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", engine.ErrChannelDeliveryFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Reminder-Signature", computeHMAC(payload, c.secret))
	req.Header.Set("X-Reminder-ID", n.Tag)
	req.Header.Set("X-Reminder-Offset", strconv.Itoa(n.Offset))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", engine.ErrChannelDeliveryFailed, err)
	}
	defer resp.Body.Close()

	// Only a short excerpt is kept for error messages.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	c.logger.Debug("web push response",
		"tag", n.Tag,
		"status_code", resp.StatusCode,
		"response_time_ms", time.Since(start).Milliseconds(),
	)

	return statusError(resp.StatusCode, body)
}

// statusError maps a relay response onto the dispatch error taxonomy.
func statusError(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: relay returned %d", engine.ErrPermissionDenied, status)
	case status >= 400:
		return fmt.Errorf("%w: relay returned %d: %s", engine.ErrChannelDeliveryFailed, status, bytes.TrimSpace(body))
	default:
		return nil
	}
}

// computeHMAC generates an HMAC-SHA256 signature for the payload.
func computeHMAC(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches payload under secret.
func VerifySignature(payload []byte, secret, signature string) bool {
	expected := computeHMAC(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
