package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ateliedalu/backend-atacado/internal/events"
	"github.com/ateliedalu/backend-atacado/internal/obs"
	"github.com/ateliedalu/backend-atacado/internal/resilience"
)

// SignatureHeader carries the HMAC of the delivery payload.
const SignatureHeader = "X-Atacado-Signature"

// Webhook delivers cart events to the CRM endpoint. Retries are owned by the
// task queue; the breaker stops hammering a CRM that is already down.
type Webhook struct {
	URL     string
	Secret  string
	Client  *http.Client
	Breaker *resilience.Breaker
	Log     zerolog.Logger
	Now     func() time.Time
}

// HandleTask processes one queued delivery. Returning an error lets the queue
// retry with backoff; permanent failures skip retries.
func (w *Webhook) HandleTask(ctx context.Context, task *asynq.Task) error {
	var evt events.Event
	if err := json.Unmarshal(task.Payload(), &evt); err != nil {
		return fmt.Errorf("decode webhook task: %v: %w", err, asynq.SkipRetry)
	}
	if w.Breaker != nil && !w.Breaker.Allow(ctx) {
		w.countDelivery("suppressed")
		return resilience.ErrOpenCircuit
	}

	status, err := w.deliver(ctx, evt)
	success := err == nil && status >= 200 && status < 300
	if w.Breaker != nil {
		w.Breaker.Report(ctx, success)
	}
	if success {
		w.countDelivery("delivered")
		return nil
	}
	w.countDelivery("failed")
	w.Log.Warn().Err(err).Int("status", status).
		Str("event_id", evt.ID).Str("topic", evt.Topic).
		Msg("webhook delivery failed")
	if err == nil {
		err = fmt.Errorf("crm responded with status %d", status)
	}
	// client errors other than throttling will never succeed on retry
	if status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

func (w *Webhook) deliver(ctx context.Context, evt events.Event) (int, error) {
	if err := validateURL(w.URL); err != nil {
		return 0, err
	}
	body, err := json.Marshal(struct {
		EventID    string          `json:"eventId"`
		Topic      string          `json:"topic"`
		SessionID  string          `json:"sessionId"`
		Data       json.RawMessage `json:"data"`
		OccurredAt time.Time       `json:"occurredAt"`
	}{
		EventID:    evt.ID,
		Topic:      evt.Topic,
		SessionID:  evt.SessionID,
		Data:       evt.Payload,
		OccurredAt: evt.OccurredAt,
	})
	if err != nil {
		return 0, err
	}

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	ts := now().Unix()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "atacado-api-webhooks/1.0")
	req.Header.Set("X-Event-ID", evt.ID)
	req.Header.Set("X-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set(SignatureHeader, ComputeSignature(w.Secret, ts, evt.ID, body))

	client := w.Client
	if client == nil {
		client = HTTPClient(10*time.Second, false)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (w *Webhook) countDelivery(result string) {
	if obs.WebhookDeliveriesTotal != nil {
		obs.WebhookDeliveriesTotal.WithLabelValues(result).Inc()
	}
}

// ComputeSignature calculates the delivery signature: HMAC-SHA256 over
// "<ts>.<eventID>.<body>" using the shared secret.
func ComputeSignature(secret string, ts int64, eventID string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(ts, 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write([]byte(eventID))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return errors.New("webhook url must be http or https")
	}
	if parsed.Scheme == "http" {
		host := parsed.Hostname()
		if host != "localhost" && host != "127.0.0.1" {
			return errors.New("http webhook only allowed for localhost")
		}
	}
	if parsed.Host == "" {
		return errors.New("webhook url must include host")
	}
	return nil
}

// HTTPClient returns an instrumented HTTP client for webhook delivery.
func HTTPClient(timeout time.Duration, insecure bool) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := http.DefaultTransport
	if insecure {
		base = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(base),
	}
}
