package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ateliedalu/backend-atacado/internal/events"
	"github.com/ateliedalu/backend-atacado/internal/resilience"
)

func webhookTask(t *testing.T) *asynq.Task {
	t.Helper()
	evt := events.Event{
		ID:         "evt-1",
		Topic:      events.TopicSpecialPriceActivated,
		SessionID:  "sess-1",
		Payload:    json.RawMessage(`{"product_id":"laco-1","qty":100}`),
		OccurredAt: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(evt)
	require.NoError(t, err)
	return asynq.NewTask(TaskTypeCRMWebhook, payload)
}

func TestHandleTaskSignsAndDelivers(t *testing.T) {
	var gotSig, gotTS, gotEventID string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotTS = r.Header.Get("X-Timestamp")
		gotEventID = r.Header.Get("X-Event-ID")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	fixed := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	wh := &Webhook{
		URL:    srv.URL,
		Secret: "s3cret",
		Client: srv.Client(),
		Log:    zerolog.Nop(),
		Now:    func() time.Time { return fixed },
	}
	require.NoError(t, wh.HandleTask(context.Background(), webhookTask(t)))

	require.Equal(t, "evt-1", gotEventID)
	require.Equal(t, "1787911200", gotTS)
	require.Equal(t, ComputeSignature("s3cret", fixed.Unix(), "evt-1", gotBody), gotSig)

	var delivered struct {
		Topic     string `json:"topic"`
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &delivered))
	require.Equal(t, events.TopicSpecialPriceActivated, delivered.Topic)
	require.Equal(t, "sess-1", delivered.SessionID)
}

func TestHandleTaskServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := &Webhook{URL: srv.URL, Secret: "s", Client: srv.Client(), Log: zerolog.Nop()}
	err := wh.HandleTask(context.Background(), webhookTask(t))
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleTaskClientErrorSkipsRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	wh := &Webhook{URL: srv.URL, Secret: "s", Client: srv.Client(), Log: zerolog.Nop()}
	err := wh.HandleTask(context.Background(), webhookTask(t))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleTaskRespectsOpenBreaker(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	breaker := resilience.NewBreaker(1, 0.5, time.Minute)
	breaker.Report(context.Background(), false)

	wh := &Webhook{URL: srv.URL, Secret: "s", Client: srv.Client(), Breaker: breaker, Log: zerolog.Nop()}
	err := wh.HandleTask(context.Background(), webhookTask(t))
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.Zero(t, calls)
}

func TestHandleTaskRejectsNonLocalPlainHTTP(t *testing.T) {
	wh := &Webhook{URL: "http://crm.example.com/hooks", Secret: "s", Log: zerolog.Nop()}
	err := wh.HandleTask(context.Background(), webhookTask(t))
	require.Error(t, err)
}
