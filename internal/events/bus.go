package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ateliedalu/backend-atacado/internal/obs"
)

// Event is a cart-domain event carried to analytics sinks and the CRM
// webhook scheduler. Payload is a flat JSON property bag.
type Event struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	SessionID  string          `json:"sessionId"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Sink receives emitted events (e.g. analytics counters).
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// Scheduler schedules external deliveries for emitted events.
type Scheduler interface {
	Schedule(ctx context.Context, event Event) error
}

// Bus fans emitted events out to downstream handlers. Emission is
// best-effort: callers log and swallow the joined error, cart state is never
// rolled back on sink failure.
type Bus struct {
	Sinks     []Sink
	Scheduler Scheduler
	Now       func() time.Time
}

func (b *Bus) now() time.Time {
	if b != nil && b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Emit builds the event and dispatches it to all configured handlers.
func (b *Bus) Emit(ctx context.Context, topic string, sessionID string, payload any) (Event, error) {
	if b == nil {
		return Event{}, errors.New("events: bus not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Event{}, errors.New("events: topic is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return Event{}, errors.New("events: session id is required")
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		return Event{}, fmt.Errorf("events: encode payload: %w", err)
	}
	ev := Event{
		ID:         uuid.NewString(),
		Topic:      topic,
		SessionID:  sessionID,
		Payload:    encoded,
		OccurredAt: b.now(),
	}
	if obs.EventsEmittedTotal != nil {
		obs.EventsEmittedTotal.WithLabelValues(topic).Inc()
	}
	var joined error
	if b.Scheduler != nil {
		if schedErr := b.Scheduler.Schedule(ctx, ev); schedErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: schedule deliveries: %w", schedErr))
		}
	}
	for _, sink := range b.Sinks {
		if sink == nil {
			continue
		}
		if recErr := sink.Record(ctx, ev); recErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: sink: %w", recErr))
		}
	}
	return ev, joined
}

func encodePayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return json.RawMessage("{}"), nil
	}
	switch v := payload.(type) {
	case []byte:
		if len(v) == 0 {
			return json.RawMessage("{}"), nil
		}
		if !json.Valid(v) {
			return nil, errors.New("payload is not valid json")
		}
		return append(json.RawMessage(nil), v...), nil
	case json.RawMessage:
		if len(v) == 0 {
			return json.RawMessage("{}"), nil
		}
		if !json.Valid(v) {
			return nil, errors.New("payload is not valid json")
		}
		return append(json.RawMessage(nil), v...), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return json.RawMessage("{}"), nil
		}
		data := json.RawMessage(v)
		if !json.Valid(data) {
			return nil, errors.New("payload is not valid json")
		}
		return data, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}
