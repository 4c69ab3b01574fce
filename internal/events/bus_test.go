package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ateliedalu/backend-atacado/internal/events"
)

type captureSink struct {
	events []events.Event
	err    error
}

func (c *captureSink) Record(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

type captureScheduler struct {
	events []events.Event
}

func (c *captureScheduler) Schedule(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

func TestEmitFansOut(t *testing.T) {
	sink := &captureSink{}
	scheduler := &captureScheduler{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	bus := events.Bus{
		Sinks:     []events.Sink{sink},
		Scheduler: scheduler,
		Now:       func() time.Time { return now },
	}

	payload := map[string]any{"productId": "p-1", "qty": 10}
	event, err := bus.Emit(context.Background(), events.TopicCartItemAdded, "sess-1", payload)
	require.NoError(t, err)
	require.Equal(t, events.TopicCartItemAdded, event.Topic)
	require.Equal(t, "sess-1", event.SessionID)
	require.Equal(t, now, event.OccurredAt)
	require.NotEmpty(t, event.ID)
	require.Len(t, sink.events, 1)
	require.Len(t, scheduler.events, 1)
	require.Equal(t, event.ID, scheduler.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "p-1", decoded["productId"])
}

func TestEmitRequiresTopicAndSession(t *testing.T) {
	bus := events.Bus{}
	_, err := bus.Emit(context.Background(), "", "sess-1", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicCartViewed, "  ", nil)
	require.Error(t, err)
}

func TestEmitJoinsSinkErrors(t *testing.T) {
	failing := &captureSink{err: errors.New("boom")}
	ok := &captureSink{}
	bus := events.Bus{Sinks: []events.Sink{failing, ok}}

	event, err := bus.Emit(context.Background(), events.TopicCartCleared, "sess-1", nil)
	require.Error(t, err)
	// the event is still delivered to the remaining sinks
	require.Len(t, ok.events, 1)
	require.JSONEq(t, `{}`, string(event.Payload))
}

func TestEmitRejectsInvalidRawPayload(t *testing.T) {
	bus := events.Bus{}
	_, err := bus.Emit(context.Background(), events.TopicCartViewed, "sess-1", []byte("{not json"))
	require.Error(t, err)
}
