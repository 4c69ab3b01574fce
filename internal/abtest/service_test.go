package abtest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ateliedalu/backend-atacado/internal/events"
)

type exposureSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (e *exposureSink) Record(_ context.Context, evt events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, evt)
	return nil
}

func newTestService() (*Service, *exposureSink) {
	sink := &exposureSink{}
	return &Service{
		Experiments: DefaultExperiments(),
		Events:      &events.Bus{Sinks: []events.Sink{sink}},
		Log:         zerolog.Nop(),
	}, sink
}

func TestAssignIsDeterministicPerSession(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Assign(ctx, "opportunity-nudge", "sess-1")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := svc.Assign(ctx, "opportunity-nudge", "sess-1")
		require.NoError(t, err)
		require.Equal(t, first.Variant, again.Variant)
	}
}

func TestAssignUnknownExperiment(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Assign(context.Background(), "nope", "sess-1")
	require.ErrorIs(t, err, ErrExperimentNotFound)
}

func TestAssignRecordsExposure(t *testing.T) {
	svc, sink := newTestService()
	_, err := svc.Assign(context.Background(), "opportunity-nudge", "sess-1")
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	require.Equal(t, events.TopicExperimentExposed, sink.events[0].Topic)
	require.Equal(t, "sess-1", sink.events[0].SessionID)
}

func TestAssignSplitsTrafficAcrossVariants(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	seen := map[string]int{}
	for i := 0; i < 400; i++ {
		a, err := svc.Assign(ctx, "opportunity-nudge", fmt.Sprintf("sess-%d", i))
		require.NoError(t, err)
		seen[a.Variant]++
	}
	require.Len(t, seen, 2)
	for variant, count := range seen {
		require.Greaterf(t, count, 100, "variant %s starved", variant)
	}
}
