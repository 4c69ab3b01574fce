package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ateliedalu/backend-atacado/internal/events"
)

func newTestAnalytics(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	fixed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	return &Service{
		R:            client,
		DefaultRange: 30,
		Now:          func() time.Time { return fixed },
	}, mr
}

func TestRecordIncrementsDailyCounter(t *testing.T) {
	svc, mr := newTestAnalytics(t)
	ctx := context.Background()
	evt := events.Event{
		Topic:      events.TopicCartItemAdded,
		SessionID:  "sess-1",
		OccurredAt: time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC),
	}

	require.NoError(t, svc.Record(ctx, evt))
	require.NoError(t, svc.Record(ctx, evt))

	got, err := mr.Get("an:cart.item_added:2026-08-28")
	require.NoError(t, err)
	require.Equal(t, "2", got)
	require.Greater(t, mr.TTL("an:cart.item_added:2026-08-28"), time.Duration(0))
}

func TestRangeReturnsRecentDaysFirst(t *testing.T) {
	svc, _ := newTestAnalytics(t)
	ctx := context.Background()

	for i, day := range []time.Time{
		time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
	} {
		for j := 0; j <= i; j++ {
			require.NoError(t, svc.Record(ctx, events.Event{
				Topic:      events.TopicSpecialPriceActivated,
				SessionID:  "sess-1",
				OccurredAt: day,
			}))
		}
	}

	report, err := svc.Range(ctx, 2)
	require.NoError(t, err)
	counts := report.Topics[events.TopicSpecialPriceActivated]
	require.Len(t, counts, 2)
	require.Equal(t, DayCount{Day: "2026-08-28", Count: 1}, counts[0])
	require.Equal(t, DayCount{Day: "2026-08-27", Count: 2}, counts[1])
}

func TestRangeClampsWindow(t *testing.T) {
	svc, _ := newTestAnalytics(t)
	report, err := svc.Range(context.Background(), 500)
	require.NoError(t, err)
	require.Equal(t, 90, report.Days)
}
