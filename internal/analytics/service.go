package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ateliedalu/backend-atacado/internal/events"
)

const counterRetention = 90 * 24 * time.Hour

// Service records domain events as per-day counters in Redis and serves the
// aggregated report. It implements events.Sink.
type Service struct {
	R      *redis.Client
	Topics []string

	// DefaultRange is the number of days the report covers when the caller
	// does not ask for a specific window.
	DefaultRange int

	Log zerolog.Logger
	Now func() time.Time
}

// DayCount is the event count for one topic on one day.
type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// Report aggregates counters per topic over a day range.
type Report struct {
	Days   int                   `json:"days"`
	Topics map[string][]DayCount `json:"topics"`
}

func counterKey(topic, day string) string {
	return fmt.Sprintf("an:%s:%s", topic, day)
}

// Record increments the daily counter for the event topic. Counters expire
// after the retention window.
func (s *Service) Record(ctx context.Context, evt events.Event) error {
	if s == nil || s.R == nil {
		return errors.New("analytics service not configured")
	}
	day := evt.OccurredAt.UTC().Format("2006-01-02")
	key := counterKey(evt.Topic, day)
	pipe := s.R.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, counterRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record event counter: %w", err)
	}
	return nil
}

// Range returns per-topic counters for the last days days, most recent day
// first. Days outside retention come back as zero.
func (s *Service) Range(ctx context.Context, days int) (Report, error) {
	if s == nil || s.R == nil {
		return Report{}, errors.New("analytics service not configured")
	}
	if days <= 0 {
		days = s.DefaultRange
	}
	if days <= 0 {
		days = 30
	}
	if days > 90 {
		days = 90
	}
	topics := s.Topics
	if len(topics) == 0 {
		topics = events.DefaultTopics()
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	today := now().UTC()

	report := Report{Days: days, Topics: make(map[string][]DayCount, len(topics))}
	for _, topic := range topics {
		counts := make([]DayCount, 0, days)
		for i := 0; i < days; i++ {
			day := today.AddDate(0, 0, -i).Format("2006-01-02")
			n, err := s.R.Get(ctx, counterKey(topic, day)).Int64()
			if err != nil && !errors.Is(err, redis.Nil) {
				return Report{}, fmt.Errorf("read event counter: %w", err)
			}
			counts = append(counts, DayCount{Day: day, Count: n})
		}
		report.Topics[topic] = counts
	}
	return report, nil
}
