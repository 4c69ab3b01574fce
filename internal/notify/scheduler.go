package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/ateliedalu/backend-atacado/internal/events"
)

// TaskTypeCRMWebhook is the asynq task type for CRM webhook deliveries.
const TaskTypeCRMWebhook = "crm:webhook"

// QueueCRM is the asynq queue deliveries are routed to.
const QueueCRM = "crm"

// Scheduler enqueues one delivery task per emitted event. It implements
// events.Scheduler; delivery itself happens in the worker process.
type Scheduler struct {
	Client      *asynq.Client
	Enabled     bool
	MaxAttempts int
	Timeout     time.Duration
	Log         zerolog.Logger
}

// Schedule enqueues a CRM delivery for the event. The event ID doubles as the
// task ID so replays of the same event are deduplicated by the queue.
func (s *Scheduler) Schedule(ctx context.Context, evt events.Event) error {
	if s == nil || !s.Enabled || s.Client == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode webhook task: %w", err)
	}
	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 6
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	_, err = s.Client.EnqueueContext(ctx, asynq.NewTask(TaskTypeCRMWebhook, payload),
		asynq.Queue(QueueCRM),
		asynq.TaskID(evt.ID),
		asynq.MaxRetry(maxAttempts-1),
		asynq.Timeout(timeout),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		s.Log.Debug().Str("event_id", evt.ID).Msg("webhook task already enqueued")
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue webhook task: %w", err)
	}
	return nil
}
