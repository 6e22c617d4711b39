package jobqueue

import (
	"context"

	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/events"
)

// NotificationPublisher queues payment events for delivery by the workers
// instead of sending them on the request path.
type NotificationPublisher struct {
	Queue *Queue
}

func (p NotificationPublisher) Publish(ctx context.Context, ev events.PaymentEvent) error {
	_, err := p.Queue.EnqueueJob(ctx, JobTypePaymentNotification, ev)
	return err
}

// NotificationHandler decodes the queued event and hands it to next.
func NotificationHandler(next events.Publisher) Handler {
	return func(ctx context.Context, job *Job) error {
		var ev events.PaymentEvent
		if err := job.DecodePayload(&ev); err != nil {
			return err
		}
		return next.Publish(ctx, ev)
	}
}
