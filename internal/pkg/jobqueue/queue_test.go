package jobqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/events"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.PaymentEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func waitFor(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func sampleEvent() events.PaymentEvent {
	return events.PaymentEvent{
		Type:       events.PaymentStatusChanged,
		PaymentID:  "pay-1",
		SenderID:   "payer",
		ReceiverID: "freelancer",
		Status:     models.PaymentStatusReceiptUploaded,
		Amount:     decimal.RequireFromString("150.50"),
	}
}

func TestNewQueue(t *testing.T) {
	tests := []struct {
		name            string
		workers         int
		expectedWorkers int
	}{
		{"Valid worker count", 5, 5},
		{"Zero workers", 0, DefaultWorkers},
		{"Negative workers", -1, DefaultWorkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue(nil, tt.workers)
			assert.Equal(t, tt.expectedWorkers, q.workers)
			assert.NotNil(t, q.handlers)
			assert.False(t, q.running)
		})
	}
}

func TestJobLifecycle(t *testing.T) {
	job, err := NewJob("id-1", JobTypePaymentNotification, sampleEvent(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, DefaultMaxRetries, job.MaxRetries)

	job.MarkAsProcessing()
	assert.NotNil(t, job.ProcessedAt)

	for i := 1; i < DefaultMaxRetries; i++ {
		job.MarkAsFailed("smtp down")
		assert.True(t, job.IsRetryable(), "attempt %d", i)
		job.MarkAsRetrying()
		assert.False(t, job.IsRetryable())
	}
	job.MarkAsFailed("smtp down")
	assert.False(t, job.IsRetryable())
	assert.Equal(t, "smtp down", job.ErrorMsg)

	job.MarkAsCompleted()
	assert.Empty(t, job.ErrorMsg)
	assert.NotNil(t, job.CompletedAt)
}

func TestNotificationHandlerDecodesEvent(t *testing.T) {
	rec := &recordingPublisher{}
	q := NewQueue(nil, 1)
	q.Handle(JobTypePaymentNotification, NotificationHandler(rec))

	job, err := NewJob("id-1", JobTypePaymentNotification, sampleEvent(), time.Now())
	require.NoError(t, err)
	require.NoError(t, q.run(context.Background(), job))

	require.Len(t, rec.events, 1)
	got := rec.events[0]
	assert.Equal(t, "pay-1", got.PaymentID)
	assert.Equal(t, models.PaymentStatusReceiptUploaded, got.Status)
	assert.True(t, decimal.RequireFromString("150.50").Equal(got.Amount))
}

func TestRunRejectsUnknownJobType(t *testing.T) {
	q := NewQueue(nil, 1)
	err := q.run(context.Background(), &Job{ID: "x", Type: "resize_image"})
	assert.ErrorContains(t, err, "unknown job type")
}

func TestNotificationHandlerRejectsBadPayload(t *testing.T) {
	h := NotificationHandler(&recordingPublisher{})
	err := h(context.Background(), &Job{ID: "x", Payload: []byte("not json")})
	assert.Error(t, err)
}

func TestQueueDeliversNotifications(t *testing.T) {
	client := newTestRedis(t)
	rec := &recordingPublisher{}
	q := NewQueue(client, 2)
	q.pollTimeout = 100 * time.Millisecond
	q.Handle(JobTypePaymentNotification, NotificationHandler(rec))
	q.Start()
	defer q.Stop()

	ctx := context.Background()
	require.NoError(t, NotificationPublisher{Queue: q}.Publish(ctx, sampleEvent()))
	require.NoError(t, NotificationPublisher{Queue: q}.Publish(ctx, sampleEvent()))

	require.True(t, waitFor(func() bool { return rec.count() == 2 }, 5*time.Second))
	require.True(t, waitFor(func() bool {
		stats, err := q.GetJobStats(ctx)
		return err == nil && stats[JobStatusCompleted] == 2
	}, 5*time.Second))

	size, err := q.GetProcessingSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestQueueRetriesThenFails(t *testing.T) {
	client := newTestRedis(t)
	rec := &recordingPublisher{err: errors.New("smtp down")}
	q := NewQueue(client, 1)
	q.pollTimeout = 100 * time.Millisecond
	q.retryDelay = 10 * time.Millisecond
	q.Handle(JobTypePaymentNotification, NotificationHandler(rec))
	q.Start()
	defer q.Stop()

	ctx := context.Background()
	job, err := q.EnqueueJob(ctx, JobTypePaymentNotification, sampleEvent())
	require.NoError(t, err)

	require.True(t, waitFor(func() bool {
		stored, err := q.GetJob(ctx, job.ID)
		return err == nil && stored.Status == JobStatusFailed && stored.RetryCount == DefaultMaxRetries
	}, 5*time.Second))
	assert.Equal(t, DefaultMaxRetries, rec.count())
}

func TestRecoverStuck(t *testing.T) {
	client := newTestRedis(t)
	q := NewQueue(client, 1)
	ctx := context.Background()

	job, err := q.EnqueueJob(ctx, JobTypePaymentNotification, sampleEvent())
	require.NoError(t, err)
	taken, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	taken.MarkAsProcessing()
	q.updateJob(ctx, taken)
	require.NoError(t, client.RPush(ctx, JobProcessingKey, "missing").Err())

	n, err := q.RecoverStuck(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n, "fresh jobs stay in processing")

	n, err = q.RecoverStuck(ctx, time.Now().Add(q.stuckAfter+time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err := q.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)
	processing, err := q.GetProcessingSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, processing)

	stored, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, stored.Status)
}
