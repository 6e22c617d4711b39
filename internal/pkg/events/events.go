package events

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
)

// Event types
const (
	PaymentCreated       = "payment.created"
	PaymentStatusChanged = "payment.status_changed"
)

// PaymentEvent describes a change to a payment. It is the JSON payload
// written to Kafka and the input to e-mail notifications.
type PaymentEvent struct {
	Type           string               `json:"type"`
	PaymentID      string               `json:"payment_id"`
	ProjectID      string               `json:"project_id"`
	SenderID       string               `json:"sender_id"`
	ReceiverID     string               `json:"receiver_id"`
	Status         models.PaymentStatus `json:"status"`
	PreviousStatus models.PaymentStatus `json:"previous_status,omitempty"`
	Amount         decimal.Decimal      `json:"amount"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

// NewPaymentEvent builds an event from the payment's current state.
func NewPaymentEvent(eventType string, p *models.Payment, previous models.PaymentStatus, at time.Time) PaymentEvent {
	return PaymentEvent{
		Type:           eventType,
		PaymentID:      p.ID,
		ProjectID:      p.ProjectID,
		SenderID:       p.SenderID,
		ReceiverID:     p.ReceiverID,
		Status:         p.Status,
		PreviousStatus: previous,
		Amount:         p.Amount,
		OccurredAt:     at.UTC(),
	}
}

// Publisher delivers payment events. Implementations must not block the
// caller for long; delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event PaymentEvent) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, PaymentEvent) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event PaymentEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async delivers events on a background goroutine so that slow
// publishers such as SMTP never hold up a request.
type Async struct {
	Next    Publisher
	Timeout time.Duration
}

func (a Async) Publish(_ context.Context, event PaymentEvent) error {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := a.Next.Publish(ctx, event); err != nil {
			log.Warnf("[Events] Async delivery of %s for payment %s failed: %v", event.Type, event.PaymentID, err)
		}
	}()
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	Events []PaymentEvent
}

func (r *Recorder) Publish(_ context.Context, event PaymentEvent) error {
	r.Events = append(r.Events, event)
	return nil
}
