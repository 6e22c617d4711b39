package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/events"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/mail"
)

var bodyTemplate = template.Must(template.New("payment").Parse(`<p>Hello {{.Recipient}},</p>
<p>{{.Message}}</p>
<p>Amount: {{.Amount}}<br>Status: {{.Status}}<br>Payment: {{.PaymentID}}</p>`))

// PaymentMailer e-mails the counterparty of whoever changed a payment.
type PaymentMailer struct {
	mailer mail.Mailer
	users  repository.UserRepository
}

func NewPaymentMailer(mailer mail.Mailer, users repository.UserRepository) *PaymentMailer {
	return &PaymentMailer{mailer: mailer, users: users}
}

func (p *PaymentMailer) Publish(ctx context.Context, ev events.PaymentEvent) error {
	recipientID, subject, message := describe(ev)
	user, err := p.users.GetByID(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("load notification recipient %s: %w", recipientID, err)
	}

	var body bytes.Buffer
	err = bodyTemplate.Execute(&body, map[string]string{
		"Recipient": user.Name,
		"Message":   message,
		"Amount":    ev.Amount.StringFixed(2),
		"Status":    string(ev.Status),
		"PaymentID": ev.PaymentID,
	})
	if err != nil {
		return fmt.Errorf("render notification: %w", err)
	}
	return p.mailer.Send(user.Email, subject, body.String())
}

// describe picks the recipient and wording. The freelancer signing is the
// only step taken by the receiver, so that one goes to the sender.
func describe(ev events.PaymentEvent) (recipientID, subject, message string) {
	if ev.Type == events.PaymentCreated {
		return ev.ReceiverID, "New payment request", "A payer has created a payment for your tracked time."
	}
	switch ev.Status {
	case models.PaymentStatusReceiptUploaded:
		return ev.ReceiverID, "Payment receipt uploaded", "The payer uploaded a receipt. Please upload the signed document."
	case models.PaymentStatusDocumentSigned:
		return ev.SenderID, "Signed document uploaded", "The freelancer uploaded the signed document."
	case models.PaymentStatusCompleted:
		return ev.ReceiverID, "Payment completed", "The payment has been marked as completed."
	case models.PaymentStatusCancelled:
		return ev.ReceiverID, "Payment cancelled", "The payment has been cancelled."
	default:
		return ev.ReceiverID, "Payment updated", fmt.Sprintf("The payment status is now %s.", ev.Status)
	}
}
