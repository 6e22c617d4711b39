package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/apperror"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/env"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/events"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/usercontext"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/validation"
)

// MinAmount is the smallest payment amount accepted.
var MinAmount = decimal.New(1, -2)

// Caller identifies who performs an operation.
type Caller = usercontext.Caller

// Policy toggles optional workflow rules.
type Policy struct {
	// StrictStatusUpdates limits manual status changes to workflow-consistent
	// targets instead of allowing any of the manual statuses from anywhere.
	StrictStatusUpdates bool
}

// LoadPolicy reads PAYMENT_STRICT_STATUS_UPDATES.
func LoadPolicy() Policy {
	return Policy{StrictStatusUpdates: env.GetBool("PAYMENT_STRICT_STATUS_UPDATES", false)}
}

type CreateInput struct {
	ProjectID              string          `json:"project_id" validate:"required"`
	ReceiverID             string          `json:"receiver_id" validate:"required"`
	TimeEntryIDs           []string        `json:"time_entry_ids" validate:"required,min=1,dive,required"`
	Amount                 decimal.Decimal `json:"amount"`
	RequiresSignedDocument bool            `json:"requires_signed_document"`
}

type ListFilter struct {
	ProjectID string
	Status    string
}

// Service owns the payment lifecycle.
type Service struct {
	payments repository.PaymentRepository
	projects repository.ProjectRepository
	entries  repository.TimeEntryRepository
	events   events.Publisher
	policy   Policy
	now      func() time.Time
}

// NewService creates a payment service from injected repositories.
func NewService(repos *repository.Repositories, publisher events.Publisher, policy Policy) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		payments: repos.Payment,
		projects: repos.Project,
		entries:  repos.TimeEntry,
		events:   publisher,
		policy:   policy,
		now:      time.Now,
	}
}

// Create requests a payment for a set of the receiver's unpaid time entries.
func (s *Service) Create(ctx context.Context, caller Caller, in CreateInput) (*models.Payment, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthorized("authentication required")
	}
	if caller.Role != models.ROLE_PAYER {
		return nil, apperror.Forbidden("only payers can create payments")
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal("failed to load project", err)
	}
	if project == nil || !project.IsOwner(caller.UserID) {
		return nil, apperror.NotFound("project not found or not owned by you")
	}

	member, err := s.projects.IsMember(ctx, project.ID, in.ReceiverID)
	if err != nil {
		return nil, apperror.Internal("failed to check membership", err)
	}
	if !member {
		return nil, apperror.NotMember("receiver is not a member of this project")
	}

	entries, err := s.entries.GetByIDs(ctx, in.TimeEntryIDs)
	if err != nil {
		return nil, apperror.Internal("failed to load time entries", err)
	}
	if !entriesPayable(entries, len(in.TimeEntryIDs), project.ID, in.ReceiverID) {
		return nil, apperror.InvalidEntries("one or more time entries are invalid or already paid")
	}

	amount := in.Amount.Round(2)
	if expected := expectedAmount(entries, project.HourlyRate, s.now()); !expected.Equal(amount) {
		log.Warnf("[Payment] Amount mismatch for project %s: requested %s, tracked time is worth %s",
			project.ID, amount.StringFixed(2), expected.StringFixed(2))
	}

	p := &models.Payment{
		Amount:                 amount,
		Status:                 models.PaymentStatusPending,
		RequiresSignedDocument: in.RequiresSignedDocument,
		ProjectID:              project.ID,
		SenderID:               caller.UserID,
		ReceiverID:             in.ReceiverID,
	}
	if err := s.payments.CreateWithTimeEntries(ctx, p, in.TimeEntryIDs); err != nil {
		if errors.Is(err, repository.ErrEntriesUnavailable) {
			return nil, apperror.InvalidEntries("one or more time entries are invalid or already paid")
		}
		return nil, apperror.Internal("failed to create payment", err)
	}

	created, err := s.payments.GetByID(ctx, p.ID)
	if err != nil {
		return nil, apperror.Internal("failed to load payment", err)
	}
	log.Infof("[Payment] Created payment %s (%s) for project %s", created.ID, created.Amount.StringFixed(2), created.ProjectID)
	s.publish(ctx, events.NewPaymentEvent(events.PaymentCreated, created, "", s.now()))
	return created, nil
}

// UploadReceipt attaches the payer's receipt to a pending payment.
func (s *Service) UploadReceipt(ctx context.Context, caller Caller, paymentID, receiptURL string) (*models.Payment, error) {
	return s.attachArtifact(ctx, caller, ActionUploadReceipt, paymentID, "receipt_url", receiptURL)
}

// UploadSignedDocument attaches the freelancer's signed document after the receipt.
func (s *Service) UploadSignedDocument(ctx context.Context, caller Caller, paymentID, documentURL string) (*models.Payment, error) {
	return s.attachArtifact(ctx, caller, ActionUploadSignedDocument, paymentID, "signed_document_url", documentURL)
}

func (s *Service) attachArtifact(ctx context.Context, caller Caller, action Action, paymentID, field, rawURL string) (*models.Payment, error) {
	p, t, err := s.authorize(ctx, caller, action, paymentID)
	if err != nil {
		return nil, err
	}

	if p.Status != t.From {
		return nil, invalidState(action, p.Status)
	}
	artifactURL := strings.TrimSpace(rawURL)
	if err := validation.Get().Var(artifactURL, "required,artifact_url"); err != nil {
		return nil, apperror.Validation(apperror.FieldError{Field: field, Message: "Invalid URL"})
	}

	ok, err := s.payments.UpdateIfStatus(ctx, p.ID, t.From, map[string]interface{}{
		"status": t.To,
		field:    artifactURL,
	})
	if err != nil {
		return nil, apperror.Internal("failed to update payment", err)
	}
	if !ok {
		return nil, apperror.InvalidState("payment was modified concurrently, reload and try again")
	}
	return s.reloadAndPublish(ctx, p.ID, p.Status)
}

// UpdateStatus lets the sender set a manual status. Outside strict mode any
// manual target is accepted from any current status.
func (s *Service) UpdateStatus(ctx context.Context, caller Caller, paymentID string, status models.PaymentStatus) (*models.Payment, error) {
	p, _, err := s.authorize(ctx, caller, ActionUpdateStatus, paymentID)
	if err != nil {
		return nil, err
	}

	// exact match; the list filter is the only case-insensitive status input
	target := status
	if !isManualTarget(target) {
		return nil, apperror.Validation(apperror.FieldError{
			Field:   "status",
			Message: "status must be one of: PENDING COMPLETED CANCELLED",
		})
	}

	if s.policy.StrictStatusUpdates {
		if !strictAllows(p, target) {
			return nil, invalidState(ActionUpdateStatus, p.Status)
		}
		ok, err := s.payments.UpdateIfStatus(ctx, p.ID, p.Status, map[string]interface{}{"status": target})
		if err != nil {
			return nil, apperror.Internal("failed to update payment", err)
		}
		if !ok {
			return nil, apperror.InvalidState("payment was modified concurrently, reload and try again")
		}
	} else if err := s.payments.SetStatus(ctx, p.ID, target); err != nil {
		return nil, apperror.Internal("failed to update payment", err)
	}

	return s.reloadAndPublish(ctx, p.ID, p.Status)
}

// List returns the caller's payments, newest first.
func (s *Service) List(ctx context.Context, caller Caller, filter ListFilter) ([]models.Payment, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthorized("authentication required")
	}

	q := repository.PaymentFilter{ProjectID: strings.TrimSpace(filter.ProjectID)}
	if raw := strings.TrimSpace(filter.Status); raw != "" {
		st, ok := models.ParsePaymentStatus(raw)
		if !ok {
			return nil, apperror.Validation(apperror.FieldError{Field: "status", Message: "Unknown payment status"})
		}
		q.Status = st
	}

	switch caller.Role {
	case models.ROLE_FREELANCER:
		q.ReceiverID = caller.UserID
	case models.ROLE_PAYER:
		q.SenderID = caller.UserID
	default:
		return nil, apperror.Forbidden("a role is required to list payments")
	}

	payments, err := s.payments.List(ctx, q)
	if err != nil {
		return nil, apperror.Internal("failed to list payments", err)
	}
	return payments, nil
}

// Get returns a payment the caller is a party to.
func (s *Service) Get(ctx context.Context, caller Caller, paymentID string) (*models.Payment, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthorized("authentication required")
	}
	return s.lookup(ctx, caller, paymentID)
}

// authorize runs the shared checks of every transition: authentication,
// role, visibility and designated party, in that order.
func (s *Service) authorize(ctx context.Context, caller Caller, action Action, paymentID string) (*models.Payment, Transition, error) {
	t, ok := TransitionFor(action)
	if !ok {
		return nil, t, apperror.Internal(fmt.Sprintf("unknown payment action %q", action), nil)
	}
	if !caller.Authenticated() {
		return nil, t, apperror.Unauthorized("authentication required")
	}
	if caller.Role != t.Role {
		return nil, t, apperror.Forbidden(fmt.Sprintf("only %s users can %s", strings.ToLower(string(t.Role)), humanize(action)))
	}

	p, err := s.lookup(ctx, caller, paymentID)
	if err != nil {
		return nil, t, err
	}
	if !t.isParty(p, caller.UserID) {
		return nil, t, apperror.Forbidden(fmt.Sprintf("you are not allowed to %s for this payment", humanize(action)))
	}
	return p, t, nil
}

func (s *Service) lookup(ctx context.Context, caller Caller, paymentID string) (*models.Payment, error) {
	p, err := s.payments.GetByID(ctx, strings.TrimSpace(paymentID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("payment not found")
		}
		return nil, apperror.Internal("failed to load payment", err)
	}
	if !p.IsParty(caller.UserID) {
		return nil, apperror.NotFound("payment not found")
	}
	return p, nil
}

func (s *Service) reloadAndPublish(ctx context.Context, id string, previous models.PaymentStatus) (*models.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to load payment", err)
	}
	log.Infof("[Payment] Payment %s moved from %s to %s", p.ID, previous, p.Status)
	s.publish(ctx, events.NewPaymentEvent(events.PaymentStatusChanged, p, previous, s.now()))
	return p, nil
}

func (s *Service) publish(ctx context.Context, ev events.PaymentEvent) {
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Warnf("[Payment] Failed to publish %s for payment %s: %v", ev.Type, ev.PaymentID, err)
	}
}

func validateCreate(in CreateInput) error {
	var fields []apperror.FieldError
	if err := validation.Struct(in); err != nil {
		var ae *apperror.Error
		if errors.As(err, &ae) {
			fields = append(fields, ae.Fields...)
		}
	}
	if in.Amount.LessThan(MinAmount) {
		fields = append(fields, apperror.FieldError{Field: "amount", Message: "amount must be at least 0.01"})
	}
	if len(fields) > 0 {
		return apperror.Validation(fields...)
	}
	return nil
}

func entriesPayable(entries []models.TimeEntry, requested int, projectID, receiverID string) bool {
	if len(entries) != requested {
		return false
	}
	for _, e := range entries {
		if e.ProjectID != projectID || e.UserID != receiverID || e.IsPaid() {
			return false
		}
	}
	return true
}

func expectedAmount(entries []models.TimeEntry, rate decimal.Decimal, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.BillableAmount(rate, now))
	}
	return total.Round(2)
}

func invalidState(action Action, current models.PaymentStatus) error {
	return apperror.InvalidState(fmt.Sprintf("cannot %s while payment is %s", humanize(action), current))
}

func humanize(a Action) string {
	return strings.ReplaceAll(string(a), "_", " ")
}
