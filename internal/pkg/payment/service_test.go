package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/apperror"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/events"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type harness struct {
	t           *testing.T
	ctx         context.Context
	repos       *repository.Repositories
	svc         *Service
	events      *events.Recorder
	payer       Caller
	otherPayer  Caller
	freelancer  Caller
	otherFreela Caller
	project     *models.Project
}

func newEnv(t *testing.T, policy Policy) *harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Project{}, &models.TimeEntry{}, &models.Payment{}))

	e := &harness{t: t, ctx: context.Background(), repos: repository.NewRepositories(db), events: &events.Recorder{}}
	e.svc = NewService(e.repos, e.events, policy)
	e.svc.now = func() time.Time { return testNow }

	e.payer = e.user("payer@example.com", models.ROLE_PAYER)
	e.otherPayer = e.user("other-payer@example.com", models.ROLE_PAYER)
	e.freelancer = e.user("fred@example.com", models.ROLE_FREELANCER)
	e.otherFreela = e.user("frida@example.com", models.ROLE_FREELANCER)

	e.project = &models.Project{Name: "Website", HourlyRate: decimal.NewFromInt(50), OwnerID: e.payer.UserID}
	require.NoError(t, e.repos.Project.Create(e.ctx, e.project))
	fred, err := e.repos.User.GetByID(e.ctx, e.freelancer.UserID)
	require.NoError(t, err)
	require.NoError(t, e.repos.Project.AddMember(e.ctx, e.project.ID, fred))
	return e
}

func (e *harness) user(email string, role models.UserRole) Caller {
	u := &models.User{Name: email, Email: email, Password: "x", Role: role}
	require.NoError(e.t, e.repos.User.Create(e.ctx, u))
	return Caller{UserID: u.ID, Role: role}
}

// entry tracks hours of work for userID on projectID, ending at testNow.
func (e *harness) entry(projectID, userID string, hours int) string {
	end := testNow
	start := end.Add(-time.Duration(hours) * time.Hour)
	te := &models.TimeEntry{ProjectID: projectID, UserID: userID, StartTime: start, EndTime: &end}
	require.NoError(e.t, e.repos.TimeEntry.Create(e.ctx, te))
	return te.ID
}

func (e *harness) input(amount int64, ids ...string) CreateInput {
	return CreateInput{
		ProjectID:    e.project.ID,
		ReceiverID:   e.freelancer.UserID,
		TimeEntryIDs: ids,
		Amount:       decimal.NewFromInt(amount),
	}
}

func (e *harness) pending() *models.Payment {
	p, err := e.svc.Create(e.ctx, e.payer, e.input(100, e.entry(e.project.ID, e.freelancer.UserID, 2)))
	require.NoError(e.t, err)
	return p
}

func (e *harness) receiptUploaded() *models.Payment {
	p, err := e.svc.UploadReceipt(e.ctx, e.payer, e.pending().ID, "https://bank.example.com/r/1")
	require.NoError(e.t, err)
	return p
}

func (e *harness) documentSigned() *models.Payment {
	p, err := e.svc.UploadSignedDocument(e.ctx, e.freelancer, e.receiptUploaded().ID, "/uploads/signed.pdf")
	require.NoError(e.t, err)
	return p
}

func TestCreatePayment(t *testing.T) {
	e := newEnv(t, Policy{})
	id1 := e.entry(e.project.ID, e.freelancer.UserID, 1)
	id2 := e.entry(e.project.ID, e.freelancer.UserID, 1)

	p, err := e.svc.Create(e.ctx, e.payer, e.input(100, id1, id2))
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.Equal(t, e.payer.UserID, p.SenderID)
	assert.Equal(t, e.freelancer.UserID, p.ReceiverID)
	assert.True(t, decimal.NewFromInt(100).Equal(p.Amount))
	assert.Len(t, p.TimeEntries, 2)
	for _, te := range p.TimeEntries {
		require.NotNil(t, te.PaymentID)
		assert.Equal(t, p.ID, *te.PaymentID)
	}
	require.NotNil(t, p.Project)
	require.NotNil(t, p.Receiver)

	require.Len(t, e.events.Events, 1)
	assert.Equal(t, events.PaymentCreated, e.events.Events[0].Type)
	assert.Equal(t, p.ID, e.events.Events[0].PaymentID)
}

func TestCreatePaymentAcceptsAmountMismatch(t *testing.T) {
	e := newEnv(t, Policy{})

	p, err := e.svc.Create(e.ctx, e.payer, e.input(5, e.entry(e.project.ID, e.freelancer.UserID, 3)))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(p.Amount))
}

func TestCreatePaymentRejections(t *testing.T) {
	e := newEnv(t, Policy{})
	own := e.entry(e.project.ID, e.freelancer.UserID, 1)
	paid := e.entry(e.project.ID, e.freelancer.UserID, 1)
	_, err := e.svc.Create(e.ctx, e.payer, e.input(50, paid))
	require.NoError(t, err)

	foreignProject := &models.Project{Name: "Other", HourlyRate: decimal.NewFromInt(10), OwnerID: e.otherPayer.UserID}
	require.NoError(t, e.repos.Project.Create(e.ctx, foreignProject))
	foreignEntry := e.entry(foreignProject.ID, e.freelancer.UserID, 1)

	tests := []struct {
		name   string
		caller Caller
		input  func() CreateInput
		want   error
	}{
		{"unauthenticated", Caller{}, func() CreateInput { return e.input(50, own) }, apperror.ErrUnauthorized},
		{"freelancer caller", e.freelancer, func() CreateInput { return e.input(50, own) }, apperror.ErrForbidden},
		{"no entries", e.payer, func() CreateInput { return e.input(50) }, apperror.ErrValidation},
		{"zero amount", e.payer, func() CreateInput { return e.input(0, own) }, apperror.ErrValidation},
		{"missing project", e.payer, func() CreateInput {
			in := e.input(50, own)
			in.ProjectID = ""
			return in
		}, apperror.ErrValidation},
		{"unknown project", e.payer, func() CreateInput {
			in := e.input(50, own)
			in.ProjectID = uuid.NewString()
			return in
		}, apperror.ErrNotFound},
		{"project of another payer", e.otherPayer, func() CreateInput { return e.input(50, own) }, apperror.ErrNotFound},
		{"receiver not a member", e.payer, func() CreateInput {
			in := e.input(50, own)
			in.ReceiverID = e.otherFreela.UserID
			return in
		}, apperror.ErrNotMember},
		{"already paid entry", e.payer, func() CreateInput { return e.input(50, own, paid) }, apperror.ErrInvalidEntries},
		{"entry of another project", e.payer, func() CreateInput { return e.input(50, own, foreignEntry) }, apperror.ErrInvalidEntries},
		{"unknown entry", e.payer, func() CreateInput { return e.input(50, own, uuid.NewString()) }, apperror.ErrInvalidEntries},
		{"duplicate entry", e.payer, func() CreateInput { return e.input(50, own, own) }, apperror.ErrInvalidEntries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Create(e.ctx, tt.caller, tt.input())
			assert.ErrorIs(t, err, tt.want)
		})
	}

	entry, err := e.repos.TimeEntry.GetByID(e.ctx, own)
	require.NoError(t, err)
	assert.Nil(t, entry.PaymentID, "failed creations must not attach entries")
}

func TestCreatePaymentValidationListsFields(t *testing.T) {
	e := newEnv(t, Policy{})

	_, err := e.svc.Create(e.ctx, e.payer, CreateInput{})
	require.Error(t, err)

	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	var fields []string
	for _, f := range ae.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"project_id", "receiver_id", "time_entry_ids", "amount"}, fields)
}

// assertStored reloads the payment and checks the workflow fields are unchanged.
func (e *harness) assertStored(id string, status models.PaymentStatus, receiptURL, documentURL string) {
	e.t.Helper()
	p, err := e.repos.Payment.GetByID(e.ctx, id)
	require.NoError(e.t, err)
	assert.Equal(e.t, status, p.Status)
	if receiptURL == "" {
		assert.Nil(e.t, p.ReceiptURL)
	} else if assert.NotNil(e.t, p.ReceiptURL) {
		assert.Equal(e.t, receiptURL, *p.ReceiptURL)
	}
	if documentURL == "" {
		assert.Nil(e.t, p.SignedDocumentURL)
	} else if assert.NotNil(e.t, p.SignedDocumentURL) {
		assert.Equal(e.t, documentURL, *p.SignedDocumentURL)
	}
}

func TestUploadReceipt(t *testing.T) {
	e := newEnv(t, Policy{})
	p := e.pending()

	_, err := e.svc.UploadReceipt(e.ctx, e.freelancer, p.ID, "/uploads/r.png")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	e.assertStored(p.ID, models.PaymentStatusPending, "", "")

	_, err = e.svc.UploadReceipt(e.ctx, e.otherPayer, p.ID, "/uploads/r.png")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	e.assertStored(p.ID, models.PaymentStatusPending, "", "")

	_, err = e.svc.UploadReceipt(e.ctx, e.payer, uuid.NewString(), "/uploads/r.png")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = e.svc.UploadReceipt(e.ctx, e.payer, p.ID, "not a url")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	e.assertStored(p.ID, models.PaymentStatusPending, "", "")

	updated, err := e.svc.UploadReceipt(e.ctx, e.payer, p.ID, "/uploads/r.png")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusReceiptUploaded, updated.Status)
	require.NotNil(t, updated.ReceiptURL)
	assert.Equal(t, "/uploads/r.png", *updated.ReceiptURL)

	_, err = e.svc.UploadReceipt(e.ctx, e.payer, p.ID, "/uploads/again.png")
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
	e.assertStored(p.ID, models.PaymentStatusReceiptUploaded, "/uploads/r.png", "")

	last := e.events.Events[len(e.events.Events)-1]
	assert.Equal(t, events.PaymentStatusChanged, last.Type)
	assert.Equal(t, models.PaymentStatusPending, last.PreviousStatus)
	assert.Equal(t, models.PaymentStatusReceiptUploaded, last.Status)
}

func TestUploadSignedDocument(t *testing.T) {
	e := newEnv(t, Policy{})
	p := e.pending()

	_, err := e.svc.UploadSignedDocument(e.ctx, e.freelancer, p.ID, "/uploads/doc.pdf")
	assert.ErrorIs(t, err, apperror.ErrInvalidState, "receipt must come first")
	e.assertStored(p.ID, models.PaymentStatusPending, "", "")

	_, err = e.svc.UploadReceipt(e.ctx, e.payer, p.ID, "/uploads/r.png")
	require.NoError(t, err)

	_, err = e.svc.UploadSignedDocument(e.ctx, e.payer, p.ID, "/uploads/doc.pdf")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	e.assertStored(p.ID, models.PaymentStatusReceiptUploaded, "/uploads/r.png", "")

	_, err = e.svc.UploadSignedDocument(e.ctx, e.otherFreela, p.ID, "/uploads/doc.pdf")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	e.assertStored(p.ID, models.PaymentStatusReceiptUploaded, "/uploads/r.png", "")

	_, err = e.svc.UploadSignedDocument(e.ctx, e.freelancer, p.ID, "ftp://files/doc.pdf")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	e.assertStored(p.ID, models.PaymentStatusReceiptUploaded, "/uploads/r.png", "")

	signed, err := e.svc.UploadSignedDocument(e.ctx, e.freelancer, p.ID, "https://files.example.com/doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusDocumentSigned, signed.Status)
	assert.True(t, signed.HasSignedDocument())

	_, err = e.svc.UploadSignedDocument(e.ctx, e.freelancer, p.ID, "/uploads/other.pdf")
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
	e.assertStored(p.ID, models.PaymentStatusDocumentSigned, "/uploads/r.png", "https://files.example.com/doc.pdf")
}

func TestUploadChecksStatusBeforeURL(t *testing.T) {
	e := newEnv(t, Policy{})

	_, err := e.svc.UploadReceipt(e.ctx, e.payer, e.receiptUploaded().ID, "not a url")
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	_, err = e.svc.UploadSignedDocument(e.ctx, e.freelancer, e.pending().ID, "")
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

// racingPayments moves the payment to another status right before the
// conditional update runs.
type racingPayments struct {
	repository.PaymentRepository
	to models.PaymentStatus
}

func (r racingPayments) UpdateIfStatus(ctx context.Context, id string, from models.PaymentStatus, updates map[string]interface{}) (bool, error) {
	if err := r.PaymentRepository.SetStatus(ctx, id, r.to); err != nil {
		return false, err
	}
	return r.PaymentRepository.UpdateIfStatus(ctx, id, from, updates)
}

func TestConcurrentModificationIsRejected(t *testing.T) {
	e := newEnv(t, Policy{StrictStatusUpdates: true})
	pending := e.pending()
	signed := e.documentSigned()
	published := len(e.events.Events)

	e.svc.payments = racingPayments{PaymentRepository: e.repos.Payment, to: models.PaymentStatusCancelled}

	_, err := e.svc.UploadReceipt(e.ctx, e.payer, pending.ID, "/uploads/r.png")
	require.ErrorIs(t, err, apperror.ErrInvalidState)
	assert.Contains(t, err.Error(), "modified concurrently")
	e.assertStored(pending.ID, models.PaymentStatusCancelled, "", "")

	_, err = e.svc.UpdateStatus(e.ctx, e.payer, signed.ID, models.PaymentStatusCompleted)
	require.ErrorIs(t, err, apperror.ErrInvalidState)
	assert.Contains(t, err.Error(), "modified concurrently")
	e.assertStored(signed.ID, models.PaymentStatusCancelled, "https://bank.example.com/r/1", "/uploads/signed.pdf")

	assert.Len(t, e.events.Events, published, "rejected updates publish nothing")
}

func TestUpdateStatusPermissive(t *testing.T) {
	e := newEnv(t, Policy{})

	tests := []struct {
		name  string
		setup func() *models.Payment
		to    models.PaymentStatus
	}{
		{"pending to completed", e.pending, models.PaymentStatusCompleted},
		{"pending to cancelled", e.pending, models.PaymentStatusCancelled},
		{"receipt uploaded to completed", e.receiptUploaded, models.PaymentStatusCompleted},
		{"document signed back to pending", e.documentSigned, models.PaymentStatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.setup()
			got, err := e.svc.UpdateStatus(e.ctx, e.payer, p.ID, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Status)
		})
	}

	t.Run("completed can be reopened", func(t *testing.T) {
		p := e.pending()
		_, err := e.svc.UpdateStatus(e.ctx, e.payer, p.ID, models.PaymentStatusCompleted)
		require.NoError(t, err)
		got, err := e.svc.UpdateStatus(e.ctx, e.payer, p.ID, models.PaymentStatusPending)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, got.Status)
	})
}

func TestUpdateStatusRejections(t *testing.T) {
	e := newEnv(t, Policy{})
	p := e.pending()

	_, err := e.svc.UpdateStatus(e.ctx, Caller{}, p.ID, models.PaymentStatusCompleted)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = e.svc.UpdateStatus(e.ctx, e.freelancer, p.ID, models.PaymentStatusCompleted)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = e.svc.UpdateStatus(e.ctx, e.otherPayer, p.ID, models.PaymentStatusCompleted)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = e.svc.UpdateStatus(e.ctx, e.payer, p.ID, models.PaymentStatusDocumentSigned)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = e.svc.UpdateStatus(e.ctx, e.payer, p.ID, models.PaymentStatus("PAID"))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = e.svc.UpdateStatus(e.ctx, e.payer, p.ID, models.PaymentStatus("completed"))
	assert.ErrorIs(t, err, apperror.ErrValidation, "manual targets are case-sensitive")
	e.assertStored(p.ID, models.PaymentStatusPending, "", "")
}

func TestUpdateStatusStrict(t *testing.T) {
	e := newEnv(t, Policy{StrictStatusUpdates: true})

	requiresDoc := func() *models.Payment {
		in := e.input(100, e.entry(e.project.ID, e.freelancer.UserID, 2))
		in.RequiresSignedDocument = true
		p, err := e.svc.Create(e.ctx, e.payer, in)
		require.NoError(t, err)
		p, err = e.svc.UploadReceipt(e.ctx, e.payer, p.ID, "/uploads/r.png")
		require.NoError(t, err)
		return p
	}
	completed := func() *models.Payment {
		p := e.documentSigned()
		p, err := e.svc.UpdateStatus(e.ctx, e.payer, p.ID, models.PaymentStatusCompleted)
		require.NoError(t, err)
		return p
	}

	tests := []struct {
		name  string
		setup func() *models.Payment
		to    models.PaymentStatus
		want  error
	}{
		{"pending to completed", e.pending, models.PaymentStatusCompleted, apperror.ErrInvalidState},
		{"receipt to completed without required document", e.receiptUploaded, models.PaymentStatusCompleted, nil},
		{"receipt to completed with required document", requiresDoc, models.PaymentStatusCompleted, apperror.ErrInvalidState},
		{"signed to completed", e.documentSigned, models.PaymentStatusCompleted, nil},
		{"pending to cancelled", e.pending, models.PaymentStatusCancelled, nil},
		{"completed to cancelled", completed, models.PaymentStatusCancelled, apperror.ErrInvalidState},
		{"reopen to pending", e.receiptUploaded, models.PaymentStatusPending, apperror.ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.setup()
			got, err := e.svc.UpdateStatus(e.ctx, e.payer, p.ID, tt.to)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Status)
		})
	}
}

func TestListAndGetScoping(t *testing.T) {
	e := newEnv(t, Policy{})
	first := e.pending()
	second := e.pending()
	_, err := e.svc.UpdateStatus(e.ctx, e.payer, second.ID, models.PaymentStatusCancelled)
	require.NoError(t, err)

	mine, err := e.svc.List(e.ctx, e.payer, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	received, err := e.svc.List(e.ctx, e.freelancer, ListFilter{ProjectID: e.project.ID})
	require.NoError(t, err)
	assert.Len(t, received, 2)

	cancelled, err := e.svc.List(e.ctx, e.freelancer, ListFilter{Status: "cancelled"})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, second.ID, cancelled[0].ID)

	none, err := e.svc.List(e.ctx, e.otherPayer, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = e.svc.List(e.ctx, e.payer, ListFilter{Status: "PAID"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = e.svc.List(e.ctx, Caller{}, ListFilter{})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	got, err := e.svc.Get(e.ctx, e.freelancer, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = e.svc.Get(e.ctx, e.otherFreela, first.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFullWorkflow(t *testing.T) {
	e := newEnv(t, Policy{StrictStatusUpdates: true})
	in := e.input(100, e.entry(e.project.ID, e.freelancer.UserID, 2))
	in.RequiresSignedDocument = true

	p, err := e.svc.Create(e.ctx, e.payer, in)
	require.NoError(t, err)
	p, err = e.svc.UploadReceipt(e.ctx, e.payer, p.ID, "/uploads/receipt.pdf")
	require.NoError(t, err)
	p, err = e.svc.UploadSignedDocument(e.ctx, e.freelancer, p.ID, "/uploads/signed.pdf")
	require.NoError(t, err)
	p, err = e.svc.UpdateStatus(e.ctx, e.payer, p.ID, models.PaymentStatusCompleted)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusCompleted, p.Status)
	require.Len(t, e.events.Events, 4)
	assert.Equal(t, models.PaymentStatusDocumentSigned, e.events.Events[3].PreviousStatus)
}

func TestTransitionTable(t *testing.T) {
	receipt, ok := TransitionFor(ActionUploadReceipt)
	require.True(t, ok)
	assert.Equal(t, models.ROLE_PAYER, receipt.Role)
	assert.Equal(t, models.PaymentStatusPending, receipt.From)

	doc, ok := TransitionFor(ActionUploadSignedDocument)
	require.True(t, ok)
	assert.Equal(t, PartyReceiver, doc.Party)
	assert.Equal(t, models.PaymentStatusDocumentSigned, doc.To)

	_, ok = TransitionFor(Action("refund"))
	assert.False(t, ok)
}
