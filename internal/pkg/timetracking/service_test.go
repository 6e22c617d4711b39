package timetracking

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/apperror"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/database"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/usercontext"
)

type fixture struct {
	svc     *Service
	repos   *repository.Repositories
	payer   usercontext.Caller
	fred    usercontext.Caller
	frida   usercontext.Caller
	project *models.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repos := repository.NewRepositories(db)

	mk := func(email string, role models.UserRole) (*models.User, usercontext.Caller) {
		u := &models.User{Name: email, Email: email, Password: "x", Role: role}
		require.NoError(t, repos.User.Create(ctx, u))
		return u, usercontext.Caller{UserID: u.ID, Role: role}
	}
	_, payer := mk("payer@example.com", models.ROLE_PAYER)
	fredUser, fred := mk("fred@example.com", models.ROLE_FREELANCER)
	_, frida := mk("frida@example.com", models.ROLE_FREELANCER)

	project := &models.Project{Name: "Website", HourlyRate: decimal.NewFromInt(40), OwnerID: payer.UserID}
	require.NoError(t, repos.Project.Create(ctx, project))
	require.NoError(t, repos.Project.AddMember(ctx, project.ID, fredUser))

	return &fixture{svc: NewService(repos), repos: repos, payer: payer, fred: fred, frida: frida, project: project}
}

func (f *fixture) input(hours int) EntryInput {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(hours) * time.Hour)
	return EntryInput{ProjectID: f.project.ID, Description: "work", StartTime: start, EndTime: &end}
}

func TestCreateEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.svc.Create(ctx, f.fred, f.input(2))
	require.NoError(t, err)
	assert.Equal(t, f.fred.UserID, e.UserID)
	require.NotNil(t, e.Project)
	assert.Equal(t, f.project.ID, e.Project.ID)

	_, err = f.svc.Create(ctx, f.frida, f.input(1))
	assert.ErrorIs(t, err, apperror.ErrForbidden, "non-members cannot track time")

	_, err = f.svc.Create(ctx, f.payer, f.input(1))
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	backwards := f.input(1)
	before := backwards.StartTime.Add(-time.Hour)
	backwards.EndTime = &before
	_, err = f.svc.Create(ctx, f.fred, backwards)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.Create(ctx, f.fred, EntryInput{ProjectID: f.project.ID})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	running := f.input(1)
	running.EndTime = nil
	e, err = f.svc.Create(ctx, f.fred, running)
	require.NoError(t, err)
	assert.True(t, e.IsRunning())
}

func TestListScopesByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	done, err := f.svc.Create(ctx, f.fred, f.input(2))
	require.NoError(t, err)
	running := f.input(1)
	running.EndTime = nil
	_, err = f.svc.Create(ctx, f.fred, running)
	require.NoError(t, err)

	mine, err := f.svc.List(ctx, f.fred, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	completed, err := f.svc.List(ctx, f.payer, ListFilter{Completed: true})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, done.ID, completed[0].ID)

	others, err := f.svc.List(ctx, f.frida, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = f.svc.List(ctx, usercontext.Caller{}, ListFilter{})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.svc.Create(ctx, f.fred, f.input(2))
	require.NoError(t, err)

	in := UpdateInput{Description: "refined", StartTime: e.StartTime, EndTime: e.EndTime}
	updated, err := f.svc.Update(ctx, f.fred, e.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "refined", updated.Description)

	_, err = f.svc.Update(ctx, f.frida, e.ID, in)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	got, err := f.svc.Get(ctx, f.payer, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	_, err = f.svc.Get(ctx, f.frida, e.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, f.svc.Delete(ctx, f.fred, e.ID))
	_, err = f.svc.Get(ctx, f.fred, e.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPaidEntriesAreImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.svc.Create(ctx, f.fred, f.input(2))
	require.NoError(t, err)

	p := &models.Payment{Amount: decimal.NewFromInt(80), ProjectID: f.project.ID, SenderID: f.payer.UserID, ReceiverID: f.fred.UserID}
	require.NoError(t, f.repos.Payment.CreateWithTimeEntries(ctx, p, []string{e.ID}))

	_, err = f.svc.Update(ctx, f.fred, e.ID, UpdateInput{StartTime: e.StartTime})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	err = f.svc.Delete(ctx, f.fred, e.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

// attachingEntries pays for the entry right before the guarded write runs.
type attachingEntries struct {
	repository.TimeEntryRepository
	attach func(id string)
}

func (r attachingEntries) Update(ctx context.Context, entry *models.TimeEntry) (bool, error) {
	r.attach(entry.ID)
	return r.TimeEntryRepository.Update(ctx, entry)
}

func (r attachingEntries) Delete(ctx context.Context, id string) (bool, error) {
	r.attach(id)
	return r.TimeEntryRepository.Delete(ctx, id)
}

func TestEntryPaidBetweenCheckAndWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.entries = attachingEntries{
		TimeEntryRepository: f.repos.TimeEntry,
		attach: func(id string) {
			p := &models.Payment{Amount: decimal.NewFromInt(80), ProjectID: f.project.ID, SenderID: f.payer.UserID, ReceiverID: f.fred.UserID}
			require.NoError(t, f.repos.Payment.CreateWithTimeEntries(ctx, p, []string{id}))
		},
	}

	e, err := f.svc.Create(ctx, f.fred, f.input(2))
	require.NoError(t, err)
	in := f.input(3)
	_, err = f.svc.Update(ctx, f.fred, e.ID, UpdateInput{Description: "late edit", StartTime: in.StartTime, EndTime: in.EndTime})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	stored, err := f.repos.TimeEntry.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "work", stored.Description)

	other, err := f.svc.Create(ctx, f.fred, f.input(1))
	require.NoError(t, err)
	err = f.svc.Delete(ctx, f.fred, other.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
	_, err = f.repos.TimeEntry.GetByID(ctx, other.ID)
	assert.NoError(t, err)
}
