package timetracking

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/apperror"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/usercontext"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/validation"
)

type EntryInput struct {
	ProjectID   string     `json:"project_id" validate:"required"`
	Description string     `json:"description" validate:"max=5000"`
	StartTime   time.Time  `json:"start_time" validate:"required"`
	EndTime     *time.Time `json:"end_time"`
}

type UpdateInput struct {
	Description string     `json:"description" validate:"max=5000"`
	StartTime   time.Time  `json:"start_time" validate:"required"`
	EndTime     *time.Time `json:"end_time"`
}

type ListFilter struct {
	ProjectID string
	UserID    string
	Unpaid    bool
	Completed bool
}

type Service struct {
	entries  repository.TimeEntryRepository
	projects repository.ProjectRepository
}

func NewService(repos *repository.Repositories) *Service {
	return &Service{entries: repos.TimeEntry, projects: repos.Project}
}

// Create records work by the calling freelancer on a project they belong to.
func (s *Service) Create(ctx context.Context, caller usercontext.Caller, in EntryInput) (*models.TimeEntry, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthorized("authentication required")
	}
	if caller.Role != models.ROLE_FREELANCER {
		return nil, apperror.Forbidden("only freelancers can track time")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := checkRange(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}

	member, err := s.projects.IsMember(ctx, in.ProjectID, caller.UserID)
	if err != nil {
		return nil, apperror.Internal("failed to check membership", err)
	}
	if !member {
		return nil, apperror.Forbidden("you are not a member of this project")
	}

	e := &models.TimeEntry{
		ProjectID:   in.ProjectID,
		UserID:      caller.UserID,
		Description: strings.TrimSpace(in.Description),
		StartTime:   in.StartTime.UTC(),
		EndTime:     utc(in.EndTime),
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, apperror.Internal("failed to create time entry", err)
	}
	return s.reload(ctx, e.ID)
}

// List returns the caller's own entries, or entries of owned projects for payers.
func (s *Service) List(ctx context.Context, caller usercontext.Caller, filter ListFilter) ([]models.TimeEntry, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthorized("authentication required")
	}
	q := repository.TimeEntryFilter{
		ProjectID: strings.TrimSpace(filter.ProjectID),
		UserID:    strings.TrimSpace(filter.UserID),
		Unpaid:    filter.Unpaid,
		Completed: filter.Completed,
	}
	switch caller.Role {
	case models.ROLE_FREELANCER:
		q.UserID = caller.UserID
	case models.ROLE_PAYER:
		q.OwnerID = caller.UserID
	default:
		return nil, apperror.Forbidden("a role is required to list time entries")
	}

	list, err := s.entries.List(ctx, q)
	if err != nil {
		return nil, apperror.Internal("failed to list time entries", err)
	}
	return list, nil
}

// Get returns an entry to its author or to the owner of its project.
func (s *Service) Get(ctx context.Context, caller usercontext.Caller, id string) (*models.TimeEntry, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthorized("authentication required")
	}
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID == caller.UserID || (e.Project != nil && e.Project.IsOwner(caller.UserID)) {
		return e, nil
	}
	return nil, apperror.Forbidden("you do not have access to this time entry")
}

var errAttachedConcurrently = apperror.InvalidState("time entry was attached to a payment or removed meanwhile, reload and try again")

// Update edits an unpaid entry of the caller.
func (s *Service) Update(ctx context.Context, caller usercontext.Caller, id string, in UpdateInput) (*models.TimeEntry, error) {
	e, err := s.editable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := checkRange(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}

	e.Description = strings.TrimSpace(in.Description)
	e.StartTime = in.StartTime.UTC()
	e.EndTime = utc(in.EndTime)
	ok, err := s.entries.Update(ctx, e)
	if err != nil {
		return nil, apperror.Internal("failed to update time entry", err)
	}
	if !ok {
		return nil, errAttachedConcurrently
	}
	return s.reload(ctx, e.ID)
}

// Delete removes an unpaid entry of the caller.
func (s *Service) Delete(ctx context.Context, caller usercontext.Caller, id string) error {
	e, err := s.editable(ctx, caller, id)
	if err != nil {
		return err
	}
	ok, err := s.entries.Delete(ctx, e.ID)
	if err != nil {
		return apperror.Internal("failed to delete time entry", err)
	}
	if !ok {
		return errAttachedConcurrently
	}
	return nil
}

func (s *Service) editable(ctx context.Context, caller usercontext.Caller, id string) (*models.TimeEntry, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthorized("authentication required")
	}
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID != caller.UserID {
		return nil, apperror.Forbidden("only the author can change a time entry")
	}
	if e.IsPaid() {
		return nil, apperror.InvalidState("time entry is attached to a payment and can no longer be changed")
	}
	return e, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.TimeEntry, error) {
	e, err := s.entries.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("time entry not found")
		}
		return nil, apperror.Internal("failed to load time entry", err)
	}
	return e, nil
}

func (s *Service) reload(ctx context.Context, id string) (*models.TimeEntry, error) {
	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to load time entry", err)
	}
	return e, nil
}

func checkRange(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return apperror.Validation(apperror.FieldError{Field: "end_time", Message: "end_time must not be before start_time"})
	}
	return nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
