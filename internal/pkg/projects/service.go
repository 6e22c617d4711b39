package projects

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/apperror"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/usercontext"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/validation"
)

type CreateInput struct {
	Name        string          `json:"name" validate:"required,min=2,max=255"`
	Description string          `json:"description" validate:"max=5000"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
}

type AddMemberInput struct {
	Email string `json:"email" validate:"required,email"`
}

type Service struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
}

func NewService(repos *repository.Repositories) *Service {
	return &Service{projects: repos.Project, users: repos.User}
}

// Create stores a new project owned by the calling payer.
func (s *Service) Create(ctx context.Context, caller usercontext.Caller, in CreateInput) (*models.Project, error) {
	if err := requirePayer(caller); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.HourlyRate.IsNegative() {
		return nil, apperror.Validation(apperror.FieldError{Field: "hourly_rate", Message: "hourly_rate must not be negative"})
	}

	p := &models.Project{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		HourlyRate:  in.HourlyRate.Round(2),
		OwnerID:     caller.UserID,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, apperror.Internal("failed to create project", err)
	}
	log.Infof("[Projects] Created project %s for %s", p.ID, caller.UserID)
	return s.reload(ctx, p.ID)
}

// List returns owned projects for payers and joined projects for freelancers.
func (s *Service) List(ctx context.Context, caller usercontext.Caller) ([]models.Project, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthorized("authentication required")
	}
	var (
		list []models.Project
		err  error
	)
	switch caller.Role {
	case models.ROLE_PAYER:
		list, err = s.projects.ListByOwner(ctx, caller.UserID, 0)
	case models.ROLE_FREELANCER:
		list, err = s.projects.ListByMember(ctx, caller.UserID, 0)
	default:
		return nil, apperror.Forbidden("a role is required to list projects")
	}
	if err != nil {
		return nil, apperror.Internal("failed to list projects", err)
	}
	return list, nil
}

// Get returns a project visible to its owner and members.
func (s *Service) Get(ctx context.Context, caller usercontext.Caller, id string) (*models.Project, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthorized("authentication required")
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsOwner(caller.UserID) && !p.HasMember(caller.UserID) {
		return nil, apperror.Forbidden("you do not have access to this project")
	}
	return p, nil
}

// AddMember invites an existing freelancer, looked up by e-mail.
func (s *Service) AddMember(ctx context.Context, caller usercontext.Caller, projectID string, in AddMemberInput) ([]models.User, error) {
	if err := requirePayer(caller); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !p.IsOwner(caller.UserID) {
		return nil, apperror.Forbidden("only the project owner can add members")
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("no user with this e-mail address")
		}
		return nil, apperror.Internal("failed to look up user", err)
	}
	if !user.IsFreelancer() {
		return nil, apperror.Validation(apperror.FieldError{Field: "email", Message: "only freelancers can be added to a project"})
	}
	if p.HasMember(user.ID) {
		return nil, apperror.Conflict("user is already a member of this project")
	}

	if err := s.projects.AddMember(ctx, p.ID, user); err != nil {
		return nil, apperror.Internal("failed to add member", err)
	}
	log.Infof("[Projects] Added %s to project %s", user.ID, p.ID)
	return s.members(ctx, p.ID)
}

// Members lists a project's freelancers for its owner and members.
func (s *Service) Members(ctx context.Context, caller usercontext.Caller, projectID string) ([]models.User, error) {
	if _, err := s.Get(ctx, caller, projectID); err != nil {
		return nil, err
	}
	return s.members(ctx, projectID)
}

func (s *Service) members(ctx context.Context, projectID string) ([]models.User, error) {
	users, err := s.projects.Members(ctx, projectID)
	if err != nil {
		return nil, apperror.Internal("failed to load members", err)
	}
	return users, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.projects.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("project not found")
		}
		return nil, apperror.Internal("failed to load project", err)
	}
	return p, nil
}

func (s *Service) reload(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to load project", err)
	}
	return p, nil
}

func requirePayer(caller usercontext.Caller) error {
	if !caller.Authenticated() {
		return apperror.Unauthorized("authentication required")
	}
	if caller.Role != models.ROLE_PAYER {
		return apperror.Forbidden("only payers can manage projects")
	}
	return nil
}
