package account

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/apperror"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/usercontext"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/validation"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=150"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=FREELANCER PAYER"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RoleInput struct {
	Role string `json:"role" validate:"required,oneof=FREELANCER PAYER"`
}

type ProfileInput struct {
	Name string `json:"name" validate:"required,min=2,max=150"`
}

type PasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type Service struct {
	users repository.UserRepository
}

func NewService(repos *repository.Repositories) *Service {
	return &Service{users: repos.User}
}

// Register creates a new account. E-mail addresses are unique.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	in.Email = models.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperror.Conflict("an account with this e-mail already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal("failed to check e-mail", err)
	}

	user, err := models.CreateUser(in.Name, in.Email, in.Password, models.UserRole(in.Role))
	if err != nil {
		return nil, validation.FromValidator(err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperror.Internal("failed to create account", err)
	}
	log.Infof("[Account] Registered %s as %s", user.ID, user.Role)
	return user, nil
}

// Authenticate verifies credentials. Failures never reveal which part was wrong.
func (s *Service) Authenticate(ctx context.Context, in LoginInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("invalid e-mail or password")
		}
		return nil, apperror.Internal("failed to load account", err)
	}
	if !user.CheckPassword(in.Password) {
		return nil, apperror.Unauthorized("invalid e-mail or password")
	}
	return user, nil
}

// Profile returns the caller's account.
func (s *Service) Profile(ctx context.Context, caller usercontext.Caller) (*models.User, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthorized("authentication required")
	}
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("account no longer exists")
		}
		return nil, apperror.Internal("failed to load account", err)
	}
	return user, nil
}

// SetRole switches the caller between freelancer and payer.
func (s *Service) SetRole(ctx context.Context, caller usercontext.Caller, in RoleInput) (*models.User, error) {
	user, err := s.Profile(ctx, caller)
	if err != nil {
		return nil, err
	}
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	user.Role = models.UserRole(in.Role)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperror.Internal("failed to update role", err)
	}
	return user, nil
}

// UpdateProfile changes the caller's display name.
func (s *Service) UpdateProfile(ctx context.Context, caller usercontext.Caller, in ProfileInput) (*models.User, error) {
	user, err := s.Profile(ctx, caller)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	user.Name = in.Name
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperror.Internal("failed to update profile", err)
	}
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, caller usercontext.Caller, in PasswordInput) error {
	user, err := s.Profile(ctx, caller)
	if err != nil {
		return err
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	if !user.CheckPassword(in.CurrentPassword) {
		return apperror.Validation(apperror.FieldError{Field: "current_password", Message: "Current password is incorrect"})
	}
	if err := user.SetPassword(in.NewPassword); err != nil {
		return apperror.Internal("failed to hash password", err)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return apperror.Internal("failed to update password", err)
	}
	log.Infof("[Account] Password changed for %s", user.ID)
	return nil
}
