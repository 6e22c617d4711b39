package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
)

// ErrEntriesUnavailable is returned when not every requested time entry could
// be attached to a new payment.
var ErrEntriesUnavailable = errors.New("time entries unavailable for payment")

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// ProjectRepository defines the interface for project and membership operations
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Project, error)
	ListByMember(ctx context.Context, userID string, limit int) ([]models.Project, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	CountByMember(ctx context.Context, userID string) (int64, error)
	AddMember(ctx context.Context, projectID string, user *models.User) error
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
	Members(ctx context.Context, projectID string) ([]models.User, error)
}

// TimeEntryFilter narrows a time entry listing. Empty fields are ignored.
type TimeEntryFilter struct {
	ProjectID string
	UserID    string
	// OwnerID restricts to entries of projects owned by this user.
	OwnerID   string
	Unpaid    bool
	Completed bool
	Limit     int
}

// TimeEntryRepository defines the interface for time tracking operations
type TimeEntryRepository interface {
	Create(ctx context.Context, entry *models.TimeEntry) error
	GetByID(ctx context.Context, id string) (*models.TimeEntry, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.TimeEntry, error)
	// Update and Delete report false when the entry is missing or paid.
	Update(ctx context.Context, entry *models.TimeEntry) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter TimeEntryFilter) ([]models.TimeEntry, error)
}

// PaymentFilter narrows a payment listing. Empty fields are ignored.
type PaymentFilter struct {
	SenderID   string
	ReceiverID string
	ProjectID  string
	Status     models.PaymentStatus
	Limit      int
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	CreateWithTimeEntries(ctx context.Context, payment *models.Payment, entryIDs []string) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	UpdateIfStatus(ctx context.Context, id string, from models.PaymentStatus, updates map[string]interface{}) (bool, error)
	SetStatus(ctx context.Context, id string, status models.PaymentStatus) error
	List(ctx context.Context, filter PaymentFilter) ([]models.Payment, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User      UserRepository
	Project   ProjectRepository
	TimeEntry TimeEntryRepository
	Payment   PaymentRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:      NewUserRepository(db),
		Project:   NewProjectRepository(db),
		TimeEntry: NewTimeEntryRepository(db),
		Payment:   NewPaymentRepository(db),
	}
}
