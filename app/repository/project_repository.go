package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
)

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository instance
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit("Owner", "Members").Create(project).Error
}

// GetByID retrieves a project with owner and members preloaded
func (r *projectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Members").
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Project, error) {
	var projects []models.Project
	q := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Members").
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&projects).Error
	return projects, err
}

func (r *projectRepository) ListByMember(ctx context.Context, userID string, limit int) ([]models.Project, error) {
	var projects []models.Project
	q := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Members").
		Where("id IN (?)", r.memberProjectIDs(userID)).
		Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&projects).Error
	return projects, err
}

func (r *projectRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

func (r *projectRepository) CountByMember(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("project_members").Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// AddMember appends a user to the project's member list
func (r *projectRepository) AddMember(ctx context.Context, projectID string, user *models.User) error {
	project := models.Project{ID: projectID}
	return r.db.WithContext(ctx).Model(&project).Association("Members").Append(user)
}

func (r *projectRepository) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("project_members").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *projectRepository) Members(ctx context.Context, projectID string) ([]models.User, error) {
	var users []models.User
	project := models.Project{ID: projectID}
	err := r.db.WithContext(ctx).Model(&project).Order("name ASC").Association("Members").Find(&users)
	return users, err
}

func (r *projectRepository) memberProjectIDs(userID string) *gorm.DB {
	return r.db.Table("project_members").Select("project_id").Where("user_id = ?", userID)
}
