package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
)

type timeEntryRepository struct {
	db *gorm.DB
}

// NewTimeEntryRepository creates a new time entry repository instance
func NewTimeEntryRepository(db *gorm.DB) TimeEntryRepository {
	return &timeEntryRepository{db: db}
}

func (r *timeEntryRepository) Create(ctx context.Context, entry *models.TimeEntry) error {
	return r.db.WithContext(ctx).Omit("Project", "User").Create(entry).Error
}

// GetByID retrieves an entry with its project and user preloaded
func (r *timeEntryRepository) GetByID(ctx context.Context, id string) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("User").
		Where("id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetByIDs returns the subset of ids that exist; callers compare lengths.
func (r *timeEntryRepository) GetByIDs(ctx context.Context, ids []string) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	if len(ids) == 0 {
		return entries, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&entries).Error
	return entries, err
}

// Update writes the editable columns of an unpaid entry.
func (r *timeEntryRepository) Update(ctx context.Context, entry *models.TimeEntry) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.TimeEntry{}).
		Where("id = ? AND payment_id IS NULL", entry.ID).
		Updates(map[string]interface{}{
			"description": entry.Description,
			"start_time":  entry.StartTime,
			"end_time":    entry.EndTime,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *timeEntryRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND payment_id IS NULL", id).Delete(&models.TimeEntry{})
	return res.RowsAffected > 0, res.Error
}

func (r *timeEntryRepository) List(ctx context.Context, filter TimeEntryFilter) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	q := r.db.WithContext(ctx).
		Preload("Project").
		Preload("User")

	if filter.ProjectID != "" {
		q = q.Where("project_id = ?", filter.ProjectID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.OwnerID != "" {
		owned := r.db.Model(&models.Project{}).Select("id").Where("owner_id = ?", filter.OwnerID)
		q = q.Where("project_id IN (?)", owned)
	}
	if filter.Unpaid {
		q = q.Where("payment_id IS NULL")
	}
	if filter.Completed {
		q = q.Where("end_time IS NOT NULL")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	err := q.Order("start_time DESC").Find(&entries).Error
	return entries, err
}
