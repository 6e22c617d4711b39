package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// CreateWithTimeEntries inserts the payment and claims every entry in one
// transaction. Entries must belong to the payment's project and receiver and
// must not already be attached; otherwise nothing is written and
// ErrEntriesUnavailable is returned.
func (r *paymentRepository) CreateWithTimeEntries(ctx context.Context, payment *models.Payment, entryIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(payment).Error; err != nil {
			return err
		}

		res := tx.Model(&models.TimeEntry{}).
			Where("id IN ? AND project_id = ? AND user_id = ? AND payment_id IS NULL",
				entryIDs, payment.ProjectID, payment.ReceiverID).
			Updates(map[string]interface{}{
				"payment_id": payment.ID,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(entryIDs)) {
			return ErrEntriesUnavailable
		}
		return nil
	})
}

// GetByID retrieves a payment with all relations preloaded
func (r *paymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := r.preloaded(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateIfStatus applies updates only while the payment is still in status
// from. It reports false when another writer got there first.
func (r *paymentRepository) UpdateIfStatus(ctx context.Context, id string, from models.PaymentStatus, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetStatus overwrites the status regardless of its current value.
func (r *paymentRepository) SetStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *paymentRepository) List(ctx context.Context, filter PaymentFilter) ([]models.Payment, error) {
	var payments []models.Payment
	q := r.preloaded(ctx)

	if filter.SenderID != "" {
		q = q.Where("sender_id = ?", filter.SenderID)
	}
	if filter.ReceiverID != "" {
		q = q.Where("receiver_id = ?", filter.ReceiverID)
	}
	if filter.ProjectID != "" {
		q = q.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	err := q.Order("created_at DESC").Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Project").
		Preload("Sender").
		Preload("Receiver").
		Preload("TimeEntries", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_time ASC")
		}).
		Preload("TimeEntries.User")
}
