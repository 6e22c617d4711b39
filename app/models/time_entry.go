package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TimeEntry struct {
	ID          string     `gorm:"type:char(36);primaryKey" json:"id"`
	ProjectID   string     `gorm:"type:char(36);index;not null" json:"project_id"`
	Project     *Project   `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UserID      string     `gorm:"type:char(36);index;not null" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Description string     `gorm:"type:text" json:"description"`
	StartTime   time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	PaymentID   *string    `gorm:"type:char(36);index" json:"payment_id"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *TimeEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// IsRunning reports whether the entry has no end time yet.
func (e *TimeEntry) IsRunning() bool {
	return e.EndTime == nil
}

// IsPaid reports whether the entry has been consumed by a payment.
func (e *TimeEntry) IsPaid() bool {
	return e.PaymentID != nil && *e.PaymentID != ""
}

// Duration returns the tracked duration; running entries are measured up to now.
func (e *TimeEntry) Duration(now time.Time) time.Duration {
	end := now
	if e.EndTime != nil {
		end = *e.EndTime
	}
	if end.Before(e.StartTime) {
		return 0
	}
	return end.Sub(e.StartTime)
}

// Hours returns the duration in fractional hours.
func (e *TimeEntry) Hours(now time.Time) decimal.Decimal {
	return decimal.NewFromFloat(e.Duration(now).Hours())
}

// BillableAmount is hours times the given hourly rate, rounded to cents.
func (e *TimeEntry) BillableAmount(rate decimal.Decimal, now time.Time) decimal.Decimal {
	return e.Hours(now).Mul(rate).Round(2)
}
