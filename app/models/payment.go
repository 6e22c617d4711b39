package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus is the closed set of payment workflow states.
type PaymentStatus string

const (
	PaymentStatusPending         PaymentStatus = "PENDING"
	PaymentStatusReceiptUploaded PaymentStatus = "RECEIPT_UPLOADED"
	PaymentStatusDocumentSigned  PaymentStatus = "DOCUMENT_SIGNED"
	PaymentStatusCompleted       PaymentStatus = "COMPLETED"
	PaymentStatusCancelled       PaymentStatus = "CANCELLED"
)

// PaymentStatuses lists every status in workflow order.
var PaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusReceiptUploaded,
	PaymentStatusDocumentSigned,
	PaymentStatusCompleted,
	PaymentStatusCancelled,
}

// ParsePaymentStatus accepts the canonical upper-case names, case-insensitively.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	s := PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.IsValid()
}

func (s PaymentStatus) IsValid() bool {
	for _, known := range PaymentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further workflow progress is expected.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusCancelled
}

func (s PaymentStatus) String() string {
	return string(s)
}

type Payment struct {
	ID                     string          `gorm:"type:char(36);primaryKey" json:"id"`
	Amount                 decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status                 PaymentStatus   `gorm:"type:varchar(32);index;not null;default:'PENDING'" json:"status"`
	RequiresSignedDocument bool            `gorm:"default:false" json:"requires_signed_document"`
	ReceiptURL             *string         `gorm:"type:varchar(1024)" json:"receipt_url"`
	SignedDocumentURL      *string         `gorm:"type:varchar(1024)" json:"signed_document_url"`
	ProjectID              string          `gorm:"type:char(36);index;not null" json:"project_id"`
	Project                *Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	SenderID               string          `gorm:"type:char(36);index;not null" json:"sender_id"`
	Sender                 *User           `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID             string          `gorm:"type:char(36);index;not null" json:"receiver_id"`
	Receiver               *User           `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	TimeEntries            []TimeEntry     `gorm:"foreignKey:PaymentID" json:"time_entries,omitempty"`
	CreatedAt              time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = PaymentStatusPending
	}
	return nil
}

// IsParty reports whether userID is the sender or the receiver.
func (p *Payment) IsParty(userID string) bool {
	return p.SenderID == userID || p.ReceiverID == userID
}

// HasSignedDocument reports whether the freelancer uploaded the signed document.
func (p *Payment) HasSignedDocument() bool {
	return p.SignedDocumentURL != nil && *p.SignedDocumentURL != ""
}
