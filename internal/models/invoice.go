package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusVoid          InvoiceStatus = "void"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
)

type Invoice struct {
	ID             uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;index;not null" json:"organization_id"`
	MemberID       uuid.UUID      `gorm:"type:uuid;index;not null" json:"member_id"`
	InvoiceNumber  string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"invoice_number"`
	Status         InvoiceStatus  `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Subtotal       float64        `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Tax            float64        `gorm:"type:decimal(10,2);not null;default:0" json:"tax"`
	Total          float64        `gorm:"type:decimal(10,2);not null" json:"total"`
	DueDate        *time.Time     `json:"due_date"`
	PaidAt         *time.Time     `json:"paid_at"`
	Notes          string         `json:"notes"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Member Member        `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Items  []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type InvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;index;not null" json:"invoice_id"`
	Description string    `gorm:"not null" json:"description"`
	Quantity    int       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   float64   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Total       float64   `gorm:"type:decimal(10,2);not null" json:"total"`
	CreatedAt   time.Time `json:"created_at"`
}

func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
