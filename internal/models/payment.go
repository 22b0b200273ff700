package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment is an append-only ledger row. Rows are never updated or
// deleted once written; invoice status derives from their sum.
type Payment struct {
	ID             uuid.UUID  `gorm:"type:uuid;primarykey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"organization_id"`
	MemberID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"member_id"`
	InvoiceID      *uuid.UUID `gorm:"type:uuid;index" json:"invoice_id"`

	Amount        float64 `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod string  `gorm:"type:varchar(50);not null" json:"payment_method"` // cash, check, card, ...
	Notes         string  `json:"notes"`

	Processor              string `gorm:"type:varchar(20)" json:"processor"`
	ProcessorTransactionID string `gorm:"type:varchar(255)" json:"processor_transaction_id"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Member  Member   `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Invoice *Invoice `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
