package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Donation is an append-only record of a completed campaign
// contribution, created only after gateway approval.
type Donation struct {
	ID             uuid.UUID  `gorm:"type:uuid;primarykey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"organization_id"`
	CampaignID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"campaign_id"`
	MemberID       *uuid.UUID `gorm:"type:uuid;index" json:"member_id"`

	DonorName   string `gorm:"type:varchar(255)" json:"donor_name"`
	DonorEmail  string `gorm:"type:varchar(255)" json:"donor_email"`
	IsAnonymous bool   `gorm:"not null;default:false" json:"is_anonymous"`

	Amount    float64 `gorm:"type:decimal(10,2);not null" json:"amount"`
	Reference string  `gorm:"type:varchar(50);index" json:"reference"`

	Processor              string `gorm:"type:varchar(20)" json:"processor"`
	ProcessorTransactionID string `gorm:"type:varchar(255)" json:"processor_transaction_id"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Campaign Campaign `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
}

func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
