package models

import (
	"time"

	"github.com/google/uuid"
)

// CampaignProcessor binds a campaign to a processor. At most one binding
// per campaign carries is_primary = true; the primary binding wins
// processor resolution for charges against that campaign.
type CampaignProcessor struct {
	CampaignID  uuid.UUID `gorm:"type:uuid;primarykey" json:"campaign_id"`
	ProcessorID uuid.UUID `gorm:"type:uuid;primarykey" json:"processor_id"`
	IsPrimary   bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	Campaign  Campaign         `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	Processor PaymentProcessor `gorm:"foreignKey:ProcessorID" json:"processor,omitempty"`
}
