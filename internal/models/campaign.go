package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CampaignType string

const (
	CampaignTypeDrive CampaignType = "drive"
	CampaignTypeFund  CampaignType = "fund"
)

// Campaign is a fundraising drive or standing fund. RaisedAmount is a
// monotonically non-decreasing running total updated only through the
// ledger reconciliation path.
type Campaign struct {
	ID             uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;index;not null" json:"organization_id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	Type           CampaignType   `gorm:"type:varchar(20);not null;default:'drive'" json:"type"`
	Description    string         `gorm:"type:text" json:"description"`
	GoalAmount     *float64       `gorm:"type:decimal(10,2)" json:"goal_amount"`
	RaisedAmount   float64        `gorm:"type:decimal(10,2);not null;default:0" json:"raised_amount"`
	StartDate      *time.Time     `json:"start_date"`
	EndDate        *time.Time     `json:"end_date"`
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Organization Organization        `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Processors   []CampaignProcessor `gorm:"foreignKey:CampaignID" json:"processors,omitempty"`
}

func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
