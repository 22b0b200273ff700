package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrganizationSettings is the deprecated single-processor settings record.
// Older organizations stored one flat transaction key here before the
// processor registry existed; the resolver still consults it between the
// campaign binding and the organization default.
type OrganizationSettings struct {
	ID             uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"organization_id"`
	TransactionKey string    `gorm:"type:varchar(255)" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (s *OrganizationSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
