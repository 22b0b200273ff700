package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization is the tenant root. The slug is the public URL segment of
// the organization's microsite.
type Organization struct {
	ID        uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Email     string         `gorm:"type:varchar(255)" json:"email"`
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	Address   string         `json:"address"`
	LogoURL   string         `json:"logo_url"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members    []OrganizationMember `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
	Campaigns  []Campaign           `gorm:"foreignKey:OrganizationID" json:"campaigns,omitempty"`
	Processors []PaymentProcessor   `gorm:"foreignKey:OrganizationID" json:"processors,omitempty"`
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
