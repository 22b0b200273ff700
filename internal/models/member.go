package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Member is a congregant. UserID stays nil until the member activates
// portal access by setting a password. Balance is denormalized
// (invoiced minus paid) and recomputed opportunistically on read rather
// than being a source of truth.
type Member struct {
	ID             uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;index;not null" json:"organization_id"`
	UserID         *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	FirstName      string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName       string         `gorm:"type:varchar(100);not null" json:"last_name"`
	Email          string         `gorm:"type:varchar(255)" json:"email"`
	Phone          string         `gorm:"type:varchar(50)" json:"phone"`
	Address        string         `json:"address"`
	Balance        float64        `gorm:"type:decimal(10,2);not null;default:0" json:"balance"`
	FamilyHeadID   *uuid.UUID     `gorm:"type:uuid;index" json:"family_head_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Organization   Organization    `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	PaymentMethods []PaymentMethod `gorm:"foreignKey:MemberID" json:"payment_methods,omitempty"`
}

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
