package models

import (
	"time"

	"github.com/google/uuid"
)

type OrganizationRole string

const (
	RoleOwner OrganizationRole = "owner"
	RoleAdmin OrganizationRole = "admin"
)

// OrganizationMember links an auth user to an organization they
// administer. Congregants are tracked separately as Member rows.
type OrganizationMember struct {
	OrganizationID uuid.UUID        `gorm:"type:uuid;primarykey" json:"organization_id"`
	UserID         uuid.UUID        `gorm:"type:uuid;primarykey" json:"user_id"`
	Role           OrganizationRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt       time.Time        `json:"joined_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
