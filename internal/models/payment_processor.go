package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProcessorType string

const (
	ProcessorTypeStripe   ProcessorType = "stripe"
	ProcessorTypeCardknox ProcessorType = "cardknox"
	// ProcessorTypeSola is Cardknox under its rebranded name; it shares
	// the Cardknox wire format and credential shape.
	ProcessorTypeSola ProcessorType = "sola"
)

// CredentialMap holds gateway credentials as an opaque key-value map.
// The shape depends on the processor type and is parsed into a typed
// credential at the gateway boundary.
type CredentialMap map[string]string

func (m CredentialMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *CredentialMap) Scan(value interface{}) error {
	if value == nil {
		*m = CredentialMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported credential column type %T", value)
	}
}

// PaymentProcessor is a configured gateway account belonging to one
// organization. At most one active processor per organization carries
// is_default = true.
type PaymentProcessor struct {
	ID             uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;index;not null" json:"organization_id"`
	ProcessorType  ProcessorType  `gorm:"type:varchar(20);not null" json:"processor_type"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	Credentials    CredentialMap  `gorm:"type:text" json:"-"`
	IsDefault      bool           `gorm:"not null;default:false" json:"is_default"`
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (p *PaymentProcessor) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
