package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentMethod is a saved card token for a member. ProcessorID is nil on
// legacy rows created before processors were tracked per method; those
// rows stay selectable for every campaign.
type PaymentMethod struct {
	ID       uuid.UUID  `gorm:"type:uuid;primarykey" json:"id"`
	MemberID uuid.UUID  `gorm:"type:uuid;index;not null" json:"member_id"`

	Processor   string     `gorm:"type:varchar(20);not null" json:"processor"`
	ProcessorID *uuid.UUID `gorm:"type:uuid;index" json:"processor_id"`

	// ProcessorPaymentMethodID is the opaque gateway token used in place
	// of raw card data on subsequent charges.
	ProcessorPaymentMethodID string `gorm:"type:varchar(255);not null" json:"processor_payment_method_id"`

	CardBrand  string `gorm:"type:varchar(50)" json:"card_brand"`
	LastFour   string `gorm:"type:varchar(4)" json:"last_four"`
	Expiration string `gorm:"type:varchar(4)" json:"expiration"` // MMYY
	Nickname   string `gorm:"type:varchar(100)" json:"nickname"`
	IsDefault  bool   `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Member Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (p *PaymentMethod) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
