package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionPaymentType string

const (
	PaymentTypeRecurring    SubscriptionPaymentType = "recurring"
	PaymentTypeInstallments SubscriptionPaymentType = "installments"
)

type BillingMethod string

const (
	BillingMethodInvoiced BillingMethod = "invoiced"
	BillingMethodAutoCC   BillingMethod = "auto_cc"
)

type BillingFrequency string

const (
	FrequencyDaily         BillingFrequency = "daily"
	FrequencyWeekly        BillingFrequency = "weekly"
	FrequencyMonthly       BillingFrequency = "monthly"
	FrequencyMonthlyHebrew BillingFrequency = "monthly_hebrew"
	FrequencyQuarterly     BillingFrequency = "quarterly"
	FrequencyAnnual        BillingFrequency = "annual"
)

// Subscription is a recurring pledge or an installment plan. Once
// is_active flips to false the record is terminal; resuming requires a
// new subscription.
type Subscription struct {
	ID             uuid.UUID  `gorm:"type:uuid;primarykey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"organization_id"`
	MemberID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"member_id"`
	CampaignID     *uuid.UUID `gorm:"type:uuid;index" json:"campaign_id"`

	Description string                  `json:"description"`
	TotalAmount float64                 `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	PaymentType SubscriptionPaymentType `gorm:"type:varchar(20);not null" json:"payment_type"`

	BillingMethod BillingMethod    `gorm:"type:varchar(20);not null" json:"billing_method"`
	Frequency     BillingFrequency `gorm:"type:varchar(20);not null" json:"frequency"`

	InstallmentsTotal *int `json:"installments_total"`
	InstallmentsPaid  int  `gorm:"not null;default:0" json:"installments_paid"`

	NextBillingDate time.Time  `gorm:"not null" json:"next_billing_date"`
	PaymentMethodID *uuid.UUID `gorm:"type:uuid" json:"payment_method_id"`
	IsActive        bool       `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Member        Member         `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Campaign      *Campaign      `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	PaymentMethod *PaymentMethod `gorm:"foreignKey:PaymentMethodID" json:"payment_method,omitempty"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// CycleAmount is the amount charged per billing cycle: the per-cycle
// share for installment plans, the full pledge amount for recurring ones.
func (s *Subscription) CycleAmount() float64 {
	if s.PaymentType == PaymentTypeInstallments && s.InstallmentsTotal != nil && *s.InstallmentsTotal > 0 {
		return s.TotalAmount / float64(*s.InstallmentsTotal)
	}
	return s.TotalAmount
}
