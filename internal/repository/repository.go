package repository

import (
	"errors"
	"time"

	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/utils"
	"github.com/google/uuid"
)

// ErrBillingConflict is returned when a billing advancement loses the
// compare-and-swap on next_billing_date: the subscription was already
// advanced (or deactivated) by another invocation, and nothing was
// written.
var ErrBillingConflict = errors.New("subscription was already billed for this cycle")

// UserRepository defines the interface for auth user data access
type UserRepository interface {
	Create(user *models.User) error
	FindByID(id uuid.UUID) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// CreateWithOwner creates an organization and its owner membership
	// within a single transaction.
	CreateWithOwner(org *models.Organization, ownerID uuid.UUID) error

	FindByID(id uuid.UUID) (*models.Organization, error)
	FindBySlug(slug string) (*models.Organization, error)
	Update(org *models.Organization) error

	FindMember(organizationID, userID uuid.UUID) (*models.OrganizationMember, error)
	ListByUserID(userID uuid.UUID) ([]models.OrganizationMember, error)
}

// ProcessorRepository defines the interface for processor registry and
// campaign binding data access
type ProcessorRepository interface {
	Create(p *models.PaymentProcessor) error
	FindByID(id uuid.UUID) (*models.PaymentProcessor, error)
	ListByOrganization(organizationID uuid.UUID, activeOnly bool) ([]models.PaymentProcessor, error)
	Update(p *models.PaymentProcessor) error

	// Deactivate soft-disables a processor without deleting its history.
	Deactivate(id uuid.UUID) error

	// SetDefault promotes one processor to the organization default and
	// demotes all siblings in the same transaction.
	SetDefault(organizationID, processorID uuid.UUID) error

	FindDefault(organizationID uuid.UUID) (*models.PaymentProcessor, error)

	// FindLegacySettings returns the deprecated flat settings record, if
	// the organization has one.
	FindLegacySettings(organizationID uuid.UUID) (*models.OrganizationSettings, error)

	// FindPrimaryForCampaign returns the processor bound as primary to a
	// campaign.
	FindPrimaryForCampaign(campaignID uuid.UUID) (*models.PaymentProcessor, error)

	// ListIDsForCampaign returns the IDs of every processor bound to a
	// campaign, primary or not.
	ListIDsForCampaign(campaignID uuid.UUID) ([]uuid.UUID, error)

	BindToCampaign(campaignID, processorID uuid.UUID, isPrimary bool) error
	UnbindFromCampaign(campaignID, processorID uuid.UUID) error

	// SetPrimaryBinding marks one binding primary and demotes the rest
	// in the same transaction.
	SetPrimaryBinding(campaignID, processorID uuid.UUID) error
}

// CampaignRepository defines the interface for campaign data access
type CampaignRepository interface {
	Create(campaign *models.Campaign) error
	FindByID(id uuid.UUID) (*models.Campaign, error)
	ListByOrganization(organizationID uuid.UUID, activeOnly bool) ([]models.Campaign, error)
	Update(campaign *models.Campaign) error
}

// MemberRepository defines the interface for member data access
type MemberRepository interface {
	Create(member *models.Member) error
	FindByID(id uuid.UUID) (*models.Member, error)
	FindByUserID(userID uuid.UUID) (*models.Member, error)
	ListByOrganization(organizationID uuid.UUID, params utils.PaginationParams) ([]models.Member, int64, error)
	Update(member *models.Member) error
	Delete(id uuid.UUID) error

	// OutstandingBalance recomputes invoiced-minus-paid for a member.
	OutstandingBalance(memberID uuid.UUID) (float64, error)
}

// PaymentMethodRepository defines the interface for saved card data access
type PaymentMethodRepository interface {
	Create(method *models.PaymentMethod) error
	FindByID(id uuid.UUID) (*models.PaymentMethod, error)
	ListByMember(memberID uuid.UUID) ([]models.PaymentMethod, error)

	// SetDefault demotes all of the member's methods and promotes the
	// given one in the same transaction, so exactly one default survives.
	SetDefault(memberID, methodID uuid.UUID) error

	Delete(id uuid.UUID) error
}

// InvoiceRepository defines the interface for invoice and payment data
// access
type InvoiceRepository interface {
	Create(invoice *models.Invoice) error
	FindByID(id uuid.UUID, preload ...string) (*models.Invoice, error)
	ListByOrganization(organizationID uuid.UUID, params utils.PaginationParams) ([]models.Invoice, int64, error)
	ListByMember(memberID uuid.UUID) ([]models.Invoice, error)
	Update(invoice *models.Invoice) error

	// ApplyPayment writes a payment row and, when it targets an invoice,
	// re-derives the invoice status from the payment sum in the same
	// transaction. Returns the updated invoice, or nil for unlinked
	// payments.
	ApplyPayment(payment *models.Payment) (*models.Invoice, error)
}

// BillingAdvancement describes how a subscription moves after a
// successful billing cycle.
type BillingAdvancement struct {
	SubscriptionID uuid.UUID

	// FromAnchor is the next_billing_date the caller observed. The
	// update is guarded on it so a concurrent or repeated invocation
	// advances nothing.
	FromAnchor      time.Time
	NextBillingDate time.Time

	IncrementInstallments bool
	Deactivate            bool
}

// SubscriptionRepository defines the interface for subscription data
// access
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	FindByID(id uuid.UUID, preload ...string) (*models.Subscription, error)
	ListByOrganization(organizationID uuid.UUID) ([]models.Subscription, error)
	ListByMember(memberID uuid.UUID) ([]models.Subscription, error)
	Update(sub *models.Subscription) error
	Deactivate(id uuid.UUID) error

	// ListDueAutoCharge returns active auto_cc subscriptions whose
	// next_billing_date is on or before asOf.
	ListDueAutoCharge(asOf time.Time) ([]models.Subscription, error)

	// ListDueInvoiced returns active invoiced subscriptions whose
	// next_billing_date is on or before asOf.
	ListDueInvoiced(asOf time.Time) ([]models.Subscription, error)

	// RecordBilling persists the invoice, its item, the payment row (nil
	// for invoiced cycles that charge nothing) and the subscription
	// advancement in a single transaction. If the advancement loses its
	// compare-and-swap the whole transaction rolls back and
	// ErrBillingConflict is returned.
	RecordBilling(invoice *models.Invoice, payment *models.Payment, adv BillingAdvancement) error
}

// DonationRepository defines the interface for donation data access
type DonationRepository interface {
	// CreateApproved writes the donation row and atomically increments
	// the campaign's raised amount in a single transaction.
	CreateApproved(donation *models.Donation) error

	ListByCampaign(campaignID uuid.UUID, params utils.PaginationParams) ([]models.Donation, int64, error)
}
