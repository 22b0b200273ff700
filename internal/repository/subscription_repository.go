package repository

import (
	"time"

	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSubscriptionRepository is a GORM implementation of SubscriptionRepository
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

func (r *GormSubscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *GormSubscriptionRepository) FindByID(id uuid.UUID, preload ...string) (*models.Subscription, error) {
	var sub models.Subscription
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *GormSubscriptionRepository) ListByOrganization(organizationID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.Where("organization_id = ?", organizationID).
		Preload("Member").
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *GormSubscriptionRepository) ListByMember(memberID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.Where("member_id = ?", memberID).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *GormSubscriptionRepository) Update(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

// Deactivate is one-way; there is no resume path. A new subscription
// record is required to restart billing.
func (r *GormSubscriptionRepository) Deactivate(id uuid.UUID) error {
	result := r.db.Model(&models.Subscription{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormSubscriptionRepository) ListDueAutoCharge(asOf time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.
		Where("is_active = ? AND billing_method = ? AND next_billing_date <= ?",
			true, models.BillingMethodAutoCC, asOf).
		Preload("PaymentMethod").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *GormSubscriptionRepository) ListDueInvoiced(asOf time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.
		Where("is_active = ? AND billing_method = ? AND next_billing_date <= ?",
			true, models.BillingMethodInvoiced, asOf).
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// RecordBilling persists one billing cycle atomically: the invoice with
// its line item, the payment row when one was charged, and the
// subscription advancement. The advancement UPDATE is guarded on the
// anchor next_billing_date the caller observed; zero affected rows means
// another invocation advanced the subscription first, and the whole
// transaction rolls back with ErrBillingConflict so no duplicate ledger
// rows survive.
func (r *GormSubscriptionRepository) RecordBilling(invoice *models.Invoice, payment *models.Payment, adv BillingAdvancement) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}

		if payment != nil {
			payment.InvoiceID = &invoice.ID
			if err := tx.Create(payment).Error; err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"next_billing_date": adv.NextBillingDate,
		}
		if adv.IncrementInstallments {
			updates["installments_paid"] = gorm.Expr("installments_paid + 1")
		}
		if adv.Deactivate {
			updates["is_active"] = false
		}

		result := tx.Model(&models.Subscription{}).
			Where("id = ? AND is_active = ? AND next_billing_date = ?",
				adv.SubscriptionID, true, adv.FromAnchor).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBillingConflict
		}
		return nil
	})
}
