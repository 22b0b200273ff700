package repository

import (
	"time"

	"github.com/Hecoloko/shulgenius-api/internal/database"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository is a GORM implementation of InvoiceRepository
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) Create(invoice *models.Invoice) error {
	return r.db.Create(invoice).Error
}

func (r *GormInvoiceRepository) FindByID(id uuid.UUID, preload ...string) (*models.Invoice, error) {
	var invoice models.Invoice
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *GormInvoiceRepository) ListByOrganization(organizationID uuid.UUID, params utils.PaginationParams) ([]models.Invoice, int64, error) {
	var invoices []models.Invoice

	query := r.db.Model(&models.Invoice{}).Where("organization_id = ?", organizationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").
		Preload("Member").Preload("Items").
		Scopes(database.Paginate(params)).
		Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

func (r *GormInvoiceRepository) ListByMember(memberID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := r.db.Where("member_id = ?", memberID).
		Preload("Items").
		Order("created_at DESC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *GormInvoiceRepository) Update(invoice *models.Invoice) error {
	return r.db.Save(invoice).Error
}

// ApplyPayment writes the payment row and re-derives the invoice status
// from the sum of all payments against it, inside one transaction. The
// invoice flips to paid when the sum covers the total, to partially_paid
// when anything has been received, and keeps its status otherwise.
func (r *GormInvoiceRepository) ApplyPayment(payment *models.Payment) (*models.Invoice, error) {
	var updated *models.Invoice

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		if payment.InvoiceID == nil {
			return nil
		}

		var invoice models.Invoice
		if err := tx.First(&invoice, "id = ?", *payment.InvoiceID).Error; err != nil {
			return err
		}

		var paidTotal float64
		if err := tx.Model(&models.Payment{}).
			Where("invoice_id = ?", invoice.ID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&paidTotal).Error; err != nil {
			return err
		}

		if paidTotal >= invoice.Total {
			now := time.Now()
			invoice.Status = models.InvoiceStatusPaid
			invoice.PaidAt = &now
		} else if paidTotal > 0 {
			invoice.Status = models.InvoiceStatusPartiallyPaid
		}

		if err := tx.Save(&invoice).Error; err != nil {
			return err
		}

		updated = &invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
