package repository

import (
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentMethodRepository is a GORM implementation of PaymentMethodRepository
type GormPaymentMethodRepository struct {
	db *gorm.DB
}

// NewPaymentMethodRepository creates a new PaymentMethodRepository
func NewPaymentMethodRepository(db *gorm.DB) PaymentMethodRepository {
	return &GormPaymentMethodRepository{db: db}
}

func (r *GormPaymentMethodRepository) Create(method *models.PaymentMethod) error {
	if !method.IsDefault {
		return r.db.Create(method).Error
	}

	// A new default demotes existing siblings in the same transaction.
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PaymentMethod{}).
			Where("member_id = ?", method.MemberID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Create(method).Error
	})
}

func (r *GormPaymentMethodRepository) FindByID(id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.First(&method, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *GormPaymentMethodRepository) ListByMember(memberID uuid.UUID) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	if err := r.db.Where("member_id = ?", memberID).
		Order("created_at ASC").
		Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

// SetDefault demotes every method of the member and promotes the target
// in one transaction, leaving exactly one default.
func (r *GormPaymentMethodRepository) SetDefault(memberID, methodID uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PaymentMethod{}).
			Where("member_id = ? AND id <> ?", memberID, methodID).
			Update("is_default", false).Error; err != nil {
			return err
		}

		result := tx.Model(&models.PaymentMethod{}).
			Where("id = ? AND member_id = ?", methodID, memberID).
			Update("is_default", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormPaymentMethodRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.PaymentMethod{}, "id = ?", id).Error
}
