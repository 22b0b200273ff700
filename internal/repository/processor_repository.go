package repository

import (
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProcessorRepository is a GORM implementation of ProcessorRepository
type GormProcessorRepository struct {
	db *gorm.DB
}

// NewProcessorRepository creates a new ProcessorRepository
func NewProcessorRepository(db *gorm.DB) ProcessorRepository {
	return &GormProcessorRepository{db: db}
}

func (r *GormProcessorRepository) Create(p *models.PaymentProcessor) error {
	return r.db.Create(p).Error
}

func (r *GormProcessorRepository) FindByID(id uuid.UUID) (*models.PaymentProcessor, error) {
	var processor models.PaymentProcessor
	if err := r.db.First(&processor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &processor, nil
}

func (r *GormProcessorRepository) ListByOrganization(organizationID uuid.UUID, activeOnly bool) ([]models.PaymentProcessor, error) {
	var processors []models.PaymentProcessor
	query := r.db.Where("organization_id = ?", organizationID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("created_at ASC").Find(&processors).Error; err != nil {
		return nil, err
	}
	return processors, nil
}

func (r *GormProcessorRepository) Update(p *models.PaymentProcessor) error {
	return r.db.Save(p).Error
}

// Deactivate soft-disables a processor. Bindings and payment history
// keep referencing it.
func (r *GormProcessorRepository) Deactivate(id uuid.UUID) error {
	result := r.db.Model(&models.PaymentProcessor{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "is_default": false})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetDefault demotes every sibling and promotes the target inside one
// transaction, so the at-most-one-default invariant holds even under
// concurrent calls.
func (r *GormProcessorRepository) SetDefault(organizationID, processorID uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PaymentProcessor{}).
			Where("organization_id = ? AND id <> ?", organizationID, processorID).
			Update("is_default", false).Error; err != nil {
			return err
		}

		result := tx.Model(&models.PaymentProcessor{}).
			Where("id = ? AND organization_id = ? AND is_active = ?", processorID, organizationID, true).
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

func (r *GormProcessorRepository) FindDefault(organizationID uuid.UUID) (*models.PaymentProcessor, error) {
	var processor models.PaymentProcessor
	if err := r.db.Where("organization_id = ? AND is_default = ? AND is_active = ?", organizationID, true, true).
		First(&processor).Error; err != nil {
		return nil, err
	}
	return &processor, nil
}

func (r *GormProcessorRepository) FindLegacySettings(organizationID uuid.UUID) (*models.OrganizationSettings, error) {
	var settings models.OrganizationSettings
	if err := r.db.Where("organization_id = ?", organizationID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *GormProcessorRepository) FindPrimaryForCampaign(campaignID uuid.UUID) (*models.PaymentProcessor, error) {
	var binding models.CampaignProcessor
	if err := r.db.Preload("Processor").
		Where("campaign_id = ? AND is_primary = ?", campaignID, true).
		First(&binding).Error; err != nil {
		return nil, err
	}
	return &binding.Processor, nil
}

func (r *GormProcessorRepository) ListIDsForCampaign(campaignID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.Model(&models.CampaignProcessor{}).
		Where("campaign_id = ?", campaignID).
		Pluck("processor_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormProcessorRepository) BindToCampaign(campaignID, processorID uuid.UUID, isPrimary bool) error {
	if isPrimary {
		return r.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.CampaignProcessor{}).
				Where("campaign_id = ?", campaignID).
				Update("is_primary", false).Error; err != nil {
				return err
			}
			binding := models.CampaignProcessor{
				CampaignID:  campaignID,
				ProcessorID: processorID,
				IsPrimary:   true,
			}
			return tx.Create(&binding).Error
		})
	}

	binding := models.CampaignProcessor{
		CampaignID:  campaignID,
		ProcessorID: processorID,
	}
	return r.db.Create(&binding).Error
}

func (r *GormProcessorRepository) UnbindFromCampaign(campaignID, processorID uuid.UUID) error {
	return r.db.Where("campaign_id = ? AND processor_id = ?", campaignID, processorID).
		Delete(&models.CampaignProcessor{}).Error
}

// SetPrimaryBinding marks one binding primary, demoting the rest in the
// same transaction.
func (r *GormProcessorRepository) SetPrimaryBinding(campaignID, processorID uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CampaignProcessor{}).
			Where("campaign_id = ? AND processor_id <> ?", campaignID, processorID).
			Update("is_primary", false).Error; err != nil {
			return err
		}

		result := tx.Model(&models.CampaignProcessor{}).
			Where("campaign_id = ? AND processor_id = ?", campaignID, processorID).
			Update("is_primary", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
