package repository

import (
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCampaignRepository is a GORM implementation of CampaignRepository
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository creates a new CampaignRepository
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &GormCampaignRepository{db: db}
}

func (r *GormCampaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}

func (r *GormCampaignRepository) FindByID(id uuid.UUID) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.db.First(&campaign, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *GormCampaignRepository) ListByOrganization(organizationID uuid.UUID, activeOnly bool) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	query := r.db.Where("organization_id = ?", organizationID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("created_at DESC").Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (r *GormCampaignRepository) Update(campaign *models.Campaign) error {
	return r.db.Save(campaign).Error
}
