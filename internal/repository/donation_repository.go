package repository

import (
	"github.com/Hecoloko/shulgenius-api/internal/database"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDonationRepository is a GORM implementation of DonationRepository
type GormDonationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a new DonationRepository
func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &GormDonationRepository{db: db}
}

// CreateApproved writes the donation row and advances the campaign's
// raised amount with an atomic in-database increment, inside one
// transaction. Concurrent donations to the same campaign cannot lose
// updates.
func (r *GormDonationRepository) CreateApproved(donation *models.Donation) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(donation).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Campaign{}).
			Where("id = ?", donation.CampaignID).
			Update("raised_amount", gorm.Expr("raised_amount + ?", donation.Amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormDonationRepository) ListByCampaign(campaignID uuid.UUID, params utils.PaginationParams) ([]models.Donation, int64, error) {
	var donations []models.Donation

	query := r.db.Model(&models.Donation{}).Where("campaign_id = ?", campaignID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").
		Scopes(database.Paginate(params)).
		Find(&donations).Error; err != nil {
		return nil, 0, err
	}

	return donations, total, nil
}
