package repository

import (
	"time"

	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// CreateWithOwner creates an organization and its owner membership within
// a single transaction.
func (r *GormOrganizationRepository) CreateWithOwner(org *models.Organization, ownerID uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}

		member := models.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         ownerID,
			Role:           models.RoleOwner,
			JoinedAt:       time.Now(),
		}
		return tx.Create(&member).Error
	})
}

func (r *GormOrganizationRepository) FindByID(id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *GormOrganizationRepository) FindBySlug(slug string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.Where("slug = ?", slug).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *GormOrganizationRepository) Update(org *models.Organization) error {
	return r.db.Save(org).Error
}

func (r *GormOrganizationRepository) FindMember(organizationID, userID uuid.UUID) (*models.OrganizationMember, error) {
	var member models.OrganizationMember
	if err := r.db.Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *GormOrganizationRepository) ListByUserID(userID uuid.UUID) ([]models.OrganizationMember, error) {
	var memberships []models.OrganizationMember
	if err := r.db.Preload("Organization").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}
