package repository

import (
	"github.com/Hecoloko/shulgenius-api/internal/database"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMemberRepository is a GORM implementation of MemberRepository
type GormMemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &GormMemberRepository{db: db}
}

func (r *GormMemberRepository) Create(member *models.Member) error {
	return r.db.Create(member).Error
}

func (r *GormMemberRepository) FindByID(id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *GormMemberRepository) FindByUserID(userID uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.Where("user_id = ?", userID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *GormMemberRepository) ListByOrganization(organizationID uuid.UUID, params utils.PaginationParams) ([]models.Member, int64, error) {
	var members []models.Member

	query := r.db.Model(&models.Member{}).Where("organization_id = ?", organizationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("last_name ASC, first_name ASC").
		Scopes(database.Paginate(params)).
		Find(&members).Error; err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

func (r *GormMemberRepository) Update(member *models.Member) error {
	return r.db.Save(member).Error
}

func (r *GormMemberRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.Member{}, "id = ?", id).Error
}

// OutstandingBalance recomputes invoiced-minus-paid. Draft and void
// invoices don't count toward what the member owes.
func (r *GormMemberRepository) OutstandingBalance(memberID uuid.UUID) (float64, error) {
	var invoiced float64
	err := r.db.Model(&models.Invoice{}).
		Where("member_id = ? AND status NOT IN ?", memberID, []models.InvoiceStatus{models.InvoiceStatusDraft, models.InvoiceStatusVoid}).
		Select("COALESCE(SUM(total), 0)").
		Scan(&invoiced).Error
	if err != nil {
		return 0, err
	}

	var paid float64
	err = r.db.Model(&models.Payment{}).
		Where("member_id = ?", memberID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid).Error
	if err != nil {
		return 0, err
	}

	return invoiced - paid, nil
}
