package handlers

import (
	"net/http"

	apierrors "github.com/Hecoloko/shulgenius-api/internal/errors"
	"github.com/Hecoloko/shulgenius-api/internal/middleware"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/repository"
	"github.com/Hecoloko/shulgenius-api/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MemberHandler coordinates congregant member HTTP handlers.
type MemberHandler struct {
	memberRepo repository.MemberRepository
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(memberRepo repository.MemberRepository) *MemberHandler {
	return &MemberHandler{
		memberRepo: memberRepo,
	}
}

// CreateMember adds a congregant to the organization roster.
func (h *MemberHandler) CreateMember(c *gin.Context) {
	type CreateRequest struct {
		FirstName    string     `json:"first_name" binding:"required,min=1,max=100"`
		LastName     string     `json:"last_name" binding:"required,min=1,max=100"`
		Email        string     `json:"email"`
		Phone        string     `json:"phone"`
		Address      string     `json:"address"`
		FamilyHeadID *uuid.UUID `json:"family_head_id"`
	}

	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.FamilyHeadID != nil {
		head, err := h.memberRepo.FindByID(*req.FamilyHeadID)
		if err != nil || head.OrganizationID != org.ID {
			apierrors.NotFound(c, "Family head not found")
			return
		}
	}

	member := &models.Member{
		OrganizationID: org.ID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		FamilyHeadID:   req.FamilyHeadID,
	}
	if err := h.memberRepo.Create(member); err != nil {
		apierrors.InternalError(c, "Failed to create member")
		return
	}

	c.JSON(http.StatusCreated, member)
}

// ListMembers returns the organization's roster, paginated.
func (h *MemberHandler) ListMembers(c *gin.Context) {
	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return
	}

	params := utils.GetPaginationParams(c)
	members, total, err := h.memberRepo.ListByOrganization(org.ID, params)
	if err != nil {
		apierrors.InternalError(c, "Failed to list members")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members": members,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetMember returns one member with a freshly computed balance.
func (h *MemberHandler) GetMember(c *gin.Context) {
	_, member, ok := h.load(c)
	if !ok {
		return
	}

	// The stored balance is denormalized; recompute on read so the
	// response reflects the ledger.
	balance, err := h.memberRepo.OutstandingBalance(member.ID)
	if err == nil {
		member.Balance = balance
	}

	c.JSON(http.StatusOK, member)
}

// UpdateMember updates a member's contact details.
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	type UpdateRequest struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Email     *string `json:"email"`
		Phone     *string `json:"phone"`
		Address   *string `json:"address"`
	}

	_, member, ok := h.load(c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.FirstName != nil {
		member.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		member.LastName = *req.LastName
	}
	if req.Email != nil {
		member.Email = *req.Email
	}
	if req.Phone != nil {
		member.Phone = *req.Phone
	}
	if req.Address != nil {
		member.Address = *req.Address
	}

	if err := h.memberRepo.Update(member); err != nil {
		apierrors.InternalError(c, "Failed to update member")
		return
	}

	c.JSON(http.StatusOK, member)
}

// DeleteMember soft-deletes a member. Ledger rows survive.
func (h *MemberHandler) DeleteMember(c *gin.Context) {
	_, member, ok := h.load(c)
	if !ok {
		return
	}

	if err := h.memberRepo.Delete(member.ID); err != nil {
		apierrors.InternalError(c, "Failed to delete member")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member deleted"})
}

func (h *MemberHandler) load(c *gin.Context) (models.Organization, *models.Member, bool) {
	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return models.Organization{}, nil, false
	}

	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid member ID")
		return models.Organization{}, nil, false
	}

	member, err := h.memberRepo.FindByID(memberID)
	if err != nil || member.OrganizationID != org.ID {
		apierrors.NotFound(c, "Member not found")
		return models.Organization{}, nil, false
	}

	return org, member, true
}
