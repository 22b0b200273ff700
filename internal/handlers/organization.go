package handlers

import (
	"net/http"
	"regexp"

	"github.com/Hecoloko/shulgenius-api/internal/dto"
	apierrors "github.com/Hecoloko/shulgenius-api/internal/errors"
	"github.com/Hecoloko/shulgenius-api/internal/middleware"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/repository"
	"github.com/gin-gonic/gin"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// OrganizationHandler coordinates organization HTTP handlers.
type OrganizationHandler struct {
	orgRepo      repository.OrganizationRepository
	campaignRepo repository.CampaignRepository
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgRepo repository.OrganizationRepository, campaignRepo repository.CampaignRepository) *OrganizationHandler {
	return &OrganizationHandler{
		orgRepo:      orgRepo,
		campaignRepo: campaignRepo,
	}
}

// CreateOrganization creates an organization with the current user as owner.
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	type CreateRequest struct {
		Name    string `json:"name" binding:"required,min=1,max=255"`
		Slug    string `json:"slug" binding:"required,min=2,max=100"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if !slugPattern.MatchString(req.Slug) {
		apierrors.BadRequest(c, "Slug must be lowercase letters, digits and hyphens")
		return
	}

	if _, err := h.orgRepo.FindBySlug(req.Slug); err == nil {
		apierrors.Conflict(c, "Slug is already in use")
		return
	}

	org := &models.Organization{
		Name:    req.Name,
		Slug:    req.Slug,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if err := h.orgRepo.CreateWithOwner(org, userID); err != nil {
		apierrors.InternalError(c, "Failed to create organization")
		return
	}

	c.JSON(http.StatusCreated, org)
}

// ListMyOrganizations returns the organizations the user belongs to.
func (h *OrganizationHandler) ListMyOrganizations(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.orgRepo.ListByUserID(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list organizations")
		return
	}

	orgs := make([]dto.OrganizationWithRoleDTO, len(memberships))
	for i, membership := range memberships {
		orgs[i] = dto.ToOrganizationWithRoleDTO(membership)
	}

	c.JSON(http.StatusOK, gin.H{"organizations": orgs})
}

// GetOrganization returns the organization loaded by the access middleware.
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return
	}

	c.JSON(http.StatusOK, org)
}

// UpdateOrganization updates organization details. Owner only.
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	type UpdateRequest struct {
		Name    *string `json:"name"`
		Email   *string `json:"email"`
		Phone   *string `json:"phone"`
		Address *string `json:"address"`
		LogoURL *string `json:"logo_url"`
	}

	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.Name != nil {
		org.Name = *req.Name
	}
	if req.Email != nil {
		org.Email = *req.Email
	}
	if req.Phone != nil {
		org.Phone = *req.Phone
	}
	if req.Address != nil {
		org.Address = *req.Address
	}
	if req.LogoURL != nil {
		org.LogoURL = *req.LogoURL
	}

	if err := h.orgRepo.Update(&org); err != nil {
		apierrors.InternalError(c, "Failed to update organization")
		return
	}

	c.JSON(http.StatusOK, org)
}

// GetPublicOrganization serves the donor-facing microsite view by slug:
// organization details and active campaigns, nothing else.
func (h *OrganizationHandler) GetPublicOrganization(c *gin.Context) {
	org, err := h.orgRepo.FindBySlug(c.Param("slug"))
	if err != nil {
		apierrors.NotFound(c, "Organization not found")
		return
	}

	campaigns, err := h.campaignRepo.ListByOrganization(org.ID, true)
	if err != nil {
		apierrors.InternalError(c, "Failed to load campaigns")
		return
	}

	c.JSON(http.StatusOK, dto.ToPublicOrganizationDTO(*org, campaigns))
}
