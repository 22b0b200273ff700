package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/Hecoloko/shulgenius-api/internal/errors"
	"github.com/Hecoloko/shulgenius-api/internal/middleware"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/repository"
	"github.com/Hecoloko/shulgenius-api/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CampaignHandler coordinates campaign HTTP handlers.
type CampaignHandler struct {
	campaignRepo repository.CampaignRepository
	donationRepo repository.DonationRepository
}

// NewCampaignHandler creates a new CampaignHandler.
func NewCampaignHandler(campaignRepo repository.CampaignRepository, donationRepo repository.DonationRepository) *CampaignHandler {
	return &CampaignHandler{
		campaignRepo: campaignRepo,
		donationRepo: donationRepo,
	}
}

// CreateCampaign creates a campaign for the organization.
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	type CreateRequest struct {
		Name        string              `json:"name" binding:"required,min=1,max=255"`
		Type        models.CampaignType `json:"type"`
		Description string              `json:"description"`
		GoalAmount  *float64            `json:"goal_amount"`
		StartDate   *time.Time          `json:"start_date"`
		EndDate     *time.Time          `json:"end_date"`
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
	if req.Type == "" {
		req.Type = models.CampaignTypeDrive
	}
	if req.Type != models.CampaignTypeDrive && req.Type != models.CampaignTypeFund {
		apierrors.BadRequest(c, "Invalid campaign type")
		return
	}
	if req.GoalAmount != nil && *req.GoalAmount <= 0 {
		apierrors.BadRequest(c, "Goal amount must be greater than zero")
		return
	}

	campaign := &models.Campaign{
		OrganizationID: org.ID,
		Name:           req.Name,
		Type:           req.Type,
		Description:    req.Description,
		GoalAmount:     req.GoalAmount,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		IsActive:       true,
	}
	if err := h.campaignRepo.Create(campaign); err != nil {
		apierrors.InternalError(c, "Failed to create campaign")
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// ListCampaigns returns the organization's campaigns. Pass active=true
// to exclude closed ones.
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return
	}

	activeOnly := c.Query("active") == "true"
	campaigns, err := h.campaignRepo.ListByOrganization(org.ID, activeOnly)
	if err != nil {
		apierrors.InternalError(c, "Failed to list campaigns")
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

// GetCampaign returns one campaign.
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	_, campaign, ok := h.load(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// UpdateCampaign updates campaign details. RaisedAmount is never
// writable here; it only moves through the donation ledger.
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	type UpdateRequest struct {
		Name        *string    `json:"name"`
		Description *string    `json:"description"`
		GoalAmount  *float64   `json:"goal_amount"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
		IsActive    *bool      `json:"is_active"`
	}

	_, campaign, ok := h.load(c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.Description != nil {
		campaign.Description = *req.Description
	}
	if req.GoalAmount != nil {
		if *req.GoalAmount <= 0 {
			apierrors.BadRequest(c, "Goal amount must be greater than zero")
			return
		}
		campaign.GoalAmount = req.GoalAmount
	}
	if req.StartDate != nil {
		campaign.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		campaign.EndDate = req.EndDate
	}
	if req.IsActive != nil {
		campaign.IsActive = *req.IsActive
	}

	if err := h.campaignRepo.Update(campaign); err != nil {
		apierrors.InternalError(c, "Failed to update campaign")
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// ListCampaignDonations returns the donations recorded for a campaign.
func (h *CampaignHandler) ListCampaignDonations(c *gin.Context) {
	_, campaign, ok := h.load(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	donations, total, err := h.donationRepo.ListByCampaign(campaign.ID, params)
	if err != nil {
		apierrors.InternalError(c, "Failed to list donations")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"donations": donations,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

func (h *CampaignHandler) load(c *gin.Context) (models.Organization, *models.Campaign, bool) {
	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return models.Organization{}, nil, false
	}

	campaignID, err := uuid.Parse(c.Param("campaignId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid campaign ID")
		return models.Organization{}, nil, false
	}

	campaign, err := h.campaignRepo.FindByID(campaignID)
	if err != nil || campaign.OrganizationID != org.ID {
		apierrors.NotFound(c, "Campaign not found")
		return models.Organization{}, nil, false
	}

	return org, campaign, true
}
