package handlers

import (
	"errors"
	"net/http"

	"github.com/Hecoloko/shulgenius-api/internal/dto"
	apierrors "github.com/Hecoloko/shulgenius-api/internal/errors"
	"github.com/Hecoloko/shulgenius-api/internal/gateway"
	"github.com/Hecoloko/shulgenius-api/internal/middleware"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProcessorHandler coordinates processor registry and campaign binding
// HTTP handlers.
type ProcessorHandler struct {
	procRepo     repository.ProcessorRepository
	campaignRepo repository.CampaignRepository
}

// NewProcessorHandler creates a new ProcessorHandler.
func NewProcessorHandler(procRepo repository.ProcessorRepository, campaignRepo repository.CampaignRepository) *ProcessorHandler {
	return &ProcessorHandler{
		procRepo:     procRepo,
		campaignRepo: campaignRepo,
	}
}

// CreateProcessor registers a gateway account for the organization.
// Credentials are validated for shape up front so a misconfigured
// processor never reaches the charge path.
func (h *ProcessorHandler) CreateProcessor(c *gin.Context) {
	type CreateRequest struct {
		Name          string               `json:"name" binding:"required,min=1,max=255"`
		ProcessorType models.ProcessorType `json:"processor_type" binding:"required"`
		Credentials   map[string]string    `json:"credentials" binding:"required"`
		SetDefault    bool                 `json:"set_default"`
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

	creds, err := gateway.ParseCredentials(req.ProcessorType, req.Credentials)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	if creds.TransactionKey() == "" {
		apierrors.BadRequest(c, "Credentials are missing a transaction key")
		return
	}

	processor := &models.PaymentProcessor{
		OrganizationID: org.ID,
		ProcessorType:  req.ProcessorType,
		Name:           req.Name,
		Credentials:    req.Credentials,
		IsActive:       true,
	}
	if err := h.procRepo.Create(processor); err != nil {
		apierrors.InternalError(c, "Failed to create processor")
		return
	}

	if req.SetDefault {
		if err := h.procRepo.SetDefault(org.ID, processor.ID); err != nil {
			apierrors.InternalError(c, "Failed to set default processor")
			return
		}
		processor.IsDefault = true
	}

	c.JSON(http.StatusCreated, dto.ToProcessorDTO(*processor))
}

// ListProcessors returns the organization's registered processors with
// credentials masked.
func (h *ProcessorHandler) ListProcessors(c *gin.Context) {
	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return
	}

	processors, err := h.procRepo.ListByOrganization(org.ID, false)
	if err != nil {
		apierrors.InternalError(c, "Failed to list processors")
		return
	}

	items := make([]dto.ProcessorDTO, len(processors))
	for i, p := range processors {
		items[i] = dto.ToProcessorDTO(p)
	}

	c.JSON(http.StatusOK, gin.H{"processors": items})
}

// UpdateProcessor renames a processor or rotates its credentials.
func (h *ProcessorHandler) UpdateProcessor(c *gin.Context) {
	type UpdateRequest struct {
		Name        *string           `json:"name"`
		Credentials map[string]string `json:"credentials"`
	}

	_, processor, ok := h.loadProcessor(c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.Name != nil {
		processor.Name = *req.Name
	}
	if req.Credentials != nil {
		creds, err := gateway.ParseCredentials(processor.ProcessorType, req.Credentials)
		if err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}
		if creds.TransactionKey() == "" {
			apierrors.BadRequest(c, "Credentials are missing a transaction key")
			return
		}
		processor.Credentials = req.Credentials
	}

	if err := h.procRepo.Update(processor); err != nil {
		apierrors.InternalError(c, "Failed to update processor")
		return
	}

	c.JSON(http.StatusOK, dto.ToProcessorDTO(*processor))
}

// DeactivateProcessor soft-disables a processor. Its transaction history
// is retained.
func (h *ProcessorHandler) DeactivateProcessor(c *gin.Context) {
	_, processor, ok := h.loadProcessor(c)
	if !ok {
		return
	}

	if err := h.procRepo.Deactivate(processor.ID); err != nil {
		apierrors.InternalError(c, "Failed to deactivate processor")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Processor deactivated"})
}

// SetDefaultProcessor makes one processor the organization default.
func (h *ProcessorHandler) SetDefaultProcessor(c *gin.Context) {
	org, processor, ok := h.loadProcessor(c)
	if !ok {
		return
	}
	if !processor.IsActive {
		apierrors.BadRequest(c, "Cannot set an inactive processor as default")
		return
	}

	if err := h.procRepo.SetDefault(org.ID, processor.ID); err != nil {
		apierrors.InternalError(c, "Failed to set default processor")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Default processor updated"})
}

// BindCampaignProcessor attaches a processor to a campaign, optionally
// as its primary.
func (h *ProcessorHandler) BindCampaignProcessor(c *gin.Context) {
	type BindRequest struct {
		ProcessorID uuid.UUID `json:"processor_id" binding:"required"`
		IsPrimary   bool      `json:"is_primary"`
	}

	org, campaign, ok := h.loadCampaign(c)
	if !ok {
		return
	}

	var req BindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	processor, err := h.procRepo.FindByID(req.ProcessorID)
	if err != nil || processor.OrganizationID != org.ID {
		apierrors.NotFound(c, "Processor not found")
		return
	}
	if !processor.IsActive {
		apierrors.BadRequest(c, "Cannot bind an inactive processor")
		return
	}

	if err := h.procRepo.BindToCampaign(campaign.ID, processor.ID, req.IsPrimary); err != nil {
		apierrors.InternalError(c, "Failed to bind processor")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Processor bound to campaign"})
}

// UnbindCampaignProcessor detaches a processor from a campaign.
func (h *ProcessorHandler) UnbindCampaignProcessor(c *gin.Context) {
	org, campaign, ok := h.loadCampaign(c)
	if !ok {
		return
	}

	processorID, err := uuid.Parse(c.Param("processorId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid processor ID")
		return
	}
	processor, err := h.procRepo.FindByID(processorID)
	if err != nil || processor.OrganizationID != org.ID {
		apierrors.NotFound(c, "Processor not found")
		return
	}

	if err := h.procRepo.UnbindFromCampaign(campaign.ID, processorID); err != nil {
		apierrors.InternalError(c, "Failed to unbind processor")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Processor unbound from campaign"})
}

// SetPrimaryCampaignProcessor marks one bound processor as the
// campaign's primary.
func (h *ProcessorHandler) SetPrimaryCampaignProcessor(c *gin.Context) {
	org, campaign, ok := h.loadCampaign(c)
	if !ok {
		return
	}

	processorID, err := uuid.Parse(c.Param("processorId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid processor ID")
		return
	}
	processor, err := h.procRepo.FindByID(processorID)
	if err != nil || processor.OrganizationID != org.ID {
		apierrors.NotFound(c, "Processor not found")
		return
	}

	if err := h.procRepo.SetPrimaryBinding(campaign.ID, processorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierrors.NotFound(c, "Processor is not bound to this campaign")
			return
		}
		apierrors.InternalError(c, "Failed to set primary processor")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Primary processor updated"})
}

func (h *ProcessorHandler) loadProcessor(c *gin.Context) (models.Organization, *models.PaymentProcessor, bool) {
	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return models.Organization{}, nil, false
	}

	processorID, err := uuid.Parse(c.Param("processorId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid processor ID")
		return models.Organization{}, nil, false
	}

	processor, err := h.procRepo.FindByID(processorID)
	if err != nil || processor.OrganizationID != org.ID {
		apierrors.NotFound(c, "Processor not found")
		return models.Organization{}, nil, false
	}

	return org, processor, true
}

func (h *ProcessorHandler) loadCampaign(c *gin.Context) (models.Organization, *models.Campaign, bool) {
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
