package handlers

import (
	"errors"
	"net/http"

	"github.com/Hecoloko/shulgenius-api/internal/database"
	apierrors "github.com/Hecoloko/shulgenius-api/internal/errors"
	"github.com/Hecoloko/shulgenius-api/internal/gateway"
	"github.com/Hecoloko/shulgenius-api/internal/middleware"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentMethodHandler coordinates saved card HTTP handlers.
type PaymentMethodHandler struct {
	methodService *services.PaymentMethodService
}

// NewPaymentMethodHandler creates a new PaymentMethodHandler.
func NewPaymentMethodHandler(methodService *services.PaymentMethodService) *PaymentMethodHandler {
	return &PaymentMethodHandler{
		methodService: methodService,
	}
}

// SaveCard tokenizes a card with the gateway and stores the token. Raw
// card data is never persisted.
func (h *PaymentMethodHandler) SaveCard(c *gin.Context) {
	type SaveCardRequest struct {
		OrganizationID uuid.UUID  `json:"organization_id" binding:"required"`
		MemberID       uuid.UUID  `json:"member_id" binding:"required"`
		ProcessorID    *uuid.UUID `json:"processor_id"`
		CardNumber     string     `json:"card_number" binding:"required"`
		CardExp        string     `json:"card_exp" binding:"required,len=4"`
		CardCvc        string     `json:"card_cvc"`
		ZipCode        string     `json:"zip_code"`
		Nickname       string     `json:"nickname"`
		SetDefault     bool       `json:"set_default"`
	}

	var req SaveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	var membership models.OrganizationMember
	if err := database.GetDB().
		Where("organization_id = ? AND user_id = ?", req.OrganizationID, userID).
		First(&membership).Error; err != nil {
		apierrors.NotFound(c, "Organization not found")
		return
	}

	method, err := h.methodService.SaveCard(c.Request.Context(), services.SaveCardInput{
		OrganizationID: req.OrganizationID,
		MemberID:       req.MemberID,
		ProcessorID:    req.ProcessorID,
		CardNumber:     req.CardNumber,
		CardExp:        req.CardExp,
		CardCvc:        req.CardCvc,
		ZipCode:        req.ZipCode,
		Nickname:       req.Nickname,
		SetDefault:     req.SetDefault,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound),
			errors.Is(err, services.ErrProcessorNotFound):
			apierrors.NotFound(c, err.Error())
		case errors.Is(err, services.ErrProcessorNotConfigured):
			apierrors.RespondWithError(c, http.StatusBadRequest,
				apierrors.NewAPIError(apierrors.ErrCodeProcessorNotConfigured, err.Error()))
		case errors.Is(err, gateway.ErrGatewayUnavailable):
			apierrors.RespondWithError(c, http.StatusBadGateway,
				apierrors.NewAPIError(apierrors.ErrCodeGatewayUnavailable, err.Error()))
		case errors.Is(err, gateway.ErrSaveCardUnsupported):
			apierrors.BadRequest(c, err.Error())
		default:
			apierrors.InternalError(c, "Failed to save card")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":         true,
		"paymentMethodId": method.ID,
		"cardBrand":       method.CardBrand,
		"lastFour":        method.LastFour,
	})
}

// ListMemberPaymentMethods returns a member's saved cards, optionally
// filtered to those selectable for a campaign.
func (h *PaymentMethodHandler) ListMemberPaymentMethods(c *gin.Context) {
	_, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return
	}

	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid member ID")
		return
	}

	var campaignID *uuid.UUID
	if raw := c.Query("campaign_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid campaign_id")
			return
		}
		campaignID = &id
	}

	methods, err := h.methodService.ListForMember(memberID, campaignID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list payment methods")
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment_methods": methods})
}

// SetDefaultPaymentMethod makes one card the member's default.
func (h *PaymentMethodHandler) SetDefaultPaymentMethod(c *gin.Context) {
	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid member ID")
		return
	}
	methodID, err := uuid.Parse(c.Param("methodId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid payment method ID")
		return
	}

	if err := h.methodService.SetDefault(memberID, methodID); err != nil {
		if errors.Is(err, services.ErrPaymentMethodNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to set default payment method")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Default payment method updated"})
}

// DeletePaymentMethod removes a saved card.
func (h *PaymentMethodHandler) DeletePaymentMethod(c *gin.Context) {
	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid member ID")
		return
	}
	methodID, err := uuid.Parse(c.Param("methodId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid payment method ID")
		return
	}

	if err := h.methodService.Delete(memberID, methodID); err != nil {
		if errors.Is(err, services.ErrPaymentMethodNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to delete payment method")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment method deleted"})
}
