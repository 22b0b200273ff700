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

// BillingHandler serves the manual "bill now" endpoint.
type BillingHandler struct {
	billingService *services.BillingService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(billingService *services.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

// Charge bills one subscription cycle immediately. Declines come back as
// 200 with success=false; misuse (inactive subscription, no saved card)
// is a 400.
func (h *BillingHandler) Charge(c *gin.Context) {
	type ChargeRequest struct {
		SubscriptionID uuid.UUID `json:"subscription_id" binding:"required"`
		OrganizationID uuid.UUID `json:"organization_id" binding:"required"`
		Amount         *float64  `json:"amount"`
		Description    string    `json:"description"`
	}

	var req ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if req.Amount != nil && *req.Amount <= 0 {
		apierrors.BadRequest(c, "Amount must be greater than zero")
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

	result, err := h.billingService.BillSubscription(c.Request.Context(), services.BillSubscriptionInput{
		SubscriptionID: req.SubscriptionID,
		OrganizationID: req.OrganizationID,
		Amount:         req.Amount,
		Description:    req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSubscriptionNotFound):
			apierrors.NotFound(c, err.Error())
		case errors.Is(err, services.ErrSubscriptionInactive),
			errors.Is(err, services.ErrSubscriptionNoCard),
			errors.Is(err, services.ErrInvalidChargeAmount):
			apierrors.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrProcessorNotConfigured):
			apierrors.RespondWithError(c, http.StatusBadRequest,
				apierrors.NewAPIError(apierrors.ErrCodeProcessorNotConfigured, err.Error()))
		case errors.Is(err, gateway.ErrGatewayUnavailable):
			apierrors.RespondWithError(c, http.StatusBadGateway,
				apierrors.NewAPIError(apierrors.ErrCodeGatewayUnavailable, err.Error()))
		default:
			apierrors.InternalError(c, "Failed to bill subscription")
		}
		return
	}

	if !result.Approved {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"error":   result.DeclineReason,
		})
		return
	}
	if !result.Recorded {
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"transactionId": result.TransactionID,
			"warning":       result.RecordingError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"transactionId": result.TransactionID,
		"invoiceId":     result.InvoiceID,
		"invoiceNumber": result.InvoiceNumber,
	})
}
