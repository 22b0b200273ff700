package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/Hecoloko/shulgenius-api/internal/errors"
	"github.com/Hecoloko/shulgenius-api/internal/gateway"
	"github.com/Hecoloko/shulgenius-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DonationHandler serves the public donation endpoint.
type DonationHandler struct {
	donationService *services.DonationService
}

// NewDonationHandler creates a new DonationHandler.
func NewDonationHandler(donationService *services.DonationService) *DonationHandler {
	return &DonationHandler{
		donationService: donationService,
	}
}

// ProcessDonation charges a donation against a campaign. Unauthenticated
// by design; the donor-facing page posts here directly. Declines return
// HTTP 200 with success=false so the donation form can surface the
// gateway's message.
func (h *DonationHandler) ProcessDonation(c *gin.Context) {
	type DonationRequest struct {
		OrganizationID uuid.UUID `json:"organization_id" binding:"required"`
		CampaignID     uuid.UUID `json:"campaign_id" binding:"required"`
		Amount         float64   `json:"amount" binding:"required,gt=0"`

		MemberID    *uuid.UUID `json:"member_id"`
		DonorName   string     `json:"donor_name"`
		DonorEmail  string     `json:"donor_email"`
		IsAnonymous bool       `json:"is_anonymous"`

		PaymentMethodID *uuid.UUID `json:"payment_method_id"`
		CardNumber      string     `json:"card_number"`
		CardExp         string     `json:"card_exp"`
		CardCvc         string     `json:"card_cvc"`
		ZipCode         string     `json:"zip_code"`
	}

	var req DonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.donationService.ProcessDonation(c.Request.Context(), services.ProcessDonationInput{
		OrganizationID:  req.OrganizationID,
		CampaignID:      req.CampaignID,
		Amount:          req.Amount,
		MemberID:        req.MemberID,
		DonorName:       req.DonorName,
		DonorEmail:      req.DonorEmail,
		IsAnonymous:     req.IsAnonymous,
		PaymentMethodID: req.PaymentMethodID,
		CardNumber:      req.CardNumber,
		CardExp:         req.CardExp,
		CardCvc:         req.CardCvc,
		ZipCode:         req.ZipCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCampaignNotFound),
			errors.Is(err, services.ErrPaymentMethodNotFound):
			apierrors.NotFound(c, err.Error())
		case errors.Is(err, services.ErrCampaignInactive),
			errors.Is(err, services.ErrInvalidChargeAmount),
			errors.Is(err, services.ErrNoPaymentInstrument):
			apierrors.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrProcessorNotConfigured):
			apierrors.RespondWithError(c, http.StatusBadRequest,
				apierrors.NewAPIError(apierrors.ErrCodeProcessorNotConfigured, err.Error()))
		case errors.Is(err, gateway.ErrGatewayUnavailable):
			apierrors.RespondWithError(c, http.StatusBadGateway,
				apierrors.NewAPIError(apierrors.ErrCodeGatewayUnavailable, err.Error()))
		default:
			apierrors.InternalError(c, "Failed to process donation")
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
		"donationId":    result.DonationID,
	})
}
