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

// SubscriptionHandler coordinates subscription HTTP handlers.
type SubscriptionHandler struct {
	subRepo    repository.SubscriptionRepository
	memberRepo repository.MemberRepository
	methodRepo repository.PaymentMethodRepository
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(
	subRepo repository.SubscriptionRepository,
	memberRepo repository.MemberRepository,
	methodRepo repository.PaymentMethodRepository,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subRepo:    subRepo,
		memberRepo: memberRepo,
		methodRepo: methodRepo,
	}
}

// CreateSubscription creates a recurring pledge or installment plan.
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	type CreateRequest struct {
		MemberID          uuid.UUID                      `json:"member_id" binding:"required"`
		CampaignID        *uuid.UUID                     `json:"campaign_id"`
		Description       string                         `json:"description"`
		TotalAmount       float64                        `json:"total_amount" binding:"required,gt=0"`
		PaymentType       models.SubscriptionPaymentType `json:"payment_type" binding:"required"`
		BillingMethod     models.BillingMethod           `json:"billing_method" binding:"required"`
		Frequency         models.BillingFrequency        `json:"frequency" binding:"required"`
		InstallmentsTotal *int                           `json:"installments_total"`
		FirstBillingDate  *time.Time                     `json:"first_billing_date"`
		PaymentMethodID   *uuid.UUID                     `json:"payment_method_id"`
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

	switch req.PaymentType {
	case models.PaymentTypeRecurring, models.PaymentTypeInstallments:
	default:
		apierrors.BadRequest(c, "Invalid payment type")
		return
	}
	switch req.BillingMethod {
	case models.BillingMethodInvoiced, models.BillingMethodAutoCC:
	default:
		apierrors.BadRequest(c, "Invalid billing method")
		return
	}
	switch req.Frequency {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly,
		models.FrequencyMonthlyHebrew, models.FrequencyQuarterly, models.FrequencyAnnual:
	default:
		apierrors.BadRequest(c, "Invalid billing frequency")
		return
	}
	if req.PaymentType == models.PaymentTypeInstallments {
		if req.InstallmentsTotal == nil || *req.InstallmentsTotal < 1 {
			apierrors.BadRequest(c, "Installment plans require installments_total")
			return
		}
	}

	member, err := h.memberRepo.FindByID(req.MemberID)
	if err != nil || member.OrganizationID != org.ID {
		apierrors.NotFound(c, "Member not found")
		return
	}

	if req.BillingMethod == models.BillingMethodAutoCC {
		if req.PaymentMethodID == nil {
			apierrors.BadRequest(c, "auto_cc subscriptions require a payment method")
			return
		}
		method, err := h.methodRepo.FindByID(*req.PaymentMethodID)
		if err != nil || method.MemberID != req.MemberID {
			apierrors.NotFound(c, "Payment method not found")
			return
		}
	}

	firstBilling := utils.BeginningOfDay(time.Now())
	if req.FirstBillingDate != nil {
		firstBilling = utils.BeginningOfDay(*req.FirstBillingDate)
	}

	sub := &models.Subscription{
		OrganizationID:    org.ID,
		MemberID:          req.MemberID,
		CampaignID:        req.CampaignID,
		Description:       req.Description,
		TotalAmount:       req.TotalAmount,
		PaymentType:       req.PaymentType,
		BillingMethod:     req.BillingMethod,
		Frequency:         req.Frequency,
		InstallmentsTotal: req.InstallmentsTotal,
		NextBillingDate:   firstBilling,
		PaymentMethodID:   req.PaymentMethodID,
		IsActive:          true,
	}
	if err := h.subRepo.Create(sub); err != nil {
		apierrors.InternalError(c, "Failed to create subscription")
		return
	}

	c.JSON(http.StatusCreated, sub)
}

// ListSubscriptions returns the organization's subscriptions.
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return
	}

	subs, err := h.subRepo.ListByOrganization(org.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list subscriptions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

// GetSubscription returns one subscription.
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	_, sub, ok := h.load(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, sub)
}

// DeactivateSubscription cancels a subscription. This is terminal;
// restarting billing requires a new subscription.
func (h *SubscriptionHandler) DeactivateSubscription(c *gin.Context) {
	_, sub, ok := h.load(c)
	if !ok {
		return
	}
	if !sub.IsActive {
		apierrors.BadRequest(c, "Subscription is already inactive")
		return
	}

	if err := h.subRepo.Deactivate(sub.ID); err != nil {
		apierrors.InternalError(c, "Failed to deactivate subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscription deactivated"})
}

func (h *SubscriptionHandler) load(c *gin.Context) (models.Organization, *models.Subscription, bool) {
	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return models.Organization{}, nil, false
	}

	subID, err := uuid.Parse(c.Param("subscriptionId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid subscription ID")
		return models.Organization{}, nil, false
	}

	sub, err := h.subRepo.FindByID(subID, "Member", "PaymentMethod", "Campaign")
	if err != nil || sub.OrganizationID != org.ID {
		apierrors.NotFound(c, "Subscription not found")
		return models.Organization{}, nil, false
	}

	return org, sub, true
}
