package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/Hecoloko/shulgenius-api/internal/errors"
	"github.com/Hecoloko/shulgenius-api/internal/middleware"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/repository"
	"github.com/Hecoloko/shulgenius-api/internal/services"
	"github.com/gin-gonic/gin"
)

// PortalHandler serves the member self-service surface: a user linked to
// a member record can see their own invoices, subscriptions and cards.
type PortalHandler struct {
	memberRepo  repository.MemberRepository
	invoiceRepo repository.InvoiceRepository
	subRepo     repository.SubscriptionRepository
	methodRepo  repository.PaymentMethodRepository
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(
	memberRepo repository.MemberRepository,
	invoiceRepo repository.InvoiceRepository,
	subRepo repository.SubscriptionRepository,
	methodRepo repository.PaymentMethodRepository,
) *PortalHandler {
	return &PortalHandler{
		memberRepo:  memberRepo,
		invoiceRepo: invoiceRepo,
		subRepo:     subRepo,
		methodRepo:  methodRepo,
	}
}

// GetMyInvoices lists the calling member's invoices.
func (h *PortalHandler) GetMyInvoices(c *gin.Context) {
	member, ok := h.currentMember(c)
	if !ok {
		return
	}

	invoices, err := h.invoiceRepo.ListByMember(member.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list invoices")
		return
	}

	now := time.Now()
	for i := range invoices {
		invoices[i].Status = services.EffectiveStatus(&invoices[i], now)
	}

	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

// GetMySubscriptions lists the calling member's subscriptions.
func (h *PortalHandler) GetMySubscriptions(c *gin.Context) {
	member, ok := h.currentMember(c)
	if !ok {
		return
	}

	subs, err := h.subRepo.ListByMember(member.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list subscriptions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

// GetMyPaymentMethods lists the calling member's saved cards.
func (h *PortalHandler) GetMyPaymentMethods(c *gin.Context) {
	member, ok := h.currentMember(c)
	if !ok {
		return
	}

	methods, err := h.methodRepo.ListByMember(member.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list payment methods")
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment_methods": methods})
}

func (h *PortalHandler) currentMember(c *gin.Context) (*models.Member, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return nil, false
	}

	member, err := h.memberRepo.FindByUserID(userID)
	if err != nil {
		apierrors.NotFound(c, "No member record is linked to this account")
		return nil, false
	}

	return member, true
}
