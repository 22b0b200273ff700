package handlers

import (
	"errors"
	"net/http"
	"time"

	apierrors "github.com/Hecoloko/shulgenius-api/internal/errors"
	"github.com/Hecoloko/shulgenius-api/internal/gateway"
	"github.com/Hecoloko/shulgenius-api/internal/middleware"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/repository"
	"github.com/Hecoloko/shulgenius-api/internal/services"
	"github.com/Hecoloko/shulgenius-api/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceHandler coordinates invoice HTTP handlers.
type InvoiceHandler struct {
	invoiceService *services.InvoiceService
	invoiceRepo    repository.InvoiceRepository
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService *services.InvoiceService, invoiceRepo repository.InvoiceRepository) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		invoiceRepo:    invoiceRepo,
	}
}

// CreateInvoice creates an invoice. Totals are computed server-side from
// the items; client-supplied totals are ignored.
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	type ItemRequest struct {
		Description string  `json:"description" binding:"required"`
		Quantity    int     `json:"quantity"`
		UnitPrice   float64 `json:"unit_price" binding:"required,gt=0"`
	}
	type CreateRequest struct {
		MemberID uuid.UUID     `json:"member_id" binding:"required"`
		DueDate  *time.Time    `json:"due_date"`
		Tax      float64       `json:"tax"`
		Notes    string        `json:"notes"`
		Send     bool          `json:"send"`
		Items    []ItemRequest `json:"items" binding:"required,min=1,dive"`
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

	items := make([]services.InvoiceItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = services.InvoiceItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}

	invoice, err := h.invoiceService.CreateInvoice(services.CreateInvoiceInput{
		OrganizationID: org.ID,
		MemberID:       req.MemberID,
		DueDate:        req.DueDate,
		Tax:            req.Tax,
		Notes:          req.Notes,
		Send:           req.Send,
		Items:          items,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			apierrors.NotFound(c, err.Error())
		case errors.Is(err, services.ErrInvoiceNoItems):
			apierrors.BadRequest(c, err.Error())
		default:
			apierrors.InternalError(c, "Failed to create invoice")
		}
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

// ListInvoices returns the organization's invoices, paginated, with
// overdue detection applied on read.
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return
	}

	params := utils.GetPaginationParams(c)
	invoices, total, err := h.invoiceRepo.ListByOrganization(org.ID, params)
	if err != nil {
		apierrors.InternalError(c, "Failed to list invoices")
		return
	}

	now := time.Now()
	for i := range invoices {
		invoices[i].Status = services.EffectiveStatus(&invoices[i], now)
	}

	c.JSON(http.StatusOK, gin.H{
		"invoices": invoices,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetInvoice returns one invoice with its items.
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("invoiceId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceRepo.FindByID(invoiceID, "Items", "Member")
	if err != nil || invoice.OrganizationID != org.ID {
		apierrors.NotFound(c, "Invoice not found")
		return
	}

	invoice.Status = services.EffectiveStatus(invoice, time.Now())
	c.JSON(http.StatusOK, invoice)
}

// VoidInvoice voids an unpaid invoice.
func (h *InvoiceHandler) VoidInvoice(c *gin.Context) {
	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("invoiceId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceRepo.FindByID(invoiceID)
	if err != nil || invoice.OrganizationID != org.ID {
		apierrors.NotFound(c, "Invoice not found")
		return
	}
	if invoice.Status == models.InvoiceStatusPaid {
		apierrors.BadRequest(c, "Cannot void a paid invoice")
		return
	}

	invoice.Status = models.InvoiceStatusVoid
	if err := h.invoiceRepo.Update(invoice); err != nil {
		apierrors.InternalError(c, "Failed to void invoice")
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// RecordPayment records a manual payment against an invoice. Card
// payments are charged through the gateway first; a decline is a 200
// with success=false, matching the donation surface.
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	type PaymentRequest struct {
		Amount          float64    `json:"amount" binding:"required,gt=0"`
		Method          string     `json:"method" binding:"required"`
		Notes           string     `json:"notes"`
		PaymentMethodID *uuid.UUID `json:"payment_method_id"`
		CardNumber      string     `json:"card_number"`
		CardExp         string     `json:"card_exp"`
		CardCvc         string     `json:"card_cvc"`
		ZipCode         string     `json:"zip_code"`
	}

	org, exists := middleware.GetOrganization(c)
	if !exists {
		apierrors.NotFound(c, "Organization not found")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("invoiceId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.invoiceService.RecordPayment(c.Request.Context(), services.RecordPaymentInput{
		OrganizationID:  org.ID,
		InvoiceID:       invoiceID,
		Amount:          req.Amount,
		Method:          req.Method,
		Notes:           req.Notes,
		PaymentMethodID: req.PaymentMethodID,
		CardNumber:      req.CardNumber,
		CardExp:         req.CardExp,
		CardCvc:         req.CardCvc,
		ZipCode:         req.ZipCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvoiceNotFound),
			errors.Is(err, services.ErrPaymentMethodNotFound):
			apierrors.NotFound(c, err.Error())
		case errors.Is(err, services.ErrInvoiceNotPayable),
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
			apierrors.InternalError(c, "Failed to record payment")
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
		"paymentId":     result.PaymentID,
		"invoiceStatus": result.InvoiceStatus,
	})
}
