package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/repository"
	"github.com/Hecoloko/shulgenius-api/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvoiceNotFound   = errors.New("invoice not found")
	ErrInvoiceNotPayable = errors.New("invoice cannot accept payments")
	ErrInvoiceNoItems    = errors.New("invoice requires at least one item")
	ErrMemberNotFound    = errors.New("member not found")
)

// InvoiceService creates invoices and records payments against them.
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	memberRepo  repository.MemberRepository
	resolver    *ProcessorResolver
	executor    *ChargeExecutor
	methodRepo  repository.PaymentMethodRepository
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	memberRepo repository.MemberRepository,
	resolver *ProcessorResolver,
	executor *ChargeExecutor,
	methodRepo repository.PaymentMethodRepository,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		memberRepo:  memberRepo,
		resolver:    resolver,
		executor:    executor,
		methodRepo:  methodRepo,
	}
}

// InvoiceItemInput represents one invoice line.
type InvoiceItemInput struct {
	Description string
	Quantity    int
	UnitPrice   float64
}

// CreateInvoiceInput represents input for creating an invoice.
type CreateInvoiceInput struct {
	OrganizationID uuid.UUID
	MemberID       uuid.UUID
	DueDate        *time.Time
	Tax            float64
	Notes          string
	Send           bool
	Items          []InvoiceItemInput
}

// CreateInvoice creates an invoice with server-side computed totals.
func (s *InvoiceService) CreateInvoice(input CreateInvoiceInput) (*models.Invoice, error) {
	if len(input.Items) == 0 {
		return nil, ErrInvoiceNoItems
	}

	member, err := s.memberRepo.FindByID(input.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	if member.OrganizationID != input.OrganizationID {
		return nil, ErrMemberNotFound
	}

	var subtotal float64
	items := make([]models.InvoiceItem, 0, len(input.Items))
	for _, item := range input.Items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		total := float64(quantity) * item.UnitPrice
		subtotal += total
		items = append(items, models.InvoiceItem{
			Description: item.Description,
			Quantity:    quantity,
			UnitPrice:   item.UnitPrice,
			Total:       total,
		})
	}

	status := models.InvoiceStatusDraft
	if input.Send {
		status = models.InvoiceStatusSent
	}

	invoice := &models.Invoice{
		OrganizationID: input.OrganizationID,
		MemberID:       input.MemberID,
		InvoiceNumber:  utils.InvoiceNumber(),
		Status:         status,
		Subtotal:       subtotal,
		Tax:            input.Tax,
		Total:          subtotal + input.Tax,
		DueDate:        input.DueDate,
		Notes:          input.Notes,
		Items:          items,
	}

	if err := s.invoiceRepo.Create(invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	return invoice, nil
}

// RecordPaymentInput represents a payment against an invoice. Method
// "card" charges through the gateway first; anything else (cash, check)
// is recorded directly.
type RecordPaymentInput struct {
	OrganizationID uuid.UUID
	InvoiceID      uuid.UUID
	Amount         float64
	Method         string
	Notes          string

	// Card payments only.
	PaymentMethodID *uuid.UUID
	CardNumber      string
	CardExp         string
	CardCvc         string
	ZipCode         string
}

// PaymentResult is the outcome of recording a payment.
type PaymentResult struct {
	Approved      bool
	DeclineReason string

	TransactionID string
	PaymentID     uuid.UUID
	InvoiceStatus models.InvoiceStatus

	Recorded       bool
	RecordingError string
}

// RecordPayment applies a payment to an invoice and re-derives its
// status from the payment sum.
func (s *InvoiceService) RecordPayment(ctx context.Context, input RecordPaymentInput) (*PaymentResult, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidChargeAmount
	}

	invoice, err := s.invoiceRepo.FindByID(input.InvoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	if invoice.OrganizationID != input.OrganizationID {
		return nil, ErrInvoiceNotFound
	}
	if invoice.Status == models.InvoiceStatusVoid || invoice.Status == models.InvoiceStatusPaid {
		return nil, ErrInvoiceNotPayable
	}

	payment := &models.Payment{
		OrganizationID: invoice.OrganizationID,
		MemberID:       invoice.MemberID,
		InvoiceID:      &invoice.ID,
		Amount:         input.Amount,
		PaymentMethod:  input.Method,
		Notes:          input.Notes,
	}

	if input.Method == "card" {
		resolved, err := s.resolver.Resolve(invoice.OrganizationID, nil)
		if err != nil {
			return nil, err
		}

		charge := ChargeInput{
			Amount:    input.Amount,
			Reference: invoice.InvoiceNumber,
		}
		if input.PaymentMethodID != nil {
			method, err := s.methodRepo.FindByID(*input.PaymentMethodID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, ErrPaymentMethodNotFound
				}
				return nil, fmt.Errorf("failed to find payment method: %w", err)
			}
			charge.Token = method.ProcessorPaymentMethodID
		} else {
			charge.CardNumber = input.CardNumber
			charge.CardExp = input.CardExp
			charge.CardCvc = input.CardCvc
			charge.ZipCode = input.ZipCode
		}

		sale, err := s.executor.Charge(ctx, resolved.Credentials, charge)
		if err != nil {
			return nil, err
		}
		if !sale.Approved {
			return &PaymentResult{
				Approved:      false,
				DeclineReason: sale.DeclineReason,
			}, nil
		}

		payment.Processor = string(resolved.ProcessorType)
		payment.ProcessorTransactionID = sale.ReferenceID

		updated, err := s.invoiceRepo.ApplyPayment(payment)
		if err != nil {
			log.Printf("invoice %s: gateway approved transaction %s but ledger write failed: %v",
				invoice.InvoiceNumber, sale.ReferenceID, err)
			return &PaymentResult{
				Approved:       true,
				TransactionID:  sale.ReferenceID,
				Recorded:       false,
				RecordingError: "payment processed but recording failed",
			}, nil
		}

		return &PaymentResult{
			Approved:      true,
			TransactionID: sale.ReferenceID,
			PaymentID:     payment.ID,
			InvoiceStatus: updated.Status,
			Recorded:      true,
		}, nil
	}

	// Cash/check path: no money has moved through us, so a write failure
	// is a plain error.
	updated, err := s.invoiceRepo.ApplyPayment(payment)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	return &PaymentResult{
		Approved:      true,
		PaymentID:     payment.ID,
		InvoiceStatus: updated.Status,
		Recorded:      true,
	}, nil
}

// EffectiveStatus reports the invoice status with read-side overdue
// detection: a sent invoice past its due date presents as overdue
// without a background job flipping it.
func EffectiveStatus(invoice *models.Invoice, now time.Time) models.InvoiceStatus {
	if invoice.Status == models.InvoiceStatusSent &&
		invoice.DueDate != nil &&
		invoice.DueDate.Before(utils.BeginningOfDay(now)) {
		return models.InvoiceStatusOverdue
	}
	return invoice.Status
}
