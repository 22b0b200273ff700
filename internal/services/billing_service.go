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
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound      = errors.New("subscription not found")
	ErrSubscriptionInactive      = errors.New("subscription is not active")
	ErrSubscriptionNoCard        = errors.New("subscription has no saved payment method")
	ErrSubscriptionAlreadyBilled = errors.New("subscription was already billed for this cycle")
)

// BillingService charges subscriptions and advances their billing state.
type BillingService struct {
	resolver    *ProcessorResolver
	executor    *ChargeExecutor
	subRepo     repository.SubscriptionRepository
	invoiceRepo repository.InvoiceRepository
}

// NewBillingService creates a new BillingService
func NewBillingService(
	resolver *ProcessorResolver,
	executor *ChargeExecutor,
	subRepo repository.SubscriptionRepository,
	invoiceRepo repository.InvoiceRepository,
) *BillingService {
	return &BillingService{
		resolver:    resolver,
		executor:    executor,
		subRepo:     subRepo,
		invoiceRepo: invoiceRepo,
	}
}

// BillSubscriptionInput represents a subscription billing request.
type BillSubscriptionInput struct {
	SubscriptionID uuid.UUID
	OrganizationID uuid.UUID

	// Amount overrides the subscription's cycle amount when set.
	Amount      *float64
	Description string
}

// BillingResult is the outcome of a billing attempt.
type BillingResult struct {
	Approved      bool
	DeclineReason string

	TransactionID string
	InvoiceID     uuid.UUID
	InvoiceNumber string

	Recorded       bool
	RecordingError string

	// Deactivated reports that this cycle exhausted the installment plan.
	Deactivated bool
}

// BillSubscription charges one cycle of a subscription and reconciles
// the result: a paid invoice with its line item, a payment row, and the
// subscription advancement, all in one transaction. The advancement is
// anchored on the next_billing_date observed here; if the subscription
// moved in the meantime nothing is recorded.
func (s *BillingService) BillSubscription(ctx context.Context, input BillSubscriptionInput) (*BillingResult, error) {
	sub, err := s.subRepo.FindByID(input.SubscriptionID, "PaymentMethod", "Member")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	if sub.OrganizationID != input.OrganizationID {
		return nil, ErrSubscriptionNotFound
	}
	if !sub.IsActive {
		return nil, ErrSubscriptionInactive
	}
	if sub.PaymentMethodID == nil || sub.PaymentMethod == nil {
		return nil, ErrSubscriptionNoCard
	}

	amount := sub.CycleAmount()
	if input.Amount != nil {
		amount = *input.Amount
	}

	resolved, err := s.resolver.Resolve(sub.OrganizationID, sub.CampaignID)
	if err != nil {
		return nil, err
	}

	reference := utils.SubscriptionReference()
	sale, err := s.executor.Charge(ctx, resolved.Credentials, ChargeInput{
		Amount:        amount,
		Reference:     reference,
		Token:         sub.PaymentMethod.ProcessorPaymentMethodID,
		CustomerEmail: sub.Member.Email,
	})
	if err != nil {
		return nil, err
	}

	if !sale.Approved {
		return &BillingResult{
			Approved:      false,
			DeclineReason: sale.DeclineReason,
		}, nil
	}

	anchor := sub.NextBillingDate
	next := utils.NextBillingDate(anchor, sub.Frequency)
	increment := sub.PaymentType == models.PaymentTypeInstallments
	deactivate := increment &&
		sub.InstallmentsTotal != nil &&
		sub.InstallmentsPaid+1 >= *sub.InstallmentsTotal

	description := input.Description
	if description == "" {
		description = fmt.Sprintf("Subscription billing for cycle %s", anchor.Format("2006-01-02"))
	}

	now := time.Now()
	invoice := &models.Invoice{
		OrganizationID: sub.OrganizationID,
		MemberID:       sub.MemberID,
		InvoiceNumber:  utils.InvoiceNumber(),
		Status:         models.InvoiceStatusPaid,
		Subtotal:       amount,
		Total:          amount,
		PaidAt:         &now,
		Items: []models.InvoiceItem{{
			Description: description,
			Quantity:    1,
			UnitPrice:   amount,
			Total:       amount,
		}},
	}
	payment := &models.Payment{
		OrganizationID:         sub.OrganizationID,
		MemberID:               sub.MemberID,
		Amount:                 amount,
		PaymentMethod:          "card",
		Processor:              string(resolved.ProcessorType),
		ProcessorTransactionID: sale.ReferenceID,
	}

	err = s.subRepo.RecordBilling(invoice, payment, repository.BillingAdvancement{
		SubscriptionID:        sub.ID,
		FromAnchor:            anchor,
		NextBillingDate:       next,
		IncrementInstallments: increment,
		Deactivate:            deactivate,
	})
	if err != nil {
		log.Printf("subscription %s: gateway approved transaction %s but ledger write failed: %v",
			sub.ID, sale.ReferenceID, err)
		message := "payment processed but recording failed"
		if errors.Is(err, repository.ErrBillingConflict) {
			message = ErrSubscriptionAlreadyBilled.Error()
		}
		return &BillingResult{
			Approved:       true,
			TransactionID:  sale.ReferenceID,
			Recorded:       false,
			RecordingError: message,
		}, nil
	}

	return &BillingResult{
		Approved:      true,
		TransactionID: sale.ReferenceID,
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		Recorded:      true,
		Deactivated:   deactivate,
	}, nil
}

// InvoiceCycle advances an invoiced subscription by generating an open
// invoice for the cycle instead of charging a card. The advancement uses
// the same anchor guard as card billing.
func (s *BillingService) InvoiceCycle(sub *models.Subscription) (*models.Invoice, error) {
	if !sub.IsActive {
		return nil, ErrSubscriptionInactive
	}

	amount := sub.CycleAmount()
	anchor := sub.NextBillingDate
	next := utils.NextBillingDate(anchor, sub.Frequency)
	increment := sub.PaymentType == models.PaymentTypeInstallments
	deactivate := increment &&
		sub.InstallmentsTotal != nil &&
		sub.InstallmentsPaid+1 >= *sub.InstallmentsTotal

	due := anchor.AddDate(0, 0, 14)
	invoice := &models.Invoice{
		OrganizationID: sub.OrganizationID,
		MemberID:       sub.MemberID,
		InvoiceNumber:  utils.InvoiceNumber(),
		Status:         models.InvoiceStatusSent,
		Subtotal:       amount,
		Total:          amount,
		DueDate:        &due,
		Items: []models.InvoiceItem{{
			Description: fmt.Sprintf("Subscription billing for cycle %s", anchor.Format("2006-01-02")),
			Quantity:    1,
			UnitPrice:   amount,
			Total:       amount,
		}},
	}

	err := s.subRepo.RecordBilling(invoice, nil, repository.BillingAdvancement{
		SubscriptionID:        sub.ID,
		FromAnchor:            anchor,
		NextBillingDate:       next,
		IncrementInstallments: increment,
		Deactivate:            deactivate,
	})
	if err != nil {
		if errors.Is(err, repository.ErrBillingConflict) {
			return nil, ErrSubscriptionAlreadyBilled
		}
		return nil, fmt.Errorf("failed to record invoiced cycle: %w", err)
	}

	return invoice, nil
}

// RunDueBillings processes every active subscription whose billing date
// has arrived: auto_cc subscriptions are charged, invoiced ones get an
// open invoice. Failures are logged per subscription and do not stop the
// sweep.
func (s *BillingService) RunDueBillings(ctx context.Context) {
	log.Println("Starting subscription billing sweep...")

	if invoiced, err := s.subRepo.ListDueInvoiced(time.Now()); err != nil {
		log.Printf("Failed to list due invoiced subscriptions: %v", err)
	} else {
		for i := range invoiced {
			if _, err := s.InvoiceCycle(&invoiced[i]); err != nil {
				log.Printf("Subscription %s: invoicing failed: %v", invoiced[i].ID, err)
			}
		}
	}

	subs, err := s.subRepo.ListDueAutoCharge(time.Now())
	if err != nil {
		log.Printf("Failed to list due subscriptions: %v", err)
		return
	}

	for _, sub := range subs {
		result, err := s.BillSubscription(ctx, BillSubscriptionInput{
			SubscriptionID: sub.ID,
			OrganizationID: sub.OrganizationID,
		})
		if err != nil {
			log.Printf("Subscription %s: billing failed: %v", sub.ID, err)
			continue
		}
		if !result.Approved {
			log.Printf("Subscription %s: charge declined: %s", sub.ID, result.DeclineReason)
			continue
		}
		if !result.Recorded {
			log.Printf("Subscription %s: %s", sub.ID, result.RecordingError)
		}
	}

	log.Println("Subscription billing sweep completed")
}

// StartScheduler registers the daily billing sweep and starts the cron
// runner. The returned cron can be stopped on shutdown.
func (s *BillingService) StartScheduler(spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		s.RunDueBillings(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule billing sweep: %w", err)
	}
	c.Start()
	log.Println("Billing scheduler started")
	return c, nil
}
