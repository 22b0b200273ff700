package services

import (
	"context"
	"testing"
	"time"

	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/repository"
	"github.com/stretchr/testify/require"
)

func newBillingService(env *paymentTestEnv, factory *fakeFactory) *BillingService {
	executor := NewChargeExecutor(factory)
	return NewBillingService(env.resolver, executor, env.subRepo, env.invoiceRepo)
}

func TestBillSubscription_AdvancesFromAnchor(t *testing.T) {
	env := setupPaymentTestEnv(t)
	env.createProcessor(t, "Org Default", true, "default-key")
	sub := env.createSubscription(t, nil) // next billing 2024-01-15

	svc := newBillingService(env, approvingFactory("txn-bill"))

	result, err := svc.BillSubscription(context.Background(), BillSubscriptionInput{
		SubscriptionID: sub.ID,
		OrganizationID: env.org.ID,
	})
	require.NoError(t, err)
	require.True(t, result.Approved)
	require.True(t, result.Recorded)
	require.NotEmpty(t, result.InvoiceNumber)

	// Advancement is anchored on the previous billing date, not on the
	// wall clock at charge time.
	reloaded, err := env.subRepo.FindByID(sub.ID)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), reloaded.NextBillingDate.UTC())
	require.True(t, reloaded.IsActive)

	// The cycle produced a paid invoice with one line and a payment row.
	invoice, err := env.invoiceRepo.FindByID(result.InvoiceID, "Items")
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPaid, invoice.Status)
	require.NotNil(t, invoice.PaidAt)
	require.Equal(t, 100.0, invoice.Total)
	require.Len(t, invoice.Items, 1)

	var payments []models.Payment
	require.NoError(t, env.db.Where("invoice_id = ?", invoice.ID).Find(&payments).Error)
	require.Len(t, payments, 1)
	require.Equal(t, "txn-bill", payments[0].ProcessorTransactionID)
}

func TestBillSubscription_DeclineLeavesSubscriptionUntouched(t *testing.T) {
	env := setupPaymentTestEnv(t)
	env.createProcessor(t, "Org Default", true, "default-key")
	sub := env.createSubscription(t, nil)

	svc := newBillingService(env, decliningFactory("Card expired"))

	result, err := svc.BillSubscription(context.Background(), BillSubscriptionInput{
		SubscriptionID: sub.ID,
		OrganizationID: env.org.ID,
	})
	require.NoError(t, err)
	require.False(t, result.Approved)
	require.Equal(t, "Card expired", result.DeclineReason)

	reloaded, err := env.subRepo.FindByID(sub.ID)
	require.NoError(t, err)
	require.Equal(t, sub.NextBillingDate.UTC(), reloaded.NextBillingDate.UTC())

	var count int64
	require.NoError(t, env.db.Model(&models.Invoice{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestBillSubscription_InstallmentExhaustionDeactivates(t *testing.T) {
	env := setupPaymentTestEnv(t)
	env.createProcessor(t, "Org Default", true, "default-key")

	three := 3
	sub := env.createSubscription(t, func(s *models.Subscription) {
		s.TotalAmount = 300
		s.PaymentType = models.PaymentTypeInstallments
		s.InstallmentsTotal = &three
		s.InstallmentsPaid = 2
	})

	svc := newBillingService(env, approvingFactory("txn-final"))

	result, err := svc.BillSubscription(context.Background(), BillSubscriptionInput{
		SubscriptionID: sub.ID,
		OrganizationID: env.org.ID,
	})
	require.NoError(t, err)
	require.True(t, result.Approved)
	require.True(t, result.Deactivated)

	// Installment cycles charge the per-cycle share.
	invoice, err := env.invoiceRepo.FindByID(result.InvoiceID)
	require.NoError(t, err)
	require.Equal(t, 100.0, invoice.Total)

	reloaded, err := env.subRepo.FindByID(sub.ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsActive)
	require.Equal(t, 3, reloaded.InstallmentsPaid)

	// A further attempt is rejected before any gateway call.
	_, err = svc.BillSubscription(context.Background(), BillSubscriptionInput{
		SubscriptionID: sub.ID,
		OrganizationID: env.org.ID,
	})
	require.ErrorIs(t, err, ErrSubscriptionInactive)
}

func TestBillSubscription_PenultimateInstallmentStaysActive(t *testing.T) {
	env := setupPaymentTestEnv(t)
	env.createProcessor(t, "Org Default", true, "default-key")

	three := 3
	sub := env.createSubscription(t, func(s *models.Subscription) {
		s.TotalAmount = 300
		s.PaymentType = models.PaymentTypeInstallments
		s.InstallmentsTotal = &three
		s.InstallmentsPaid = 1
	})

	svc := newBillingService(env, approvingFactory("txn-mid"))

	result, err := svc.BillSubscription(context.Background(), BillSubscriptionInput{
		SubscriptionID: sub.ID,
		OrganizationID: env.org.ID,
	})
	require.NoError(t, err)
	require.False(t, result.Deactivated)

	reloaded, err := env.subRepo.FindByID(sub.ID)
	require.NoError(t, err)
	require.True(t, reloaded.IsActive)
	require.Equal(t, 2, reloaded.InstallmentsPaid)
}

func TestRecordBilling_ConflictRollsBackEverything(t *testing.T) {
	env := setupPaymentTestEnv(t)
	sub := env.createSubscription(t, nil)

	stale := sub.NextBillingDate.AddDate(0, -1, 0)
	invoice := &models.Invoice{
		OrganizationID: env.org.ID,
		MemberID:       env.member.ID,
		InvoiceNumber:  "INV-CONFLICT",
		Status:         models.InvoiceStatusPaid,
		Subtotal:       100,
		Total:          100,
	}
	payment := &models.Payment{
		OrganizationID: env.org.ID,
		MemberID:       env.member.ID,
		Amount:         100,
		PaymentMethod:  "card",
	}

	err := env.subRepo.RecordBilling(invoice, payment, repository.BillingAdvancement{
		SubscriptionID:  sub.ID,
		FromAnchor:      stale,
		NextBillingDate: stale.AddDate(0, 1, 0),
	})
	require.ErrorIs(t, err, repository.ErrBillingConflict)

	// The losing transaction left no ledger rows behind.
	var invoices, payments int64
	require.NoError(t, env.db.Model(&models.Invoice{}).Count(&invoices).Error)
	require.NoError(t, env.db.Model(&models.Payment{}).Count(&payments).Error)
	require.Zero(t, invoices)
	require.Zero(t, payments)
}

func TestBillSubscription_RepeatCycleReportsAlreadyBilled(t *testing.T) {
	env := setupPaymentTestEnv(t)
	env.createProcessor(t, "Org Default", true, "default-key")
	sub := env.createSubscription(t, nil)

	svc := newBillingService(env, approvingFactory("txn-1"))

	first, err := svc.BillSubscription(context.Background(), BillSubscriptionInput{
		SubscriptionID: sub.ID,
		OrganizationID: env.org.ID,
	})
	require.NoError(t, err)
	require.True(t, first.Recorded)

	// Simulate a concurrent duplicate: reset the observed anchor by
	// re-billing immediately; the subscription already advanced, so the
	// second invocation's advancement finds a changed next_billing_date
	// only if it read the stale row. Here the service re-reads, so force
	// the conflict through the repository directly.
	invoice := &models.Invoice{
		OrganizationID: env.org.ID,
		MemberID:       env.member.ID,
		InvoiceNumber:  "INV-DUP",
		Status:         models.InvoiceStatusPaid,
		Subtotal:       100,
		Total:          100,
	}
	payment := &models.Payment{
		OrganizationID: env.org.ID,
		MemberID:       env.member.ID,
		Amount:         100,
		PaymentMethod:  "card",
	}
	err = env.subRepo.RecordBilling(invoice, payment, repository.BillingAdvancement{
		SubscriptionID:  sub.ID,
		FromAnchor:      sub.NextBillingDate, // stale anchor from before the first bill
		NextBillingDate: sub.NextBillingDate.AddDate(0, 1, 0),
	})
	require.ErrorIs(t, err, repository.ErrBillingConflict)

	// Only the first cycle's rows exist.
	var invoices int64
	require.NoError(t, env.db.Model(&models.Invoice{}).Count(&invoices).Error)
	require.Equal(t, int64(1), invoices)
}

func TestInvoiceCycle_GeneratesOpenInvoice(t *testing.T) {
	env := setupPaymentTestEnv(t)

	sub := env.createSubscription(t, func(s *models.Subscription) {
		s.BillingMethod = models.BillingMethodInvoiced
		s.PaymentMethodID = nil
	})

	svc := newBillingService(env, approvingFactory("unused"))

	invoice, err := svc.InvoiceCycle(&sub)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusSent, invoice.Status)
	require.Nil(t, invoice.PaidAt)
	require.Equal(t, 100.0, invoice.Total)

	// No payment row for an invoiced cycle.
	var payments int64
	require.NoError(t, env.db.Model(&models.Payment{}).Count(&payments).Error)
	require.Zero(t, payments)

	reloaded, err := env.subRepo.FindByID(sub.ID)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), reloaded.NextBillingDate.UTC())
}

func TestRunDueBillings_SweepContinuesPastFailures(t *testing.T) {
	env := setupPaymentTestEnv(t)
	env.createProcessor(t, "Org Default", true, "default-key")

	env.createSubscription(t, nil)
	env.createSubscription(t, func(s *models.Subscription) {
		s.NextBillingDate = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	})

	factory := approvingFactory("txn-sweep")
	svc := newBillingService(env, factory)

	svc.RunDueBillings(context.Background())

	require.Equal(t, 2, factory.gw.saleCalls)

	var invoices int64
	require.NoError(t, env.db.Model(&models.Invoice{}).Count(&invoices).Error)
	require.Equal(t, int64(2), invoices)

	// Everything due has advanced past today.
	due, err := env.subRepo.ListDueAutoCharge(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Empty(t, due)
}
