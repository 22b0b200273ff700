package services

import (
	"context"
	"testing"
	"time"

	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/stretchr/testify/require"
)

func newInvoiceService(env *paymentTestEnv, factory *fakeFactory) *InvoiceService {
	executor := NewChargeExecutor(factory)
	return NewInvoiceService(env.invoiceRepo, env.memberRepo, env.resolver, executor, env.methodRepo)
}

func (e *paymentTestEnv) createInvoice(t *testing.T, svc *InvoiceService, total float64) *models.Invoice {
	t.Helper()

	invoice, err := svc.CreateInvoice(CreateInvoiceInput{
		OrganizationID: e.org.ID,
		MemberID:       e.member.ID,
		Send:           true,
		Items: []InvoiceItemInput{
			{Description: "Membership dues", Quantity: 1, UnitPrice: total},
		},
	})
	require.NoError(t, err)
	return invoice
}

func TestCreateInvoice_ComputesTotalsServerSide(t *testing.T) {
	env := setupPaymentTestEnv(t)
	svc := newInvoiceService(env, approvingFactory("unused"))

	invoice, err := svc.CreateInvoice(CreateInvoiceInput{
		OrganizationID: env.org.ID,
		MemberID:       env.member.ID,
		Tax:            5,
		Items: []InvoiceItemInput{
			{Description: "High Holiday seats", Quantity: 2, UnitPrice: 180},
			{Description: "Kiddush sponsorship", Quantity: 1, UnitPrice: 250},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 610.0, invoice.Subtotal)
	require.Equal(t, 615.0, invoice.Total)
	require.Equal(t, models.InvoiceStatusDraft, invoice.Status)
	require.NotEmpty(t, invoice.InvoiceNumber)
	require.Len(t, invoice.Items, 2)
	require.Equal(t, 360.0, invoice.Items[0].Total)
}

func TestRecordPayment_PartialThenPaid(t *testing.T) {
	env := setupPaymentTestEnv(t)
	svc := newInvoiceService(env, approvingFactory("unused"))
	invoice := env.createInvoice(t, svc, 500)

	// 200 of 500: partially paid.
	result, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		OrganizationID: env.org.ID,
		InvoiceID:      invoice.ID,
		Amount:         200,
		Method:         "cash",
	})
	require.NoError(t, err)
	require.True(t, result.Recorded)
	require.Equal(t, models.InvoiceStatusPartiallyPaid, result.InvoiceStatus)

	// The remaining 300: paid, with paid_at set.
	result, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		OrganizationID: env.org.ID,
		InvoiceID:      invoice.ID,
		Amount:         300,
		Method:         "check",
	})
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPaid, result.InvoiceStatus)

	reloaded, err := env.invoiceRepo.FindByID(invoice.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPaid, reloaded.Status)
	require.NotNil(t, reloaded.PaidAt)

	// Paid invoices accept no further payments.
	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		OrganizationID: env.org.ID,
		InvoiceID:      invoice.ID,
		Amount:         10,
		Method:         "cash",
	})
	require.ErrorIs(t, err, ErrInvoiceNotPayable)
}

func TestRecordPayment_OverpaymentStillPaid(t *testing.T) {
	env := setupPaymentTestEnv(t)
	svc := newInvoiceService(env, approvingFactory("unused"))
	invoice := env.createInvoice(t, svc, 100)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		OrganizationID: env.org.ID,
		InvoiceID:      invoice.ID,
		Amount:         120,
		Method:         "cash",
	})
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPaid, result.InvoiceStatus)
}

func TestRecordPayment_CardChargesGatewayFirst(t *testing.T) {
	env := setupPaymentTestEnv(t)
	env.createProcessor(t, "Org Default", true, "default-key")
	factory := approvingFactory("txn-inv")
	svc := newInvoiceService(env, factory)
	invoice := env.createInvoice(t, svc, 250)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		OrganizationID: env.org.ID,
		InvoiceID:      invoice.ID,
		Amount:         250,
		Method:         "card",
		CardNumber:     "4111111111111111",
		CardExp:        "1227",
	})
	require.NoError(t, err)
	require.True(t, result.Approved)
	require.Equal(t, "txn-inv", result.TransactionID)
	require.Equal(t, models.InvoiceStatusPaid, result.InvoiceStatus)

	// The invoice number rode along as the gateway reference.
	require.Equal(t, invoice.InvoiceNumber, factory.gw.lastSale.Reference)

	var payments []models.Payment
	require.NoError(t, env.db.Where("invoice_id = ?", invoice.ID).Find(&payments).Error)
	require.Len(t, payments, 1)
	require.Equal(t, "txn-inv", payments[0].ProcessorTransactionID)
}

func TestRecordPayment_CardDeclineWritesNothing(t *testing.T) {
	env := setupPaymentTestEnv(t)
	env.createProcessor(t, "Org Default", true, "default-key")
	svc := newInvoiceService(env, decliningFactory("Do not honor"))
	invoice := env.createInvoice(t, svc, 250)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		OrganizationID: env.org.ID,
		InvoiceID:      invoice.ID,
		Amount:         250,
		Method:         "card",
		CardNumber:     "4111111111111111",
		CardExp:        "1227",
	})
	require.NoError(t, err)
	require.False(t, result.Approved)
	require.Equal(t, "Do not honor", result.DeclineReason)

	var payments int64
	require.NoError(t, env.db.Model(&models.Payment{}).Count(&payments).Error)
	require.Zero(t, payments)

	reloaded, err := env.invoiceRepo.FindByID(invoice.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusSent, reloaded.Status)
}

func TestEffectiveStatus_OverdueOnRead(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	overdue := &models.Invoice{Status: models.InvoiceStatusSent, DueDate: &past}
	require.Equal(t, models.InvoiceStatusOverdue, EffectiveStatus(overdue, now))

	current := &models.Invoice{Status: models.InvoiceStatusSent, DueDate: &future}
	require.Equal(t, models.InvoiceStatusSent, EffectiveStatus(current, now))

	// Paid and draft invoices never present as overdue.
	paid := &models.Invoice{Status: models.InvoiceStatusPaid, DueDate: &past}
	require.Equal(t, models.InvoiceStatusPaid, EffectiveStatus(paid, now))

	draft := &models.Invoice{Status: models.InvoiceStatusDraft, DueDate: &past}
	require.Equal(t, models.InvoiceStatusDraft, EffectiveStatus(draft, now))
}

func TestOutstandingBalance_ExcludesDraftAndVoid(t *testing.T) {
	env := setupPaymentTestEnv(t)
	svc := newInvoiceService(env, approvingFactory("unused"))

	sent := env.createInvoice(t, svc, 400)

	draft, err := svc.CreateInvoice(CreateInvoiceInput{
		OrganizationID: env.org.ID,
		MemberID:       env.member.ID,
		Items:          []InvoiceItemInput{{Description: "Draft only", Quantity: 1, UnitPrice: 999}},
	})
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusDraft, draft.Status)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		OrganizationID: env.org.ID,
		InvoiceID:      sent.ID,
		Amount:         150,
		Method:         "cash",
	})
	require.NoError(t, err)

	balance, err := env.memberRepo.OutstandingBalance(env.member.ID)
	require.NoError(t, err)
	require.Equal(t, 250.0, balance)
}
