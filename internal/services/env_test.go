package services

import (
	"context"
	"testing"
	"time"

	"github.com/Hecoloko/shulgenius-api/internal/database"
	"github.com/Hecoloko/shulgenius-api/internal/gateway"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeGateway records the last sale request and returns canned results.
type fakeGateway struct {
	saleResult *gateway.SaleResult
	saleErr    error
	savedCard  *gateway.SavedCard
	saveErr    error

	lastSale  gateway.SaleRequest
	saleCalls int
}

func (g *fakeGateway) Sale(ctx context.Context, req gateway.SaleRequest) (*gateway.SaleResult, error) {
	g.lastSale = req
	g.saleCalls++
	if g.saleErr != nil {
		return nil, g.saleErr
	}
	return g.saleResult, nil
}

func (g *fakeGateway) SaveCard(ctx context.Context, req gateway.SaveCardRequest) (*gateway.SavedCard, error) {
	if g.saveErr != nil {
		return nil, g.saveErr
	}
	return g.savedCard, nil
}

type fakeFactory struct {
	gw *fakeGateway

	lastCreds gateway.Credentials
}

func (f *fakeFactory) GatewayFor(creds gateway.Credentials) (gateway.CardGateway, error) {
	f.lastCreds = creds
	return f.gw, nil
}

func approvingFactory(transactionID string) *fakeFactory {
	return &fakeFactory{gw: &fakeGateway{
		saleResult: &gateway.SaleResult{Approved: true, ReferenceID: transactionID},
		savedCard:  &gateway.SavedCard{Token: "tok_test", Brand: "Visa", LastFour: "4242"},
	}}
}

func decliningFactory(reason string) *fakeFactory {
	return &fakeFactory{gw: &fakeGateway{
		saleResult: &gateway.SaleResult{Approved: false, DeclineReason: reason},
	}}
}

type paymentTestEnv struct {
	db *gorm.DB

	procRepo     repository.ProcessorRepository
	campaignRepo repository.CampaignRepository
	memberRepo   repository.MemberRepository
	methodRepo   repository.PaymentMethodRepository
	invoiceRepo  repository.InvoiceRepository
	subRepo      repository.SubscriptionRepository
	donationRepo repository.DonationRepository

	resolver *ProcessorResolver

	org    models.Organization
	member models.Member
}

func setupPaymentTestEnv(t *testing.T) *paymentTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.OrganizationSettings{},
		&models.Member{},
		&models.PaymentProcessor{},
		&models.Campaign{},
		&models.CampaignProcessor{},
		&models.PaymentMethod{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
		&models.Subscription{},
		&models.Donation{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	env := &paymentTestEnv{
		db:           db,
		procRepo:     repository.NewProcessorRepository(db),
		campaignRepo: repository.NewCampaignRepository(db),
		memberRepo:   repository.NewMemberRepository(db),
		methodRepo:   repository.NewPaymentMethodRepository(db),
		invoiceRepo:  repository.NewInvoiceRepository(db),
		subRepo:      repository.NewSubscriptionRepository(db),
		donationRepo: repository.NewDonationRepository(db),
	}
	env.resolver = NewProcessorResolver(env.procRepo)

	env.org = models.Organization{Name: "Test Shul", Slug: "test-shul"}
	require.NoError(t, db.Create(&env.org).Error)

	env.member = models.Member{
		OrganizationID: env.org.ID,
		FirstName:      "David",
		LastName:       "Cohen",
		Email:          "david@example.com",
	}
	require.NoError(t, db.Create(&env.member).Error)

	return env
}

func (e *paymentTestEnv) createProcessor(t *testing.T, name string, isDefault bool, key string) models.PaymentProcessor {
	t.Helper()

	p := models.PaymentProcessor{
		OrganizationID: e.org.ID,
		ProcessorType:  models.ProcessorTypeCardknox,
		Name:           name,
		Credentials:    models.CredentialMap{"transaction_key": key},
		IsActive:       true,
	}
	require.NoError(t, e.procRepo.Create(&p))
	if isDefault {
		require.NoError(t, e.procRepo.SetDefault(e.org.ID, p.ID))
		p.IsDefault = true
	}
	return p
}

func (e *paymentTestEnv) createCampaign(t *testing.T, name string, raised float64) models.Campaign {
	t.Helper()

	c := models.Campaign{
		OrganizationID: e.org.ID,
		Name:           name,
		Type:           models.CampaignTypeDrive,
		RaisedAmount:   raised,
		IsActive:       true,
	}
	require.NoError(t, e.campaignRepo.Create(&c))
	return c
}

func (e *paymentTestEnv) createPaymentMethod(t *testing.T, processorID *uuid.UUID, token string) models.PaymentMethod {
	t.Helper()

	m := models.PaymentMethod{
		MemberID:                 e.member.ID,
		Processor:                string(models.ProcessorTypeCardknox),
		ProcessorID:              processorID,
		ProcessorPaymentMethodID: token,
		CardBrand:                "Visa",
		LastFour:                 "4242",
		Expiration:               "1227",
	}
	require.NoError(t, e.methodRepo.Create(&m))
	return m
}

func (e *paymentTestEnv) createSubscription(t *testing.T, mutate func(*models.Subscription)) models.Subscription {
	t.Helper()

	method := e.createPaymentMethod(t, nil, "tok_sub")
	sub := models.Subscription{
		OrganizationID:  e.org.ID,
		MemberID:        e.member.ID,
		TotalAmount:     100,
		PaymentType:     models.PaymentTypeRecurring,
		BillingMethod:   models.BillingMethodAutoCC,
		Frequency:       models.FrequencyMonthly,
		NextBillingDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		PaymentMethodID: &method.ID,
		IsActive:        true,
	}
	if mutate != nil {
		mutate(&sub)
	}
	require.NoError(t, e.subRepo.Create(&sub))
	return sub
}
