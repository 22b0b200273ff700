package services

import (
	"context"
	"testing"

	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/stretchr/testify/require"
)

func newPaymentMethodService(env *paymentTestEnv, factory *fakeFactory) *PaymentMethodService {
	return NewPaymentMethodService(env.methodRepo, env.memberRepo, env.procRepo, env.resolver, factory)
}

func TestSaveCard_StoresTokenNotCardData(t *testing.T) {
	env := setupPaymentTestEnv(t)
	processor := env.createProcessor(t, "Org Default", true, "default-key")

	factory := approvingFactory("unused")
	svc := newPaymentMethodService(env, factory)

	method, err := svc.SaveCard(context.Background(), SaveCardInput{
		OrganizationID: env.org.ID,
		MemberID:       env.member.ID,
		CardNumber:     "4242424242424242",
		CardExp:        "1227",
		CardCvc:        "123",
		Nickname:       "Personal Visa",
	})
	require.NoError(t, err)
	require.Equal(t, "tok_test", method.ProcessorPaymentMethodID)
	require.Equal(t, "Visa", method.CardBrand)
	require.Equal(t, "4242", method.LastFour)
	require.Equal(t, "1227", method.Expiration)
	require.NotNil(t, method.ProcessorID)
	require.Equal(t, processor.ID, *method.ProcessorID)

	// Nothing that looks like a PAN is persisted.
	var stored models.PaymentMethod
	require.NoError(t, env.db.First(&stored, "id = ?", method.ID).Error)
	require.Equal(t, "tok_test", stored.ProcessorPaymentMethodID)
	require.NotContains(t, stored.ProcessorPaymentMethodID, "4242424242424242")
}

func TestSaveCard_ExplicitProcessorOverridesResolver(t *testing.T) {
	env := setupPaymentTestEnv(t)
	env.createProcessor(t, "Org Default", true, "default-key")
	other := env.createProcessor(t, "Campaign Account", false, "other-key")

	factory := approvingFactory("unused")
	svc := newPaymentMethodService(env, factory)

	method, err := svc.SaveCard(context.Background(), SaveCardInput{
		OrganizationID: env.org.ID,
		MemberID:       env.member.ID,
		ProcessorID:    &other.ID,
		CardNumber:     "4242424242424242",
		CardExp:        "1227",
	})
	require.NoError(t, err)
	require.Equal(t, other.ID, *method.ProcessorID)
	require.Equal(t, "other-key", factory.lastCreds.TransactionKey())
}

func TestSaveCard_NoProcessorConfigured(t *testing.T) {
	env := setupPaymentTestEnv(t)

	svc := newPaymentMethodService(env, approvingFactory("unused"))

	_, err := svc.SaveCard(context.Background(), SaveCardInput{
		OrganizationID: env.org.ID,
		MemberID:       env.member.ID,
		CardNumber:     "4242424242424242",
		CardExp:        "1227",
	})
	require.ErrorIs(t, err, ErrProcessorNotConfigured)
}

func TestSetDefault_ExactlyOneDefaultSurvives(t *testing.T) {
	env := setupPaymentTestEnv(t)

	first := env.createPaymentMethod(t, nil, "tok_1")
	second := env.createPaymentMethod(t, nil, "tok_2")
	third := env.createPaymentMethod(t, nil, "tok_3")

	svc := newPaymentMethodService(env, approvingFactory("unused"))

	require.NoError(t, svc.SetDefault(env.member.ID, first.ID))
	require.NoError(t, svc.SetDefault(env.member.ID, second.ID))
	require.NoError(t, svc.SetDefault(env.member.ID, third.ID))

	var defaults []models.PaymentMethod
	require.NoError(t, env.db.Where("member_id = ? AND is_default = ?", env.member.ID, true).Find(&defaults).Error)
	require.Len(t, defaults, 1)
	require.Equal(t, third.ID, defaults[0].ID)
}

func TestSaveCard_DefaultFlagDemotesSiblings(t *testing.T) {
	env := setupPaymentTestEnv(t)
	env.createProcessor(t, "Org Default", true, "default-key")

	existing := env.createPaymentMethod(t, nil, "tok_old")
	svc := newPaymentMethodService(env, approvingFactory("unused"))
	require.NoError(t, svc.SetDefault(env.member.ID, existing.ID))

	method, err := svc.SaveCard(context.Background(), SaveCardInput{
		OrganizationID: env.org.ID,
		MemberID:       env.member.ID,
		CardNumber:     "4242424242424242",
		CardExp:        "1227",
		SetDefault:     true,
	})
	require.NoError(t, err)
	require.True(t, method.IsDefault)

	var defaults []models.PaymentMethod
	require.NoError(t, env.db.Where("member_id = ? AND is_default = ?", env.member.ID, true).Find(&defaults).Error)
	require.Len(t, defaults, 1)
	require.Equal(t, method.ID, defaults[0].ID)
}

func TestDelete_RejectsForeignMember(t *testing.T) {
	env := setupPaymentTestEnv(t)
	method := env.createPaymentMethod(t, nil, "tok_1")

	other := models.Member{
		OrganizationID: env.org.ID,
		FirstName:      "Rivka",
		LastName:       "Stein",
	}
	require.NoError(t, env.db.Create(&other).Error)

	svc := newPaymentMethodService(env, approvingFactory("unused"))
	err := svc.Delete(other.ID, method.ID)
	require.ErrorIs(t, err, ErrPaymentMethodNotFound)
}
