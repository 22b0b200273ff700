package services

import (
	"testing"

	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/stretchr/testify/require"
)

func TestResolve_CampaignPrimaryWins(t *testing.T) {
	env := setupPaymentTestEnv(t)

	env.createProcessor(t, "Org Default", true, "default-key")
	primary := env.createProcessor(t, "Campaign Account", false, "campaign-key")
	campaign := env.createCampaign(t, "Building Fund", 0)
	require.NoError(t, env.procRepo.BindToCampaign(campaign.ID, primary.ID, true))

	resolved, err := env.resolver.Resolve(env.org.ID, &campaign.ID)
	require.NoError(t, err)
	require.Equal(t, SourceCampaignPrimary, resolved.Source)
	require.NotNil(t, resolved.ProcessorID)
	require.Equal(t, primary.ID, *resolved.ProcessorID)
	require.Equal(t, "campaign-key", resolved.Credentials.TransactionKey())
}

func TestResolve_NonPrimaryBindingIsIgnored(t *testing.T) {
	env := setupPaymentTestEnv(t)

	fallback := env.createProcessor(t, "Org Default", true, "default-key")
	bound := env.createProcessor(t, "Secondary Account", false, "secondary-key")
	campaign := env.createCampaign(t, "Building Fund", 0)
	require.NoError(t, env.procRepo.BindToCampaign(campaign.ID, bound.ID, false))

	resolved, err := env.resolver.Resolve(env.org.ID, &campaign.ID)
	require.NoError(t, err)
	require.Equal(t, SourceOrganizationDefault, resolved.Source)
	require.Equal(t, fallback.ID, *resolved.ProcessorID)
}

func TestResolve_LegacySettingsBeatOrganizationDefault(t *testing.T) {
	env := setupPaymentTestEnv(t)

	env.createProcessor(t, "Org Default", true, "default-key")
	require.NoError(t, env.db.Create(&models.OrganizationSettings{
		OrganizationID: env.org.ID,
		TransactionKey: "legacy-key",
	}).Error)

	resolved, err := env.resolver.Resolve(env.org.ID, nil)
	require.NoError(t, err)
	require.Equal(t, SourceLegacySettings, resolved.Source)
	require.Nil(t, resolved.ProcessorID)
	require.Equal(t, models.ProcessorTypeCardknox, resolved.ProcessorType)
	require.Equal(t, "legacy-key", resolved.Credentials.TransactionKey())
}

func TestResolve_EmptyLegacyKeyFallsThrough(t *testing.T) {
	env := setupPaymentTestEnv(t)

	fallback := env.createProcessor(t, "Org Default", true, "default-key")
	require.NoError(t, env.db.Create(&models.OrganizationSettings{
		OrganizationID: env.org.ID,
		TransactionKey: "",
	}).Error)

	resolved, err := env.resolver.Resolve(env.org.ID, nil)
	require.NoError(t, err)
	require.Equal(t, SourceOrganizationDefault, resolved.Source)
	require.Equal(t, fallback.ID, *resolved.ProcessorID)
}

func TestResolve_NothingConfigured(t *testing.T) {
	env := setupPaymentTestEnv(t)

	_, err := env.resolver.Resolve(env.org.ID, nil)
	require.ErrorIs(t, err, ErrProcessorNotConfigured)
}

func TestResolve_CandidateWithoutKeyFallsThrough(t *testing.T) {
	env := setupPaymentTestEnv(t)

	// The campaign primary has no transaction key; resolution must not
	// stop there.
	broken := env.createProcessor(t, "Misconfigured", false, "")
	fallback := env.createProcessor(t, "Org Default", true, "default-key")
	campaign := env.createCampaign(t, "Building Fund", 0)
	require.NoError(t, env.procRepo.BindToCampaign(campaign.ID, broken.ID, true))

	resolved, err := env.resolver.Resolve(env.org.ID, &campaign.ID)
	require.NoError(t, err)
	require.Equal(t, SourceOrganizationDefault, resolved.Source)
	require.Equal(t, fallback.ID, *resolved.ProcessorID)
}

func TestSetDefault_DemotesPreviousDefault(t *testing.T) {
	env := setupPaymentTestEnv(t)

	first := env.createProcessor(t, "First", true, "key-1")
	second := env.createProcessor(t, "Second", false, "key-2")

	require.NoError(t, env.procRepo.SetDefault(env.org.ID, second.ID))

	var defaults []models.PaymentProcessor
	require.NoError(t, env.db.Where("organization_id = ? AND is_default = ?", env.org.ID, true).Find(&defaults).Error)
	require.Len(t, defaults, 1)
	require.Equal(t, second.ID, defaults[0].ID)

	reloaded, err := env.procRepo.FindByID(first.ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsDefault)
}

func TestSelectablePaymentMethods(t *testing.T) {
	env := setupPaymentTestEnv(t)

	bound := env.createProcessor(t, "Bound", false, "key-1")
	unbound := env.createProcessor(t, "Unbound", false, "key-2")
	campaign := env.createCampaign(t, "Building Fund", 0)
	require.NoError(t, env.procRepo.BindToCampaign(campaign.ID, bound.ID, true))

	boundCard := env.createPaymentMethod(t, &bound.ID, "tok_bound")
	env.createPaymentMethod(t, &unbound.ID, "tok_unbound")
	legacyCard := env.createPaymentMethod(t, nil, "tok_legacy")

	methods, err := env.methodRepo.ListByMember(env.member.ID)
	require.NoError(t, err)
	require.Len(t, methods, 3)

	selectable, err := env.resolver.SelectablePaymentMethods(campaign.ID, methods)
	require.NoError(t, err)
	require.Len(t, selectable, 2)

	ids := []string{selectable[0].ProcessorPaymentMethodID, selectable[1].ProcessorPaymentMethodID}
	require.Contains(t, ids, boundCard.ProcessorPaymentMethodID)
	require.Contains(t, ids, legacyCard.ProcessorPaymentMethodID)
}
