package services

import (
	"errors"
	"fmt"

	"github.com/Hecoloko/shulgenius-api/internal/gateway"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrProcessorNotConfigured means no resolution step yielded credentials
// with a usable transaction key. No gateway call may be attempted.
var ErrProcessorNotConfigured = errors.New("no payment processor is configured for this organization")

// Resolution sources, in precedence order.
const (
	SourceCampaignPrimary     = "campaign_primary"
	SourceLegacySettings      = "legacy_settings"
	SourceOrganizationDefault = "organization_default"
)

// ResolvedProcessor is the outcome of processor resolution: exactly one
// processor's typed credentials, ready for a gateway call.
type ResolvedProcessor struct {
	// ProcessorID is nil when the credentials came from the legacy
	// settings record, which predates the processor registry.
	ProcessorID   *uuid.UUID
	ProcessorType models.ProcessorType
	Credentials   gateway.Credentials
	Source        string
}

// ProcessorResolver decides which processor credentials apply to a
// charge. Read-only; precedence is campaign primary binding, then the
// legacy settings record, then the organization default.
type ProcessorResolver struct {
	procRepo repository.ProcessorRepository
}

// NewProcessorResolver creates a new ProcessorResolver
func NewProcessorResolver(procRepo repository.ProcessorRepository) *ProcessorResolver {
	return &ProcessorResolver{procRepo: procRepo}
}

// Resolve returns the credentials to use for a charge on behalf of the
// organization, honoring the campaign's primary binding when a campaign
// is in play. A candidate only wins if its credentials carry a non-empty
// transaction key; otherwise resolution falls through to the next step.
func (r *ProcessorResolver) Resolve(organizationID uuid.UUID, campaignID *uuid.UUID) (*ResolvedProcessor, error) {
	if campaignID != nil {
		processor, err := r.procRepo.FindPrimaryForCampaign(*campaignID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up campaign processor: %w", err)
		}
		if err == nil {
			if resolved := resolvedFrom(processor, SourceCampaignPrimary); resolved != nil {
				return resolved, nil
			}
		}
	}

	settings, err := r.procRepo.FindLegacySettings(organizationID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up legacy settings: %w", err)
	}
	if err == nil && settings.TransactionKey != "" {
		return &ResolvedProcessor{
			ProcessorType: models.ProcessorTypeCardknox,
			Credentials:   gateway.CardknoxCredentials{XKey: settings.TransactionKey},
			Source:        SourceLegacySettings,
		}, nil
	}

	processor, err := r.procRepo.FindDefault(organizationID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up default processor: %w", err)
	}
	if err == nil {
		if resolved := resolvedFrom(processor, SourceOrganizationDefault); resolved != nil {
			return resolved, nil
		}
	}

	return nil, ErrProcessorNotConfigured
}

// SelectablePaymentMethods filters a member's saved cards down to those
// usable for a campaign: cards created under a bound processor, plus
// legacy cards with no processor reference, which stay selectable for
// backward compatibility.
func (r *ProcessorResolver) SelectablePaymentMethods(campaignID uuid.UUID, methods []models.PaymentMethod) ([]models.PaymentMethod, error) {
	ids, err := r.procRepo.ListIDsForCampaign(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign processors: %w", err)
	}

	bound := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		bound[id] = struct{}{}
	}

	selectable := make([]models.PaymentMethod, 0, len(methods))
	for _, m := range methods {
		if m.ProcessorID == nil {
			selectable = append(selectable, m)
			continue
		}
		if _, ok := bound[*m.ProcessorID]; ok {
			selectable = append(selectable, m)
		}
	}

	return selectable, nil
}

// resolvedFrom turns a processor row into a resolution result, or nil
// when its credentials lack a transaction key.
func resolvedFrom(processor *models.PaymentProcessor, source string) *ResolvedProcessor {
	creds, err := gateway.ParseCredentials(processor.ProcessorType, processor.Credentials)
	if err != nil || creds.TransactionKey() == "" {
		return nil
	}

	id := processor.ID
	return &ResolvedProcessor{
		ProcessorID:   &id,
		ProcessorType: processor.ProcessorType,
		Credentials:   creds,
		Source:        source,
	}
}
