package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/repository"
	"github.com/Hecoloko/shulgenius-api/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCampaignNotFound      = errors.New("campaign not found")
	ErrCampaignInactive      = errors.New("campaign is not accepting donations")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
)

// DonationService processes public campaign donations: resolve the
// processor, charge the card, and reconcile the outcome into the ledger.
type DonationService struct {
	resolver     *ProcessorResolver
	executor     *ChargeExecutor
	donationRepo repository.DonationRepository
	campaignRepo repository.CampaignRepository
	methodRepo   repository.PaymentMethodRepository
}

// NewDonationService creates a new DonationService
func NewDonationService(
	resolver *ProcessorResolver,
	executor *ChargeExecutor,
	donationRepo repository.DonationRepository,
	campaignRepo repository.CampaignRepository,
	methodRepo repository.PaymentMethodRepository,
) *DonationService {
	return &DonationService{
		resolver:     resolver,
		executor:     executor,
		donationRepo: donationRepo,
		campaignRepo: campaignRepo,
		methodRepo:   methodRepo,
	}
}

// ProcessDonationInput represents a donation charge request.
type ProcessDonationInput struct {
	OrganizationID uuid.UUID
	CampaignID     uuid.UUID
	Amount         float64

	MemberID    *uuid.UUID
	DonorName   string
	DonorEmail  string
	IsAnonymous bool

	// Either a saved method or raw card fields.
	PaymentMethodID *uuid.UUID
	CardNumber      string
	CardExp         string
	CardCvc         string
	ZipCode         string
}

// DonationResult is the outcome of a donation attempt. A decline is a
// result, not an error. Recorded is false when the gateway approved but
// the ledger write failed; the money has moved and the gap needs manual
// follow-up.
type DonationResult struct {
	Approved      bool
	DeclineReason string

	TransactionID string
	DonationID    uuid.UUID
	Reference     string

	Recorded       bool
	RecordingError string
}

// ProcessDonation runs the full donation flow. No ledger rows are
// written unless the gateway approves.
func (s *DonationService) ProcessDonation(ctx context.Context, input ProcessDonationInput) (*DonationResult, error) {
	campaign, err := s.campaignRepo.FindByID(input.CampaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}
	if campaign.OrganizationID != input.OrganizationID {
		return nil, ErrCampaignNotFound
	}
	if !campaign.IsActive {
		return nil, ErrCampaignInactive
	}

	resolved, err := s.resolver.Resolve(input.OrganizationID, &input.CampaignID)
	if err != nil {
		return nil, err
	}

	charge := ChargeInput{
		Amount:        input.Amount,
		CustomerName:  input.DonorName,
		CustomerEmail: input.DonorEmail,
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

	reference := utils.DonationReference()
	charge.Reference = reference

	sale, err := s.executor.Charge(ctx, resolved.Credentials, charge)
	if err != nil {
		return nil, err
	}

	if !sale.Approved {
		return &DonationResult{
			Approved:      false,
			DeclineReason: sale.DeclineReason,
			Reference:     reference,
		}, nil
	}

	donation := &models.Donation{
		OrganizationID:         input.OrganizationID,
		CampaignID:             input.CampaignID,
		MemberID:               input.MemberID,
		DonorName:              input.DonorName,
		DonorEmail:             input.DonorEmail,
		IsAnonymous:            input.IsAnonymous,
		Amount:                 input.Amount,
		Reference:              reference,
		Processor:              string(resolved.ProcessorType),
		ProcessorTransactionID: sale.ReferenceID,
	}

	if err := s.donationRepo.CreateApproved(donation); err != nil {
		log.Printf("donation %s: gateway approved transaction %s but ledger write failed: %v",
			reference, sale.ReferenceID, err)
		return &DonationResult{
			Approved:       true,
			TransactionID:  sale.ReferenceID,
			Reference:      reference,
			Recorded:       false,
			RecordingError: "payment processed but recording failed",
		}, nil
	}

	return &DonationResult{
		Approved:      true,
		TransactionID: sale.ReferenceID,
		DonationID:    donation.ID,
		Reference:     reference,
		Recorded:      true,
	}, nil
}
