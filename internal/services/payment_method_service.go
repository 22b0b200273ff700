package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hecoloko/shulgenius-api/internal/gateway"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/Hecoloko/shulgenius-api/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrProcessorNotFound = errors.New("payment processor not found")

// PaymentMethodService tokenizes cards against a gateway and manages a
// member's saved methods.
type PaymentMethodService struct {
	methodRepo repository.PaymentMethodRepository
	memberRepo repository.MemberRepository
	procRepo   repository.ProcessorRepository
	resolver   *ProcessorResolver
	gateways   gateway.Factory
}

// NewPaymentMethodService creates a new PaymentMethodService
func NewPaymentMethodService(
	methodRepo repository.PaymentMethodRepository,
	memberRepo repository.MemberRepository,
	procRepo repository.ProcessorRepository,
	resolver *ProcessorResolver,
	gateways gateway.Factory,
) *PaymentMethodService {
	return &PaymentMethodService{
		methodRepo: methodRepo,
		memberRepo: memberRepo,
		procRepo:   procRepo,
		resolver:   resolver,
		gateways:   gateways,
	}
}

// SaveCardInput represents a card tokenization request. When ProcessorID
// is set the card is saved under that processor; otherwise the
// organization's resolved processor is used.
type SaveCardInput struct {
	OrganizationID uuid.UUID
	MemberID       uuid.UUID
	ProcessorID    *uuid.UUID

	CardNumber string
	CardExp    string
	CardCvc    string
	ZipCode    string
	Nickname   string
	SetDefault bool
}

// SaveCard tokenizes the card with the gateway and persists the token.
// Raw card data is never stored.
func (s *PaymentMethodService) SaveCard(ctx context.Context, input SaveCardInput) (*models.PaymentMethod, error) {
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

	var (
		creds         gateway.Credentials
		processorID   *uuid.UUID
		processorType models.ProcessorType
	)
	if input.ProcessorID != nil {
		processor, err := s.procRepo.FindByID(*input.ProcessorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProcessorNotFound
			}
			return nil, fmt.Errorf("failed to find processor: %w", err)
		}
		if processor.OrganizationID != input.OrganizationID || !processor.IsActive {
			return nil, ErrProcessorNotFound
		}
		creds, err = gateway.ParseCredentials(processor.ProcessorType, processor.Credentials)
		if err != nil {
			return nil, fmt.Errorf("failed to parse processor credentials: %w", err)
		}
		id := processor.ID
		processorID = &id
		processorType = processor.ProcessorType
	} else {
		resolved, err := s.resolver.Resolve(input.OrganizationID, nil)
		if err != nil {
			return nil, err
		}
		creds = resolved.Credentials
		processorID = resolved.ProcessorID
		processorType = resolved.ProcessorType
	}

	gw, err := s.gateways.GatewayFor(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway client: %w", err)
	}

	saved, err := gw.SaveCard(ctx, gateway.SaveCardRequest{
		CardNumber:    input.CardNumber,
		CardExp:       input.CardExp,
		CardCvc:       input.CardCvc,
		ZipCode:       input.ZipCode,
		CustomerName:  member.FirstName + " " + member.LastName,
		CustomerEmail: member.Email,
	})
	if err != nil {
		return nil, err
	}

	method := &models.PaymentMethod{
		MemberID:                 input.MemberID,
		Processor:                string(processorType),
		ProcessorID:              processorID,
		ProcessorPaymentMethodID: saved.Token,
		CardBrand:                saved.Brand,
		LastFour:                 saved.LastFour,
		Expiration:               input.CardExp,
		Nickname:                 input.Nickname,
		IsDefault:                input.SetDefault,
	}

	if err := s.methodRepo.Create(method); err != nil {
		return nil, fmt.Errorf("failed to save payment method: %w", err)
	}

	return method, nil
}

// ListForMember returns a member's saved cards, optionally narrowed to
// those selectable for a campaign.
func (s *PaymentMethodService) ListForMember(memberID uuid.UUID, campaignID *uuid.UUID) ([]models.PaymentMethod, error) {
	methods, err := s.methodRepo.ListByMember(memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	if campaignID == nil {
		return methods, nil
	}
	return s.resolver.SelectablePaymentMethods(*campaignID, methods)
}

// SetDefault makes one saved card the member's default.
func (s *PaymentMethodService) SetDefault(memberID, methodID uuid.UUID) error {
	method, err := s.methodRepo.FindByID(methodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentMethodNotFound
		}
		return fmt.Errorf("failed to find payment method: %w", err)
	}
	if method.MemberID != memberID {
		return ErrPaymentMethodNotFound
	}
	return s.methodRepo.SetDefault(memberID, methodID)
}

// Delete removes a saved card.
func (s *PaymentMethodService) Delete(memberID, methodID uuid.UUID) error {
	method, err := s.methodRepo.FindByID(methodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentMethodNotFound
		}
		return fmt.Errorf("failed to find payment method: %w", err)
	}
	if method.MemberID != memberID {
		return ErrPaymentMethodNotFound
	}
	return s.methodRepo.Delete(methodID)
}
