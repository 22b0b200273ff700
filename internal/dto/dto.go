package dto

import (
	"time"

	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/google/uuid"
)

// UserDTO represents an auth user in API responses
type UserDTO struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// AuthResponse carries the signed token alongside the user
type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// OrganizationWithRoleDTO represents an organization with the user's role
type OrganizationWithRoleDTO struct {
	ID   uuid.UUID               `json:"id"`
	Name string                  `json:"name"`
	Slug string                  `json:"slug"`
	Role models.OrganizationRole `json:"role"`
}

// PublicOrganizationDTO is the donor-facing microsite view: basic org
// details plus its active campaigns. No credentials, members or ledger
// data ever appear here.
type PublicOrganizationDTO struct {
	Name      string              `json:"name"`
	Slug      string              `json:"slug"`
	LogoURL   string              `json:"logo_url,omitempty"`
	Address   string              `json:"address,omitempty"`
	Campaigns []PublicCampaignDTO `json:"campaigns"`
}

// PublicCampaignDTO is a campaign as shown on the donation page
type PublicCampaignDTO struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Type         string     `json:"type"`
	GoalAmount   *float64   `json:"goal_amount,omitempty"`
	RaisedAmount float64    `json:"raised_amount"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}

// ProcessorDTO represents a registered processor with its credentials
// masked down to presence flags
type ProcessorDTO struct {
	ID            uuid.UUID            `json:"id"`
	Name          string               `json:"name"`
	ProcessorType models.ProcessorType `json:"processor_type"`
	IsDefault     bool                 `json:"is_default"`
	IsActive      bool                 `json:"is_active"`
	HasCredential bool                 `json:"has_credentials"`
	CreatedAt     time.Time            `json:"created_at"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Email: user.Email,
	}
}

// ToOrganizationWithRoleDTO converts an organization member to DTO with role
func ToOrganizationWithRoleDTO(member models.OrganizationMember) OrganizationWithRoleDTO {
	return OrganizationWithRoleDTO{
		ID:   member.Organization.ID,
		Name: member.Organization.Name,
		Slug: member.Organization.Slug,
		Role: member.Role,
	}
}

// ToPublicCampaignDTO converts a campaign to its public view
func ToPublicCampaignDTO(campaign models.Campaign) PublicCampaignDTO {
	return PublicCampaignDTO{
		ID:           campaign.ID,
		Name:         campaign.Name,
		Description:  campaign.Description,
		Type:         string(campaign.Type),
		GoalAmount:   campaign.GoalAmount,
		RaisedAmount: campaign.RaisedAmount,
		EndDate:      campaign.EndDate,
	}
}

// ToPublicOrganizationDTO converts an organization and its active
// campaigns to the microsite view
func ToPublicOrganizationDTO(org models.Organization, campaigns []models.Campaign) PublicOrganizationDTO {
	campaignDTOs := make([]PublicCampaignDTO, len(campaigns))
	for i, campaign := range campaigns {
		campaignDTOs[i] = ToPublicCampaignDTO(campaign)
	}
	return PublicOrganizationDTO{
		Name:      org.Name,
		Slug:      org.Slug,
		LogoURL:   org.LogoURL,
		Address:   org.Address,
		Campaigns: campaignDTOs,
	}
}

// ToProcessorDTO converts a processor to its masked API view
func ToProcessorDTO(p models.PaymentProcessor) ProcessorDTO {
	return ProcessorDTO{
		ID:            p.ID,
		Name:          p.Name,
		ProcessorType: p.ProcessorType,
		IsDefault:     p.IsDefault,
		IsActive:      p.IsActive,
		HasCredential: len(p.Credentials) > 0,
		CreatedAt:     p.CreatedAt,
	}
}
