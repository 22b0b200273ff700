package constants

// Context keys
const (
	ContextKeyUserID       = "user_id"
	ContextKeyOrganization = "organization"
	ContextKeyMembership   = "organization_member"
)

// Pagination
const (
	MinPage         = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
	TokenExpiryHours  = 24
)

// Gateway
const (
	// GatewayApprovedResult is the Cardknox result code for an approved
	// sale. Anything else is a decline.
	GatewayApprovedResult = "A"

	SoftwareName    = "ShulGenius"
	SoftwareVersion = "1.0.0"
)
