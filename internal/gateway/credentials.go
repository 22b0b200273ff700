package gateway

import (
	"fmt"

	"github.com/Hecoloko/shulgenius-api/internal/models"
)

// Credentials is the typed form of a processor's opaque credential map,
// parsed once at the boundary instead of probed ad hoc at call sites.
type Credentials interface {
	// ProcessorType reports the gateway family these credentials belong to.
	ProcessorType() models.ProcessorType

	// TransactionKey is the key used to authorize charges. An empty key
	// means the processor cannot take payments and must be skipped
	// during resolution.
	TransactionKey() string
}

// CardknoxCredentials authorize Cardknox/Sola gateway calls.
type CardknoxCredentials struct {
	XKey       string
	IFieldsKey string
}

func (c CardknoxCredentials) ProcessorType() models.ProcessorType { return models.ProcessorTypeCardknox }
func (c CardknoxCredentials) TransactionKey() string              { return c.XKey }

// StripeCredentials authorize Stripe API calls. The secret key plays the
// transaction-key role during resolution.
type StripeCredentials struct {
	SecretKey      string
	PublishableKey string
}

func (c StripeCredentials) ProcessorType() models.ProcessorType { return models.ProcessorTypeStripe }
func (c StripeCredentials) TransactionKey() string              { return c.SecretKey }

// ParseCredentials converts a stored credential map into its typed form.
// Key aliases cover the shapes legacy rows were written with.
func ParseCredentials(processorType models.ProcessorType, values models.CredentialMap) (Credentials, error) {
	switch processorType {
	case models.ProcessorTypeCardknox, models.ProcessorTypeSola:
		return CardknoxCredentials{
			XKey:       firstNonEmpty(values["transaction_key"], values["xkey"], values["api_key"]),
			IFieldsKey: firstNonEmpty(values["ifields_key"], values["ifieldsKey"]),
		}, nil
	case models.ProcessorTypeStripe:
		return StripeCredentials{
			SecretKey:      firstNonEmpty(values["secret_key"], values["sk"]),
			PublishableKey: firstNonEmpty(values["publishable_key"], values["pk"]),
		}, nil
	default:
		return nil, fmt.Errorf("unknown processor type %q", processorType)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
