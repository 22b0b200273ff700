package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrGatewayUnavailable marks a transport-level failure: timeout,
// connection refusal, or an unparseable response. It is distinct from a
// decline, which is a business outcome carried inside SaleResult.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// ErrSaveCardUnsupported is returned by gateways that cannot tokenize
// cards server-side.
var ErrSaveCardUnsupported = errors.New("gateway does not support server-side card tokenization")

// SaleRequest describes a single card sale. Token takes precedence over
// raw card fields when both are present.
type SaleRequest struct {
	Amount    float64
	Reference string // sent as the gateway invoice/idempotency field

	Token string

	CardNumber string
	CardExp    string // MMYY
	CardCvc    string
	ZipCode    string

	CustomerName  string
	CustomerEmail string
}

// SaleResult is the interpreted outcome of a gateway sale call. Approved
// is false for every result code other than the gateway's success
// sentinel; declines never surface as errors.
type SaleResult struct {
	Approved      bool
	ReferenceID   string
	DeclineReason string
}

// SaveCardRequest tokenizes a raw card for later charges.
type SaveCardRequest struct {
	CardNumber string
	CardExp    string // MMYY
	CardCvc    string
	ZipCode    string

	CustomerName  string
	CustomerEmail string
}

// SavedCard is a gateway-issued token plus display metadata.
type SavedCard struct {
	Token    string
	Brand    string
	LastFour string
}

// CardGateway is a configured gateway account bound to one processor's
// credentials.
type CardGateway interface {
	Sale(ctx context.Context, req SaleRequest) (*SaleResult, error)
	SaveCard(ctx context.Context, req SaveCardRequest) (*SavedCard, error)
}

// Factory builds a CardGateway for resolved credentials.
type Factory interface {
	GatewayFor(creds Credentials) (CardGateway, error)
}

// HTTPFactory builds live gateway clients over a shared HTTP client.
type HTTPFactory struct {
	CardknoxURL string
	StripeURL   string
	Client      *http.Client
}

func NewHTTPFactory(cardknoxURL, stripeURL string) *HTTPFactory {
	return &HTTPFactory{
		CardknoxURL: cardknoxURL,
		StripeURL:   stripeURL,
		Client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *HTTPFactory) GatewayFor(creds Credentials) (CardGateway, error) {
	switch c := creds.(type) {
	case CardknoxCredentials:
		return &CardknoxGateway{BaseURL: f.CardknoxURL, Key: c.XKey, Client: f.Client}, nil
	case StripeCredentials:
		return &StripeGateway{BaseURL: f.StripeURL, SecretKey: c.SecretKey, Client: f.Client}, nil
	default:
		return nil, fmt.Errorf("no gateway client for credentials of type %T", creds)
	}
}
