package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hecoloko/shulgenius-api/internal/gateway"
)

var (
	ErrInvalidChargeAmount = errors.New("charge amount must be greater than zero")
	ErrNoPaymentInstrument = errors.New("either a saved payment method or card details are required")
)

// ChargeInput describes a single sale attempt against resolved
// credentials.
type ChargeInput struct {
	Amount    float64
	Reference string

	Token string

	CardNumber string
	CardExp    string
	CardCvc    string
	ZipCode    string

	CustomerName  string
	CustomerEmail string
}

// ChargeExecutor performs gateway sale calls. Declines come back inside
// the result, never as errors; only configuration problems and transport
// failures error out.
type ChargeExecutor struct {
	gateways gateway.Factory
}

// NewChargeExecutor creates a new ChargeExecutor
func NewChargeExecutor(gateways gateway.Factory) *ChargeExecutor {
	return &ChargeExecutor{gateways: gateways}
}

// Charge runs one card sale. A stored token takes precedence over raw
// card fields when both are present.
func (e *ChargeExecutor) Charge(ctx context.Context, creds gateway.Credentials, input ChargeInput) (*gateway.SaleResult, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidChargeAmount
	}
	if input.Token == "" && input.CardNumber == "" {
		return nil, ErrNoPaymentInstrument
	}

	gw, err := e.gateways.GatewayFor(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway client: %w", err)
	}

	req := gateway.SaleRequest{
		Amount:        input.Amount,
		Reference:     input.Reference,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
	}
	if input.Token != "" {
		req.Token = input.Token
	} else {
		req.CardNumber = input.CardNumber
		req.CardExp = input.CardExp
		req.CardCvc = input.CardCvc
		req.ZipCode = input.ZipCode
	}

	return gw.Sale(ctx, req)
}
