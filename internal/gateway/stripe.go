package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// StripeGateway talks to the Stripe charges API directly over its
// form-encoded HTTP surface.
type StripeGateway struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type stripeCharge struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type stripeError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

type stripeToken struct {
	ID   string `json:"id"`
	Card struct {
		Brand string `json:"brand"`
		Last4 string `json:"last4"`
	} `json:"card"`
}

// Sale creates a charge. Card-level rejections (4xx with an error body)
// are declines; transport failures return ErrGatewayUnavailable.
func (g *StripeGateway) Sale(ctx context.Context, req SaleRequest) (*SaleResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(int64(math.Round(req.Amount*100)), 10))
	form.Set("currency", "usd")
	if req.Reference != "" {
		form.Set("description", req.Reference)
	}
	if req.Token != "" {
		form.Set("source", req.Token)
	} else {
		form.Set("card[number]", req.CardNumber)
		if len(req.CardExp) == 4 {
			form.Set("card[exp_month]", req.CardExp[:2])
			form.Set("card[exp_year]", "20"+req.CardExp[2:])
		}
		form.Set("card[cvc]", req.CardCvc)
		if req.ZipCode != "" {
			form.Set("card[address_zip]", req.ZipCode)
		}
	}

	status, body, err := g.post(ctx, "/v1/charges", form)
	if err != nil {
		return nil, err
	}

	if status >= 200 && status < 300 {
		var charge stripeCharge
		if err := json.Unmarshal(body, &charge); err != nil {
			return nil, fmt.Errorf("%w: malformed gateway response", ErrGatewayUnavailable)
		}
		if charge.Status == "succeeded" {
			return &SaleResult{Approved: true, ReferenceID: charge.ID}, nil
		}
		return &SaleResult{Approved: false, ReferenceID: charge.ID, DeclineReason: "charge " + charge.Status}, nil
	}

	var apiErr stripeError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		return nil, fmt.Errorf("%w: gateway returned status %d", ErrGatewayUnavailable, status)
	}
	return &SaleResult{Approved: false, DeclineReason: apiErr.Error.Message}, nil
}

// SaveCard tokenizes a card via the tokens API.
func (g *StripeGateway) SaveCard(ctx context.Context, req SaveCardRequest) (*SavedCard, error) {
	form := url.Values{}
	form.Set("card[number]", req.CardNumber)
	if len(req.CardExp) == 4 {
		form.Set("card[exp_month]", req.CardExp[:2])
		form.Set("card[exp_year]", "20"+req.CardExp[2:])
	}
	form.Set("card[cvc]", req.CardCvc)
	if req.ZipCode != "" {
		form.Set("card[address_zip]", req.ZipCode)
	}

	status, body, err := g.post(ctx, "/v1/tokens", form)
	if err != nil {
		return nil, err
	}

	if status >= 200 && status < 300 {
		var token stripeToken
		if err := json.Unmarshal(body, &token); err != nil {
			return nil, fmt.Errorf("%w: malformed gateway response", ErrGatewayUnavailable)
		}
		return &SavedCard{
			Token:    token.ID,
			Brand:    token.Card.Brand,
			LastFour: token.Card.Last4,
		}, nil
	}

	var apiErr stripeError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		return nil, fmt.Errorf("%w: gateway returned status %d", ErrGatewayUnavailable, status)
	}
	return nil, fmt.Errorf("card save rejected: %s", apiErr.Error.Message)
}

func (g *StripeGateway) post(ctx context.Context, path string, form url.Values) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(g.SecretKey, "")

	resp, err := g.Client.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return resp.StatusCode, body, nil
}
