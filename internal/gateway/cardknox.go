package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Hecoloko/shulgenius-api/internal/constants"
)

// CardknoxGateway talks to the Cardknox (Sola) transaction API. Requests
// are form-encoded with x-prefixed fields; responses come back
// form-encoded as well, with xResult carrying the outcome code.
type CardknoxGateway struct {
	BaseURL string
	Key     string
	Client  *http.Client
}

// Sale performs a cc:sale call. xResult == "A" is the only approval;
// every other parsed response is a decline. Transport failures and
// unparseable bodies return ErrGatewayUnavailable.
func (g *CardknoxGateway) Sale(ctx context.Context, req SaleRequest) (*SaleResult, error) {
	form := g.baseForm("cc:sale")
	form.Set("xAmount", fmt.Sprintf("%.2f", req.Amount))
	if req.Reference != "" {
		form.Set("xInvoice", req.Reference)
	}

	if req.Token != "" {
		form.Set("xToken", req.Token)
	} else {
		form.Set("xCardNum", req.CardNumber)
		form.Set("xExp", req.CardExp)
		if req.CardCvc != "" {
			form.Set("xCVV", req.CardCvc)
		}
		if req.ZipCode != "" {
			form.Set("xZip", req.ZipCode)
		}
	}
	if req.CustomerName != "" {
		form.Set("xName", req.CustomerName)
	}
	if req.CustomerEmail != "" {
		form.Set("xEmail", req.CustomerEmail)
	}

	values, err := g.post(ctx, form)
	if err != nil {
		return nil, err
	}

	if values.Get("xResult") == constants.GatewayApprovedResult {
		return &SaleResult{
			Approved:    true,
			ReferenceID: values.Get("xRefNum"),
		}, nil
	}

	reason := values.Get("xError")
	if reason == "" {
		reason = values.Get("xStatus")
	}
	if reason == "" {
		reason = "Transaction declined"
	}
	return &SaleResult{
		Approved:      false,
		ReferenceID:   values.Get("xRefNum"),
		DeclineReason: reason,
	}, nil
}

// SaveCard performs a cc:save call, exchanging raw card data for a
// reusable token.
func (g *CardknoxGateway) SaveCard(ctx context.Context, req SaveCardRequest) (*SavedCard, error) {
	form := g.baseForm("cc:save")
	form.Set("xCardNum", req.CardNumber)
	form.Set("xExp", req.CardExp)
	if req.CardCvc != "" {
		form.Set("xCVV", req.CardCvc)
	}
	if req.ZipCode != "" {
		form.Set("xZip", req.ZipCode)
	}
	if req.CustomerName != "" {
		form.Set("xName", req.CustomerName)
	}
	if req.CustomerEmail != "" {
		form.Set("xEmail", req.CustomerEmail)
	}

	values, err := g.post(ctx, form)
	if err != nil {
		return nil, err
	}

	if values.Get("xResult") != constants.GatewayApprovedResult {
		reason := values.Get("xError")
		if reason == "" {
			reason = "Card could not be saved"
		}
		return nil, fmt.Errorf("card save rejected: %s", reason)
	}

	masked := values.Get("xMaskedCardNumber")
	lastFour := masked
	if len(masked) > 4 {
		lastFour = masked[len(masked)-4:]
	}

	return &SavedCard{
		Token:    values.Get("xToken"),
		Brand:    values.Get("xCardType"),
		LastFour: lastFour,
	}, nil
}

func (g *CardknoxGateway) baseForm(command string) url.Values {
	form := url.Values{}
	form.Set("xKey", g.Key)
	form.Set("xVersion", "5.0.0")
	form.Set("xSoftwareName", constants.SoftwareName)
	form.Set("xSoftwareVersion", constants.SoftwareVersion)
	form.Set("xCommand", command)
	return form
}

func (g *CardknoxGateway) post(ctx context.Context, form url.Values) (url.Values, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	values, err := url.ParseQuery(string(body))
	if err != nil || values.Get("xResult") == "" {
		return nil, fmt.Errorf("%w: malformed gateway response", ErrGatewayUnavailable)
	}

	return values, nil
}
