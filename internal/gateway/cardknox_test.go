package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newCardknoxServer(t *testing.T, handler func(form url.Values) string) (*httptest.Server, *CardknoxGateway) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Write([]byte(handler(r.PostForm)))
	}))
	t.Cleanup(srv.Close)

	gw := &CardknoxGateway{
		BaseURL: srv.URL,
		Key:     "test-key",
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
	return srv, gw
}

func TestCardknoxSale_Approved(t *testing.T) {
	var seen url.Values
	_, gw := newCardknoxServer(t, func(form url.Values) string {
		seen = form
		return "xResult=A&xRefNum=12345&xStatus=Approved"
	})

	result, err := gw.Sale(context.Background(), SaleRequest{
		Amount:     18.5,
		Reference:  "DON-ABC123",
		CardNumber: "4111111111111111",
		CardExp:    "1227",
		CardCvc:    "123",
		ZipCode:    "10001",
	})
	require.NoError(t, err)
	require.True(t, result.Approved)
	require.Equal(t, "12345", result.ReferenceID)

	require.Equal(t, "cc:sale", seen.Get("xCommand"))
	require.Equal(t, "test-key", seen.Get("xKey"))
	require.Equal(t, "18.50", seen.Get("xAmount"))
	require.Equal(t, "DON-ABC123", seen.Get("xInvoice"))
	require.Equal(t, "4111111111111111", seen.Get("xCardNum"))
	require.Equal(t, "1227", seen.Get("xExp"))
}

func TestCardknoxSale_TokenTakesPrecedence(t *testing.T) {
	var seen url.Values
	_, gw := newCardknoxServer(t, func(form url.Values) string {
		seen = form
		return "xResult=A&xRefNum=1"
	})

	_, err := gw.Sale(context.Background(), SaleRequest{
		Amount:     10,
		Token:      "tok_abc",
		CardNumber: "4111111111111111",
	})
	require.NoError(t, err)
	require.Equal(t, "tok_abc", seen.Get("xToken"))
	require.Empty(t, seen.Get("xCardNum"))
}

func TestCardknoxSale_DeclineIsNotAnError(t *testing.T) {
	_, gw := newCardknoxServer(t, func(form url.Values) string {
		return "xResult=D&xRefNum=67890&xError=Insufficient+funds"
	})

	result, err := gw.Sale(context.Background(), SaleRequest{
		Amount:     25,
		CardNumber: "4111111111111111",
		CardExp:    "1227",
	})
	require.NoError(t, err)
	require.False(t, result.Approved)
	require.Equal(t, "Insufficient funds", result.DeclineReason)
	require.Equal(t, "67890", result.ReferenceID)
}

func TestCardknoxSale_NonApprovalCodesAreDeclines(t *testing.T) {
	// Anything except the approval sentinel is a decline, including
	// unfamiliar codes.
	_, gw := newCardknoxServer(t, func(form url.Values) string {
		return "xResult=E&xStatus=Error"
	})

	result, err := gw.Sale(context.Background(), SaleRequest{
		Amount:     25,
		CardNumber: "4111111111111111",
		CardExp:    "1227",
	})
	require.NoError(t, err)
	require.False(t, result.Approved)
	require.Equal(t, "Error", result.DeclineReason)
}

func TestCardknoxSale_TransportFailure(t *testing.T) {
	srv, gw := newCardknoxServer(t, func(form url.Values) string { return "xResult=A" })
	srv.Close()

	_, err := gw.Sale(context.Background(), SaleRequest{
		Amount:     25,
		CardNumber: "4111111111111111",
		CardExp:    "1227",
	})
	require.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestCardknoxSale_MalformedResponse(t *testing.T) {
	_, gw := newCardknoxServer(t, func(form url.Values) string {
		return "<html>gateway error</html>"
	})

	_, err := gw.Sale(context.Background(), SaleRequest{
		Amount:     25,
		CardNumber: "4111111111111111",
		CardExp:    "1227",
	})
	require.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestCardknoxSaveCard(t *testing.T) {
	_, gw := newCardknoxServer(t, func(form url.Values) string {
		require.Equal(t, "cc:save", form.Get("xCommand"))
		return "xResult=A&xToken=tok_saved&xCardType=Visa&xMaskedCardNumber=4xxxxxxxxxxx1111"
	})

	card, err := gw.SaveCard(context.Background(), SaveCardRequest{
		CardNumber: "4111111111111111",
		CardExp:    "1227",
	})
	require.NoError(t, err)
	require.Equal(t, "tok_saved", card.Token)
	require.Equal(t, "Visa", card.Brand)
	require.Equal(t, "1111", card.LastFour)
}

func TestParseCredentials(t *testing.T) {
	creds, err := ParseCredentials("cardknox", map[string]string{"transaction_key": "abc"})
	require.NoError(t, err)
	require.Equal(t, "abc", creds.TransactionKey())

	// Sola shares the Cardknox credential shape.
	creds, err = ParseCredentials("sola", map[string]string{"xkey": "def"})
	require.NoError(t, err)
	require.Equal(t, "def", creds.TransactionKey())

	creds, err = ParseCredentials("stripe", map[string]string{"secret_key": "sk_test"})
	require.NoError(t, err)
	require.Equal(t, "sk_test", creds.TransactionKey())

	_, err = ParseCredentials("paypal", map[string]string{"key": "x"})
	require.Error(t, err)
}
