package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMercadoPagoAgainst(t *testing.T, apiBase string) *mercadopagoProvider {
	t.Helper()
	provider := NewMercadoPago("test-token", zap.NewNop()).(*mercadopagoProvider)
	provider.apiBase = apiBase
	return provider
}

func mercadoPagoAPI(t *testing.T, payment map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.Equal(t, "/v1/payments/555", r.URL.Path)
		_ = json.NewEncoder(w).Encode(payment)
	}))
}

func TestMercadoPagoWebhookApproved(t *testing.T) {
	srv := mercadoPagoAPI(t, map[string]any{
		"status":             "approved",
		"external_reference": "123456789",
		"transaction_amount": 1500.50,
	})
	defer srv.Close()

	provider := newMercadoPagoAgainst(t, srv.URL)
	event, err := provider.ParseWebhook(context.Background(),
		[]byte(`{"type":"payment","action":"payment.updated","data":{"id":"555"}}`), "")
	require.NoError(t, err)
	require.Equal(t, EventPaymentSucceeded, event.Type)
	require.Equal(t, "123456789", event.Reference)
	require.Equal(t, "555", event.ExternalID)
	require.Equal(t, int64(150050), event.AmountCents)
}

func TestMercadoPagoWebhookRejectedPayment(t *testing.T) {
	srv := mercadoPagoAPI(t, map[string]any{
		"status":             "rejected",
		"status_detail":      "cc_rejected_insufficient_amount",
		"external_reference": "123456789",
	})
	defer srv.Close()

	provider := newMercadoPagoAgainst(t, srv.URL)
	// the body claims whatever the sender wants; only the fetched
	// payment status counts
	event, err := provider.ParseWebhook(context.Background(),
		[]byte(`{"type":"payment","action":"payment.updated","status":"approved","data":{"id":"555"}}`), "")
	require.NoError(t, err)
	require.Equal(t, EventPaymentFailed, event.Type)
}

func TestMercadoPagoWebhookPendingIgnored(t *testing.T) {
	srv := mercadoPagoAPI(t, map[string]any{
		"status":             "pending",
		"external_reference": "123456789",
	})
	defer srv.Close()

	provider := newMercadoPagoAgainst(t, srv.URL)
	event, err := provider.ParseWebhook(context.Background(),
		[]byte(`{"type":"payment","data":{"id":555}}`), "")
	require.NoError(t, err)
	require.Equal(t, EventIgnored, event.Type)
}

func TestMercadoPagoWebhookNonPaymentSkipsLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no API call expected for non-payment topics")
	}))
	defer srv.Close()

	provider := newMercadoPagoAgainst(t, srv.URL)
	event, err := provider.ParseWebhook(context.Background(),
		[]byte(`{"type":"merchant_order","data":{"id":"9"}}`), "")
	require.NoError(t, err)
	require.Equal(t, EventIgnored, event.Type)
}

func TestMercadoPagoWebhookMissingPaymentID(t *testing.T) {
	provider := newMercadoPagoAgainst(t, "http://127.0.0.1:0")
	_, err := provider.ParseWebhook(context.Background(),
		[]byte(`{"type":"payment","data":{}}`), "")
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func signStripePayload(secret, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeWebhookSignedDelivery(t *testing.T) {
	provider := NewStripe("sk_test", "whsec_test", zap.NewNop())
	payload := []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":120000,"metadata":{"reference":"123456789"}}}}`)

	event, err := provider.ParseWebhook(context.Background(), payload,
		signStripePayload("whsec_test", "1717243200", payload))
	require.NoError(t, err)
	require.Equal(t, EventPaymentSucceeded, event.Type)
	require.Equal(t, "123456789", event.Reference)
	require.Equal(t, "pi_1", event.ExternalID)
}

func TestStripeWebhookForgedSignature(t *testing.T) {
	provider := NewStripe("sk_test", "whsec_test", zap.NewNop())
	payload := []byte(`{"type":"payment_intent.succeeded"}`)

	_, err := provider.ParseWebhook(context.Background(), payload,
		signStripePayload("wrong-secret", "1717243200", payload))
	require.ErrorIs(t, err, ErrInvalidSignature)

	_, err = provider.ParseWebhook(context.Background(), payload, "garbage")
	require.ErrorIs(t, err, ErrInvalidSignature)

	_, err = provider.ParseWebhook(context.Background(), payload, "")
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeWebhookNoSecretConfigured(t *testing.T) {
	provider := NewStripe("sk_test", "", zap.NewNop())
	payload := []byte(`{"type":"payment_intent.succeeded"}`)

	_, err := provider.ParseWebhook(context.Background(), payload,
		signStripePayload("", "1717243200", payload))
	require.ErrorIs(t, err, ErrInvalidSignature)
}
