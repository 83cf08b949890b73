package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const mercadopagoAPIBase = "https://api.mercadopago.com"

type mercadopagoProvider struct {
	client      *retryablehttp.Client
	apiBase     string
	accessToken string
	log         *zap.Logger
}

func NewMercadoPago(accessToken string, log *zap.Logger) Provider {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil
	return &mercadopagoProvider{
		client:      client,
		apiBase:     mercadopagoAPIBase,
		accessToken: accessToken,
		log:         log.Named("payment.mercadopago"),
	}
}

func (p *mercadopagoProvider) Name() string { return "mercadopago" }

func (p *mercadopagoProvider) CreateIntent(ctx context.Context, intent Intent) (IntentResult, error) {
	currency := intent.Currency
	if currency == "" {
		currency = "USD"
	}

	preference := map[string]interface{}{
		"external_reference": intent.Reference,
		"items": []map[string]interface{}{
			{
				"title":       intent.Description,
				"quantity":    1,
				"unit_price":  float64(intent.AmountCents) / 100,
				"currency_id": currency,
			},
		},
	}
	body, err := json.Marshal(preference)
	if err != nil {
		return IntentResult{}, err
	}

	req, err := retryablehttp.NewRequestWithContext(
		ctx, http.MethodPost, p.apiBase+"/checkout/preferences",
		bytes.NewReader(body),
	)
	if err != nil {
		return IntentResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+p.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return IntentResult{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return IntentResult{}, err
	}
	if resp.StatusCode >= 400 {
		p.log.Warn("preference rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("reference", intent.Reference),
		)
		return IntentResult{}, ErrGatewayRejected
	}

	var parsed struct {
		ID        string `json:"id"`
		InitPoint string `json:"init_point"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return IntentResult{}, err
	}

	return IntentResult{
		ExternalID:  parsed.ID,
		CheckoutURL: parsed.InitPoint,
		Status:      "created",
	}, nil
}

// ParseWebhook confirms the notification against the payments API.
// The webhook body only carries data.id and is not signed, so nothing
// in it can be trusted until the payment is fetched with our access
// token and its status inspected.
func (p *mercadopagoProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (WebhookEvent, error) {
	_ = signature

	var event struct {
		Type   string `json:"type"`
		Action string `json:"action"`
		Data   struct {
			ID json.RawMessage `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return WebhookEvent{}, ErrMalformedPayload
	}
	if event.Type != "payment" {
		return WebhookEvent{Type: EventIgnored}, nil
	}

	// data.id arrives as a string or a bare number depending on the
	// notification version.
	paymentID := strings.Trim(string(event.Data.ID), `"`)
	if paymentID == "" || paymentID == "null" {
		return WebhookEvent{}, ErrMalformedPayload
	}

	paid, err := p.fetchPayment(ctx, paymentID)
	if err != nil {
		return WebhookEvent{}, err
	}

	out := WebhookEvent{
		Reference:   paid.ExternalReference,
		ExternalID:  paymentID,
		AmountCents: int64(math.Round(paid.TransactionAmount * 100)),
	}
	switch paid.Status {
	case "approved":
		out.Type = EventPaymentSucceeded
	case "rejected", "cancelled":
		out.Type = EventPaymentFailed
	default:
		// pending, in_process, refunded and friends; later
		// notifications report the terminal state.
		out.Type = EventIgnored
	}
	return out, nil
}

type mercadopagoPayment struct {
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
}

func (p *mercadopagoProvider) fetchPayment(ctx context.Context, id string) (mercadopagoPayment, error) {
	req, err := retryablehttp.NewRequestWithContext(
		ctx, http.MethodGet, p.apiBase+"/v1/payments/"+url.PathEscape(id), nil,
	)
	if err != nil {
		return mercadopagoPayment{}, err
	}
	req.Header.Set("Authorization", "Bearer "+p.accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn("payment lookup failed", zap.String("payment_id", id), zap.Error(err))
		return mercadopagoPayment{}, ErrGatewayRejected
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return mercadopagoPayment{}, err
	}
	if resp.StatusCode >= 400 {
		p.log.Warn("payment lookup rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("payment_id", id),
		)
		return mercadopagoPayment{}, ErrGatewayRejected
	}

	var paid mercadopagoPayment
	if err := json.Unmarshal(body, &paid); err != nil {
		return mercadopagoPayment{}, err
	}
	return paid, nil
}
