package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const stripeAPIBase = "https://api.stripe.com/v1"

// stripeProvider talks to the card-processing gateway's REST API with
// form-encoded requests and a bearer key.
type stripeProvider struct {
	client        *retryablehttp.Client
	apiBase       string
	secretKey     string
	webhookSecret string
	log           *zap.Logger
}

func NewStripe(secretKey, webhookSecret string, log *zap.Logger) Provider {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil
	return &stripeProvider{
		client:        client,
		apiBase:       stripeAPIBase,
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		log:           log.Named("payment.stripe"),
	}
}

func (p *stripeProvider) Name() string { return "stripe" }

func (p *stripeProvider) CreateIntent(ctx context.Context, intent Intent) (IntentResult, error) {
	currency := intent.Currency
	if currency == "" {
		currency = "usd"
	}

	form := url.Values{}
	form.Set("amount", fmt.Sprintf("%d", intent.AmountCents))
	form.Set("currency", strings.ToLower(currency))
	form.Set("description", intent.Description)
	form.Set("metadata[reference]", intent.Reference)

	req, err := retryablehttp.NewRequestWithContext(
		ctx, http.MethodPost, p.apiBase+"/payment_intents",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return IntentResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return IntentResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return IntentResult{}, err
	}
	if resp.StatusCode >= 400 {
		p.log.Warn("intent rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("reference", intent.Reference),
		)
		return IntentResult{}, ErrGatewayRejected
	}

	var parsed struct {
		ID           string `json:"id"`
		Status       string `json:"status"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return IntentResult{}, err
	}

	return IntentResult{
		ExternalID:  parsed.ID,
		CheckoutURL: parsed.ClientSecret,
		Status:      parsed.Status,
	}, nil
}

func (p *stripeProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (WebhookEvent, error) {
	_ = ctx
	if !p.verifySignature(payload, signature) {
		return WebhookEvent{}, ErrInvalidSignature
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID       string `json:"id"`
				Amount   int64  `json:"amount"`
				Metadata struct {
					Reference string `json:"reference"`
				} `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return WebhookEvent{}, ErrMalformedPayload
	}

	out := WebhookEvent{
		Reference:   event.Data.Object.Metadata.Reference,
		ExternalID:  event.Data.Object.ID,
		AmountCents: event.Data.Object.Amount,
	}
	switch event.Type {
	case "payment_intent.succeeded":
		out.Type = EventPaymentSucceeded
	case "payment_intent.payment_failed":
		out.Type = EventPaymentFailed
	default:
		out.Type = EventIgnored
	}
	return out, nil
}

// verifySignature checks the "t=<ts>,v1=<hex>" header against an
// HMAC-SHA256 of "<ts>.<payload>" keyed with the webhook secret.
// Without a configured secret no delivery can be authenticated.
func (p *stripeProvider) verifySignature(payload []byte, header string) bool {
	if p.webhookSecret == "" {
		return false
	}

	var timestamp string
	var provided []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			provided = append(provided, value)
		}
	}
	if timestamp == "" || len(provided) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range provided {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return true
		}
	}
	return false
}
