// Package payment wraps the external payment gateways behind one
// interface so webhook handling and intent creation stay testable
// without network access.
package payment

import (
	"context"
	"errors"
)

type EventType string

const (
	EventPaymentSucceeded EventType = "payment_succeeded"
	EventPaymentFailed    EventType = "payment_failed"
	EventIgnored          EventType = "ignored"
)

type Intent struct {
	Reference   string
	AmountCents int64
	Currency    string
	Description string
}

type IntentResult struct {
	ExternalID  string
	CheckoutURL string
	Status      string
}

// WebhookEvent is the gateway-neutral form of a webhook delivery.
// Reference carries our quote reference back from the gateway.
type WebhookEvent struct {
	Type        EventType
	Reference   string
	ExternalID  string
	AmountCents int64
}

type Provider interface {
	Name() string
	CreateIntent(ctx context.Context, intent Intent) (IntentResult, error)
	ParseWebhook(ctx context.Context, payload []byte, signature string) (WebhookEvent, error)
}

var (
	ErrUnknownGateway   = errors.New("unknown_payment_gateway")
	ErrInvalidSignature = errors.New("invalid_webhook_signature")
	ErrMalformedPayload = errors.New("malformed_webhook_payload")
	ErrGatewayRejected  = errors.New("gateway_rejected_request")
)

// Registry resolves a provider by gateway name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Registry{providers: byName}
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, ErrUnknownGateway
	}
	return p, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
