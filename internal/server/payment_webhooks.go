package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	commonareadomain "github.com/smartcondo/condominio/internal/commonarea/domain"
	paymentprovider "github.com/smartcondo/condominio/internal/providers/payment"
	quotedomain "github.com/smartcondo/condominio/internal/quote/domain"
)

// HandlePaymentWebhook ingests gateway notifications. Gateways retry
// deliveries, so a quote that is already paid still answers 200.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	provider, err := s.payments.Get(c.Param("gateway"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, paymentprovider.ErrMalformedPayload)
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		signature = c.GetHeader("X-Signature")
	}

	event, err := provider.ParseWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	switch event.Type {
	case paymentprovider.EventPaymentSucceeded:
		reference := event.ExternalID
		if reference == "" {
			reference = paymentprovider.NewReference(s.clock.Now())
		}

		if err := s.settlePayment(c, event.Reference, reference); err != nil {
			AbortWithError(c, err)
			return
		}

	case paymentprovider.EventPaymentFailed:
		s.log.Warn("payment failed at gateway",
			zap.String("gateway", provider.Name()),
			zap.String("reference", event.Reference),
			zap.String("external_id", event.ExternalID),
		)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// settlePayment resolves a gateway reference against quotes first and
// reservation charges second; both intents share the reference space.
func (s *Server) settlePayment(c *gin.Context, id, reference string) error {
	_, err := s.quoteSvc.MarkPaid(c.Request.Context(), quotedomain.MarkPaidRequest{
		QuoteID:   id,
		Reference: reference,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, quotedomain.ErrAlreadyPaid):
		// Retry of a delivery we already applied.
		return nil
	case errors.Is(err, quotedomain.ErrNotFound):
	default:
		return err
	}

	_, err = s.areaSvc.MarkChargePaid(c.Request.Context(), commonareadomain.MarkChargePaidRequest{
		ChargeID:  id,
		Reference: reference,
	})
	if errors.Is(err, commonareadomain.ErrChargeAlreadyPaid) {
		return nil
	}
	return err
}
