package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	authdomain "github.com/smartcondo/condominio/internal/auth/domain"
	"github.com/smartcondo/condominio/internal/clock"
	commonareadomain "github.com/smartcondo/condominio/internal/commonarea/domain"
	"github.com/smartcondo/condominio/internal/config"
	paymentprovider "github.com/smartcondo/condominio/internal/providers/payment"
	quotedomain "github.com/smartcondo/condominio/internal/quote/domain"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
)

type stubAuthSvc struct {
	claims authdomain.Claims
	err    error
}

func (s *stubAuthSvc) Login(context.Context, authdomain.LoginRequest) (authdomain.LoginResponse, error) {
	return authdomain.LoginResponse{}, authdomain.ErrInvalidCredentials
}

func (s *stubAuthSvc) Verify(context.Context, string) (authdomain.Claims, error) {
	return s.claims, s.err
}

type allowAllAuthz struct{}

func (allowAllAuthz) Can(context.Context, userdomain.Role, string, string) (bool, error) {
	return true, nil
}

type stubQuoteSvc struct {
	quotedomain.Service

	markPaidReqs []quotedomain.MarkPaidRequest
	markPaidErr  error
}

func (s *stubQuoteSvc) MarkPaid(_ context.Context, req quotedomain.MarkPaidRequest) (quotedomain.Quote, error) {
	s.markPaidReqs = append(s.markPaidReqs, req)
	if s.markPaidErr != nil {
		return quotedomain.Quote{}, s.markPaidErr
	}
	return quotedomain.Quote{Status: quotedomain.StatusPaid}, nil
}

type stubAreaSvc struct {
	commonareadomain.Service

	chargePaidReqs []commonareadomain.MarkChargePaidRequest
	chargePaidErr  error
}

func (s *stubAreaSvc) MarkChargePaid(_ context.Context, req commonareadomain.MarkChargePaidRequest) (commonareadomain.ReservationCharge, error) {
	s.chargePaidReqs = append(s.chargePaidReqs, req)
	if s.chargePaidErr != nil {
		return commonareadomain.ReservationCharge{}, s.chargePaidErr
	}
	return commonareadomain.ReservationCharge{Status: commonareadomain.ChargePaid}, nil
}

type stubGateway struct {
	name  string
	event paymentprovider.WebhookEvent
	err   error
}

func (g *stubGateway) Name() string { return g.name }

func (g *stubGateway) CreateIntent(context.Context, paymentprovider.Intent) (paymentprovider.IntentResult, error) {
	return paymentprovider.IntentResult{}, nil
}

func (g *stubGateway) ParseWebhook(context.Context, []byte, string) (paymentprovider.WebhookEvent, error) {
	if g.err != nil {
		return paymentprovider.WebhookEvent{}, g.err
	}
	return g.event, nil
}

func newTestServer(t *testing.T, quoteSvc *stubQuoteSvc, areaSvc *stubAreaSvc, gateway paymentprovider.Provider) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	registry := paymentprovider.NewRegistry()
	if gateway != nil {
		registry = paymentprovider.NewRegistry(gateway)
	}
	if areaSvc == nil {
		areaSvc = &stubAreaSvc{}
	}

	return NewServer(ServerParams{
		Gin:      engine,
		Cfg:      config.Config{CondoName: "Residencial Test"},
		Clock:    clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
		Log:      zap.NewNop(),
		AuthSvc:  &stubAuthSvc{err: authdomain.ErrInvalidToken},
		AuthzSvc: allowAllAuthz{},
		QuoteSvc: quoteSvc,
		AreaSvc:  areaSvc,
		Payments: registry,
	})
}

func TestPaymentWebhookMarksQuotePaid(t *testing.T) {
	quoteSvc := &stubQuoteSvc{}
	gateway := &stubGateway{
		name: "stripe",
		event: paymentprovider.WebhookEvent{
			Type:       paymentprovider.EventPaymentSucceeded,
			Reference:  "123456789",
			ExternalID: "pi_abc",
		},
	}
	srv := newTestServer(t, quoteSvc, nil, gateway)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments/stripe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, quoteSvc.markPaidReqs, 1)
	require.Equal(t, "123456789", quoteSvc.markPaidReqs[0].QuoteID)
	require.Equal(t, "pi_abc", quoteSvc.markPaidReqs[0].Reference)
}

func TestPaymentWebhookRetryOfPaidQuoteStillOK(t *testing.T) {
	quoteSvc := &stubQuoteSvc{markPaidErr: quotedomain.ErrAlreadyPaid}
	gateway := &stubGateway{
		name: "stripe",
		event: paymentprovider.WebhookEvent{
			Type:      paymentprovider.EventPaymentSucceeded,
			Reference: "123456789",
		},
	}
	srv := newTestServer(t, quoteSvc, nil, gateway)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments/stripe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPaymentWebhookFallsBackToReservationCharge(t *testing.T) {
	quoteSvc := &stubQuoteSvc{markPaidErr: quotedomain.ErrNotFound}
	areaSvc := &stubAreaSvc{}
	gateway := &stubGateway{
		name: "stripe",
		event: paymentprovider.WebhookEvent{
			Type:       paymentprovider.EventPaymentSucceeded,
			Reference:  "987654321",
			ExternalID: "pi_def",
		},
	}
	srv := newTestServer(t, quoteSvc, areaSvc, gateway)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments/stripe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, areaSvc.chargePaidReqs, 1)
	require.Equal(t, "987654321", areaSvc.chargePaidReqs[0].ChargeID)
	require.Equal(t, "pi_def", areaSvc.chargePaidReqs[0].Reference)
}

func TestPaymentWebhookUnknownGateway(t *testing.T) {
	srv := newTestServer(t, &stubQuoteSvc{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments/nope", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentWebhookBadSignature(t *testing.T) {
	gateway := &stubGateway{name: "stripe", err: paymentprovider.ErrInvalidSignature}
	srv := newTestServer(t, &stubQuoteSvc{}, nil, gateway)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments/stripe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	srv := newTestServer(t, &stubQuoteSvc{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", quotedomain.ErrNotFound, http.StatusNotFound},
		{"already paid", quotedomain.ErrAlreadyPaid, http.StatusConflict},
		{"period billed", quotedomain.ErrPeriodAlreadyBilled, http.StatusConflict},
		{"validation", quotedomain.ErrInvalidMonthRange, http.StatusBadRequest},
		{"unauthorized", authdomain.ErrTokenExpired, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"rate limited", ErrTooManyRequests, http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := mapError(tc.err)
			require.Equal(t, tc.status, status)
		})
	}
}
