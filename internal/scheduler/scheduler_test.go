package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartcondo/condominio/internal/clock"
	commonareadomain "github.com/smartcondo/condominio/internal/commonarea/domain"
	"github.com/smartcondo/condominio/internal/config"
	quotedomain "github.com/smartcondo/condominio/internal/quote/domain"
)

type mockQuoteSvc struct {
	quotedomain.Service

	sweepCalls  []time.Time
	sweepErr    error
	batchCalls  []quotedomain.GenerateAllRequest
	batchReport quotedomain.GenerationReport
	batchErr    error
}

func (m *mockQuoteSvc) SweepOverdue(ctx context.Context, today time.Time) (int64, error) {
	m.sweepCalls = append(m.sweepCalls, today)
	return 1, m.sweepErr
}

func (m *mockQuoteSvc) GenerateForAllActive(ctx context.Context, req quotedomain.GenerateAllRequest) (quotedomain.GenerationReport, error) {
	m.batchCalls = append(m.batchCalls, req)
	return m.batchReport, m.batchErr
}

type mockAreaSvc struct {
	commonareadomain.Service

	completeCalls []time.Time
}

func (m *mockAreaSvc) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	m.completeCalls = append(m.completeCalls, now)
	return 0, nil
}

func newTestScheduler(t *testing.T, quoteSvc *mockQuoteSvc, areaSvc *mockAreaSvc, billing config.BillingConfig, clk clock.Clock) *Scheduler {
	t.Helper()
	sched, err := New(Params{
		Log:      zap.NewNop(),
		Clock:    clk,
		Billing:  config.NewStaticBillingConfigHolder(billing),
		QuoteSvc: quoteSvc,
		AreaSvc:  areaSvc,
	})
	require.NoError(t, err)
	return sched
}

func TestRunOnceRunsAllJobs(t *testing.T) {
	quoteSvc := &mockQuoteSvc{}
	areaSvc := &mockAreaSvc{}
	clk := clock.NewFakeClock(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	sched := newTestScheduler(t, quoteSvc, areaSvc, config.DefaultBillingConfig(), clk)

	require.NoError(t, sched.RunOnce(context.Background()))

	require.Len(t, quoteSvc.sweepCalls, 1)
	require.Equal(t, clk.Now(), quoteSvc.sweepCalls[0])
	require.Len(t, quoteSvc.batchCalls, 1)
	require.Equal(t, 2024, quoteSvc.batchCalls[0].Year)
	require.Len(t, areaSvc.completeCalls, 1)
}

func TestRunOnceSkipsDisabledJobs(t *testing.T) {
	quoteSvc := &mockQuoteSvc{}
	areaSvc := &mockAreaSvc{}
	billing := config.DefaultBillingConfig()
	billing.Jobs["generate_quotes"] = false
	clk := clock.NewFakeClock(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	sched := newTestScheduler(t, quoteSvc, areaSvc, billing, clk)

	require.NoError(t, sched.RunOnce(context.Background()))

	require.Len(t, quoteSvc.sweepCalls, 1)
	require.Empty(t, quoteSvc.batchCalls)
	require.Len(t, areaSvc.completeCalls, 1)
}

func TestRunOnceJobFailureDoesNotBlockOthers(t *testing.T) {
	quoteSvc := &mockQuoteSvc{sweepErr: errors.New("boom")}
	areaSvc := &mockAreaSvc{}
	clk := clock.NewFakeClock(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	sched := newTestScheduler(t, quoteSvc, areaSvc, config.DefaultBillingConfig(), clk)

	err := sched.RunOnce(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "sweep_overdue")

	// Later jobs still ran.
	require.Len(t, quoteSvc.batchCalls, 1)
	require.Len(t, areaSvc.completeCalls, 1)
}

func TestGenerateQuotesJobUsesClockYear(t *testing.T) {
	quoteSvc := &mockQuoteSvc{}
	areaSvc := &mockAreaSvc{}
	clk := clock.NewFakeClock(time.Date(2031, 1, 1, 0, 30, 0, 0, time.UTC))
	sched := newTestScheduler(t, quoteSvc, areaSvc, config.DefaultBillingConfig(), clk)

	require.NoError(t, sched.GenerateQuotesJob(context.Background()))
	require.Len(t, quoteSvc.batchCalls, 1)
	require.Equal(t, 2031, quoteSvc.batchCalls[0].Year)
}
