// Package scheduler runs the recurring billing housekeeping: the
// overdue sweep, batch quote generation, and reservation completion.
// Jobs are toggled through billing.yml and survive individual failures.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smartcondo/condominio/internal/clock"
	commonareadomain "github.com/smartcondo/condominio/internal/commonarea/domain"
	"github.com/smartcondo/condominio/internal/config"
	obsmetrics "github.com/smartcondo/condominio/internal/observability/metrics"
	quotedomain "github.com/smartcondo/condominio/internal/quote/domain"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Billing  *config.BillingConfigHolder
	QuoteSvc quotedomain.Service
	AreaSvc  commonareadomain.Service
	Config   Config `optional:"true"`
}

type Scheduler struct {
	log      *zap.Logger
	cfg      Config
	clock    clock.Clock
	billing  *config.BillingConfigHolder
	quoteSvc quotedomain.Service
	areaSvc  commonareadomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.Billing == nil || p.QuoteSvc == nil || p.AreaSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:      p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:      p.Config.withDefaults(),
		clock:    p.Clock,
		billing:  p.Billing,
		quoteSvc: p.QuoteSvc,
		areaSvc:  p.AreaSvc,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		schedMetrics.IncJobTimeout(name)
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}

	schedMetrics.IncJobError(name)
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{"sweep_overdue", s.SweepOverdueJob},
		{"generate_quotes", s.GenerateQuotesJob},
		{"complete_reservations", s.CompleteReservationsJob},
	}

	for _, job := range jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, job.Name, job.Run))
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// isJobEnabled consults billing.yml; jobs missing from the map default
// to enabled.
func (s *Scheduler) isJobEnabled(name string) bool {
	jobs := s.billing.Get().Jobs
	if jobs == nil {
		return true
	}
	enabled, ok := jobs[name]
	if !ok {
		return true
	}
	return enabled
}

func (s *Scheduler) SweepOverdueJob(ctx context.Context) error {
	swept, err := s.quoteSvc.SweepOverdue(ctx, s.clock.Now())
	if err != nil {
		return err
	}
	if swept > 0 {
		s.log.Info("overdue sweep", zap.Int64("quotes", swept))
	}
	return nil
}

// GenerateQuotesJob reruns the batch generator for the current year.
// Generation is idempotent per period, so already billed relationships
// come out as no-ops.
func (s *Scheduler) GenerateQuotesJob(ctx context.Context) error {
	now := s.clock.Now()
	report, err := s.quoteSvc.GenerateForAllActive(ctx, quotedomain.GenerateAllRequest{
		Year: now.Year(),
	})
	if err != nil {
		return err
	}

	if report.QuotesCreated > 0 || len(report.Errors) > 0 {
		s.log.Info("quote generation",
			zap.Int("residencies", report.TotalResidencies),
			zap.Int("created", report.QuotesCreated),
			zap.Int("failed", len(report.Errors)),
		)
	}
	for _, genErr := range report.Errors {
		s.log.Warn("residency skipped",
			zap.String("residency_id", genErr.ResidencyID),
			zap.String("unit", genErr.UnitCode),
			zap.String("reason", genErr.Error),
		)
	}
	return nil
}

func (s *Scheduler) CompleteReservationsJob(ctx context.Context) error {
	completed, err := s.areaSvc.CompletePast(ctx, s.clock.Now())
	if err != nil {
		return err
	}
	if completed > 0 {
		s.log.Info("reservations completed", zap.Int64("reservations", completed))
	}
	return nil
}
