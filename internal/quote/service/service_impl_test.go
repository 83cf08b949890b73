package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smartcondo/condominio/internal/clock"
	"github.com/smartcondo/condominio/internal/config"
	"github.com/smartcondo/condominio/internal/quote/domain"
	"github.com/smartcondo/condominio/internal/quote/repository"
	"github.com/smartcondo/condominio/internal/quote/service"
	residencydomain "github.com/smartcondo/condominio/internal/residency/domain"
	residencyrepo "github.com/smartcondo/condominio/internal/residency/repository"
	unitdomain "github.com/smartcondo/condominio/internal/unit/domain"
	unitrepo "github.com/smartcondo/condominio/internal/unit/repository"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
	userrepo "github.com/smartcondo/condominio/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   domain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&unitdomain.Unit{},
		&residencydomain.Residency{},
		&domain.PaymentMethod{},
		&domain.Quote{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC))

	svc := service.New(service.Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         fake,
		Billing:       config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()),
		Repo:          repository.Provide(),
		ResidencyRepo: residencyrepo.Provide(),
		UnitRepo:      unitrepo.Provide(),
		UserRepo:      userrepo.Provide(),
	})

	return &fixture{db: db, node: node, clock: fake, svc: svc}
}

func (f *fixture) createUser(t *testing.T, role userdomain.Role) userdomain.User {
	t.Helper()
	user := userdomain.User{
		ID:        f.node.Generate(),
		Email:     fmt.Sprintf("u%s@example.com", f.node.Generate()),
		FirstName: "Maria",
		LastName:  "Lopez",
		Role:      role,
		IsActive:  true,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

func (f *fixture) createUnit(t *testing.T, code string, basePriceCents int64) unitdomain.Unit {
	t.Helper()
	unit := unitdomain.Unit{
		ID:             f.node.Generate(),
		Code:           code,
		BasePriceCents: basePriceCents,
		IsActive:       true,
		CreatedAt:      f.clock.Now(),
		UpdatedAt:      f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&unit).Error)
	return unit
}

func (f *fixture) createResidency(t *testing.T, unit unitdomain.Unit, user userdomain.User, kind residencydomain.Kind) residencydomain.Residency {
	t.Helper()
	residency := residencydomain.Residency{
		ID:          f.node.Generate(),
		UnitID:      unit.ID,
		UserID:      user.ID,
		Kind:        kind,
		IsPrincipal: true,
		StartDate:   time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
		CreatedAt:   f.clock.Now(),
		UpdatedAt:   f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&residency).Error)
	return residency
}

func TestGenerateOwnerCadence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "A-101", 120000)
	owner := f.createUser(t, userdomain.RoleOwner)
	residency := f.createResidency(t, unit, owner, residencydomain.KindOwner)

	quotes, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
	})
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	quote := quotes[0]
	assert.Nil(t, quote.PeriodMonth)
	assert.Equal(t, 2024, quote.PeriodYear)
	assert.Equal(t, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), quote.DueDate)
	assert.Equal(t, int64(120000), quote.AmountCents)
	assert.Equal(t, domain.StatusPending, quote.Status)
	assert.True(t, quote.IsAutomatic)
	assert.Equal(t, "Cuota anual 2024 - Vivienda A-101", quote.Description)
}

func TestGenerateOwnerIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "A-102", 120000)
	owner := f.createUser(t, userdomain.RoleOwner)
	residency := f.createResidency(t, unit, owner, residencydomain.KindOwner)

	first, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
	})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)

	var count int64
	require.NoError(t, f.db.Model(&domain.Quote{}).
		Where("residency_id = ?", residency.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGenerateTenantCadence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "B-201", 50000)
	tenant := f.createUser(t, userdomain.RoleResident)
	residency := f.createResidency(t, unit, tenant, residencydomain.KindTenant)

	quotes, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
		StartMonth:  3,
		EndMonth:    6,
	})
	require.NoError(t, err)
	require.Len(t, quotes, 4)

	wantDue := map[int]time.Time{
		3: time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		4: time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC),
		5: time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC),
		6: time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
	}
	for i, quote := range quotes {
		require.NotNil(t, quote.PeriodMonth)
		assert.Equal(t, i+3, *quote.PeriodMonth)
		assert.Equal(t, wantDue[*quote.PeriodMonth], quote.DueDate)
		assert.Equal(t, int64(50000), quote.AmountCents)
		assert.Equal(t, domain.StatusPending, quote.Status)
	}
	assert.Equal(t, "Renta Marzo 2024 - Vivienda B-201", quotes[0].Description)
}

func TestGenerateTenantIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "B-202", 50000)
	tenant := f.createUser(t, userdomain.RoleResident)
	residency := f.createResidency(t, unit, tenant, residencydomain.KindTenant)

	req := domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
		StartMonth:  3,
		EndMonth:    6,
	}

	first, err := f.svc.GenerateForResidency(ctx, req)
	require.NoError(t, err)
	require.Len(t, first, 4)

	second, err := f.svc.GenerateForResidency(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, second)

	// widening the range only fills the uncovered months
	third, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
		StartMonth:  1,
		EndMonth:    7,
	})
	require.NoError(t, err)
	require.Len(t, third, 3)

	var count int64
	require.NoError(t, f.db.Model(&domain.Quote{}).
		Where("residency_id = ?", residency.ID).Count(&count).Error)
	assert.Equal(t, int64(7), count)
}

func TestGenerateLeapYearBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "C-301", 50000)
	tenant := f.createUser(t, userdomain.RoleResident)
	residency := f.createResidency(t, unit, tenant, residencydomain.KindTenant)

	leap, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
		StartMonth:  2,
		EndMonth:    2,
	})
	require.NoError(t, err)
	require.Len(t, leap, 1)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), leap[0].DueDate)

	plain, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2023,
		StartMonth:  2,
		EndMonth:    2,
	})
	require.NoError(t, err)
	require.Len(t, plain, 1)
	assert.Equal(t, time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC), plain[0].DueDate)
}

func TestGenerateResponsibilityOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "C-302", 50000)
	tenant := f.createUser(t, userdomain.RoleResident)
	residency := f.createResidency(t, unit, tenant, residencydomain.KindTenant)

	override := int64(75000)
	residency.ResponsibilityCents = &override
	require.NoError(t, f.db.Save(&residency).Error)

	quotes, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
		StartMonth:  1,
		EndMonth:    1,
	})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, override, quotes[0].AmountCents)
}

func TestGenerateRejectsZeroAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "C-303", 0)
	tenant := f.createUser(t, userdomain.RoleResident)
	residency := f.createResidency(t, unit, tenant, residencydomain.KindTenant)

	_, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestGenerateInvalidMonthRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "C-304", 50000)
	tenant := f.createUser(t, userdomain.RoleResident)
	residency := f.createResidency(t, unit, tenant, residencydomain.KindTenant)

	_, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
		StartMonth:  8,
		EndMonth:    3,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMonthRange)
}

func TestGenerateForAllActivePartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	goodUnit1 := f.createUnit(t, "D-401", 120000)
	badUnit := f.createUnit(t, "D-402", 0) // resolves to a zero amount
	goodUnit2 := f.createUnit(t, "D-403", 50000)

	owner := f.createUser(t, userdomain.RoleOwner)
	badTenant := f.createUser(t, userdomain.RoleResident)
	tenant := f.createUser(t, userdomain.RoleResident)

	r1 := f.createResidency(t, goodUnit1, owner, residencydomain.KindOwner)
	r2 := f.createResidency(t, badUnit, badTenant, residencydomain.KindTenant)
	r3 := f.createResidency(t, goodUnit2, tenant, residencydomain.KindTenant)

	report, err := f.svc.GenerateForAllActive(ctx, domain.GenerateAllRequest{Year: 2024})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalResidencies)
	assert.Equal(t, 13, report.QuotesCreated) // 1 annual + 12 monthly
	assert.Equal(t, 1, report.OwnersProcessed)
	assert.Equal(t, 1, report.TenantsProcessed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, r2.ID.String(), report.Errors[0].ResidencyID)
	assert.Equal(t, "D-402", report.Errors[0].UnitCode)

	var count int64
	require.NoError(t, f.db.Model(&domain.Quote{}).
		Where("residency_id = ?", r1.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, f.db.Model(&domain.Quote{}).
		Where("residency_id = ?", r2.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	require.NoError(t, f.db.Model(&domain.Quote{}).
		Where("residency_id = ?", r3.ID).Count(&count).Error)
	assert.Equal(t, int64(12), count)
}

func TestGenerateForAllActiveSkipsInactiveUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	activeUnit := f.createUnit(t, "E-501", 50000)
	inactiveUnit := f.createUnit(t, "E-502", 50000)
	inactiveUnit.IsActive = false
	require.NoError(t, f.db.Save(&inactiveUnit).Error)

	tenant1 := f.createUser(t, userdomain.RoleResident)
	tenant2 := f.createUser(t, userdomain.RoleResident)
	f.createResidency(t, activeUnit, tenant1, residencydomain.KindTenant)
	f.createResidency(t, inactiveUnit, tenant2, residencydomain.KindTenant)

	report, err := f.svc.GenerateForAllActive(ctx, domain.GenerateAllRequest{
		Year:       2024,
		StartMonth: 1,
		EndMonth:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalResidencies)
	assert.Equal(t, 3, report.QuotesCreated)
	assert.Empty(t, report.Errors)
}

func TestSweepOverdueIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "F-601", 50000)
	tenant := f.createUser(t, userdomain.RoleResident)
	residency := f.createResidency(t, unit, tenant, residencydomain.KindTenant)

	quotes, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
		StartMonth:  1,
		EndMonth:    2,
	})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	// past January's due date, February still open
	f.clock.Set(time.Date(2024, time.February, 10, 9, 0, 0, 0, time.UTC))

	count, err := f.svc.SweepOverdue(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = f.svc.SweepOverdue(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	swept, err := f.svc.GetByID(ctx, quotes[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOverdue, swept.Status)

	open, err := f.svc.GetByID(ctx, quotes[1].ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, open.Status)
}

func TestSweepNotOverdueOnDueDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "F-602", 50000)
	tenant := f.createUser(t, userdomain.RoleResident)
	residency := f.createResidency(t, unit, tenant, residencydomain.KindTenant)

	_, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
		StartMonth:  1,
		EndMonth:    1,
	})
	require.NoError(t, err)

	// due date itself is not past due
	count, err := f.svc.SweepOverdue(ctx, time.Date(2024, time.January, 31, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMarkPaidTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "G-701", 120000)
	owner := f.createUser(t, userdomain.RoleOwner)
	residency := f.createResidency(t, unit, owner, residencydomain.KindOwner)

	method, err := f.svc.CreatePaymentMethod(ctx, domain.CreatePaymentMethodRequest{Name: "Transferencia"})
	require.NoError(t, err)

	quotes, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
	})
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	paid, err := f.svc.MarkPaid(ctx, domain.MarkPaidRequest{
		QuoteID:         quotes[0].ID.String(),
		PaymentMethodID: method.ID.String(),
		Reference:       "TRX-001",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, "TRX-001", paid.PaymentReference)

	_, err = f.svc.MarkPaid(ctx, domain.MarkPaidRequest{
		QuoteID:         quotes[0].ID.String(),
		PaymentMethodID: method.ID.String(),
		Reference:       "TRX-002",
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)

	// the original payment record survives the duplicate confirmation
	kept, err := f.svc.GetByID(ctx, quotes[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, "TRX-001", kept.PaymentReference)
	require.NotNil(t, kept.PaidDate)
	assert.Equal(t, paid.PaidDate.Unix(), kept.PaidDate.Unix())
}

func TestMarkPaidWithoutMethod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "G-703", 120000)
	owner := f.createUser(t, userdomain.RoleOwner)
	residency := f.createResidency(t, unit, owner, residencydomain.KindOwner)

	quotes, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
	})
	require.NoError(t, err)

	// gateway confirmations carry only a reference
	paid, err := f.svc.MarkPaid(ctx, domain.MarkPaidRequest{
		QuoteID:   quotes[0].ID.String(),
		Reference: "pi_3ABC",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	assert.Nil(t, paid.PaymentMethodID)
	assert.Equal(t, "gateway", paid.PaymentData["method"])
}

func TestMarkPaidCancelledQuoteRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "G-704", 120000)
	owner := f.createUser(t, userdomain.RoleOwner)
	residency := f.createResidency(t, unit, owner, residencydomain.KindOwner)

	quotes, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, quotes[0].ID.String())
	require.NoError(t, err)

	_, err = f.svc.MarkPaid(ctx, domain.MarkPaidRequest{
		QuoteID:   quotes[0].ID.String(),
		Reference: "TRX-009",
	})
	assert.ErrorIs(t, err, domain.ErrQuoteCancelled)
}

func TestCancelPaidQuoteRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "G-702", 120000)
	owner := f.createUser(t, userdomain.RoleOwner)
	residency := f.createResidency(t, unit, owner, residencydomain.KindOwner)

	method, err := f.svc.CreatePaymentMethod(ctx, domain.CreatePaymentMethodRequest{Name: "Efectivo"})
	require.NoError(t, err)

	quotes, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
	})
	require.NoError(t, err)

	_, err = f.svc.MarkPaid(ctx, domain.MarkPaidRequest{
		QuoteID:         quotes[0].ID.String(),
		PaymentMethodID: method.ID.String(),
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, quotes[0].ID.String())
	assert.ErrorIs(t, err, domain.ErrNotCancellable)
}

func TestSummarize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "H-801", 50000)
	tenant := f.createUser(t, userdomain.RoleResident)
	residency := f.createResidency(t, unit, tenant, residencydomain.KindTenant)

	method, err := f.svc.CreatePaymentMethod(ctx, domain.CreatePaymentMethodRequest{Name: "Tarjeta"})
	require.NoError(t, err)

	quotes, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
		StartMonth:  1,
		EndMonth:    4,
	})
	require.NoError(t, err)
	require.Len(t, quotes, 4)

	_, err = f.svc.MarkPaid(ctx, domain.MarkPaidRequest{
		QuoteID:         quotes[0].ID.String(),
		PaymentMethodID: method.ID.String(),
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, quotes[3].ID.String())
	require.NoError(t, err)

	// February becomes overdue, March stays pending, January is already paid
	f.clock.Set(time.Date(2024, time.March, 5, 8, 0, 0, 0, time.UTC))
	count, err := f.svc.SweepOverdue(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	summary, err := f.svc.Summarize(ctx, domain.SummaryRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
	})
	require.NoError(t, err)

	assert.Equal(t, 2024, summary.Year)
	assert.Equal(t, int64(4), summary.TotalQuotes)
	assert.Equal(t, int64(1), summary.PaidQuotes)
	assert.Equal(t, int64(1), summary.PendingQuotes)
	assert.Equal(t, int64(1), summary.OverdueQuotes)
	assert.Equal(t, int64(1), summary.CancelledQuotes)
	assert.Equal(t, int64(200000), summary.TotalAmountCents)
	assert.Equal(t, int64(50000), summary.PaidAmountCents)
	assert.Equal(t, "H-801", summary.UnitCode)
	assert.Equal(t, "Maria Lopez", summary.UserName)
	assert.Equal(t, summary.TotalQuotes,
		summary.PendingQuotes+summary.PaidQuotes+summary.OverdueQuotes+summary.CancelledQuotes)
}

func TestManualCreateDuplicatePeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "H-802", 50000)
	tenant := f.createUser(t, userdomain.RoleResident)
	residency := f.createResidency(t, unit, tenant, residencydomain.KindTenant)

	month := 5
	first, err := f.svc.Create(ctx, domain.CreateQuoteRequest{
		ResidencyID: residency.ID.String(),
		AmountCents: 30000,
		Description: "Cuota extraordinaria",
		DueDate:     time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC),
		PeriodMonth: &month,
		PeriodYear:  2024,
	})
	require.NoError(t, err)
	assert.False(t, first.IsAutomatic)

	// the engine skips the manually billed month
	quotes, err := f.svc.GenerateForResidency(ctx, domain.GenerateRequest{
		ResidencyID: residency.ID.String(),
		Year:        2024,
		StartMonth:  5,
		EndMonth:    5,
	})
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestDeletePaymentMethodInUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.createUnit(t, "H-803", 50000)
	tenant := f.createUser(t, userdomain.RoleResident)
	f.createResidency(t, unit, tenant, residencydomain.KindTenant)

	method, err := f.svc.CreatePaymentMethod(ctx, domain.CreatePaymentMethodRequest{Name: "Cheque"})
	require.NoError(t, err)

	_, err = f.svc.GenerateForAllActive(ctx, domain.GenerateAllRequest{
		PaymentMethodID: method.ID.String(),
		Year:            2024,
		StartMonth:      1,
		EndMonth:        1,
	})
	require.NoError(t, err)

	err = f.svc.DeletePaymentMethod(ctx, method.ID.String())
	assert.ErrorIs(t, err, domain.ErrPaymentMethodInUse)
}
