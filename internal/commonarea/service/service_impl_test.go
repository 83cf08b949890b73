package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smartcondo/condominio/internal/clock"
	"github.com/smartcondo/condominio/internal/commonarea/domain"
	"github.com/smartcondo/condominio/internal/commonarea/repository"
	"github.com/smartcondo/condominio/internal/commonarea/service"
	"github.com/smartcondo/condominio/internal/config"
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
		&domain.CommonArea{},
		&domain.GeneralRule{},
		&domain.AreaRule{},
		&domain.Reservation{},
		&domain.ReservationCharge{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC))

	svc := service.New(service.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		Billing: config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()),
		Repo:    repository.Provide(),
	})

	return &fixture{db: db, node: node, clock: fake, svc: svc}
}

func (f *fixture) createArea(t *testing.T, name string, costPerHourCents int64) domain.CommonArea {
	t.Helper()
	area, err := f.svc.CreateArea(context.Background(), domain.CreateAreaRequest{
		Name:             name,
		Capacity:         30,
		CostPerHourCents: costPerHourCents,
	})
	require.NoError(t, err)
	return area
}

func TestCreateAreaSlug(t *testing.T) {
	f := newFixture(t)

	area := f.createArea(t, "Salón de Fiestas", 2500)
	assert.Equal(t, "salon-de-fiestas", area.Slug)
	assert.True(t, area.IsReservable)
	assert.Equal(t, "06:00", area.AvailableFrom)
	assert.Equal(t, "22:00", area.AvailableTo)

	found, err := f.svc.GetAreaBySlug(context.Background(), "salon-de-fiestas")
	require.NoError(t, err)
	assert.Equal(t, area.ID, found.ID)
}

func TestReservationCost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	area := f.createArea(t, "Cancha", 2000) // 20.00/hour
	userID := f.node.Generate()

	// a Monday
	reservation, err := f.svc.RequestReservation(ctx, domain.RequestReservationRequest{
		CommonAreaID:    area.ID.String(),
		UserID:          userID.String(),
		ReservationDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
		StartTime:       "14:00",
		EndTime:         "16:30",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ReservationPending, reservation.Status)
	assert.Equal(t, 150, reservation.TotalMinutes)
	assert.Equal(t, int64(5000), reservation.TotalCostCents) // 2.5h * 20.00
}

func TestReservationSlotConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	area := f.createArea(t, "Piscina", 0)
	date := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.RequestReservation(ctx, domain.RequestReservationRequest{
		CommonAreaID:    area.ID.String(),
		UserID:          f.node.Generate().String(),
		ReservationDate: date,
		StartTime:       "10:00",
		EndTime:         "12:00",
	})
	require.NoError(t, err)

	_, err = f.svc.RequestReservation(ctx, domain.RequestReservationRequest{
		CommonAreaID:    area.ID.String(),
		UserID:          f.node.Generate().String(),
		ReservationDate: date,
		StartTime:       "11:00",
		EndTime:         "13:00",
	})
	assert.ErrorIs(t, err, domain.ErrSlotTaken)

	// an adjacent slot is fine
	_, err = f.svc.RequestReservation(ctx, domain.RequestReservationRequest{
		CommonAreaID:    area.ID.String(),
		UserID:          f.node.Generate().String(),
		ReservationDate: date,
		StartTime:       "12:00",
		EndTime:         "14:00",
	})
	assert.NoError(t, err)
}

func TestReservationOutsideWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	area := f.createArea(t, "Gimnasio", 0)

	_, err := f.svc.RequestReservation(ctx, domain.RequestReservationRequest{
		CommonAreaID:    area.ID.String(),
		UserID:          f.node.Generate().String(),
		ReservationDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
		StartTime:       "05:00",
		EndTime:         "07:00",
	})
	assert.ErrorIs(t, err, domain.ErrAreaClosed)
}

func TestApproveCreatesCharge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	area := f.createArea(t, "Salón", 3000)
	userID := f.node.Generate()
	adminID := f.node.Generate()

	reservation, err := f.svc.RequestReservation(ctx, domain.RequestReservationRequest{
		CommonAreaID:    area.ID.String(),
		UserID:          userID.String(),
		ReservationDate: time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
		StartTime:       "18:00",
		EndTime:         "21:00",
	})
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, domain.ResolveReservationRequest{
		ReservationID: reservation.ID.String(),
		ApprovedByID:  adminID.String(),
		AdminNotes:    "ok",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationApproved, approved.Status)
	require.NotNil(t, approved.ApprovedByID)
	assert.Equal(t, adminID, *approved.ApprovedByID)

	charges, err := f.svc.ListChargesByUser(ctx, userID.String())
	require.NoError(t, err)
	require.Len(t, charges, 1)
	assert.Equal(t, int64(9000), charges[0].AmountCents)
	assert.Equal(t, domain.ChargePending, charges[0].Status)
	assert.Equal(t, "Reserva Salón - 2024-06-15", charges[0].Description)

	// approving twice is rejected
	_, err = f.svc.Approve(ctx, domain.ResolveReservationRequest{
		ReservationID: reservation.ID.String(),
		ApprovedByID:  adminID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrNotPending)
}

func TestApproveFreeReservationSkipsCharge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	area := f.createArea(t, "Parque", 0)
	userID := f.node.Generate()

	reservation, err := f.svc.RequestReservation(ctx, domain.RequestReservationRequest{
		CommonAreaID:    area.ID.String(),
		UserID:          userID.String(),
		ReservationDate: time.Date(2024, time.June, 16, 0, 0, 0, 0, time.UTC),
		StartTime:       "10:00",
		EndTime:         "12:00",
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, domain.ResolveReservationRequest{
		ReservationID: reservation.ID.String(),
		ApprovedByID:  f.node.Generate().String(),
	})
	require.NoError(t, err)

	charges, err := f.svc.ListChargesByUser(ctx, userID.String())
	require.NoError(t, err)
	assert.Empty(t, charges)
}

func TestChargePaidTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	area := f.createArea(t, "Terraza", 1000)
	userID := f.node.Generate()

	reservation, err := f.svc.RequestReservation(ctx, domain.RequestReservationRequest{
		CommonAreaID:    area.ID.String(),
		UserID:          userID.String(),
		ReservationDate: time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC),
		StartTime:       "10:00",
		EndTime:         "11:00",
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, domain.ResolveReservationRequest{
		ReservationID: reservation.ID.String(),
		ApprovedByID:  f.node.Generate().String(),
	})
	require.NoError(t, err)

	charges, err := f.svc.ListChargesByUser(ctx, userID.String())
	require.NoError(t, err)
	require.Len(t, charges, 1)

	paid, err := f.svc.MarkChargePaid(ctx, domain.MarkChargePaidRequest{
		ChargeID:  charges[0].ID.String(),
		Reference: "PAY-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ChargePaid, paid.Status)

	_, err = f.svc.MarkChargePaid(ctx, domain.MarkChargePaidRequest{
		ChargeID:  charges[0].ID.String(),
		Reference: "PAY-2",
	})
	assert.ErrorIs(t, err, domain.ErrChargeAlreadyPaid)
}

func TestCompletePast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	area := f.createArea(t, "Quincho", 0)
	userID := f.node.Generate()

	reservation, err := f.svc.RequestReservation(ctx, domain.RequestReservationRequest{
		CommonAreaID:    area.ID.String(),
		UserID:          userID.String(),
		ReservationDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
		StartTime:       "10:00",
		EndTime:         "12:00",
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, domain.ResolveReservationRequest{
		ReservationID: reservation.ID.String(),
		ApprovedByID:  f.node.Generate().String(),
	})
	require.NoError(t, err)

	// nothing to close while the slot is in the future
	count, err := f.svc.CompletePast(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	f.clock.Set(time.Date(2024, time.June, 11, 8, 0, 0, 0, time.UTC))
	count, err = f.svc.CompletePast(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = f.svc.CompletePast(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	closed, err := f.svc.GetReservation(ctx, reservation.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCompleted, closed.Status)
}

func TestCancelOnlyByRequester(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	area := f.createArea(t, "Sauna", 0)
	userID := f.node.Generate()

	reservation, err := f.svc.RequestReservation(ctx, domain.RequestReservationRequest{
		CommonAreaID:    area.ID.String(),
		UserID:          userID.String(),
		ReservationDate: time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC),
		StartTime:       "09:00",
		EndTime:         "10:00",
	})
	require.NoError(t, err)

	_, err = f.svc.CancelReservation(ctx, reservation.ID.String(), f.node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotRequester)

	cancelled, err := f.svc.CancelReservation(ctx, reservation.ID.String(), userID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCancelled, cancelled.Status)
}
