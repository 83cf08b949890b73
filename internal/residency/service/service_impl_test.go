package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/smartcondo/condominio/internal/clock"
	quotedomain "github.com/smartcondo/condominio/internal/quote/domain"
	"github.com/smartcondo/condominio/internal/residency/domain"
	"github.com/smartcondo/condominio/internal/residency/repository"
	"github.com/smartcondo/condominio/internal/residency/service"
	unitdomain "github.com/smartcondo/condominio/internal/unit/domain"
	unitrepo "github.com/smartcondo/condominio/internal/unit/repository"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
	userrepo "github.com/smartcondo/condominio/internal/user/repository"
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
		&domain.Residency{},
		&quotedomain.Quote{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, time.February, 1, 8, 0, 0, 0, time.UTC))

	svc := service.New(service.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Repo:     repository.Provide(),
		UnitRepo: unitrepo.Provide(),
		UserRepo: userrepo.Provide(),
	})

	return &fixture{db: db, node: node, clock: fake, svc: svc}
}

func (f *fixture) createUser(t *testing.T, role userdomain.Role) userdomain.User {
	t.Helper()
	user := userdomain.User{
		ID:        f.node.Generate(),
		Email:     fmt.Sprintf("u%s@example.com", f.node.Generate()),
		FirstName: "Carlos",
		LastName:  "Mendez",
		Role:      role,
		IsActive:  true,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

func (f *fixture) createUnit(t *testing.T) unitdomain.Unit {
	t.Helper()
	unit := unitdomain.Unit{
		ID:             f.node.Generate(),
		Code:           fmt.Sprintf("A-%s", f.node.Generate()),
		BasePriceCents: 500_000,
		IsActive:       true,
		CreatedAt:      f.clock.Now(),
		UpdatedAt:      f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&unit).Error)
	return unit
}

func createReq(unit unitdomain.Unit, user userdomain.User, kind domain.Kind) domain.CreateResidencyRequest {
	return domain.CreateResidencyRequest{
		UnitID:    unit.ID.String(),
		UserID:    user.ID.String(),
		Kind:      kind,
		StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateResidency(t *testing.T) {
	f := newFixture(t)
	unit := f.createUnit(t)
	owner := f.createUser(t, userdomain.RoleOwner)

	req := createReq(unit, owner, domain.KindOwner)
	req.IsPrincipal = true

	created, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, domain.KindOwner, created.Kind)
	require.True(t, created.IsPrincipal)
	require.True(t, created.IsActive)
	require.Equal(t, int64(500_000), created.AmountCents())
}

func TestCreateResidencyKindRoleMismatch(t *testing.T) {
	f := newFixture(t)
	unit := f.createUnit(t)
	resident := f.createUser(t, userdomain.RoleResident)

	_, err := f.svc.Create(context.Background(), createReq(unit, resident, domain.KindOwner))
	require.ErrorIs(t, err, domain.ErrKindRoleMismatch)

	owner := f.createUser(t, userdomain.RoleOwner)
	_, err = f.svc.Create(context.Background(), createReq(unit, owner, domain.KindTenant))
	require.ErrorIs(t, err, domain.ErrKindRoleMismatch)
}

func TestCreateResidencySecondPrincipalRejected(t *testing.T) {
	f := newFixture(t)
	unit := f.createUnit(t)
	owner := f.createUser(t, userdomain.RoleOwner)
	coOwner := f.createUser(t, userdomain.RoleOwner)

	first := createReq(unit, owner, domain.KindOwner)
	first.IsPrincipal = true
	_, err := f.svc.Create(context.Background(), first)
	require.NoError(t, err)

	second := createReq(unit, coOwner, domain.KindOwner)
	second.IsPrincipal = true
	_, err = f.svc.Create(context.Background(), second)
	require.ErrorIs(t, err, domain.ErrPrincipalTaken)
}

func TestCreateResidencyKindConflict(t *testing.T) {
	f := newFixture(t)
	unit := f.createUnit(t)
	owner := f.createUser(t, userdomain.RoleOwner)
	tenant := f.createUser(t, userdomain.RoleResident)

	_, err := f.svc.Create(context.Background(), createReq(unit, owner, domain.KindOwner))
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), createReq(unit, tenant, domain.KindTenant))
	require.ErrorIs(t, err, domain.ErrKindConflict)
}

func TestCreateResidencyDuplicateUserInUnit(t *testing.T) {
	f := newFixture(t)
	unit := f.createUnit(t)
	owner := f.createUser(t, userdomain.RoleOwner)

	_, err := f.svc.Create(context.Background(), createReq(unit, owner, domain.KindOwner))
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), createReq(unit, owner, domain.KindOwner))
	require.ErrorIs(t, err, domain.ErrAlreadyResident)
}

func TestCreateResidencyResponsibilityOverride(t *testing.T) {
	f := newFixture(t)
	unit := f.createUnit(t)
	tenant := f.createUser(t, userdomain.RoleResident)

	override := int64(320_000)
	req := createReq(unit, tenant, domain.KindTenant)
	req.IsPrincipal = true
	req.ResponsibilityCents = &override

	created, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, override, created.AmountCents())
}

func TestCreateResidencyResponsibilityRequiresPrincipal(t *testing.T) {
	f := newFixture(t)
	unit := f.createUnit(t)
	tenant := f.createUser(t, userdomain.RoleResident)

	override := int64(320_000)
	req := createReq(unit, tenant, domain.KindTenant)
	req.ResponsibilityCents = &override

	_, err := f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrNotPrincipal)
}

func TestCreateResidencyInvalidDates(t *testing.T) {
	f := newFixture(t)
	unit := f.createUnit(t)
	owner := f.createUser(t, userdomain.RoleOwner)

	req := createReq(unit, owner, domain.KindOwner)
	end := req.StartDate.AddDate(0, -1, 0)
	req.EndDate = &end

	_, err := f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrInvalidDates)
}

func TestDeleteResidencyWithOutstandingQuotes(t *testing.T) {
	f := newFixture(t)
	unit := f.createUnit(t)
	owner := f.createUser(t, userdomain.RoleOwner)

	created, err := f.svc.Create(context.Background(), createReq(unit, owner, domain.KindOwner))
	require.NoError(t, err)

	quote := quotedomain.Quote{
		ID:          f.node.Generate(),
		ResidencyID: created.ID,
		AmountCents: 500_000,
		DueDate:     time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
		Status:      quotedomain.StatusPending,
		PeriodYear:  2024,
		CreatedAt:   f.clock.Now(),
		UpdatedAt:   f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&quote).Error)

	err = f.svc.Delete(context.Background(), created.ID.String())
	require.ErrorIs(t, err, domain.ErrOutstandingQuotes)

	require.NoError(t, f.db.Model(&quotedomain.Quote{}).
		Where("id = ?", quote.ID).
		Update("status", quotedomain.StatusCancelled).Error)

	require.NoError(t, f.svc.Delete(context.Background(), created.ID.String()))
}

func TestUpdateResidencyPromoteToPrincipal(t *testing.T) {
	f := newFixture(t)
	unit := f.createUnit(t)
	owner := f.createUser(t, userdomain.RoleOwner)
	coOwner := f.createUser(t, userdomain.RoleOwner)

	first := createReq(unit, owner, domain.KindOwner)
	first.IsPrincipal = true
	principal, err := f.svc.Create(context.Background(), first)
	require.NoError(t, err)

	secondary, err := f.svc.Create(context.Background(), createReq(unit, coOwner, domain.KindOwner))
	require.NoError(t, err)

	makePrincipal := true
	_, err = f.svc.Update(context.Background(), domain.UpdateResidencyRequest{
		ID:          secondary.ID.String(),
		IsPrincipal: &makePrincipal,
	})
	require.ErrorIs(t, err, domain.ErrPrincipalTaken)

	// Demote the current principal, then the promotion goes through.
	demote := false
	_, err = f.svc.Update(context.Background(), domain.UpdateResidencyRequest{
		ID:          principal.ID.String(),
		IsPrincipal: &demote,
	})
	require.NoError(t, err)

	updated, err := f.svc.Update(context.Background(), domain.UpdateResidencyRequest{
		ID:          secondary.ID.String(),
		IsPrincipal: &makePrincipal,
	})
	require.NoError(t, err)
	require.True(t, updated.IsPrincipal)
}

func TestUpdateResidencyDemotionClearsResponsibility(t *testing.T) {
	f := newFixture(t)
	unit := f.createUnit(t)
	tenant := f.createUser(t, userdomain.RoleResident)

	override := int64(320_000)
	req := createReq(unit, tenant, domain.KindTenant)
	req.IsPrincipal = true
	req.ResponsibilityCents = &override
	created, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	demote := false
	updated, err := f.svc.Update(context.Background(), domain.UpdateResidencyRequest{
		ID:          created.ID.String(),
		IsPrincipal: &demote,
	})
	require.NoError(t, err)
	require.False(t, updated.IsPrincipal)
	require.Nil(t, updated.ResponsibilityCents)

	// and it cannot be reattached while non-principal
	_, err = f.svc.Update(context.Background(), domain.UpdateResidencyRequest{
		ID:                  created.ID.String(),
		ResponsibilityCents: &override,
	})
	require.ErrorIs(t, err, domain.ErrNotPrincipal)
}
