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
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/smartcondo/condominio/internal/auth/domain"
	"github.com/smartcondo/condominio/internal/auth/service"
	"github.com/smartcondo/condominio/internal/clock"
	"github.com/smartcondo/condominio/internal/config"
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
	require.NoError(t, db.AutoMigrate(&userdomain.User{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC))

	svc := service.New(service.Params{
		DB:  db,
		Log: zap.NewNop(),
		Cfg: config.Config{
			AuthJWTSecret:   "test-secret",
			AuthTokenTTLMin: 60,
		},
		Clock:    fake,
		UserRepo: userrepo.Provide(),
	})

	return &fixture{db: db, node: node, clock: fake, svc: svc}
}

func (f *fixture) createUser(t *testing.T, email, password string, active bool) userdomain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := userdomain.User{
		ID:           f.node.Generate(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Ana",
		LastName:     "Torres",
		Role:         userdomain.RoleResident,
		IsActive:     active,
		CreatedAt:    f.clock.Now(),
		UpdatedAt:    f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

func TestLoginAndVerify(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "ana@example.com", "secreto123", true)

	resp, err := f.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "Ana@Example.com",
		Password: "secreto123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, int64(3600), resp.ExpiresIn)
	require.Equal(t, user.ID, resp.User.ID)

	claims, err := f.svc.Verify(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID.String(), claims.UserID)
	require.Equal(t, userdomain.RoleResident, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "ana@example.com", "secreto123", true)

	_, err := f.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "otra-cosa",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "nadie@example.com",
		Password: "x",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "ana@example.com", "secreto123", false)

	_, err := f.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "secreto123",
	})
	require.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestVerifyExpiredToken(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "ana@example.com", "secreto123", true)

	resp, err := f.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "secreto123",
	})
	require.NoError(t, err)

	f.clock.Advance(61 * time.Minute)

	_, err = f.svc.Verify(context.Background(), resp.Token)
	require.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestVerifyGarbageToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Verify(context.Background(), "not-a-token")
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}
