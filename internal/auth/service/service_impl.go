package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/smartcondo/condominio/internal/auth/domain"
	"github.com/smartcondo/condominio/internal/clock"
	"github.com/smartcondo/condominio/internal/config"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	Clock    clock.Clock
	UserRepo userdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	userRepo userdomain.Repository

	secret   []byte
	tokenTTL time.Duration
}

func New(p Params) domain.Service {
	ttl := time.Duration(p.Cfg.AuthTokenTTLMin) * time.Minute
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("auth.service"),
		clock:    p.Clock,
		userRepo: p.UserRepo,
		secret:   []byte(p.Cfg.AuthJWTSecret),
		tokenTTL: ttl,
	}
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if user == nil {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return domain.LoginResponse{}, domain.ErrUserInactive
	}

	now := s.clock.Now()
	claims := tokenClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	s.log.Info("login", zap.String("user_id", user.ID.String()))
	return domain.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.tokenTTL.Seconds()),
		User:      *user,
	}, nil
}

func (s *Service) Verify(ctx context.Context, raw string) (domain.Claims, error) {
	_ = ctx
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Claims{}, domain.ErrInvalidToken
	}

	// Claims validation is skipped at parse time so expiry runs
	// against the injected clock instead of the package-global
	// jwt.TimeFunc.
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid || claims.Subject == "" {
		return domain.Claims{}, domain.ErrInvalidToken
	}
	if claims.ExpiresAt == nil || !s.clock.Now().Before(claims.ExpiresAt.Time) {
		return domain.Claims{}, domain.ErrTokenExpired
	}
	if claims.NotBefore != nil && s.clock.Now().Before(claims.NotBefore.Time) {
		return domain.Claims{}, domain.ErrInvalidToken
	}

	role := userdomain.Role(claims.Role)
	if !role.Valid() {
		return domain.Claims{}, domain.ErrInvalidToken
	}

	return domain.Claims{UserID: claims.Subject, Role: role}, nil
}
