// Package server wires the HTTP surface: gin engine, middleware chain,
// and the route table for every aggregate.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smartcondo/condominio/internal/auth"
	authdomain "github.com/smartcondo/condominio/internal/auth/domain"
	"github.com/smartcondo/condominio/internal/authorization"
	"github.com/smartcondo/condominio/internal/clock"
	"github.com/smartcondo/condominio/internal/commonarea"
	commonareadomain "github.com/smartcondo/condominio/internal/commonarea/domain"
	"github.com/smartcondo/condominio/internal/config"
	"github.com/smartcondo/condominio/internal/observability"
	obslogger "github.com/smartcondo/condominio/internal/observability/logger"
	obsmetrics "github.com/smartcondo/condominio/internal/observability/metrics"
	obstracing "github.com/smartcondo/condominio/internal/observability/tracing"
	"github.com/smartcondo/condominio/internal/pet"
	petdomain "github.com/smartcondo/condominio/internal/pet/domain"
	paymentprovider "github.com/smartcondo/condominio/internal/providers/payment"
	"github.com/smartcondo/condominio/internal/providers/pdf"
	"github.com/smartcondo/condominio/internal/providers/vision"
	"github.com/smartcondo/condominio/internal/quote"
	quotedomain "github.com/smartcondo/condominio/internal/quote/domain"
	"github.com/smartcondo/condominio/internal/ratelimit"
	"github.com/smartcondo/condominio/internal/residency"
	residencydomain "github.com/smartcondo/condominio/internal/residency/domain"
	"github.com/smartcondo/condominio/internal/unit"
	unitdomain "github.com/smartcondo/condominio/internal/unit/domain"
	"github.com/smartcondo/condominio/internal/user"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
	"github.com/smartcondo/condominio/internal/vehicle"
	vehicledomain "github.com/smartcondo/condominio/internal/vehicle/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	user.Module,
	unit.Module,
	residency.Module,
	quote.Module,
	commonarea.Module,
	pet.Module,
	vehicle.Module,
	paymentprovider.Module,
	pdf.Module,
	vision.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	clock  clock.Clock
	log    *zap.Logger

	authSvc      authdomain.Service
	authzSvc     authorization.Service
	userSvc      userdomain.Service
	unitSvc      unitdomain.Service
	residencySvc residencydomain.Service
	quoteSvc     quotedomain.Service
	areaSvc      commonareadomain.Service
	petSvc       petdomain.Service
	vehicleSvc   vehicledomain.Service

	payments *paymentprovider.Registry
	pdfSvc   pdf.Provider
	visionP  vision.Provider
	limiter  *ratelimit.TokenBucket
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	Clock clock.Clock
	Log   *zap.Logger

	AuthSvc      authdomain.Service
	AuthzSvc     authorization.Service
	UserSvc      userdomain.Service
	UnitSvc      unitdomain.Service
	ResidencySvc residencydomain.Service
	QuoteSvc     quotedomain.Service
	AreaSvc      commonareadomain.Service
	PetSvc       petdomain.Service
	VehicleSvc   vehicledomain.Service

	Payments *paymentprovider.Registry
	PDFSvc   pdf.Provider
	VisionP  vision.Provider
	Limiter  *ratelimit.TokenBucket `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		clock:        p.Clock,
		log:          p.Log.Named("server"),
		authSvc:      p.AuthSvc,
		authzSvc:     p.AuthzSvc,
		userSvc:      p.UserSvc,
		unitSvc:      p.UnitSvc,
		residencySvc: p.ResidencySvc,
		quoteSvc:     p.QuoteSvc,
		areaSvc:      p.AreaSvc,
		petSvc:       p.PetSvc,
		vehicleSvc:   p.VehicleSvc,
		payments:     p.Payments,
		pdfSvc:       p.PDFSvc,
		visionP:      p.VisionP,
		limiter:      p.Limiter,
	}

	s.registerAuthRoutes()
	s.registerAPIRoutes()
	s.registerPublicRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	authGroup := s.engine.Group("/auth")

	authGroup.POST("/login", s.Login)
	authGroup.GET("/me", s.AuthRequired(), s.Me)
	authGroup.POST("/change-password", s.AuthRequired(), s.ChangePassword)
}

func (s *Server) registerAPIRoutes() {
	admin := userdomain.RoleAdministrator

	api := s.engine.Group("/api/v1")
	api.Use(s.AuthRequired())

	// -------- Users --------
	api.GET("/users", s.RequireRole(admin), s.ListUsers)
	api.POST("/users", s.RequireRole(admin), s.CreateUser)
	api.GET("/users/:id", s.RequireRole(admin), s.GetUserByID)
	api.PATCH("/users/:id", s.RequireRole(admin), s.UpdateUser)
	api.DELETE("/users/:id", s.RequireRole(admin), s.DeactivateUser)

	// -------- Units --------
	api.GET("/units", s.ListUnits)
	api.GET("/units/:id", s.GetUnitByID)
	api.POST("/units", s.RequireRole(admin), s.CreateUnit)
	api.PATCH("/units/:id", s.RequireRole(admin), s.UpdateUnit)
	api.DELETE("/units/:id", s.RequireRole(admin), s.DeleteUnit)

	// -------- Residencies --------
	api.GET("/residencies", s.RequireRole(admin), s.ListResidencies)
	api.GET("/residencies/:id", s.GetResidencyByID)
	api.POST("/residencies", s.RequireRole(admin), s.CreateResidency)
	api.PATCH("/residencies/:id", s.RequireRole(admin), s.UpdateResidency)
	api.DELETE("/residencies/:id", s.RequireRole(admin), s.DeleteResidency)

	// -------- Quotes --------
	api.GET("/quotes", s.authorizeAction(authorization.ObjectQuote, authorization.ActionView), s.ListQuotes)
	api.GET("/quotes/summary", s.authorizeAction(authorization.ObjectQuote, authorization.ActionView), s.GetQuoteSummary)
	api.GET("/quotes/:id", s.authorizeAction(authorization.ObjectQuote, authorization.ActionView), s.GetQuoteByID)
	api.POST("/quotes", s.RequireRole(admin), s.CreateQuote)
	api.POST("/quotes/generate", s.RequireRole(admin), s.authorizeAction(authorization.ObjectQuote, authorization.ActionQuoteGenerate), s.GenerateQuotes)
	api.POST("/quotes/generate-all", s.RequireRole(admin), s.authorizeAction(authorization.ObjectQuote, authorization.ActionQuoteGenerate), s.GenerateAllQuotes)
	api.POST("/quotes/sweep-overdue", s.RequireRole(admin), s.authorizeAction(authorization.ObjectQuote, authorization.ActionQuoteSweep), s.SweepOverdueQuotes)
	api.POST("/quotes/:id/pay", s.authorizeAction(authorization.ObjectQuote, authorization.ActionQuotePay), s.PayQuote)
	api.POST("/quotes/:id/payment-intent", s.authorizeAction(authorization.ObjectQuote, authorization.ActionQuotePay), s.CreateQuotePaymentIntent)
	api.POST("/quotes/:id/cancel", s.RequireRole(admin), s.authorizeAction(authorization.ObjectQuote, authorization.ActionQuoteCancel), s.CancelQuote)
	api.GET("/quotes/:id/receipt", s.authorizeAction(authorization.ObjectQuote, authorization.ActionView), s.GetQuoteReceipt)

	// -------- Payment methods --------
	api.GET("/payment-methods", s.ListPaymentMethods)
	api.POST("/payment-methods", s.RequireRole(admin), s.CreatePaymentMethod)
	api.DELETE("/payment-methods/:id", s.RequireRole(admin), s.DeletePaymentMethod)

	// -------- Common areas --------
	api.GET("/common-areas", s.ListCommonAreas)
	api.GET("/common-areas/:slug", s.GetCommonAreaBySlug)
	api.POST("/common-areas", s.RequireRole(admin), s.CreateCommonArea)
	api.PATCH("/common-areas/:slug", s.RequireRole(admin), s.UpdateCommonArea)
	api.GET("/common-areas/:slug/rules", s.ListAreaRules)
	api.POST("/common-areas/:slug/rules", s.RequireRole(admin), s.CreateAreaRule)
	api.GET("/rules", s.ListGeneralRules)
	api.POST("/rules", s.RequireRole(admin), s.CreateGeneralRule)

	// -------- Reservations --------
	api.GET("/reservations", s.authorizeAction(authorization.ObjectReservation, authorization.ActionView), s.ListReservations)
	api.GET("/reservations/:id", s.authorizeAction(authorization.ObjectReservation, authorization.ActionView), s.GetReservationByID)
	api.POST("/reservations", s.authorizeAction(authorization.ObjectReservation, authorization.ActionReservationRequest), s.RequestReservation)
	api.POST("/reservations/:id/approve", s.authorizeAction(authorization.ObjectReservation, authorization.ActionReservationApprove), s.ApproveReservation)
	api.POST("/reservations/:id/reject", s.authorizeAction(authorization.ObjectReservation, authorization.ActionReservationApprove), s.RejectReservation)
	api.POST("/reservations/:id/cancel", s.CancelReservation)
	api.GET("/me/reservation-charges", s.ListMyReservationCharges)
	api.POST("/reservation-charges/:id/pay", s.RequireRole(admin), s.PayReservationCharge)

	// -------- Pets --------
	api.GET("/units/:id/pets", s.ListUnitPets)
	api.POST("/pets", s.authorizeAction(authorization.ObjectPet, authorization.ActionManage), s.CreatePet)
	api.PATCH("/pets/:id", s.authorizeAction(authorization.ObjectPet, authorization.ActionManage), s.UpdatePet)
	api.DELETE("/pets/:id", s.authorizeAction(authorization.ObjectPet, authorization.ActionManage), s.DeletePet)

	// -------- Vehicles --------
	api.GET("/units/:id/vehicles", s.ListUnitVehicles)
	api.GET("/vehicles/by-plate/:plate", s.authorizeAction(authorization.ObjectVehicle, authorization.ActionView), s.FindVehicleByPlate)
	api.POST("/vehicles", s.authorizeAction(authorization.ObjectVehicle, authorization.ActionManage), s.CreateVehicle)
	api.PATCH("/vehicles/:id", s.authorizeAction(authorization.ObjectVehicle, authorization.ActionManage), s.UpdateVehicle)
	api.DELETE("/vehicles/:id", s.authorizeAction(authorization.ObjectVehicle, authorization.ActionManage), s.DeleteVehicle)

	// -------- Vision --------
	api.POST("/vision/plates", s.authorizeAction(authorization.ObjectVision, authorization.ActionVisionRecognize), s.VisionRateLimit(), s.RecognizePlate)
	api.POST("/vision/faces", s.authorizeAction(authorization.ObjectVision, authorization.ActionVisionVerify), s.VisionRateLimit(), s.VerifyFace)
}

func (s *Server) registerPublicRoutes() {
	// Gateways call these; auth is the provider signature, not a user token.
	s.engine.POST("/webhooks/payments/:gateway", s.WebhookRateLimit(), s.HandlePaymentWebhook)
}
