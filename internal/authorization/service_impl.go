// Package authorization enforces role-based access with casbin. Policies
// are code-defined and synced into the gorm adapter on startup so every
// instance agrees on the same rules.
package authorization

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectUser        = "user"
	ObjectUnit        = "unit"
	ObjectResidency   = "residency"
	ObjectQuote       = "quote"
	ObjectCommonArea  = "common_area"
	ObjectReservation = "reservation"
	ObjectPet         = "pet"
	ObjectVehicle     = "vehicle"
	ObjectVision      = "vision"
)

const (
	ActionView   = "view"
	ActionManage = "manage"

	ActionQuoteGenerate = "quote.generate"
	ActionQuoteSweep    = "quote.sweep"
	ActionQuotePay      = "quote.pay"
	ActionQuoteCancel   = "quote.cancel"

	ActionReservationRequest = "reservation.request"
	ActionReservationApprove = "reservation.approve"

	ActionVisionRecognize = "vision.recognize"
	ActionVisionVerify    = "vision.verify"
)

type Service interface {
	Can(ctx context.Context, role userdomain.Role, object, action string) (bool, error)
}

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type service struct {
	enforcer *casbin.Enforcer
	log      *zap.Logger
}

var Module = fx.Module("authorization",
	fx.Provide(New),
)

func New(p Params) (Service, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	adapter, err := gormadapter.NewAdapterByDB(p.DB)
	if err != nil {
		return nil, fmt.Errorf("create casbin adapter: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	if err := syncPolicies(enforcer); err != nil {
		return nil, fmt.Errorf("sync casbin policies: %w", err)
	}

	return &service{
		enforcer: enforcer,
		log:      p.Log.Named("authorization"),
	}, nil
}

func (s *service) Can(ctx context.Context, role userdomain.Role, object, action string) (bool, error) {
	_ = ctx
	return s.enforcer.Enforce(string(role), object, action)
}

// syncPolicies replaces the stored policy set with the code-defined one.
func syncPolicies(e *casbin.Enforcer) error {
	e.ClearPolicy()

	admin := string(userdomain.RoleAdministrator)
	guard := string(userdomain.RoleGuard)
	owner := string(userdomain.RoleOwner)
	resident := string(userdomain.RoleResident)

	policies := [][]string{
		// administrators manage everything
		{admin, ObjectUser, "*"},
		{admin, ObjectUnit, "*"},
		{admin, ObjectResidency, "*"},
		{admin, ObjectQuote, "*"},
		{admin, ObjectCommonArea, "*"},
		{admin, ObjectReservation, "*"},
		{admin, ObjectPet, "*"},
		{admin, ObjectVehicle, "*"},
		{admin, ObjectVision, "*"},

		// guards check reservations and use recognition at the gate
		{guard, ObjectReservation, ActionView},
		{guard, ObjectReservation, ActionReservationApprove},
		{guard, ObjectVehicle, ActionView},
		{guard, ObjectVision, ActionVisionRecognize},
		{guard, ObjectVision, ActionVisionVerify},

		// owners and residents act on their own data
		{owner, ObjectQuote, ActionView},
		{owner, ObjectQuote, ActionQuotePay},
		{owner, ObjectReservation, ActionView},
		{owner, ObjectReservation, ActionReservationRequest},
		{owner, ObjectPet, ActionManage},
		{owner, ObjectVehicle, ActionManage},
		{resident, ObjectQuote, ActionView},
		{resident, ObjectQuote, ActionQuotePay},
		{resident, ObjectReservation, ActionView},
		{resident, ObjectReservation, ActionReservationRequest},
		{resident, ObjectPet, ActionManage},
		{resident, ObjectVehicle, ActionManage},
	}

	for _, policy := range policies {
		if _, err := e.AddPolicy(policy[0], policy[1], policy[2]); err != nil {
			return err
		}
	}

	return e.SavePolicy()
}
