package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authdomain "github.com/smartcondo/condominio/internal/auth/domain"
	commonareadomain "github.com/smartcondo/condominio/internal/commonarea/domain"
	petdomain "github.com/smartcondo/condominio/internal/pet/domain"
	paymentprovider "github.com/smartcondo/condominio/internal/providers/payment"
	"github.com/smartcondo/condominio/internal/providers/vision"
	quotedomain "github.com/smartcondo/condominio/internal/quote/domain"
	residencydomain "github.com/smartcondo/condominio/internal/residency/domain"
	unitdomain "github.com/smartcondo/condominio/internal/unit/domain"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
	vehicledomain "github.com/smartcondo/condominio/internal/vehicle/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrTooManyRequests = errors.New("too_many_requests")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, paymentprovider.ErrInvalidSignature),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, authdomain.ErrTokenExpired),
		errors.Is(err, authdomain.ErrUserInactive):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, vision.ErrNotConfigured),
		errors.Is(err, vision.ErrRemoteFailure),
		errors.Is(err, paymentprovider.ErrGatewayRejected):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger the same taxonomy the
// response body uses.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	_ = status
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, paymentprovider.ErrMalformedPayload):
		return true
	case errors.Is(err, userdomain.ErrInvalidEmail),
		errors.Is(err, userdomain.ErrInvalidPassword),
		errors.Is(err, userdomain.ErrInvalidName),
		errors.Is(err, userdomain.ErrInvalidRole),
		errors.Is(err, userdomain.ErrInvalidID),
		errors.Is(err, userdomain.ErrWrongPassword):
		return true
	case errors.Is(err, unitdomain.ErrInvalidCode),
		errors.Is(err, unitdomain.ErrInvalidBasePrice),
		errors.Is(err, unitdomain.ErrInvalidID):
		return true
	case errors.Is(err, residencydomain.ErrInvalidID),
		errors.Is(err, residencydomain.ErrInvalidKind),
		errors.Is(err, residencydomain.ErrInvalidDates),
		errors.Is(err, residencydomain.ErrInvalidAmount),
		errors.Is(err, residencydomain.ErrKindRoleMismatch),
		errors.Is(err, residencydomain.ErrNotPrincipal):
		return true
	case errors.Is(err, quotedomain.ErrInvalidID),
		errors.Is(err, quotedomain.ErrInvalidYear),
		errors.Is(err, quotedomain.ErrInvalidMonthRange),
		errors.Is(err, quotedomain.ErrInvalidAmount),
		errors.Is(err, quotedomain.ErrInvalidDueDate),
		errors.Is(err, quotedomain.ErrInvalidName):
		return true
	case errors.Is(err, commonareadomain.ErrInvalidID),
		errors.Is(err, commonareadomain.ErrInvalidName),
		errors.Is(err, commonareadomain.ErrInvalidCapacity),
		errors.Is(err, commonareadomain.ErrInvalidTimeWindow),
		errors.Is(err, commonareadomain.ErrInvalidTitle):
		return true
	case errors.Is(err, petdomain.ErrInvalidID),
		errors.Is(err, petdomain.ErrInvalidName),
		errors.Is(err, petdomain.ErrInvalidSpecies):
		return true
	case errors.Is(err, vehicledomain.ErrInvalidID),
		errors.Is(err, vehicledomain.ErrInvalidPlate),
		errors.Is(err, vehicledomain.ErrInvalidType):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, userdomain.ErrNotFound),
		errors.Is(err, unitdomain.ErrNotFound),
		errors.Is(err, residencydomain.ErrNotFound),
		errors.Is(err, residencydomain.ErrUnitNotFound),
		errors.Is(err, residencydomain.ErrUserNotFound),
		errors.Is(err, quotedomain.ErrNotFound),
		errors.Is(err, quotedomain.ErrResidencyNotFound),
		errors.Is(err, quotedomain.ErrPaymentMethodNotFound),
		errors.Is(err, commonareadomain.ErrAreaNotFound),
		errors.Is(err, commonareadomain.ErrNotFound),
		errors.Is(err, commonareadomain.ErrChargeNotFound),
		errors.Is(err, petdomain.ErrNotFound),
		errors.Is(err, petdomain.ErrUnitNotFound),
		errors.Is(err, vehicledomain.ErrNotFound),
		errors.Is(err, vehicledomain.ErrUnitNotFound),
		errors.Is(err, vision.ErrNoPlateFound),
		errors.Is(err, paymentprovider.ErrUnknownGateway),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// isConflictError covers state-machine rejections: double payments,
// duplicate periods, busy slots, delete guards.
func isConflictError(err error) bool {
	switch {
	case errors.Is(err, userdomain.ErrEmailTaken),
		errors.Is(err, unitdomain.ErrCodeTaken),
		errors.Is(err, unitdomain.ErrHasResidencies),
		errors.Is(err, unitdomain.ErrOutstandingQuotes),
		errors.Is(err, residencydomain.ErrKindConflict),
		errors.Is(err, residencydomain.ErrPrincipalTaken),
		errors.Is(err, residencydomain.ErrAlreadyResident),
		errors.Is(err, residencydomain.ErrOutstandingQuotes),
		errors.Is(err, quotedomain.ErrAlreadyPaid),
		errors.Is(err, quotedomain.ErrQuoteCancelled),
		errors.Is(err, quotedomain.ErrNotCancellable),
		errors.Is(err, quotedomain.ErrPeriodAlreadyBilled),
		errors.Is(err, quotedomain.ErrPaymentMethodTaken),
		errors.Is(err, quotedomain.ErrPaymentMethodInUse),
		errors.Is(err, commonareadomain.ErrNameTaken),
		errors.Is(err, commonareadomain.ErrAreaNotReservable),
		errors.Is(err, commonareadomain.ErrAreaClosed),
		errors.Is(err, commonareadomain.ErrSlotTaken),
		errors.Is(err, commonareadomain.ErrNotPending),
		errors.Is(err, commonareadomain.ErrNotRequester),
		errors.Is(err, commonareadomain.ErrNotCancellable),
		errors.Is(err, commonareadomain.ErrChargeAlreadyPaid),
		errors.Is(err, vehicledomain.ErrPlateTaken):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}
