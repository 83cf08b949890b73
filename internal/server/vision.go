package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	userdomain "github.com/smartcondo/condominio/internal/user/domain"
	vehicledomain "github.com/smartcondo/condominio/internal/vehicle/domain"
)

type recognizePlateRequest struct {
	ImageURL string `json:"image_url"`
}

type recognizePlateResponse struct {
	Plate      string                 `json:"plate"`
	Confidence float64                `json:"confidence"`
	Vehicle    *vehicledomain.Vehicle `json:"vehicle,omitempty"`
}

// RecognizePlate runs the gate-camera flow: recognize the plate on the
// image, then try to match it to a registered vehicle.
func (s *Server) RecognizePlate(c *gin.Context) {
	var req recognizePlateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ImageURL == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.visionP.RecognizePlate(c.Request.Context(), req.ImageURL)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := recognizePlateResponse{
		Plate:      result.Plate,
		Confidence: result.Confidence,
	}

	vehicle, err := s.vehicleSvc.FindByPlate(c.Request.Context(), result.Plate)
	switch {
	case err == nil:
		resp.Vehicle = &vehicle
	case errors.Is(err, vehicledomain.ErrNotFound):
		// An unregistered plate is still a successful recognition.
	default:
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type verifyFaceResponse struct {
	Authorized bool             `json:"authorized"`
	Confidence float64          `json:"confidence"`
	User       *userdomain.User `json:"user,omitempty"`
}

// VerifyFace runs the gate-entry flow: search the face collection for
// the image and resolve the match to a resident account.
func (s *Server) VerifyFace(c *gin.Context) {
	var req recognizePlateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ImageURL == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	match, err := s.visionP.VerifyFace(c.Request.Context(), req.ImageURL)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := verifyFaceResponse{
		Authorized: match.Matched,
		Confidence: match.Confidence,
	}
	if match.Matched {
		user, err := s.userSvc.GetByID(c.Request.Context(), match.UserRef)
		switch {
		case err == nil:
			resp.User = &user
		case errors.Is(err, userdomain.ErrNotFound), errors.Is(err, userdomain.ErrInvalidID):
			// A stale collection entry does not authorize entry.
			resp.Authorized = false
		default:
			AbortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, resp)
}
