package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	commonareadomain "github.com/smartcondo/condominio/internal/commonarea/domain"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
)

func (s *Server) CreateCommonArea(c *gin.Context) {
	var req commonareadomain.CreateAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.areaSvc.CreateArea(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) ListCommonAreas(c *gin.Context) {
	areas, err := s.areaSvc.ListAreas(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"common_areas": areas})
}

func (s *Server) GetCommonAreaBySlug(c *gin.Context) {
	area, err := s.areaSvc.GetAreaBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, area)
}

func (s *Server) UpdateCommonArea(c *gin.Context) {
	area, err := s.areaSvc.GetAreaBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req commonareadomain.UpdateAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = area.ID.String()

	updated, err := s.areaSvc.UpdateArea(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Server) CreateGeneralRule(c *gin.Context) {
	var req commonareadomain.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.CommonAreaID = ""
	req.CreatedByID = callerID(c)

	created, err := s.areaSvc.CreateGeneralRule(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) ListGeneralRules(c *gin.Context) {
	rules, err := s.areaSvc.ListGeneralRules(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (s *Server) CreateAreaRule(c *gin.Context) {
	area, err := s.areaSvc.GetAreaBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req commonareadomain.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.CommonAreaID = area.ID.String()
	req.CreatedByID = callerID(c)

	created, err := s.areaSvc.CreateAreaRule(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) ListAreaRules(c *gin.Context) {
	area, err := s.areaSvc.GetAreaBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rules, err := s.areaSvc.ListAreaRules(c.Request.Context(), area.ID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (s *Server) RequestReservation(c *gin.Context) {
	var req commonareadomain.RequestReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = callerID(c)

	created, err := s.areaSvc.RequestReservation(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) ListReservations(c *gin.Context) {
	var req commonareadomain.ListReservationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	// Owners and residents only list their own reservations.
	switch callerRole(c) {
	case userdomain.RoleAdministrator, userdomain.RoleGuard:
	default:
		req.UserID = callerID(c)
	}

	resp, err := s.areaSvc.ListReservations(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetReservationByID(c *gin.Context) {
	reservation, err := s.areaSvc.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	switch callerRole(c) {
	case userdomain.RoleAdministrator, userdomain.RoleGuard:
	default:
		if reservation.UserID.String() != callerID(c) {
			AbortWithError(c, ErrForbidden)
			return
		}
	}

	c.JSON(http.StatusOK, reservation)
}

type resolveReservationRequest struct {
	AdminNotes string `json:"admin_notes"`
}

func (s *Server) ApproveReservation(c *gin.Context) {
	var req resolveReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	approved, err := s.areaSvc.Approve(c.Request.Context(), commonareadomain.ResolveReservationRequest{
		ReservationID: c.Param("id"),
		ApprovedByID:  callerID(c),
		AdminNotes:    req.AdminNotes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, approved)
}

func (s *Server) RejectReservation(c *gin.Context) {
	var req resolveReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	rejected, err := s.areaSvc.Reject(c.Request.Context(), commonareadomain.ResolveReservationRequest{
		ReservationID: c.Param("id"),
		ApprovedByID:  callerID(c),
		AdminNotes:    req.AdminNotes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, rejected)
}

func (s *Server) CancelReservation(c *gin.Context) {
	cancelled, err := s.areaSvc.CancelReservation(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, cancelled)
}

func (s *Server) ListMyReservationCharges(c *gin.Context) {
	charges, err := s.areaSvc.ListChargesByUser(c.Request.Context(), callerID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"charges": charges})
}

type payChargeRequest struct {
	Reference string `json:"reference"`
}

func (s *Server) PayReservationCharge(c *gin.Context) {
	var req payChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	paid, err := s.areaSvc.MarkChargePaid(c.Request.Context(), commonareadomain.MarkChargePaidRequest{
		ChargeID:  c.Param("id"),
		Reference: req.Reference,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, paid)
}
