package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	residencydomain "github.com/smartcondo/condominio/internal/residency/domain"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
)

func (s *Server) CreateResidency(c *gin.Context) {
	var req residencydomain.CreateResidencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.residencySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) ListResidencies(c *gin.Context) {
	var req residencydomain.ListResidencyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.residencySvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetResidencyByID(c *gin.Context) {
	found, err := s.residencySvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Non-administrators only see residencies they hold.
	if callerRole(c) != userdomain.RoleAdministrator && found.UserID.String() != callerID(c) {
		AbortWithError(c, ErrForbidden)
		return
	}

	c.JSON(http.StatusOK, found)
}

func (s *Server) UpdateResidency(c *gin.Context) {
	var req residencydomain.UpdateResidencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	updated, err := s.residencySvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Server) DeleteResidency(c *gin.Context) {
	if err := s.residencySvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
