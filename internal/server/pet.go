package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	petdomain "github.com/smartcondo/condominio/internal/pet/domain"
	residencydomain "github.com/smartcondo/condominio/internal/residency/domain"
	userdomain "github.com/smartcondo/condominio/internal/user/domain"
)

func (s *Server) CreatePet(c *gin.Context) {
	var req petdomain.CreatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.ensureUnitMember(c, req.UnitID); err != nil {
		AbortWithError(c, err)
		return
	}

	created, err := s.petSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) ListUnitPets(c *gin.Context) {
	pets, err := s.petSvc.ListByUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pets": pets})
}

func (s *Server) UpdatePet(c *gin.Context) {
	pet, err := s.petSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.ensureUnitMember(c, pet.UnitID.String()); err != nil {
		AbortWithError(c, err)
		return
	}

	var req petdomain.UpdatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	updated, err := s.petSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Server) DeletePet(c *gin.Context) {
	pet, err := s.petSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.ensureUnitMember(c, pet.UnitID.String()); err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.petSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ensureUnitMember lets administrators through and requires everyone
// else to hold an active residency in the unit.
func (s *Server) ensureUnitMember(c *gin.Context, unitID string) error {
	if callerRole(c) == userdomain.RoleAdministrator {
		return nil
	}

	active := true
	resp, err := s.residencySvc.List(c.Request.Context(), residencydomain.ListResidencyRequest{
		UnitID:   unitID,
		UserID:   callerID(c),
		IsActive: &active,
	})
	if err != nil {
		return err
	}
	if len(resp.Residencies) == 0 {
		return ErrForbidden
	}
	return nil
}
