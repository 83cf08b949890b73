package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	vehicledomain "github.com/smartcondo/condominio/internal/vehicle/domain"
)

func (s *Server) CreateVehicle(c *gin.Context) {
	var req vehicledomain.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.ensureUnitMember(c, req.UnitID); err != nil {
		AbortWithError(c, err)
		return
	}

	created, err := s.vehicleSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) ListUnitVehicles(c *gin.Context) {
	vehicles, err := s.vehicleSvc.ListByUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}

func (s *Server) FindVehicleByPlate(c *gin.Context) {
	vehicle, err := s.vehicleSvc.FindByPlate(c.Request.Context(), c.Param("plate"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, vehicle)
}

func (s *Server) UpdateVehicle(c *gin.Context) {
	vehicle, err := s.vehicleSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.ensureUnitMember(c, vehicle.UnitID.String()); err != nil {
		AbortWithError(c, err)
		return
	}

	var req vehicledomain.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	updated, err := s.vehicleSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Server) DeleteVehicle(c *gin.Context) {
	vehicle, err := s.vehicleSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.ensureUnitMember(c, vehicle.UnitID.String()); err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.vehicleSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
