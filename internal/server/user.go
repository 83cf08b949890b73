package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	userdomain "github.com/smartcondo/condominio/internal/user/domain"
)

type createUserRequest struct {
	Email     string          `json:"email"`
	Password  string          `json:"password"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Phone     string          `json:"phone"`
	PhotoURL  string          `json:"photo_url"`
	Role      userdomain.Role `json:"role"`
}

func (s *Server) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.userSvc.Create(c.Request.Context(), userdomain.CreateUserRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		PhotoURL:  req.PhotoURL,
		Role:      req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

type listUsersQuery struct {
	PageToken string          `form:"page_token"`
	PageSize  int32           `form:"page_size,default=10"`
	Role      userdomain.Role `form:"role"`
	Email     string          `form:"email"`
	IsActive  *bool           `form:"is_active"`
}

func (s *Server) ListUsers(c *gin.Context) {
	var query listUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.userSvc.List(c.Request.Context(), userdomain.ListUserRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		Role:      query.Role,
		Email:     query.Email,
		IsActive:  query.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetUserByID(c *gin.Context) {
	user, err := s.userSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

type updateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	PhotoURL  *string `json:"photo_url"`
}

func (s *Server) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.userSvc.Update(c.Request.Context(), userdomain.UpdateUserRequest{
		ID:        c.Param("id"),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		PhotoURL:  req.PhotoURL,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) DeactivateUser(c *gin.Context) {
	if err := s.userSvc.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
