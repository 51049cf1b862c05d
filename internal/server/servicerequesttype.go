package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	srtdomain "github.com/opsbill/tarifa/internal/servicerequesttype/domain"
	"github.com/opsbill/tarifa/pkg/db/pagination"
)

type serviceRequestTypeRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	HourlyFee   float64 `json:"hourly_fee"`
}

func (s *Server) CreateServiceRequestType(c *gin.Context) {
	var req serviceRequestTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.requestTypeSvc.Create(c.Request.Context(), srtdomain.CreateServiceRequestTypeRequest{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		HourlyFee:   req.HourlyFee,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListServiceRequestTypes(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ActiveOnly bool `form:"active_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.requestTypeSvc.List(c.Request.Context(), srtdomain.ListServiceRequestTypeRequest{
		Pagination: query.Pagination,
		ActiveOnly: query.ActiveOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetServiceRequestTypeByID(c *gin.Context) {
	resp, err := s.requestTypeSvc.GetByID(c.Request.Context(), srtdomain.GetServiceRequestTypeRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateServiceRequestType(c *gin.Context) {
	var req serviceRequestTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.requestTypeSvc.Update(c.Request.Context(), srtdomain.UpdateServiceRequestTypeRequest{
		ID:          strings.TrimSpace(c.Param("id")),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		HourlyFee:   req.HourlyFee,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteOrRestoreServiceRequestType(c *gin.Context) {
	resp, err := s.requestTypeSvc.DeleteOrRestore(c.Request.Context(), srtdomain.GetServiceRequestTypeRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
