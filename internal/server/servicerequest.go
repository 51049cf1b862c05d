package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	srdomain "github.com/opsbill/tarifa/internal/servicerequest/domain"
	"github.com/opsbill/tarifa/pkg/db/pagination"
)

type createServiceRequestRequest struct {
	AgreementID string `json:"agreement_id"`
	TypeID      string `json:"type_id"`
	Description string `json:"description"`
}

func (s *Server) CreateServiceRequest(c *gin.Context) {
	var req createServiceRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.serviceRequestSvc.Create(c.Request.Context(), srdomain.CreateServiceRequestRequest{
		AgreementID: strings.TrimSpace(req.AgreementID),
		TypeID:      strings.TrimSpace(req.TypeID),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListServiceRequests(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Filter string `form:"filter"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.serviceRequestSvc.List(c.Request.Context(), srdomain.ListServiceRequestRequest{
		Pagination: query.Pagination,
		Filter:     strings.TrimSpace(query.Filter),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetServiceRequestByID(c *gin.Context) {
	resp, err := s.serviceRequestSvc.GetByID(c.Request.Context(), srdomain.GetServiceRequestRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteServiceRequest(c *gin.Context) {
	err := s.serviceRequestSvc.Delete(c.Request.Context(), srdomain.GetServiceRequestRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) StartServiceRequest(c *gin.Context) {
	resp, err := s.serviceRequestSvc.Start(c.Request.Context(), srdomain.GetServiceRequestRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) FinishServiceRequest(c *gin.Context) {
	resp, err := s.serviceRequestSvc.Finish(c.Request.Context(), srdomain.GetServiceRequestRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
