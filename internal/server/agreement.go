package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	agreementdomain "github.com/opsbill/tarifa/internal/agreement/domain"
	"github.com/opsbill/tarifa/internal/period"
	"github.com/opsbill/tarifa/pkg/db/pagination"
)

type agreementPeriodsRequest struct {
	ProjectID      string `json:"project_id"`
	StartingPeriod string `json:"starting_period"`
	EndingPeriod   string `json:"ending_period"`
}

func (s *Server) CreateAgreement(c *gin.Context) {
	var req agreementPeriodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	start, end, err := parsePeriods(req.StartingPeriod, req.EndingPeriod)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.agreementSvc.Create(c.Request.Context(), agreementdomain.CreateAgreementRequest{
		ProjectID:      strings.TrimSpace(req.ProjectID),
		StartingPeriod: start,
		EndingPeriod:   end,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListAgreements(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CustomerID string `form:"customer_id"`
		ProjectID  string `form:"project_id"`
		State      string `form:"state"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.agreementSvc.List(c.Request.Context(), agreementdomain.ListAgreementRequest{
		Pagination: query.Pagination,
		CustomerID: strings.TrimSpace(query.CustomerID),
		ProjectID:  strings.TrimSpace(query.ProjectID),
		State:      agreementdomain.State(strings.TrimSpace(query.State)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAgreementByID(c *gin.Context) {
	resp, err := s.agreementSvc.GetByID(c.Request.Context(), agreementdomain.GetAgreementRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateAgreement(c *gin.Context) {
	var req agreementPeriodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	start, end, err := parsePeriods(req.StartingPeriod, req.EndingPeriod)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.agreementSvc.Update(c.Request.Context(), agreementdomain.UpdateAgreementRequest{
		ID:             strings.TrimSpace(c.Param("id")),
		StartingPeriod: start,
		EndingPeriod:   end,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteAgreement(c *gin.Context) {
	err := s.agreementSvc.Delete(c.Request.Context(), agreementdomain.GetAgreementRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) AcceptAgreement(c *gin.Context) {
	resp, err := s.agreementSvc.Accept(c.Request.Context(), agreementdomain.GetAgreementRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) FinishAgreement(c *gin.Context) {
	resp, err := s.agreementSvc.Finish(c.Request.Context(), agreementdomain.GetAgreementRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parsePeriods(start, end string) (period.Period, period.Period, error) {
	startPeriod, err := period.Parse(strings.TrimSpace(start))
	if err != nil {
		return period.Period{}, period.Period{}, err
	}
	endPeriod, err := period.Parse(strings.TrimSpace(end))
	if err != nil {
		return period.Period{}, period.Period{}, err
	}
	return startPeriod, endPeriod, nil
}
