package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	bpdomain "github.com/opsbill/tarifa/internal/billingprocess/domain"
	"github.com/opsbill/tarifa/internal/period"
	"github.com/opsbill/tarifa/pkg/db/pagination"
)

func (s *Server) ListBillingProcesses(c *gin.Context) {
	var query struct {
		pagination.Pagination
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.billingProcessSvc.List(c.Request.Context(), bpdomain.ListBillingProcessRequest{
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBillingProcessByID(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.billingProcessSvc.GetWithTree(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBillingExecutions(c *gin.Context) {
	p, err := period.Parse(strings.TrimSpace(c.Query("period")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	executions, err := s.executions.ListByPeriod(c.Request.Context(), s.db, p)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": executions})
}

// RunMonthlyBilling triggers the billing run for last month without
// waiting for the cron firing.
func (s *Server) RunMonthlyBilling(c *gin.Context) {
	if s.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: errorPayload{
			Type:    "service_unavailable",
			Message: "scheduler is not running in this process",
		}})
		return
	}

	exec, err := s.scheduler.RunMonthlyBilling(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": exec})
}
