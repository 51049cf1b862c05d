package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	agreementdomain "github.com/opsbill/tarifa/internal/agreement/domain"
	"github.com/opsbill/tarifa/internal/batch"
	bpdomain "github.com/opsbill/tarifa/internal/billingprocess/domain"
	customerdomain "github.com/opsbill/tarifa/internal/customer/domain"
	"github.com/opsbill/tarifa/internal/period"
	projectdomain "github.com/opsbill/tarifa/internal/project/domain"
	srdomain "github.com/opsbill/tarifa/internal/servicerequest/domain"
	srtdomain "github.com/opsbill/tarifa/internal/servicerequesttype/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware renders the last handler error as a JSON
// payload once the chain is done.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, period.ErrInvalidPeriod),
		errors.Is(err, customerdomain.ErrInvalidID),
		errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, customerdomain.ErrInvalidEmail),
		errors.Is(err, projectdomain.ErrInvalidID),
		errors.Is(err, projectdomain.ErrInvalidName),
		errors.Is(err, projectdomain.ErrCustomerNotActive),
		errors.Is(err, projectdomain.ErrProjectNotActive),
		errors.Is(err, agreementdomain.ErrInvalidID),
		errors.Is(err, agreementdomain.ErrInvalidPeriods),
		errors.Is(err, agreementdomain.ErrNotProvisional),
		errors.Is(err, agreementdomain.ErrNotInCourse),
		errors.Is(err, agreementdomain.ErrStartingPassed),
		errors.Is(err, srtdomain.ErrInvalidID),
		errors.Is(err, srtdomain.ErrInvalidName),
		errors.Is(err, srtdomain.ErrInvalidHourlyFee),
		errors.Is(err, srdomain.ErrInvalidID),
		errors.Is(err, srdomain.ErrInvalidDescription),
		errors.Is(err, srdomain.ErrAgreementNotAvailable),
		errors.Is(err, srdomain.ErrTypeNotAvailable),
		errors.Is(err, srdomain.ErrAlreadyStarted),
		errors.Is(err, srdomain.ErrNotInProgress):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, projectdomain.ErrNotFound),
		errors.Is(err, projectdomain.ErrCustomerNotFound),
		errors.Is(err, agreementdomain.ErrNotFound),
		errors.Is(err, srtdomain.ErrNotFound),
		errors.Is(err, srdomain.ErrNotFound),
		errors.Is(err, bpdomain.ErrNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, customerdomain.ErrNameTaken),
		errors.Is(err, customerdomain.ErrEmailTaken),
		errors.Is(err, projectdomain.ErrNameTaken),
		errors.Is(err, srtdomain.ErrNameTaken),
		errors.Is(err, agreementdomain.ErrCustomerHasOpen),
		errors.Is(err, batch.ErrJobAlreadyRunning),
		errors.Is(err, batch.ErrJobAlreadyCompleted),
		errors.Is(err, bpdomain.ErrInvalidTransition):
		return true
	default:
		return false
	}
}
