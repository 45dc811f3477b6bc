package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/workflow-service/internal/errs"
)

// writeError maps engine failures onto HTTP status codes. Every typed error
// is surfaced; nothing is swallowed.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrAlreadyDecided),
		errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrOverCapacity),
		errors.Is(err, errs.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrInvalidRequestType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrNoEligibleApprovers):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
