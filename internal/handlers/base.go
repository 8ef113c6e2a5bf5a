package handlers

import (
	"errors"
	"net/http"

	"featboard/internal/services"
	"featboard/internal/utils"

	"github.com/gin-gonic/gin"
)

// writeServiceError maps service sentinel errors onto the HTTP taxonomy.
// Anything unrecognized is a 500 without leaking internals.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoVote):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You have not voted on this feature"})
	case errors.Is(err, services.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Feature not found"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Vote conflict, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// invalidateListCaches drops the cached anonymous list pages after any
// mutation that can change what a listing shows.
func invalidateListCaches() {
	utils.GetCache().Delete("features:recent:page:1")
	utils.GetCache().Delete("features:score:page:1")
}
