package handlers

import (
	"net/http"

	"flight-price-api/models"

	"github.com/gin-gonic/gin"
)

// respondError translates the service error taxonomy into a structured JSON
// error body. Every failure crosses this boundary; nothing is swallowed.
func respondError(c *gin.Context, err error) {
	if appErr, ok := models.AsAppError(err); ok {
		c.JSON(appErr.Status(), gin.H{"error": appErr.Msg})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
