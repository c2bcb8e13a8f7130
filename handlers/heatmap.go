package handlers

import (
	"net/http"

	"flight-price-api/services"

	"github.com/gin-gonic/gin"
)

type HeatmapHandler struct {
	results *services.ResultsService
}

func NewHeatmapHandler(results *services.ResultsService) *HeatmapHandler {
	return &HeatmapHandler{results: results}
}

// GetHeatmapData handles GET /get_heatmap_data?model_name=<name>.
func (h *HeatmapHandler) GetHeatmapData(c *gin.Context) {
	modelName := c.Query("model_name")
	if modelName == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "model_name query parameter is required"})
		return
	}

	cells, err := h.results.HeatmapData(c.Request.Context(), modelName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cells)
}
