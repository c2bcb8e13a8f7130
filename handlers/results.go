package handlers

import (
	"context"
	"net/http"
	"time"

	"flight-price-api/services"

	"github.com/gin-gonic/gin"
)

type ResultsHandler struct {
	results     *services.ResultsService
	cache       *services.CacheService
	datasetFile string
	ttl         time.Duration
}

func NewResultsHandler(results *services.ResultsService, cache *services.CacheService, datasetFile string, ttl time.Duration) *ResultsHandler {
	return &ResultsHandler{results: results, cache: cache, datasetFile: datasetFile, ttl: ttl}
}

// GetModelResults handles GET /get_model_results.
func (h *ResultsHandler) GetModelResults(c *gin.Context) {
	series, err := h.results.ModelResults(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// GetPredictionErrors handles GET /get_model_results_prediction_error.
func (h *ResultsHandler) GetPredictionErrors(c *gin.Context) {
	errs, err := h.results.PredictionErrors(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, errs)
}

// GetErrorAggregates handles GET /get_error_aggregates: grouped prediction
// error statistics per model.
func (h *ResultsHandler) GetErrorAggregates(c *gin.Context) {
	stats, err := h.results.GroupedErrorStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetData handles GET /data: a pass-through of the raw backing dataset. The
// payload is large and static, so it goes through the redis cache when one is
// around.
func (h *ResultsHandler) GetData(c *gin.Context) {
	const cacheKey = "dataset:records"

	var cached []map[string]string
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	records, err := services.ReadDatasetRecords(h.datasetFile)
	if err != nil {
		respondError(c, err)
		return
	}

	go h.cache.Set(context.Background(), cacheKey, records, h.ttl)

	c.JSON(http.StatusOK, records)
}

// Reload handles POST /admin/reload: drops the lazily loaded result tables so
// the next request re-reads swapped-in artifacts.
func (h *ResultsHandler) Reload(c *gin.Context) {
	h.results.Invalidate()
	go h.cache.Delete(context.Background(), "dataset:records")
	c.JSON(http.StatusOK, gin.H{"message": "result caches invalidated"})
}
