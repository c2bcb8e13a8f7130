package handlers

import (
	"net/http"

	"flight-price-api/models"
	"flight-price-api/services"

	"github.com/gin-gonic/gin"
)

type PredictHandler struct {
	predictor *services.Predictor
}

func NewPredictHandler(predictor *services.Predictor) *PredictHandler {
	return &PredictHandler{predictor: predictor}
}

// Predict handles POST /predict.
func (h *PredictHandler) Predict(c *gin.Context) {
	var query models.FlightQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	price, err := h.predictor.Predict(query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PredictionResponse{Price: price})
}

// PredictAirlinePrices handles POST /predict_airline_prices. The airline in
// the request body is overridden once per enumerated airline.
func (h *PredictHandler) PredictAirlinePrices(c *gin.Context) {
	var query models.FlightQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	prices, err := h.predictor.PredictAllAirlines(query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AirlinePricesResponse{AirlinePrices: prices})
}
