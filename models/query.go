package models

import "encoding/json"

// FlightQuery is the request body of the prediction endpoints. Categorical
// fields carry the human-readable labels the training data used; the encoder
// translates them to integer codes. The flight number is accepted but never
// used as a predictive feature.
type FlightQuery struct {
	// Airline has no binding tag: the per-airline batch endpoint overrides
	// it, so it may be omitted there. Single predictions still reject an
	// empty airline through the encoder.
	Airline         string  `json:"airline"`
	Flight          string  `json:"flight" binding:"required"`
	SourceCity      string  `json:"source_city" binding:"required"`
	DepartureTime   string  `json:"departure_time" binding:"required"`
	Stops           string  `json:"stops" binding:"required"`
	ArrivalTime     string  `json:"arrival_time" binding:"required"`
	DestinationCity string  `json:"destination_city" binding:"required"`
	Class           string  `json:"class" binding:"required"`
	Duration        float64 `json:"duration" binding:"required"`
	DaysLeft        int     `json:"days_left" binding:"required"`
	// ModelName is optional; empty selects the configured default model.
	ModelName string `json:"model_name"`
}

type PredictionResponse struct {
	Price float64 `json:"price"`
}

// AirlinePrice is one entry of the per-airline batch response. It marshals as
// a single-key object {"<airline>": <price>}, the shape the dashboard expects.
type AirlinePrice struct {
	Airline string
	Price   float64
}

func (a AirlinePrice) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]float64{a.Airline: a.Price})
}

type AirlinePricesResponse struct {
	AirlinePrices []AirlinePrice `json:"airline_prices"`
}
