package models

// ResultRecord is one row of the merged historical-results table: what a
// model predicted for a flight against the price actually observed. Airline
// is stored label-encoded, exactly as the training pipeline exported it.
type ResultRecord struct {
	ModelName       string  `json:"model_name"`
	Airline         int     `json:"airline"`
	DaysLeft        int     `json:"days_left"`
	ActualPrice     float64 `json:"actual_price"`
	PredictedPrice  float64 `json:"predicted_price"`
	PredictionError float64 `json:"prediction_error"`
}

// TimeSeriesPoint is one (days_left, actual, predicted) sample of a model's
// historical performance, in source row order.
type TimeSeriesPoint struct {
	DaysLeft       int     `json:"days_left"`
	ActualPrice    float64 `json:"actual_price"`
	PredictedPrice float64 `json:"predicted_price"`
}

// ErrorStats aggregates the signed prediction error of one model.
type ErrorStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	IQR    float64 `json:"iqr"`
}

// HeatmapCell is the mean predicted price for one (airline, days_left) pair
// of one model, with the airline decoded back to its label.
type HeatmapCell struct {
	Airline        string  `json:"airline"`
	DaysLeft       int     `json:"days_left"`
	PredictedPrice float64 `json:"predicted_price"`
}
