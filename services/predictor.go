package services

import (
	"time"

	"flight-price-api/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictionsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightprice_predictions_total",
		Help: "Total number of price predictions served, per model.",
	}, []string{"model"})
	predictionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightprice_prediction_failures_total",
		Help: "Total number of failed prediction requests.",
	})
	predictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flightprice_prediction_duration_seconds",
		Help:    "Duration of a single prediction, encoding included.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})
)

// Predictor encodes flight queries and runs them through the loaded model
// artifacts. Stateless beyond its read-only dependencies, so safe for
// concurrent use.
type Predictor struct {
	registry *ModelRegistry
	mappings *MappingTable
}

func NewPredictor(registry *ModelRegistry, mappings *MappingTable) *Predictor {
	return &Predictor{registry: registry, mappings: mappings}
}

// Predict returns the predicted price for one flight query.
func (p *Predictor) Predict(q models.FlightQuery) (float64, error) {
	start := time.Now()
	defer func() {
		predictionDuration.Observe(time.Since(start).Seconds())
	}()

	ens, err := p.registry.Resolve(q.ModelName)
	if err != nil {
		predictionFailures.Inc()
		return 0, err
	}

	row, err := EncodeQuery(p.mappings, q)
	if err != nil {
		predictionFailures.Inc()
		return 0, err
	}

	price, err := ens.Predict(row)
	if err != nil {
		predictionFailures.Inc()
		return 0, err
	}

	predictionsServed.WithLabelValues(ens.ModelName).Inc()
	return price, nil
}

// PredictAllAirlines predicts the price of the same flight once per airline,
// in the table's fixed enumeration order. The airline supplied in the query
// is ignored; every other field is held constant. The whole batch runs
// against the model the query resolved to, and any single failure aborts it.
func (p *Predictor) PredictAllAirlines(q models.FlightQuery) ([]models.AirlinePrice, error) {
	airlines := p.mappings.Airlines()

	prices := make([]models.AirlinePrice, 0, len(airlines))
	for _, airline := range airlines {
		q.Airline = airline
		price, err := p.Predict(q)
		if err != nil {
			return nil, err
		}
		prices = append(prices, models.AirlinePrice{Airline: airline, Price: price})
	}

	return prices, nil
}
