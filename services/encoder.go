package services

import (
	"flight-price-api/models"
)

// FeatureWidth is the width of the feature row every model was trained on:
// airline, flight, source_city, departure_time, stops, arrival_time,
// destination_city, class, duration, days_left.
const FeatureWidth = 10

// flightPlaceholder stands in for the flight number column. The flight id is
// non-predictive, so the training pipeline froze it to a constant.
const flightPlaceholder = 0

// EncodeQuery translates a flight query into the fixed-order numeric feature
// row. Deterministic: the same query against the same table always yields the
// same row.
func EncodeQuery(tab *MappingTable, q models.FlightQuery) ([]float64, error) {
	row := make([]float64, 0, FeatureWidth)

	airlineCode, err := tab.Encode("airline", q.Airline)
	if err != nil {
		return nil, err
	}
	row = append(row, float64(airlineCode), flightPlaceholder)

	categorical := []struct {
		field string
		label string
	}{
		{"source_city", q.SourceCity},
		{"departure_time", q.DepartureTime},
		{"stops", q.Stops},
		{"arrival_time", q.ArrivalTime},
		{"destination_city", q.DestinationCity},
		{"class", q.Class},
	}

	for _, c := range categorical {
		code, err := tab.Encode(c.field, c.label)
		if err != nil {
			return nil, err
		}
		row = append(row, float64(code))
	}

	row = append(row, q.Duration, float64(q.DaysLeft))

	return row, nil
}
