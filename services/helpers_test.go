package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"flight-price-api/models"
)

var testForwardMappings = map[string]map[string]int{
	"airline":          {"AirAsia": 0, "Air_India": 1, "GO_FIRST": 2, "Indigo": 3, "SpiceJet": 4, "Vistara": 5},
	"source_city":      {"Bangalore": 0, "Chennai": 1, "Delhi": 2, "Hyderabad": 3, "Kolkata": 4, "Mumbai": 5},
	"departure_time":   {"Afternoon": 0, "Early_Morning": 1, "Evening": 2, "Late_Night": 3, "Morning": 4, "Night": 5},
	"stops":            {"one": 0, "two_or_more": 1, "zero": 2},
	"arrival_time":     {"Afternoon": 0, "Early_Morning": 1, "Evening": 2, "Late_Night": 3, "Morning": 4, "Night": 5},
	"destination_city": {"Bangalore": 0, "Chennai": 1, "Delhi": 2, "Hyderabad": 3, "Kolkata": 4, "Mumbai": 5},
	"class":            {"Business": 0, "Economy": 1},
}

func writeJSONFile(t *testing.T, path string, v interface{}) {
	t.Helper()
	byt, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, byt, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeMappingFiles(t *testing.T, dir string) (string, string) {
	t.Helper()

	inverse := make(map[string]map[string]string)
	for field, labels := range testForwardMappings {
		inverse[field] = make(map[string]string)
		for label, code := range labels {
			inverse[field][strconv.Itoa(code)] = label
		}
	}

	forwardPath := filepath.Join(dir, "encoding_mappings.json")
	inversePath := filepath.Join(dir, "inverse_encoding_mappings.json")
	writeJSONFile(t, forwardPath, testForwardMappings)
	writeJSONFile(t, inversePath, inverse)
	return forwardPath, inversePath
}

func newTestMappingTable(t *testing.T) *MappingTable {
	t.Helper()
	forwardPath, inversePath := writeMappingFiles(t, t.TempDir())
	tab, err := LoadMappingTable(forwardPath, inversePath)
	if err != nil {
		t.Fatalf("LoadMappingTable failed: %v", err)
	}
	return tab
}

// newStumpEnsemble builds a one-tree artifact that splits on the airline
// code, so per-airline predictions differ.
func newStumpEnsemble(name string, combine string, base float64) *Ensemble {
	return &Ensemble{
		ModelName: name,
		Version:   "test-1",
		NFeatures: FeatureWidth,
		Combine:   combine,
		BaseScore: base,
		Trees: []tree{
			{
				// root splits on airline code <= 2.5
				Feature:   []int{0, 0, -1, -1, -1},
				Threshold: []float64{2.5, 0.5, 0, 0, 0},
				Left:      []int{1, 2, -1, -1, -1},
				Right:     []int{4, 3, -1, -1, -1},
				Value:     []float64{0, 0, 4500, 5200, 6100},
			},
		},
	}
}

func newConstantEnsemble(name string, price float64) *Ensemble {
	return &Ensemble{
		ModelName: name,
		Version:   "test-1",
		NFeatures: FeatureWidth,
		Combine:   combineAverage,
		Trees: []tree{
			{
				Feature:   []int{-1},
				Threshold: []float64{0},
				Left:      []int{-1},
				Right:     []int{-1},
				Value:     []float64{price},
			},
		},
	}
}

// writeTestArtifacts writes one artifact file per served model into dir,
// each predicting a distinct constant price.
func writeTestArtifacts(t *testing.T, dir string) {
	t.Helper()
	prices := map[string]float64{
		models.RandomForest: 4100,
		models.XGBoost:      4200,
		models.ExtraTrees:   4300,
		models.DecisionTree: 4400,
	}
	for name, file := range artifactFiles {
		writeJSONFile(t, filepath.Join(dir, file), newConstantEnsemble(name, prices[name]))
	}
}

func testQuery() models.FlightQuery {
	return models.FlightQuery{
		Airline:         "SpiceJet",
		Flight:          "SG-8709",
		SourceCity:      "Delhi",
		DepartureTime:   "Evening",
		Stops:           "zero",
		ArrivalTime:     "Night",
		DestinationCity: "Mumbai",
		Class:           "Economy",
		Duration:        2.17,
		DaysLeft:        1,
	}
}
