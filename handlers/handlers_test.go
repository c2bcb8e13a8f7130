package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"flight-price-api/config"
	"flight-price-api/models"
	"flight-price-api/services"

	"github.com/gin-gonic/gin"
)

var testMappings = map[string]map[string]int{
	"airline":          {"AirAsia": 0, "Air_India": 1, "GO_FIRST": 2, "Indigo": 3, "SpiceJet": 4, "Vistara": 5},
	"source_city":      {"Bangalore": 0, "Chennai": 1, "Delhi": 2, "Hyderabad": 3, "Kolkata": 4, "Mumbai": 5},
	"departure_time":   {"Afternoon": 0, "Early_Morning": 1, "Evening": 2, "Late_Night": 3, "Morning": 4, "Night": 5},
	"stops":            {"one": 0, "two_or_more": 1, "zero": 2},
	"arrival_time":     {"Afternoon": 0, "Early_Morning": 1, "Evening": 2, "Late_Night": 3, "Morning": 4, "Night": 5},
	"destination_city": {"Bangalore": 0, "Chennai": 1, "Delhi": 2, "Hyderabad": 3, "Kolkata": 4, "Mumbai": 5},
	"class":            {"Business": 0, "Economy": 1},
}

// Constant-output artifacts, one price per model, so routing to the right
// model is observable from the response.
var testArtifactPrices = map[string]float64{
	models.RandomForest: 4100,
	models.XGBoost:      4200,
	models.ExtraTrees:   4300,
	models.DecisionTree: 4400,
}

var testArtifactFiles = map[string]string{
	models.RandomForest: "random_forest_regressor_model.json",
	models.XGBoost:      "xgb_regressor_model.json",
	models.ExtraTrees:   "extra_trees_regressor_model.json",
	models.DecisionTree: "decision_tree_regressor_model.json",
}

var testResultsShortNames = map[string]string{
	models.RandomForest: "RandomForest",
	models.XGBoost:      "XGBoost",
	models.ExtraTrees:   "ExtraTrees",
	models.DecisionTree: "DecisionTree",
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeTestArtifacts(t *testing.T, modelsDir string) {
	t.Helper()
	for name, file := range testArtifactFiles {
		artifact := fmt.Sprintf(`{
			"model_name": %q,
			"version": "test-1",
			"n_features": 10,
			"combine": "average",
			"base_score": 0,
			"trees": [{"feature": [-1], "threshold": [0], "left": [-1], "right": [-1], "value": [%g]}]
		}`, name, testArtifactPrices[name])
		writeFile(t, filepath.Join(modelsDir, file), artifact)
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	modelsDir := filepath.Join(dir, "models")
	dataDir := filepath.Join(dir, "Data")
	for _, d := range []string{modelsDir, dataDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	forward, err := json.Marshal(testMappings)
	if err != nil {
		t.Fatal(err)
	}
	inverse := make(map[string]map[string]string)
	for field, labels := range testMappings {
		inverse[field] = make(map[string]string)
		for label, code := range labels {
			inverse[field][fmt.Sprint(code)] = label
		}
	}
	inverseBytes, err := json.Marshal(inverse)
	if err != nil {
		t.Fatal(err)
	}

	artifacts := config.ArtifactsConfig{
		ModelsDir:           modelsDir,
		MappingsFile:        filepath.Join(dir, "encoding_mappings.json"),
		InverseMappingsFile: filepath.Join(dir, "inverse_encoding_mappings.json"),
		DataDir:             dataDir,
		DatasetFile:         filepath.Join(dataDir, "Clean_Dataset.csv"),
		DefaultModel:        models.ExtraTrees,
	}
	writeFile(t, artifacts.MappingsFile, string(forward))
	writeFile(t, artifacts.InverseMappingsFile, string(inverseBytes))
	writeTestArtifacts(t, modelsDir)

	for _, short := range testResultsShortNames {
		writeFile(t, artifacts.ResultsFile(short),
			"airline,days_left,Actual_Price,Predicted_Price\n4,1,5000,5100\n0,2,4800,4700\n")
	}
	writeFile(t, artifacts.DatasetFile,
		"airline,flight,price\nSpiceJet,SG-8709,5953\nVistara,UK-963,6014\n")

	mappings, err := services.LoadMappingTable(artifacts.MappingsFile, artifacts.InverseMappingsFile)
	if err != nil {
		t.Fatalf("LoadMappingTable failed: %v", err)
	}
	registry, err := services.LoadRegistry(artifacts.ModelsDir, artifacts.DefaultModel)
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}

	cache := &services.CacheService{}
	results := services.NewResultsService(artifacts, mappings, cache, time.Minute)
	predictor := services.NewPredictor(registry, mappings)

	predictHandler := NewPredictHandler(predictor)
	resultsHandler := NewResultsHandler(results, cache, artifacts.DatasetFile, time.Minute)
	heatmapHandler := NewHeatmapHandler(results)
	mappingsHandler := NewMappingsHandler(mappings)

	router := gin.New()
	router.POST("/predict", predictHandler.Predict)
	router.POST("/predict_airline_prices", predictHandler.PredictAirlinePrices)
	router.GET("/data", resultsHandler.GetData)
	router.GET("/get_model_results", resultsHandler.GetModelResults)
	router.GET("/get_model_results_prediction_error", resultsHandler.GetPredictionErrors)
	router.GET("/get_error_aggregates", resultsHandler.GetErrorAggregates)
	router.GET("/get_inverse_mappings", mappingsHandler.GetInverseMappings)
	router.GET("/get_heatmap_data", heatmapHandler.GetHeatmapData)
	router.POST("/admin/reload", resultsHandler.Reload)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const validQuery = `{
	"airline": "SpiceJet",
	"flight": "SG-8709",
	"source_city": "Delhi",
	"departure_time": "Evening",
	"stops": "zero",
	"arrival_time": "Night",
	"destination_city": "Mumbai",
	"class": "Economy",
	"duration": 2.17,
	"days_left": 1,
	"model_name": "ExtraTreesRegressor"
}`

func TestPredictRoutesToRequestedModel(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/predict", validQuery)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp models.PredictionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Price != testArtifactPrices[models.ExtraTrees] {
		t.Errorf("price = %v, want %v", resp.Price, testArtifactPrices[models.ExtraTrees])
	}
}

func TestPredictDefaultsModel(t *testing.T) {
	router := newTestRouter(t)

	body := strings.Replace(validQuery, `"model_name": "ExtraTreesRegressor"`, `"model_name": ""`, 1)
	w := doRequest(t, router, http.MethodPost, "/predict", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestPredictMissingField(t *testing.T) {
	router := newTestRouter(t)

	body := strings.Replace(validQuery, `"source_city": "Delhi",`, "", 1)
	w := doRequest(t, router, http.MethodPost, "/predict", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestPredictUnknownCategory(t *testing.T) {
	router := newTestRouter(t)

	body := strings.Replace(validQuery, `"stops": "zero"`, `"stops": "five"`, 1)
	w := doRequest(t, router, http.MethodPost, "/predict", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422, body %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad error body: %v", err)
	}
	if resp["error"] == "" {
		t.Error("error body missing")
	}
}

func TestPredictUnknownModel(t *testing.T) {
	router := newTestRouter(t)

	body := strings.Replace(validQuery, "ExtraTreesRegressor", "LinearRegression", 1)
	w := doRequest(t, router, http.MethodPost, "/predict", body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400, body %s", w.Code, w.Body.String())
	}
}

func TestPredictAirlinePrices(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/predict_airline_prices", validQuery)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		AirlinePrices []map[string]float64 `json:"airline_prices"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}

	wantOrder := []string{"AirAsia", "Air_India", "GO_FIRST", "Indigo", "SpiceJet", "Vistara"}
	if len(resp.AirlinePrices) != len(wantOrder) {
		t.Fatalf("got %d entries, want %d", len(resp.AirlinePrices), len(wantOrder))
	}
	for i, entry := range resp.AirlinePrices {
		if len(entry) != 1 {
			t.Fatalf("entry %d has %d keys", i, len(entry))
		}
		if _, ok := entry[wantOrder[i]]; !ok {
			t.Errorf("entry %d = %v, want airline %s", i, entry, wantOrder[i])
		}
	}
}

func TestGetModelResults(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/get_model_results", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp map[string][]models.TimeSeriesPoint
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(resp) != len(models.ModelNames) {
		t.Fatalf("got %d models, want %d", len(resp), len(models.ModelNames))
	}
	series := resp[models.ExtraTrees]
	if len(series) != 2 || series[0].DaysLeft != 1 || series[0].PredictedPrice != 5100 {
		t.Errorf("ExtraTrees series = %v", series)
	}
}

func TestGetPredictionErrors(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/get_model_results_prediction_error", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp map[string][]float64
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	errs := resp[models.RandomForest]
	if len(errs) != 2 || errs[0] != 100 || errs[1] != -100 {
		t.Errorf("RandomForest errors = %v, want [100 -100]", errs)
	}
}

func TestGetErrorAggregates(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/get_error_aggregates", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp map[string]models.ErrorStats
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	for name, s := range resp {
		if s.Count == 0 {
			t.Errorf("%s: empty group", name)
		}
		if s.Q1 > s.Median || s.Median > s.Q3 {
			t.Errorf("%s: quartiles out of order: %+v", name, s)
		}
		if s.IQR != s.Q3-s.Q1 {
			t.Errorf("%s: IQR mismatch: %+v", name, s)
		}
	}
}

func TestGetInverseMappings(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/get_inverse_mappings", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp map[string]map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp["airline"]["4"] != "SpiceJet" {
		t.Errorf("airline 4 = %q, want SpiceJet", resp["airline"]["4"])
	}
}

func TestGetHeatmapData(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/get_heatmap_data?model_name=ExtraTreesRegressor", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var cells []models.HeatmapCell
	if err := json.Unmarshal(w.Body.Bytes(), &cells); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(cells) != 2 {
		t.Fatalf("got %d cells, want 2", len(cells))
	}
	if cells[0].Airline != "AirAsia" || cells[1].Airline != "SpiceJet" {
		t.Errorf("cells = %v", cells)
	}
}

func TestGetHeatmapDataUnknownModel(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/get_heatmap_data?model_name=UnknownModel", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "heatmap_data_UnknownModel.json") {
		t.Errorf("404 body does not name the missing file: %s", w.Body.String())
	}
}

func TestGetHeatmapDataMissingParam(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/get_heatmap_data", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestGetData(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/data", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var records []map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(records) != 2 || records[0]["airline"] != "SpiceJet" {
		t.Errorf("records = %v", records)
	}
}

func TestAdminReload(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/admin/reload", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
