package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"flight-price-api/config"
	"flight-price-api/models"

	"golang.org/x/sync/singleflight"
	"gonum.org/v1/gonum/stat"
)

// Short model identifiers used in per-model result file names, e.g.
// Results_merged_RandomForest.csv.
var resultsShortNames = map[string]string{
	models.RandomForest: "RandomForest",
	models.XGBoost:      "XGBoost",
	models.ExtraTrees:   "ExtraTrees",
	models.DecisionTree: "DecisionTree",
}

var mergedHeader = []string{"airline", "days_left", "Actual_Price", "Predicted_Price", "Prediction_Error", "model_name"}

// ResultsService owns the merged historical-results table and everything
// derived from it. The table is loaded lazily on first use behind a
// single-flight guard and held for the process lifetime; Invalidate drops it
// if the backing artifacts are replaced.
type ResultsService struct {
	artifacts config.ArtifactsConfig
	mappings  *MappingTable
	cache     *CacheService
	ttl       time.Duration

	group    singleflight.Group
	mu       sync.RWMutex
	merged   []models.ResultRecord
	heatmaps map[string][]models.HeatmapCell
}

func NewResultsService(artifacts config.ArtifactsConfig, mappings *MappingTable, cache *CacheService, ttl time.Duration) *ResultsService {
	return &ResultsService{
		artifacts: artifacts,
		mappings:  mappings,
		cache:     cache,
		ttl:       ttl,
		heatmaps:  make(map[string][]models.HeatmapCell),
	}
}

// ReadModelResults parses one model's historical results CSV and tags every
// row with the model name, deriving the signed prediction error.
func ReadModelResults(path, modelName string) ([]models.ResultRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	raw, err := r.ReadAll()
	if err != nil {
		return nil, models.NewAppError("results.read", models.KindData,
			fmt.Sprintf("malformed CSV %s", path), err)
	}
	if len(raw) < 1 {
		return nil, models.NewAppError("results.read", models.KindData,
			fmt.Sprintf("%s has no header row", path), nil)
	}

	cols, err := columnIndex(raw[0], "airline", "days_left", "Actual_Price", "Predicted_Price")
	if err != nil {
		return nil, models.NewAppError("results.read", models.KindData, path, err)
	}

	rows := make([]models.ResultRecord, 0, len(raw)-1)
	for i, rec := range raw[1:] {
		row, err := parseResultRow(rec, cols)
		if err != nil {
			return nil, models.NewAppError("results.read", models.KindData,
				fmt.Sprintf("%s row %d", path, i+2), err)
		}
		row.ModelName = modelName
		row.PredictionError = row.PredictedPrice - row.ActualPrice
		rows = append(rows, row)
	}

	return rows, nil
}

// MergeResults reads every per-model results file in the fixed model order
// and concatenates them, preserving per-file row order. Re-running on
// unchanged inputs reproduces the same table.
func MergeResults(artifacts config.ArtifactsConfig) ([]models.ResultRecord, error) {
	var merged []models.ResultRecord
	for _, name := range models.ModelNames {
		rows, err := ReadModelResults(artifacts.ResultsFile(resultsShortNames[name]), name)
		if err != nil {
			return nil, err
		}
		merged = append(merged, rows...)
	}
	return merged, nil
}

// WriteMergedCSV persists the merged table with the combined header.
func WriteMergedCSV(path string, rows []models.ResultRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(mergedHeader); err != nil {
		return err
	}
	for _, row := range rows {
		rec := []string{
			strconv.Itoa(row.Airline),
			strconv.Itoa(row.DaysLeft),
			formatFloat(row.ActualPrice),
			formatFloat(row.PredictedPrice),
			formatFloat(row.PredictionError),
			row.ModelName,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadMergedCSV parses the combined results table written by the aggregator.
func ReadMergedCSV(path string) ([]models.ResultRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	raw, err := r.ReadAll()
	if err != nil {
		return nil, models.NewAppError("results.read", models.KindData,
			fmt.Sprintf("malformed CSV %s", path), err)
	}
	if len(raw) < 1 {
		return nil, models.NewAppError("results.read", models.KindData,
			fmt.Sprintf("%s has no header row", path), nil)
	}

	cols, err := columnIndex(raw[0], "airline", "days_left", "Actual_Price", "Predicted_Price", "model_name")
	if err != nil {
		return nil, models.NewAppError("results.read", models.KindData, path, err)
	}

	rows := make([]models.ResultRecord, 0, len(raw)-1)
	for i, rec := range raw[1:] {
		row, err := parseResultRow(rec, cols)
		if err != nil {
			return nil, models.NewAppError("results.read", models.KindData,
				fmt.Sprintf("%s row %d", path, i+2), err)
		}
		row.ModelName = rec[cols["model_name"]]
		if row.ModelName == "" {
			return nil, models.NewAppError("results.read", models.KindData,
				fmt.Sprintf("%s row %d has an empty model_name", path, i+2), nil)
		}
		row.PredictionError = row.PredictedPrice - row.ActualPrice
		rows = append(rows, row)
	}

	return rows, nil
}

// Merged returns the in-process merged table, loading it on first use. The
// single-flight group keeps concurrent first requests from reading the file
// more than once. Falls back to merging the per-model files when the combined
// CSV has not been produced yet.
func (s *ResultsService) Merged(ctx context.Context) ([]models.ResultRecord, error) {
	s.mu.RLock()
	merged := s.merged
	s.mu.RUnlock()
	if merged != nil {
		return merged, nil
	}

	v, err, _ := s.group.Do("merged", func() (interface{}, error) {
		s.mu.RLock()
		cached := s.merged
		s.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		rows, err := ReadMergedCSV(s.artifacts.MergedResultsFile())
		if os.IsNotExist(err) {
			rows, err = MergeResults(s.artifacts)
		}
		if os.IsNotExist(err) {
			return nil, models.NewAppError("results.load", models.KindNotFound,
				fmt.Sprintf("results file %s not found", s.artifacts.MergedResultsFile()), err)
		}
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.merged = rows
		s.mu.Unlock()
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.ResultRecord), nil
}

// Invalidate drops every lazily loaded table so the next request reloads from
// disk. Hook for deployments that swap result artifacts in place.
func (s *ResultsService) Invalidate() {
	s.mu.Lock()
	s.merged = nil
	s.heatmaps = make(map[string][]models.HeatmapCell)
	s.mu.Unlock()
}

// GroupedErrorStats partitions the merged table by model and aggregates the
// signed prediction error per group.
func (s *ResultsService) GroupedErrorStats(ctx context.Context) (map[string]models.ErrorStats, error) {
	rows, err := s.Merged(ctx)
	if err != nil {
		return nil, err
	}
	return GroupErrorStats(rows), nil
}

// GroupErrorStats partitions rows by model name and aggregates the signed
// prediction error of each group.
func GroupErrorStats(rows []models.ResultRecord) map[string]models.ErrorStats {
	grouped := make(map[string][]float64)
	for _, row := range rows {
		grouped[row.ModelName] = append(grouped[row.ModelName], row.PredictionError)
	}

	out := make(map[string]models.ErrorStats, len(grouped))
	for name, errs := range grouped {
		out[name] = computeErrorStats(errs)
	}
	return out
}

func computeErrorStats(errs []float64) models.ErrorStats {
	sorted := make([]float64, len(errs))
	copy(sorted, errs)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)

	// Sample standard deviation is undefined for a single observation; report
	// 0 instead of letting NaN reach the JSON encoder.
	std := 0.0
	if len(sorted) > 1 {
		std = stat.StdDev(sorted, nil)
	}

	return models.ErrorStats{
		Count:  len(errs),
		Mean:   stat.Mean(sorted, nil),
		Std:    std,
		Median: quantile(sorted, 0.5),
		Q1:     q1,
		Q3:     q3,
		IQR:    q3 - q1,
	}
}

// quantile interpolates linearly between order statistics, the same scheme
// the historical result files were aggregated with. Input must be sorted.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	h := p * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// ModelResults returns every model's (days_left, actual, predicted) series in
// source row order.
func (s *ResultsService) ModelResults(ctx context.Context) (map[string][]models.TimeSeriesPoint, error) {
	rows, err := s.Merged(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]models.TimeSeriesPoint)
	for _, row := range rows {
		out[row.ModelName] = append(out[row.ModelName], models.TimeSeriesPoint{
			DaysLeft:       row.DaysLeft,
			ActualPrice:    row.ActualPrice,
			PredictedPrice: row.PredictedPrice,
		})
	}
	return out, nil
}

// PredictionErrors returns every model's raw signed errors in source row
// order.
func (s *ResultsService) PredictionErrors(ctx context.Context) (map[string][]float64, error) {
	rows, err := s.Merged(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]float64)
	for _, row := range rows {
		out[row.ModelName] = append(out[row.ModelName], row.PredictionError)
	}
	return out, nil
}

// ComputeHeatmap aggregates one model's rows into mean predicted price per
// (airline, days_left) cell, decoding the airline code to its label. Cells
// whose mean is non-finite are dropped so the payload never carries NaN or
// infinities. Output is sorted by (airline code, days_left) so repeated runs
// are byte-stable.
func ComputeHeatmap(rows []models.ResultRecord, modelName string, mappings *MappingTable) ([]models.HeatmapCell, error) {
	type key struct {
		airline  int
		daysLeft int
	}
	sums := make(map[key]float64)
	counts := make(map[key]int)
	for _, row := range rows {
		if row.ModelName != modelName {
			continue
		}
		k := key{airline: row.Airline, daysLeft: row.DaysLeft}
		sums[k] += row.PredictedPrice
		counts[k]++
	}

	keys := make([]key, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].airline != keys[j].airline {
			return keys[i].airline < keys[j].airline
		}
		return keys[i].daysLeft < keys[j].daysLeft
	})

	cells := make([]models.HeatmapCell, 0, len(keys))
	for _, k := range keys {
		mean := sums[k] / float64(counts[k])
		if math.IsNaN(mean) || math.IsInf(mean, 0) {
			continue
		}
		label, err := mappings.Decode("airline", k.airline)
		if err != nil {
			return nil, err
		}
		cells = append(cells, models.HeatmapCell{
			Airline:        label,
			DaysLeft:       k.daysLeft,
			PredictedPrice: mean,
		})
	}

	return cells, nil
}

// HeatmapData serves the heatmap payload for one model: precomputed JSON file
// when present, computed from the merged table otherwise, cached either way.
// An unknown model or an absent backing file is a not-found failure naming
// the file the caller would have to produce.
func (s *ResultsService) HeatmapData(ctx context.Context, modelName string) ([]models.HeatmapCell, error) {
	heatmapFile := s.artifacts.HeatmapFile(modelName)

	if !models.KnownModel(modelName) {
		return nil, models.NewAppError("results.heatmap", models.KindNotFound,
			fmt.Sprintf("heatmap file %s not found: unknown model_name %q", heatmapFile, modelName), nil)
	}

	s.mu.RLock()
	cells, ok := s.heatmaps[modelName]
	s.mu.RUnlock()
	if ok {
		return cells, nil
	}

	v, err, _ := s.group.Do("heatmap:"+modelName, func() (interface{}, error) {
		s.mu.RLock()
		cached, ok := s.heatmaps[modelName]
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}

		var cells []models.HeatmapCell
		if s.cache != nil {
			if err := s.cache.Get(ctx, "heatmap:"+modelName, &cells); err == nil && cells != nil {
				return cells, nil
			}
		}

		cells, err := loadHeatmapFile(heatmapFile)
		if os.IsNotExist(err) {
			var rows []models.ResultRecord
			rows, err = s.Merged(ctx)
			if err != nil {
				if appErr, ok := models.AsAppError(err); ok && appErr.Kind == models.KindNotFound {
					err = models.NewAppError("results.heatmap", models.KindNotFound,
						fmt.Sprintf("heatmap file %s not found and no merged results to compute it from", heatmapFile), err)
				}
				return nil, err
			}
			cells, err = ComputeHeatmap(rows, modelName, s.mappings)
		}
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.heatmaps[modelName] = cells
		s.mu.Unlock()

		if s.cache != nil {
			s.cache.Set(ctx, "heatmap:"+modelName, cells, s.ttl)
		}
		return cells, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.HeatmapCell), nil
}

// WriteHeatmapFile persists one model's heatmap payload as the JSON array the
// API serves verbatim.
func WriteHeatmapFile(path string, cells []models.HeatmapCell) error {
	byt, err := json.Marshal(cells)
	if err != nil {
		return err
	}
	return os.WriteFile(path, byt, 0o644)
}

func loadHeatmapFile(path string) ([]models.HeatmapCell, error) {
	byt, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cells []models.HeatmapCell
	if err := json.Unmarshal(byt, &cells); err != nil {
		return nil, models.NewAppError("results.heatmap", models.KindData,
			fmt.Sprintf("malformed heatmap file %s", path), err)
	}
	return cells, nil
}

func columnIndex(header []string, required ...string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func parseResultRow(rec []string, cols map[string]int) (models.ResultRecord, error) {
	var row models.ResultRecord
	var err error

	row.Airline, err = strconv.Atoi(rec[cols["airline"]])
	if err != nil {
		return row, fmt.Errorf("airline: %w", err)
	}
	row.DaysLeft, err = strconv.Atoi(rec[cols["days_left"]])
	if err != nil {
		return row, fmt.Errorf("days_left: %w", err)
	}
	row.ActualPrice, err = strconv.ParseFloat(rec[cols["Actual_Price"]], 64)
	if err != nil {
		return row, fmt.Errorf("Actual_Price: %w", err)
	}
	row.PredictedPrice, err = strconv.ParseFloat(rec[cols["Predicted_Price"]], 64)
	if err != nil {
		return row, fmt.Errorf("Predicted_Price: %w", err)
	}

	return row, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
