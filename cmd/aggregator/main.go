// The aggregator is the offline companion of the API: it merges the
// per-model result CSVs exported by the training pipeline into one combined
// table, derives the signed prediction error, precomputes the heatmap JSON
// payloads, and logs the grouped error statistics. Re-running it on unchanged
// inputs reproduces identical outputs.
package main

import (
	"log"
	"time"

	"flight-price-api/config"
	"flight-price-api/models"
	"flight-price-api/services"

	"github.com/joho/godotenv"
)

func main() {
	start := time.Now()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	mappings, err := services.LoadMappingTable(cfg.Artifacts.MappingsFile, cfg.Artifacts.InverseMappingsFile)
	if err != nil {
		log.Fatalf("Failed to load encoding mappings: %v", err)
	}

	merged, err := services.MergeResults(cfg.Artifacts)
	if err != nil {
		log.Fatalf("Failed to merge model results: %v", err)
	}
	log.Printf("Merged %d rows across %d models", len(merged), len(models.ModelNames))

	mergedFile := cfg.Artifacts.MergedResultsFile()
	if err := services.WriteMergedCSV(mergedFile, merged); err != nil {
		log.Fatalf("Failed to write %s: %v", mergedFile, err)
	}
	log.Printf("Wrote %s", mergedFile)

	for _, name := range models.ModelNames {
		cells, err := services.ComputeHeatmap(merged, name, mappings)
		if err != nil {
			log.Fatalf("Failed to compute heatmap for %s: %v", name, err)
		}

		heatmapFile := cfg.Artifacts.HeatmapFile(name)
		if err := services.WriteHeatmapFile(heatmapFile, cells); err != nil {
			log.Fatalf("Failed to write %s: %v", heatmapFile, err)
		}
		log.Printf("Wrote %s (%d cells)", heatmapFile, len(cells))
	}

	logErrorStats(merged)

	log.Printf("Aggregation completed in %.2fs", time.Since(start).Seconds())
}

func logErrorStats(merged []models.ResultRecord) {
	stats := services.GroupErrorStats(merged)
	for _, name := range models.ModelNames {
		s, ok := stats[name]
		if !ok {
			continue
		}
		log.Printf("%-24s count=%d mean=%.2f std=%.2f median=%.2f q1=%.2f q3=%.2f iqr=%.2f",
			name, s.Count, s.Mean, s.Std, s.Median, s.Q1, s.Q3, s.IQR)
	}
}
