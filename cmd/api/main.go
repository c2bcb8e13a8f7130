package main

import (
	"fmt"
	"log"
	"time"

	"flight-price-api/config"
	"flight-price-api/handlers"
	"flight-price-api/middleware"
	"flight-price-api/models"
	"flight-price-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Artifacts load once and fail fast: the process must not serve without
	// its mapping tables and model ensembles.
	mappings, err := services.LoadMappingTable(cfg.Artifacts.MappingsFile, cfg.Artifacts.InverseMappingsFile)
	if err != nil {
		log.Fatalf("Failed to load encoding mappings: %v", err)
	}

	registry, err := services.LoadRegistry(cfg.Artifacts.ModelsDir, cfg.Artifacts.DefaultModel)
	if err != nil {
		log.Fatalf("Failed to load model artifacts: %v", err)
	}
	log.Printf("Loaded %d model artifacts, default model %s", len(models.ModelNames), registry.DefaultModel())

	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		log.Printf("Redis unavailable, serving without response cache: %v", err)
	}
	defer cache.Close()

	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	results := services.NewResultsService(cfg.Artifacts, mappings, cache, ttl)
	predictor := services.NewPredictor(registry, mappings)

	predictHandler := handlers.NewPredictHandler(predictor)
	resultsHandler := handlers.NewResultsHandler(results, cache, cfg.Artifacts.DatasetFile, ttl)
	heatmapHandler := handlers.NewHeatmapHandler(results)
	mappingsHandler := handlers.NewMappingsHandler(mappings)

	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "UP",
			"message": "Flight Price Prediction API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/predict", predictHandler.Predict)
	router.POST("/predict_airline_prices", predictHandler.PredictAirlinePrices)
	router.GET("/data", resultsHandler.GetData)
	router.GET("/get_model_results", resultsHandler.GetModelResults)
	router.GET("/get_model_results_prediction_error", resultsHandler.GetPredictionErrors)
	router.GET("/get_error_aggregates", resultsHandler.GetErrorAggregates)
	router.GET("/get_inverse_mappings", mappingsHandler.GetInverseMappings)
	router.GET("/get_heatmap_data", heatmapHandler.GetHeatmapData)
	router.POST("/admin/reload", resultsHandler.Reload)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
