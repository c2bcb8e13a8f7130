package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Artifacts ArtifactsConfig
	Cache     CacheConfig
}

type ServerConfig struct {
	Port int
}

type CORSConfig struct {
	// AllowedOrigins is a comma-separated list; "*" allows everything.
	AllowedOrigins string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ArtifactsConfig locates the read-only outputs of the external training
// pipeline.
type ArtifactsConfig struct {
	ModelsDir           string
	MappingsFile        string
	InverseMappingsFile string
	DataDir             string
	DatasetFile         string
	DefaultModel        string
}

type CacheConfig struct {
	TTLSeconds int
}

// MergedResultsFile is the path of the combined results table produced by the
// offline aggregator.
func (a ArtifactsConfig) MergedResultsFile() string {
	return filepath.Join(a.DataDir, "Results_merged.csv")
}

// HeatmapFile is the path of the precomputed heatmap payload for one model.
func (a ArtifactsConfig) HeatmapFile(modelName string) string {
	return filepath.Join(a.DataDir, fmt.Sprintf("heatmap_data_%s.json", modelName))
}

// ResultsFile is the path of one model's historical results CSV, named after
// the short model identifier the training pipeline exported with.
func (a ArtifactsConfig) ResultsFile(shortName string) string {
	return filepath.Join(a.DataDir, fmt.Sprintf("Results_merged_%s.csv", shortName))
}

func LoadConfig() (*Config, error) {
	serverPort, err := getIntEnv("SERVER_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cacheTTL, err := getIntEnv("CACHE_TTL_SEC", 300)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_SEC: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Artifacts: ArtifactsConfig{
			ModelsDir:           getEnv("MODELS_DIR", "models"),
			MappingsFile:        getEnv("MAPPINGS_FILE", "encoding_mappings.json"),
			InverseMappingsFile: getEnv("INVERSE_MAPPINGS_FILE", "inverse_encoding_mappings.json"),
			DataDir:             getEnv("DATA_DIR", "Data"),
			DatasetFile:         getEnv("DATASET_FILE", filepath.Join("Data", "Clean_Dataset.csv")),
			DefaultModel:        getEnv("DEFAULT_MODEL", "ExtraTreesRegressor"),
		},
		Cache: CacheConfig{
			TTLSeconds: cacheTTL,
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
