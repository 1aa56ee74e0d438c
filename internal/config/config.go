package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendGoCV = "gocv"
	BackendONNX = "onnx"
)

type Config struct {
	Port              int
	Password          string // Empty disables authentication
	ModelPath         string
	DetectorBackend   string // BackendGoCV or BackendONNX
	ONNXLibraryPath   string
	ModelInputSize    int
	Confidence        float64
	IOUThreshold      float64
	ClassNames        []string
	ProcessingWorkers int
	DatabasePath      string
	LogDirectory      string
	StaticDirectory   string
	DatasetRoots      []string // Extra directories scanned by the directory browser
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:              getEnvAsInt("PORT", 5002),
		Password:          getEnv("PASSWORD", ""),
		ModelPath:         getEnv("MODEL_PATH", filepath.Join(".", "models", "best.onnx")),
		DetectorBackend:   getEnv("DETECTOR_BACKEND", BackendGoCV),
		ONNXLibraryPath:   getEnv("ONNX_LIBRARY_PATH", ""),
		ModelInputSize:    getEnvAsInt("MODEL_INPUT_SIZE", 640),
		Confidence:        getEnvAsFloat("CONFIDENCE", 0.25),
		IOUThreshold:      getEnvAsFloat("IOU_THRESHOLD", 0.45),
		ClassNames:        getEnvAsList("CLASS_NAMES", []string{"straight", "L-shape", "U-shape", "complex"}),
		ProcessingWorkers: getEnvAsInt("PROCESSING_WORKERS", 3),
		DatabasePath:      getEnv("DB_PATH", filepath.Join(".", "data", "annotations.db")),
		LogDirectory:      getEnv("LOG_DIR", filepath.Join(".", "logs")),
		StaticDirectory:   getEnv("STATIC_DIR", filepath.Join(".", "static")),
		DatasetRoots:      getEnvAsList("DATASET_ROOTS", nil),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
