// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the service needs at startup.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// ModelID is the inference model, e.g. "facebook/detr-resnet-50".
	ModelID string

	// APIBaseURL is the inference router base; the model ID is appended.
	// Empty selects the client default.
	APIBaseURL string

	// Token is the optional bearer token for the inference API.
	Token string

	// InferenceTimeout bounds a single call to the inference API.
	InferenceTimeout time.Duration

	// ReadTimeout and WriteTimeout apply to the HTTP server.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxUploadBytes limits accepted request bodies.
	MaxUploadBytes int64

	// DefaultThreshold and DefaultTopK are used when a request omits the
	// parameters.
	DefaultThreshold float64
	DefaultTopK      int

	// BoxColor optionally forces a single box color as a hex string like
	// "#FF0000". Empty selects per-label colors.
	BoxColor string

	// LogLevel is a logrus level name: debug, info, warn, error.
	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (*Config, error) {
	// Ignore a missing .env; it only exists in local setups.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:             ":" + getEnv("PORT", "8080"),
		ModelID:          getEnv("MODEL_ID", "facebook/detr-resnet-50"),
		APIBaseURL:       getEnv("HF_API_BASE", ""),
		Token:            getEnv("HF_TOKEN", ""),
		InferenceTimeout: getEnvDuration("INFERENCE_TIMEOUT", 60*time.Second),
		ReadTimeout:      getEnvDuration("READ_TIMEOUT", 65*time.Second),
		WriteTimeout:     getEnvDuration("WRITE_TIMEOUT", 65*time.Second),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
		DefaultThreshold: getEnvFloat("DEFAULT_THRESHOLD", 0.5),
		DefaultTopK:      getEnvInt("DEFAULT_TOP_K", 50),
		BoxColor:         getEnv("BOX_COLOR", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	if cfg.ModelID == "" {
		return nil, fmt.Errorf("MODEL_ID must not be empty")
	}
	if cfg.DefaultThreshold < 0 || cfg.DefaultThreshold > 1 {
		return nil, fmt.Errorf("DEFAULT_THRESHOLD %g outside [0, 1]", cfg.DefaultThreshold)
	}
	if cfg.DefaultTopK < 1 {
		return nil, fmt.Errorf("DEFAULT_TOP_K must be at least 1, got %d", cfg.DefaultTopK)
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
