// Package config reads server and CLI settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"clausecheck-backend/storage"

	"github.com/joho/godotenv"
)

// Config holds every setting of the service
type Config struct {
	Port string

	GeminiAPIKey string
	GeminiModel  string
	GeminiRPS    float64

	// DatabaseURL is optional; without it uploads are not recorded
	DatabaseURL     string
	RegulationsFile string

	MaxConcurrency    int
	CallTimeout       time.Duration
	MinClauseCount    int
	KeyIssueLimit     int
	BatchMaxDocuments int
	MaxUploadSize     int64

	Storage storage.StorageConfig
}

// LoadDotEnv loads a .env file from the current directory or the project root
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RegulationsFile: os.Getenv("REGULATIONS_FILE"),
	}

	var errs []error
	cfg.GeminiRPS = getFloat("GEMINI_RPS", 5, &errs)
	cfg.MaxConcurrency = getInt("ANALYSIS_MAX_CONCURRENCY", 8, &errs)
	cfg.CallTimeout = getDuration("ANALYSIS_CALL_TIMEOUT", 30*time.Second, &errs)
	cfg.MinClauseCount = getInt("ANALYSIS_MIN_CLAUSES", 3, &errs)
	cfg.KeyIssueLimit = getInt("ANALYSIS_KEY_ISSUES", 5, &errs)
	cfg.BatchMaxDocuments = getInt("BATCH_MAX_DOCUMENTS", 4, &errs)
	cfg.MaxUploadSize = int64(getInt("MAX_UPLOAD_SIZE", 10<<20, &errs))

	storageCfg, err := storageFromEnv()
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Storage = storageCfg

	if cfg.MaxConcurrency <= 0 {
		errs = append(errs, errors.New("ANALYSIS_MAX_CONCURRENCY must be positive"))
	}
	if cfg.BatchMaxDocuments <= 0 {
		errs = append(errs, errors.New("BATCH_MAX_DOCUMENTS must be positive"))
	}
	if cfg.MaxUploadSize <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_SIZE must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func storageFromEnv() (storage.StorageConfig, error) {
	cfg := storage.StorageConfig{
		Type: storage.StorageType(getEnv("STORAGE_TYPE", string(storage.StorageTypeLocal))),
	}

	switch cfg.Type {
	case storage.StorageTypeLocal:
		cfg.LocalPath = getEnv("STORAGE_LOCAL_PATH", "./storage/files")
	case storage.StorageTypeS3:
		cfg.S3Bucket = os.Getenv("AWS_S3_BUCKET")
		cfg.S3Region = getEnv("AWS_REGION", "us-east-1")
		cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
		if cfg.S3Bucket == "" {
			return cfg, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
	default:
		return cfg, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid number %q", key, v))
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return fallback
	}
	return d
}
