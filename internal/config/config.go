package config

import (
	"os"
	"strconv"
	"strings"

	"phenosum/domain/diagnosis"
	"phenosum/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Database DatabaseConfig
	Server   ServerConfig
	Analysis AnalysisConfig
	LogLevel string
}

// DataConfig locates the input tables
type DataConfig struct {
	Dir           string
	Assessments   []string
	DataType      string
	DiagnosisFile string
	AnalysisFile  string
}

// DatabaseConfig holds the optional export database settings
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// Data types accepted for response files
const (
	DataTypePreprocessed = "preprocessed"
	DataTypeRaw          = "raw"
)

// DefaultDataDir is the data directory used when PHENOSUM_DATA_DIR is unset
const DefaultDataDir = "."

// DefaultAssessments are the questionnaire sources loaded when none are given
var DefaultAssessments = []string{"Parent", "Child", "Teacher"}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Data:     loadDataConfig(),
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Server:   loadServerConfig(),
		Analysis: DefaultAnalysis(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if cfg.Data.AnalysisFile != "" {
		analysis, err := LoadAnalysisFile(cfg.Data.AnalysisFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load analysis configuration")
		}
		cfg.Analysis = analysis
	}

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return cfg, nil
}

func loadDataConfig() DataConfig {
	return DataConfig{
		Dir:           getEnvOrDefault("PHENOSUM_DATA_DIR", DefaultDataDir),
		Assessments:   getEnvListOrDefault("PHENOSUM_ASSESSMENTS", DefaultAssessments),
		DataType:      getEnvOrDefault("PHENOSUM_DATA_TYPE", DataTypePreprocessed),
		DiagnosisFile: getEnvOrDefault("PHENOSUM_DIAGNOSIS_FILE", diagnosis.DefaultFile),
		AnalysisFile:  os.Getenv("PHENOSUM_ANALYSIS_FILE"),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Data.Dir == "" {
		return errors.ConfigInvalid("data directory is required")
	}
	if len(cfg.Data.Assessments) == 0 {
		return errors.ConfigInvalid("at least one assessment is required")
	}
	switch cfg.Data.DataType {
	case DataTypePreprocessed, DataTypeRaw:
	default:
		return errors.ConfigInvalid("data type must be preprocessed or raw, got " + cfg.Data.DataType)
	}
	if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		return errors.ConfigInvalid("PORT must be numeric, got " + cfg.Server.Port)
	}
	return cfg.Analysis.Validate()
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
