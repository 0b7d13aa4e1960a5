package common

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Queue     QueueConfig     `yaml:"queue"`
}

// DatabaseConfig holds store-related configuration. When DSN is empty the
// embedded SQLite store at Path is used.
type DatabaseConfig struct {
	DSN              string        `yaml:"dsn"`
	Path             string        `yaml:"path"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds the daemon's health endpoint configuration.
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
}

// ExtractorConfig holds text-extraction configuration.
type ExtractorConfig struct {
	Pdftotext     string        `yaml:"pdftotext"`
	Pdftoppm      string        `yaml:"pdftoppm"`
	Tesseract     string        `yaml:"tesseract"`
	TesseractLang string        `yaml:"tesseract_lang"`
	DPI           int           `yaml:"dpi"`
	Timeout       time.Duration `yaml:"timeout"`
}

// AnalyzerConfig holds the AI classification/extraction client configuration.
type AnalyzerConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// QueueConfig holds the extraction poll loop configuration.
type QueueConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			Path:             getEnv("DB_PATH", "bookkeeper.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Extractor: ExtractorConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			Timeout:       getEnvAsDuration("EXTRACT_TIMEOUT", 2*time.Minute),
		},
		Analyzer: AnalyzerConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 30*time.Second),
		},
		Queue: QueueConfig{
			PollInterval: getEnvAsDuration("QUEUE_POLL_INTERVAL", 5*time.Second),
		},
	}
}

// LoadConfigFile overlays values from a YAML file onto cfg. Missing file
// fields keep their env-derived values.
func LoadConfigFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return WrapError(err, "read config file")
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return WrapError(err, "parse config file")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" && c.Database.Path == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL or DB_PATH is required", ErrInvalidInput)
	}
	if c.Analyzer.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Queue.PollInterval <= 0 {
		return NewAppError("CONFIG_ERROR", "QUEUE_POLL_INTERVAL must be positive", ErrInvalidInput)
	}
	return nil
}
