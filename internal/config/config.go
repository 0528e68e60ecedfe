package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"

	BlobMinio      = "minio"
	BlobCloudinary = "cloudinary"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Document store
	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	// Blob store
	BlobDriver        string `mapstructure:"BLOB_DRIVER"`
	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3BucketName      string `mapstructure:"S3_BUCKET_NAME"`
	S3UseSSL          bool   `mapstructure:"S3_USE_SSL"`
	CloudinaryURL     string `mapstructure:"CLOUDINARY_URL"`

	// OpenRouter
	OpenRouterAPIKey  string        `mapstructure:"OPENROUTER_API_KEY"`
	OpenRouterModel   string        `mapstructure:"OPENROUTER_MODEL"`
	OpenRouterBaseURL string        `mapstructure:"OPENROUTER_BASE_URL"`
	AITimeout         time.Duration `mapstructure:"AI_TIMEOUT"`

	// Text extraction
	OCRTimeout     time.Duration `mapstructure:"OCR_TIMEOUT"`
	OCRLanguage    string        `mapstructure:"OCR_LANGUAGE"`
	PDFOCRMaxPages int           `mapstructure:"PDF_OCR_MAX_PAGES"`
	PdftoppmPath   string        `mapstructure:"PDFTOPPM_PATH"`

	// Upload limits
	MaxFileSize int64 `mapstructure:"MAX_FILE_SIZE"`

	// Shared reports
	ShareTTL            time.Duration `mapstructure:"SHARE_TTL"`
	ExpirySweepSchedule string        `mapstructure:"EXPIRY_SWEEP_SCHEDULE"`

	JWTSecret string `mapstructure:"JWT_SECRET"`
}

var keys = []string{
	"PORT", "LOG_LEVEL",
	"STORE_DRIVER", "DATABASE_URL", "MONGO_URI", "MONGO_DATABASE",
	"BLOB_DRIVER", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_BUCKET_NAME", "S3_USE_SSL",
	"CLOUDINARY_URL",
	"OPENROUTER_API_KEY", "OPENROUTER_MODEL", "OPENROUTER_BASE_URL", "AI_TIMEOUT",
	"OCR_TIMEOUT", "OCR_LANGUAGE", "PDF_OCR_MAX_PAGES", "PDFTOPPM_PATH",
	"MAX_FILE_SIZE",
	"SHARE_TTL", "EXPIRY_SWEEP_SCHEDULE",
	"JWT_SECRET",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreSQLite)
	v.SetDefault("DATABASE_URL", "data/health-records.db")
	v.SetDefault("MONGO_DATABASE", "health_records")
	v.SetDefault("BLOB_DRIVER", BlobMinio)
	v.SetDefault("S3_ENDPOINT", "localhost:9000")
	v.SetDefault("S3_ACCESS_KEY_ID", "minioadmin")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "minioadmin")
	v.SetDefault("S3_BUCKET_NAME", "reports")
	v.SetDefault("S3_USE_SSL", false)
	v.SetDefault("OPENROUTER_MODEL", "openai/gpt-4o-mini")
	v.SetDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("AI_TIMEOUT", "60s")
	v.SetDefault("OCR_TIMEOUT", "30s")
	v.SetDefault("OCR_LANGUAGE", "eng")
	v.SetDefault("PDF_OCR_MAX_PAGES", 10)
	v.SetDefault("PDFTOPPM_PATH", "pdftoppm")
	v.SetDefault("MAX_FILE_SIZE", 10<<20)
	v.SetDefault("SHARE_TTL", "2160h")
	v.SetDefault("EXPIRY_SWEEP_SCHEDULE", "@hourly")

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	// A missing .env is fine; the environment alone is enough.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks enum settings and the values each selected backend needs.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is %q", StoreSQLite)
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER is %q", StoreMongo)
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreSQLite, StoreMongo, c.StoreDriver)
	}

	switch c.BlobDriver {
	case BlobMinio:
		if c.S3Endpoint == "" || c.S3BucketName == "" {
			return fmt.Errorf("S3_ENDPOINT and S3_BUCKET_NAME are required when BLOB_DRIVER is %q", BlobMinio)
		}
	case BlobCloudinary:
		if c.CloudinaryURL == "" {
			return fmt.Errorf("CLOUDINARY_URL is required when BLOB_DRIVER is %q", BlobCloudinary)
		}
	default:
		return fmt.Errorf("BLOB_DRIVER must be %q or %q, got %q", BlobMinio, BlobCloudinary, c.BlobDriver)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.OCRTimeout <= 0 {
		return fmt.Errorf("OCR_TIMEOUT must be positive")
	}
	if c.PDFOCRMaxPages <= 0 {
		return fmt.Errorf("PDF_OCR_MAX_PAGES must be positive")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}

	return nil
}

// AIConfigured reports whether an OpenRouter key was supplied.
func (c *Config) AIConfigured() bool {
	return c.OpenRouterAPIKey != ""
}
