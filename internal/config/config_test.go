package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, BlobMinio, cfg.BlobDriver)
	assert.Equal(t, 30*time.Second, cfg.OCRTimeout)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
	assert.Equal(t, 10, cfg.PDFOCRMaxPages)
	assert.Equal(t, int64(10<<20), cfg.MaxFileSize)
	assert.Equal(t, 90*24*time.Hour, cfg.ShareTTL)
	assert.False(t, cfg.AIConfigured())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("OCR_TIMEOUT", "5s")
	t.Setenv("STORE_DRIVER", StoreMongo)
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.OCRTimeout)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.True(t, cfg.AIConfigured())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreDriver:    StoreSQLite,
			DatabaseURL:    "data/test.db",
			BlobDriver:     BlobMinio,
			S3Endpoint:     "localhost:9000",
			S3BucketName:   "reports",
			JWTSecret:      "secret",
			OCRTimeout:     30 * time.Second,
			PDFOCRMaxPages: 10,
			MaxFileSize:    10 << 20,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown store", mutate: func(c *Config) { c.StoreDriver = "firestore" }, wantErr: "STORE_DRIVER"},
		{name: "mongo without uri", mutate: func(c *Config) { c.StoreDriver = StoreMongo }, wantErr: "MONGO_URI"},
		{name: "cloudinary without url", mutate: func(c *Config) { c.BlobDriver = BlobCloudinary }, wantErr: "CLOUDINARY_URL"},
		{name: "missing jwt secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "zero ocr timeout", mutate: func(c *Config) { c.OCRTimeout = 0 }, wantErr: "OCR_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
