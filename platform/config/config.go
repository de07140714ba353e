// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// DataForSEOConfig provides credentials and limits for the DataForSEO API.
type DataForSEOConfig interface {
	GetDataForSEOLogin() string
	GetDataForSEOPassword() string
	GetDataForSEOBaseURL() string
	GetDataForSEORequestsPerMinute() int
	GetDataForSEOTimeout() time.Duration
	IsDataForSEOEnabled() bool
}

// CacheConfig provides settings for the upstream response cache.
type CacheConfig interface {
	GetRedisURL() string
	GetUpstreamCacheTTL() time.Duration
}

// SchedulerConfig provides settings for the asynq job queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// StorageConfig provides settings for MinIO S3-compatible storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketAuditBundles() string
	IsMinIOEnabled() bool
}

// PitchConfig provides settings for the Gemini pitch generator.
type PitchConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	IsPitchEnabled() bool
}

// SMTPConfig provides settings for report emails.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsSMTPEnabled() bool
}

// LocationConfig provides optional gazetteer overrides.
type LocationConfig interface {
	GetGazetteerPath() string
	GetRegionGazetteerPath() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	DatabaseURL              string
	JWTAccessSecret          string
	AccessTokenTTL           time.Duration
	RefreshTokenTTL          time.Duration
	CORSAllowAll             bool
	CORSOrigins              []string
	CORSAllowCreds           bool
	DataForSEOLogin          string
	DataForSEOPassword       string
	DataForSEOBaseURL        string
	DataForSEORequestsPerMin int
	DataForSEOTimeout        time.Duration
	RedisURL                 string
	RedisTLSInsecure         bool
	UpstreamCacheTTL         time.Duration
	AsynqQueueName           string
	AsynqConcurrency         int
	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	MinioBucketAuditBundles  string
	GeminiAPIKey             string
	GeminiModel              string
	SMTPHost                 string
	SMTPPort                 int
	SMTPUsername             string
	SMTPPassword             string
	EmailFromName            string
	EmailFromAddress         string
	GazetteerPath            string
	RegionGazetteerPath      string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AuthServiceConfig implementation
func (c *Config) GetAccessTokenTTL() time.Duration  { return c.AccessTokenTTL }
func (c *Config) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// DataForSEOConfig implementation
func (c *Config) GetDataForSEOLogin() string          { return c.DataForSEOLogin }
func (c *Config) GetDataForSEOPassword() string       { return c.DataForSEOPassword }
func (c *Config) GetDataForSEOBaseURL() string        { return c.DataForSEOBaseURL }
func (c *Config) GetDataForSEORequestsPerMinute() int { return c.DataForSEORequestsPerMin }
func (c *Config) GetDataForSEOTimeout() time.Duration { return c.DataForSEOTimeout }
func (c *Config) IsDataForSEOEnabled() bool {
	return c.DataForSEOLogin != "" && c.DataForSEOPassword != ""
}

// CacheConfig / SchedulerConfig implementation
func (c *Config) GetRedisURL() string                { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool          { return c.RedisTLSInsecure }
func (c *Config) GetUpstreamCacheTTL() time.Duration { return c.UpstreamCacheTTL }
func (c *Config) GetAsynqQueueName() string          { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int           { return c.AsynqConcurrency }

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string           { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string          { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string          { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool               { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketAuditBundles() string { return c.MinioBucketAuditBundles }
func (c *Config) IsMinIOEnabled() bool               { return c.MinIOEndpoint != "" }

// PitchConfig implementation
func (c *Config) GetGeminiAPIKey() string { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string  { return c.GeminiModel }
func (c *Config) IsPitchEnabled() bool    { return c.GeminiAPIKey != "" }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsSMTPEnabled() bool         { return c.SMTPHost != "" && c.EmailFromAddress != "" }

// LocationConfig implementation
func (c *Config) GetGazetteerPath() string       { return c.GazetteerPath }
func (c *Config) GetRegionGazetteerPath() string { return c.RegionGazetteerPath }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := FromEnv()

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if (cfg.DataForSEOLogin == "") != (cfg.DataForSEOPassword == "") {
		return nil, fmt.Errorf("DATAFORSEO_LOGIN and DATAFORSEO_PASSWORD must be set together")
	}

	return cfg, nil
}

// FromEnv builds a Config from the current environment without validation.
// Command-line tools that need only a subset of settings use it directly.
func FromEnv() *Config {
	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	return &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		JWTAccessSecret:          getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:           mustDuration(getEnv("JWT_ACCESS_TTL", "15m")),
		RefreshTokenTTL:          mustDuration(getEnv("JWT_REFRESH_TTL", "720h")),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		CORSAllowCreds:           strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		DataForSEOLogin:          getEnv("DATAFORSEO_LOGIN", ""),
		DataForSEOPassword:       getEnv("DATAFORSEO_PASSWORD", ""),
		DataForSEOBaseURL:        getEnv("DATAFORSEO_BASE_URL", "https://api.dataforseo.com"),
		DataForSEORequestsPerMin: mustInt(getEnv("DATAFORSEO_REQUESTS_PER_MINUTE", "120")),
		DataForSEOTimeout:        mustDuration(getEnv("DATAFORSEO_TIMEOUT", "45s")),
		RedisURL:                 getEnv("REDIS_URL", ""),
		RedisTLSInsecure:         strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		UpstreamCacheTTL:         mustDuration(getEnv("UPSTREAM_CACHE_TTL", "24h")),
		AsynqQueueName:           getEnv("ASYNQ_QUEUE", "audits"),
		AsynqConcurrency:         mustInt(getEnv("ASYNQ_CONCURRENCY", "4")),
		MinIOEndpoint:            getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:           getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:           getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:              strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketAuditBundles:  getEnv("MINIO_BUCKET_AUDIT_BUNDLES", "audit-bundles"),
		GeminiAPIKey:             getEnv("GEMINI_API_KEY", ""),
		GeminiModel:              getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		SMTPHost:                 getEnv("SMTP_HOST", ""),
		SMTPPort:                 mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:             getEnv("SMTP_USERNAME", ""),
		SMTPPassword:             getEnv("SMTP_PASSWORD", ""),
		EmailFromName:            getEnv("EMAIL_FROM_NAME", "LeadScout"),
		EmailFromAddress:         getEnv("EMAIL_FROM_ADDRESS", ""),
		GazetteerPath:            getEnv("GAZETTEER_PATH", ""),
		RegionGazetteerPath:      getEnv("REGION_GAZETTEER_PATH", ""),
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
