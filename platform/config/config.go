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

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// WebhookConfig provides settings for the inbound webhook intake.
type WebhookConfig interface {
	GetWebhookAPIKey() string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketMedia() string
	IsMinIOEnabled() bool
}

// QdrantConfig provides settings for the Qdrant vector database.
type QdrantConfig interface {
	GetQdrantURL() string
	GetQdrantAPIKey() string
	GetQdrantCollection() string
	IsQdrantEnabled() bool
}

// EmbeddingConfig provides settings for the embedding API service.
type EmbeddingConfig interface {
	GetEmbeddingAPIURL() string
	GetEmbeddingAPIKey() string
	GetEmbeddingDimensions() int
	IsEmbeddingEnabled() bool
}

// WhatsAppConfig provides settings for the messaging gateway adapter.
type WhatsAppConfig interface {
	GetWhatsAppBaseURL() string
	GetWhatsAppAPIKey() string
	GetWhatsAppDefaultDeviceID() string
}

// LLMConfig provides settings for the primary/fallback model adapters.
type LLMConfig interface {
	GetPrimaryModelAPIKey() string
	GetPrimaryModelID() string
	GetFallbackModelAPIKey() string
	GetFallbackModelID() string
	IsFallbackModelEnabled() bool
}

// TranscriptionConfig provides settings for audio transcription.
type TranscriptionConfig interface {
	GetWhisperModelPath() string
	IsTranscriptionEnabled() bool
}

// SchedulerConfig provides settings for the Redis-backed task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// FollowUpConfig provides settings for the follow-up executor.
type FollowUpConfig interface {
	GetFollowUpTickInterval() time.Duration
	GetQuietHoursStart() int
	GetQuietHoursEnd() int
	GetFollowUpBatchSize() int
}

// CalendarConfig provides settings for the calendar sync and reminder loop.
type CalendarConfig interface {
	GetCalendarProviderURL() string
	GetCalendarAPIKey() string
	GetReminderLeadTime() time.Duration
	GetMissedMeetingPolicy() string
	GetCalendarSyncInterval() time.Duration
	GetReminderTickInterval() time.Duration
}

// CRMConfig provides settings for the CRM adapter.
type CRMConfig interface {
	GetCRMBaseURL() string
	GetCRMAPIKey() string
	IsCRMEnabled() bool
}

// ScoringConfig provides settings for the qualification scoring service.
type ScoringConfig interface {
	GetMinBillThreshold() float64
	GetHotScoreMin() float64
}

// ConversationConfig provides settings for the orchestrator's humanized sender.
type ConversationConfig interface {
	GetTypingMaxMs() int
	GetChunkMaxChars() int
	GetKnowledgeTopK() int
	GetHybridAlpha() float64
	GetKnowledgeMinScore() float64
	GetSessionTrimTurns() int
	GetHistoryFetchLimit() int
	GetSendDelayCeiling() time.Duration
}

// RetryConfig provides settings shared by outbound HTTP clients.
type RetryConfig interface {
	GetRetryMaxAttempts() int
	GetCircuitBreakerMaxFailures() uint32
	GetCircuitBreakerResetTimeout() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env         string
	HTTPAddr    string
	DatabaseURL string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	WebhookAPIKey string

	MinIOEndpoint    string
	MinIOAccessKey   string
	MinIOSecretKey   string
	MinIOUseSSL      bool
	MinIOMaxFileSize int64
	MinioBucketMedia string

	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	EmbeddingAPIURL     string
	EmbeddingAPIKey     string
	EmbeddingDimensions int

	WhatsAppBaseURL        string
	WhatsAppAPIKey         string
	WhatsAppDefaultDevice  string

	PrimaryModelAPIKey   string
	PrimaryModelID       string
	FallbackModelAPIKey  string
	FallbackModelID      string

	WhisperModelPath string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	FollowUpTickInterval time.Duration
	QuietHoursStart      int
	QuietHoursEnd        int
	FollowUpBatchSize    int

	CalendarProviderURL  string
	CalendarAPIKey       string
	ReminderLeadTime     time.Duration
	MissedMeetingPolicy  string
	CalendarSyncInterval time.Duration
	ReminderTickInterval time.Duration

	CRMBaseURL string
	CRMAPIKey  string

	MinBillThreshold float64
	HotScoreMin      float64

	TypingMaxMs       int
	ChunkMaxChars     int
	KnowledgeTopK     int
	HybridAlpha       float64
	KnowledgeMinScore float64
	SessionTrimTurns  int
	HistoryFetchLimit int
	SendDelayCeiling  time.Duration

	RetryMaxAttempts            int
	CircuitBreakerMaxFailures   uint32
	CircuitBreakerResetTimeout  time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

func (c *Config) GetWebhookAPIKey() string { return c.WebhookAPIKey }

func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketMedia() string { return c.MinioBucketMedia }
func (c *Config) IsMinIOEnabled() bool       { return c.MinIOEndpoint != "" }

func (c *Config) GetQdrantURL() string        { return c.QdrantURL }
func (c *Config) GetQdrantAPIKey() string     { return c.QdrantAPIKey }
func (c *Config) GetQdrantCollection() string { return c.QdrantCollection }
func (c *Config) IsQdrantEnabled() bool {
	return c.QdrantURL != "" && c.QdrantCollection != ""
}

func (c *Config) GetEmbeddingAPIURL() string    { return c.EmbeddingAPIURL }
func (c *Config) GetEmbeddingAPIKey() string    { return c.EmbeddingAPIKey }
func (c *Config) GetEmbeddingDimensions() int   { return c.EmbeddingDimensions }
func (c *Config) IsEmbeddingEnabled() bool      { return c.EmbeddingAPIURL != "" }

func (c *Config) GetWhatsAppBaseURL() string       { return c.WhatsAppBaseURL }
func (c *Config) GetWhatsAppAPIKey() string        { return c.WhatsAppAPIKey }
func (c *Config) GetWhatsAppDefaultDeviceID() string { return c.WhatsAppDefaultDevice }

func (c *Config) GetPrimaryModelAPIKey() string  { return c.PrimaryModelAPIKey }
func (c *Config) GetPrimaryModelID() string      { return c.PrimaryModelID }
func (c *Config) GetFallbackModelAPIKey() string { return c.FallbackModelAPIKey }
func (c *Config) GetFallbackModelID() string     { return c.FallbackModelID }
func (c *Config) IsFallbackModelEnabled() bool   { return c.FallbackModelAPIKey != "" }

func (c *Config) GetWhisperModelPath() string   { return c.WhisperModelPath }
func (c *Config) IsTranscriptionEnabled() bool  { return c.WhisperModelPath != "" }

func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool    { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string    { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int     { return c.AsynqConcurrency }

func (c *Config) GetFollowUpTickInterval() time.Duration { return c.FollowUpTickInterval }
func (c *Config) GetQuietHoursStart() int                { return c.QuietHoursStart }
func (c *Config) GetQuietHoursEnd() int                  { return c.QuietHoursEnd }
func (c *Config) GetFollowUpBatchSize() int              { return c.FollowUpBatchSize }

func (c *Config) GetCalendarProviderURL() string { return c.CalendarProviderURL }
func (c *Config) GetCalendarAPIKey() string      { return c.CalendarAPIKey }
func (c *Config) GetReminderLeadTime() time.Duration     { return c.ReminderLeadTime }
func (c *Config) GetMissedMeetingPolicy() string         { return c.MissedMeetingPolicy }
func (c *Config) GetCalendarSyncInterval() time.Duration { return c.CalendarSyncInterval }
func (c *Config) GetReminderTickInterval() time.Duration { return c.ReminderTickInterval }

func (c *Config) GetCRMBaseURL() string { return c.CRMBaseURL }
func (c *Config) GetCRMAPIKey() string  { return c.CRMAPIKey }
func (c *Config) IsCRMEnabled() bool    { return c.CRMBaseURL != "" }

func (c *Config) GetMinBillThreshold() float64 { return c.MinBillThreshold }
func (c *Config) GetHotScoreMin() float64      { return c.HotScoreMin }

func (c *Config) GetTypingMaxMs() int     { return c.TypingMaxMs }
func (c *Config) GetChunkMaxChars() int        { return c.ChunkMaxChars }
func (c *Config) GetKnowledgeTopK() int        { return c.KnowledgeTopK }
func (c *Config) GetHybridAlpha() float64      { return c.HybridAlpha }
func (c *Config) GetKnowledgeMinScore() float64 { return c.KnowledgeMinScore }
func (c *Config) GetSessionTrimTurns() int      { return c.SessionTrimTurns }
func (c *Config) GetHistoryFetchLimit() int     { return c.HistoryFetchLimit }
func (c *Config) GetSendDelayCeiling() time.Duration { return c.SendDelayCeiling }

func (c *Config) GetRetryMaxAttempts() int                       { return c.RetryMaxAttempts }
func (c *Config) GetCircuitBreakerMaxFailures() uint32            { return c.CircuitBreakerMaxFailures }
func (c *Config) GetCircuitBreakerResetTimeout() time.Duration    { return c.CircuitBreakerResetTimeout }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),

		WebhookAPIKey: getEnv("WEBHOOK_API_KEY", ""),

		MinIOEndpoint:    getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:   getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:      strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize: mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "104857600")),
		MinioBucketMedia: getEnv("MINIO_BUCKET_MEDIA", "lead-media"),

		QdrantURL:        getEnv("QDRANT_URL", ""),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "knowledge"),

		EmbeddingAPIURL:     getEnv("EMBEDDING_API_URL", ""),
		EmbeddingAPIKey:     getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingDimensions: mustInt(getEnv("EMBEDDING_DIMENSIONS", "768")),

		WhatsAppBaseURL:       getEnv("WHATSAPP_BASE_URL", ""),
		WhatsAppAPIKey:        getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppDefaultDevice: getEnv("WHATSAPP_DEFAULT_DEVICE_ID", ""),

		PrimaryModelAPIKey:  getEnv("PRIMARY_MODEL_API_KEY", ""),
		PrimaryModelID:      getEnv("PRIMARY_MODEL_ID", "kimi-k2.5"),
		FallbackModelAPIKey: getEnv("FALLBACK_MODEL_API_KEY", ""),
		FallbackModelID:     getEnv("FALLBACK_MODEL_ID", ""),

		WhisperModelPath: getEnv("WHISPER_MODEL_PATH", ""),

		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE_NAME", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),

		FollowUpTickInterval: mustDuration(getEnv("FOLLOWUP_TICK_INTERVAL", "60s")),
		QuietHoursStart:      mustInt(getEnv("QUIET_HOURS_START", "20")),
		QuietHoursEnd:        mustInt(getEnv("QUIET_HOURS_END", "8")),
		FollowUpBatchSize:    mustInt(getEnv("FOLLOWUP_BATCH_SIZE", "10")),

		CalendarProviderURL:  getEnv("CALENDAR_PROVIDER_URL", ""),
		CalendarAPIKey:       getEnv("CALENDAR_API_KEY", ""),
		ReminderLeadTime:     mustDuration(getEnv("REMINDER_LEAD_TIME", "1h")),
		MissedMeetingPolicy:  getEnv("MISSED_MEETING_POLICY", "reschedule"),
		CalendarSyncInterval: mustDuration(getEnv("CALENDAR_SYNC_INTERVAL", "5m")),
		ReminderTickInterval: mustDuration(getEnv("REMINDER_TICK_INTERVAL", "60s")),

		CRMBaseURL: getEnv("CRM_BASE_URL", ""),
		CRMAPIKey:  getEnv("CRM_API_KEY", ""),

		MinBillThreshold: mustFloat(getEnv("MIN_BILL_THRESHOLD", "250")),
		HotScoreMin:      mustFloat(getEnv("HOT_SCORE_MIN", "75")),

		TypingMaxMs:   mustInt(getEnv("TYPING_MAX_MS", "4000")),
		ChunkMaxChars:     mustInt(getEnv("CHUNK_MAX_CHARS", "320")),
		KnowledgeTopK:     mustInt(getEnv("KNOWLEDGE_TOP_K", "5")),
		HybridAlpha:       mustFloat(getEnv("HYBRID_ALPHA", "0.6")),
		KnowledgeMinScore: mustFloat(getEnv("KNOWLEDGE_MIN_SCORE", "0.35")),
		SessionTrimTurns:  mustInt(getEnv("SESSION_TRIM_TURNS", "20")),
		HistoryFetchLimit: mustInt(getEnv("HISTORY_FETCH_LIMIT", "100")),
		SendDelayCeiling:  mustDuration(getEnv("SEND_DELAY_CEILING", "12s")),

		RetryMaxAttempts:           mustInt(getEnv("RETRY_MAX_ATTEMPTS", "3")),
		CircuitBreakerMaxFailures:  uint32(mustInt(getEnv("CIRCUIT_BREAKER_MAX_FAILURES", "5"))),
		CircuitBreakerResetTimeout: mustDuration(getEnv("CIRCUIT_BREAKER_RESET_TIMEOUT", "30s")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.PrimaryModelAPIKey == "" {
		return nil, fmt.Errorf("PRIMARY_MODEL_API_KEY is required")
	}
	if cfg.WebhookAPIKey == "" {
		return nil, fmt.Errorf("WEBHOOK_API_KEY is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.MissedMeetingPolicy != "lost" && cfg.MissedMeetingPolicy != "reschedule" {
		return nil, fmt.Errorf("MISSED_MEETING_POLICY must be 'lost' or 'reschedule'")
	}

	return cfg, nil
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

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
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
