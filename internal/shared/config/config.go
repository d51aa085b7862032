package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"pathpilot-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	DatabaseURL     string
	CORSAllowOrigin []string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	LLMProvider     string
	LLMModel        string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	LLMTimeout      time.Duration
	MaxUploadSizeMB int
	DefaultUserID   int64
	RateLimitRPS    float64
	RateLimitBurst  int
	// Generation limits apply to routes that call the model.
	GenerationRPS   float64
	GenerationBurst int
}

var defaults = map[string]any{
	"PORT":               "8080",
	"ENV":                "dev",
	"LOG_LEVEL":          "info",
	"CORS_ALLOW_ORIGINS": "http://localhost:5173",
	"OBJECT_STORE":       "local",
	"LOCAL_STORE_DIR":    "./data",
	"LLM_PROVIDER":       "gemini",
	"LLM_MODEL":          "",
	"LLM_TIMEOUT":        "60s",
	"MAX_UPLOAD_SIZE_MB": 10,
	"DEFAULT_USER_ID":    1,
	"RATE_LIMIT_RPS":     2.0,
	"RATE_LIMIT_BURST":   10,

	"RATE_LIMIT_GENERATION_RPS":   0.2,
	"RATE_LIMIT_GENERATION_BURST": 3,
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience; existing env wins.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	for _, key := range []string{"DATABASE_URL", "AWS_REGION", "S3_BUCKET", "S3_PREFIX", "SSE_KMS_KEY_ID", "GEMINI_API_KEY", "OPENAI_API_KEY"} {
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if env == "production" && dbURL == "" {
		telemetry.Error("config_missing_database_url", map[string]any{"env": env})
	}

	maxUpload := v.GetInt("MAX_UPLOAD_SIZE_MB")
	if maxUpload <= 0 {
		maxUpload = 10
	}
	userID := v.GetInt64("DEFAULT_USER_ID")
	if userID <= 0 {
		userID = 1
	}
	timeout := v.GetDuration("LLM_TIMEOUT")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return Config{
		Port:            v.GetString("PORT"),
		Env:             env,
		LogLevel:        v.GetString("LOG_LEVEL"),
		DatabaseURL:     dbURL,
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		ObjectStoreType: normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:   v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:       v.GetString("AWS_REGION"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		S3Prefix:        v.GetString("S3_PREFIX"),
		SSEKMSKeyID:     v.GetString("SSE_KMS_KEY_ID"),
		LLMProvider:     normalizeProvider(v.GetString("LLM_PROVIDER")),
		LLMModel:        strings.TrimSpace(v.GetString("LLM_MODEL")),
		GeminiAPIKey:    strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		OpenAIAPIKey:    strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		LLMTimeout:      timeout,
		MaxUploadSizeMB: maxUpload,
		DefaultUserID:   userID,
		RateLimitRPS:    v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:  v.GetInt("RATE_LIMIT_BURST"),
		GenerationRPS:   v.GetFloat64("RATE_LIMIT_GENERATION_RPS"),
		GenerationBurst: v.GetInt("RATE_LIMIT_GENERATION_BURST"),
	}
}

// MaxUploadBytes is the upload ceiling in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadSizeMB) << 20
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	default:
		return "gemini"
	}
}
