package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	AI         AIConfig
	APIKeys    APIKeysConfig
	Whatsapp   WhatsappConfig
	Calendar   CalendarConfig
	Dedup      DedupConfig
	Webhook    WebhookConfig
	WorkerPool WorkerPoolConfig
	Default    DefaultTenantConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	LogFormat          string // "text" | "json"
	BaseUrl            string
	CorsAllowedOrigins []string
	TrustedProxies     []string
	MockMode           bool
	EncryptionKey      string // cifra los access_token por número en la base de datos
	MonitorBuffer      int
}

type DatabaseConfig struct {
	Driver          string // "sqlite" | "postgres"
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB Name for Postgres
	SSLMode         string
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type AIConfig struct {
	Provider       string // "openai" | "gemini"
	Model          string
	MaxIterations  int
	HistoryLimit   int
	RequestTimeout time.Duration
}

type APIKeysConfig struct {
	OpenAI string
	Gemini string
}

type WhatsappConfig struct {
	GraphBaseURL  string
	APIVersion    string
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	AppSecret     string
	SendTimeout   time.Duration
	SendRate      float64 // mensajes por segundo por numero emisor
	SendBurst     int
}

type CalendarConfig struct {
	Provider        string // "google" | "memory"
	CalendarID      string
	CredentialsFile string
	Timezone        string
	RequestTimeout  time.Duration
	ListLimit       int
}

type DedupConfig struct {
	MemoryCapacity   int
	MemoryTTL        time.Duration
	DurableRetention time.Duration
	SweepInterval    time.Duration
	DurableStoreGorm bool
}

type WebhookConfig struct {
	Async bool
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

// DefaultTenantConfig describes the context used when a routing key is not mapped.
type DefaultTenantConfig struct {
	BusinessName string
	BusinessType string
	SettingsFile string
}

// LoadConfig loads configuration from Environment Variables or defaults.
func LoadConfig() (*Config, error) {
	storages := getEnv("APP_BASE_DIR", "storages")

	cors := []string{"http://localhost:3000"}
	if v := getEnv("APP_CORS_ALLOWED_ORIGINS", ""); v != "" {
		cors = splitCSV(v)
	}

	appCfg := AppConfig{
		Version:            getEnv("APP_VERSION", "v1.0.0"),
		Port:               getEnv("APP_PORT", "8000"),
		Debug:              getEnvBool("APP_DEBUG", false),
		Environment:        getEnv("APP_ENV", "development"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:8000"),
		CorsAllowedOrigins: cors,
		TrustedProxies:     splitCSV(getEnv("APP_TRUSTED_PROXIES", "")),
		MockMode:           getEnvBool("MOCK_MODE", false),
		EncryptionKey:      getEnv("APP_ENCRYPTION_KEY", ""),
		MonitorBuffer:      getEnvInt("MONITOR_BUFFER", 200),
	}

	dbCfg := DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", "sqlite"),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "azcitas:"),
	}
	if dbCfg.Driver == "postgres" {
		dbCfg.Name = getEnv("DB_NAME", "citas")
	} else {
		dbCfg.Name = getEnv("DB_NAME", filepath.Join(storages, "citas.db"))
	}

	aiCfg := AIConfig{
		Provider:       strings.ToLower(getEnv("AI_PROVIDER", "openai")),
		Model:          getEnv("AI_MODEL", ""),
		MaxIterations:  getEnvInt("AI_MAX_ITERATIONS", 5),
		HistoryLimit:   getEnvInt("AI_HISTORY_LIMIT", 10),
		RequestTimeout: getEnvDuration("AI_REQUEST_TIMEOUT", 60*time.Second),
	}

	waCfg := WhatsappConfig{
		GraphBaseURL:  getEnv("WHATSAPP_GRAPH_URL", "https://graph.facebook.com"),
		APIVersion:    getEnv("WHATSAPP_API_VERSION", "v18.0"),
		AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		VerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		AppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		SendTimeout:   getEnvDuration("WHATSAPP_SEND_TIMEOUT", 10*time.Second),
		SendRate:      getEnvFloat("WHATSAPP_SEND_RATE", 20),
		SendBurst:     getEnvInt("WHATSAPP_SEND_BURST", 5),
	}

	calCfg := CalendarConfig{
		Provider:        strings.ToLower(getEnv("CALENDAR_PROVIDER", "google")),
		CalendarID:      getEnv("CALENDAR_ID", "primary"),
		CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		Timezone:        getEnv("CALENDAR_TIMEZONE", "America/Bogota"),
		RequestTimeout:  getEnvDuration("CALENDAR_REQUEST_TIMEOUT", 15*time.Second),
		ListLimit:       getEnvInt("CALENDAR_LIST_LIMIT", 50),
	}
	if appCfg.MockMode && getEnv("CALENDAR_PROVIDER", "") == "" {
		calCfg.Provider = "memory"
	}

	dedupCfg := DedupConfig{
		MemoryCapacity:   getEnvInt("DEDUP_MEMORY_CAPACITY", 10000),
		MemoryTTL:        getEnvDuration("DEDUP_MEMORY_TTL", 24*time.Hour),
		DurableRetention: getEnvDuration("DEDUP_RETENTION", 7*24*time.Hour),
		SweepInterval:    getEnvDuration("DEDUP_SWEEP_INTERVAL", time.Hour),
		DurableStoreGorm: getEnvBool("DEDUP_DURABLE", true),
	}

	cfg := &Config{
		App:      appCfg,
		Database: dbCfg,
		AI:       aiCfg,
		APIKeys: APIKeysConfig{
			OpenAI: getEnv("OPENAI_API_KEY", ""),
			Gemini: getEnv("GEMINI_API_KEY", ""),
		},
		Whatsapp:   waCfg,
		Calendar:   calCfg,
		Dedup:      dedupCfg,
		Webhook:    WebhookConfig{Async: getEnvBool("WEBHOOK_ASYNC", false)},
		WorkerPool: WorkerPoolConfig{Size: getEnvInt("MESSAGE_WORKER_POOL_SIZE", 6), QueueSize: getEnvInt("MESSAGE_WORKER_QUEUE_SIZE", 250)},
		Default: DefaultTenantConfig{
			BusinessName: getEnv("DEFAULT_BUSINESS_NAME", "Business"),
			BusinessType: getEnv("DEFAULT_BUSINESS_TYPE", "barberia"),
			SettingsFile: getEnv("DEFAULT_BUSINESS_SETTINGS", ""),
		},
	}

	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.App, validation.By(func(any) error {
			return validation.ValidateStruct(&c.App,
				validation.Field(&c.App.Port, validation.Required),
				validation.Field(&c.App.LogFormat, validation.In("text", "json")),
			)
		})),
		validation.Field(&c.Database, validation.By(func(any) error {
			return validation.ValidateStruct(&c.Database,
				validation.Field(&c.Database.Driver, validation.Required, validation.In("sqlite", "postgres")),
				validation.Field(&c.Database.Name, validation.Required),
			)
		})),
		validation.Field(&c.AI, validation.By(func(any) error {
			return validation.ValidateStruct(&c.AI,
				validation.Field(&c.AI.Provider, validation.Required, validation.In("openai", "gemini")),
				validation.Field(&c.AI.MaxIterations, validation.Min(1)),
				validation.Field(&c.AI.HistoryLimit, validation.Min(1)),
			)
		})),
		validation.Field(&c.Calendar, validation.By(func(any) error {
			return validation.ValidateStruct(&c.Calendar,
				validation.Field(&c.Calendar.Provider, validation.Required, validation.In("google", "memory")),
			)
		})),
	)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.AI.Provider == "openai" && c.APIKeys.OpenAI == "" {
		return fmt.Errorf("invalid configuration: OPENAI_API_KEY is required for provider openai")
	}
	if c.AI.Provider == "gemini" && c.APIKeys.Gemini == "" {
		return fmt.Errorf("invalid configuration: GEMINI_API_KEY is required for provider gemini")
	}
	if c.Whatsapp.VerifyToken == "" {
		return fmt.Errorf("invalid configuration: WHATSAPP_VERIFY_TOKEN is required")
	}
	if !c.App.MockMode && c.Whatsapp.AccessToken == "" {
		return fmt.Errorf("invalid configuration: WHATSAPP_ACCESS_TOKEN is required outside mock mode")
	}
	return nil
}
