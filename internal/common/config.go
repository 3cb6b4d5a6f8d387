package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/scavenger/constants"
)

// Storage backends.
const (
	BackendLocal     = "local"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Extraction providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Campus   CampusConfig
	Notifier NotifierConfig
}

// ServerConfig holds HTTP/gRPC listener configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCHealthAddr string
	PublicDir      string
	MaxUploadMB    int
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Backend            string
	DataDir            string
	DSN                string
	SQLitePath         string
	FirestoreProjectID string
	MaxConns           int32
	MinConns           int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	DialTimeout        time.Duration
}

// LLMConfig holds extraction provider configuration
type LLMConfig struct {
	Provider      string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	Timeout       time.Duration
}

// CampusConfig holds the campus-local defaults applied to extracted times
type CampusConfig struct {
	Timezone string
}

// NotifierConfig sizes the best-effort flyer status queue
type NotifierConfig struct {
	Workers   int
	QueueSize int
}

// envFiles are loaded in order; earlier files win because godotenv never
// overrides variables that are already set.
var envFiles = []string{".env.local", ".env"}

// LoadConfig loads .env files (if present) and then reads the environment.
func LoadConfig() *Config {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
	return configFromEnv()
}

func configFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
			GRPCHealthAddr: os.Getenv("GRPC_HEALTH_ADDR"),
			PublicDir:      getEnv("PUBLIC_DIR", "./public"),
			MaxUploadMB:    getEnvAsInt("MAX_UPLOAD_MB", constants.MaxUploadMBDefault),
		},
		Storage: StorageConfig{
			Backend:            strings.ToLower(getEnv("STORAGE_BACKEND", BackendLocal)),
			DataDir:            getEnv("DATA_DIR", "./data"),
			DSN:                getEnv("DB_URL", ""),
			SQLitePath:         getEnv("SQLITE_PATH", "./data/scavenger.db"),
			FirestoreProjectID: getEnv("FIRESTORE_PROJECT_ID", ""),
			MaxConns:           getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:           getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:    getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:    getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:        getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		LLM: LLMConfig{
			Provider:      strings.ToLower(getEnv("EXTRACTION_PROVIDER", ProviderOpenAI)),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			GeminiBaseURL: getEnv("GEMINI_BASE_URL", ""),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 0),
		},
		Campus: CampusConfig{
			Timezone: getEnv("CAMPUS_TIMEZONE", constants.DefaultCampusTimezone),
		},
		Notifier: NotifierConfig{
			Workers:   getEnvAsInt("STATUS_WORKERS", 1),
			QueueSize: getEnvAsInt("STATUS_QUEUE_SIZE", 64),
		},
	}
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the settings every component depends on. Provider
// credentials are checked separately by ValidateProvider so the server can
// start without them.
func (c *Config) Validate() error {
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	if _, err := c.Campus.Location(); err != nil {
		return err
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return NewAppError(CodeInvalidConfig, fmt.Sprintf("unknown EXTRACTION_PROVIDER %q", c.LLM.Provider), ErrInvalidInput)
	}
	return nil
}

// ValidateStorage returns a missing-config error for the key the selected backend needs.
func (c *Config) ValidateStorage() error {
	return c.Storage.Validate()
}

func (c StorageConfig) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.DataDir == "" {
			return MissingConfigError("DATA_DIR")
		}
	case BackendPostgres:
		if c.DSN == "" {
			return MissingConfigError("DB_URL")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return MissingConfigError("SQLITE_PATH")
		}
	case BackendFirestore:
		if c.FirestoreProjectID == "" {
			return MissingConfigError("FIRESTORE_PROJECT_ID")
		}
	default:
		return NewAppError(CodeInvalidConfig, fmt.Sprintf("unknown STORAGE_BACKEND %q", c.Backend), ErrInvalidInput)
	}
	return nil
}

// ValidateProvider returns a missing-config error naming the credential of
// the selected extraction provider.
func (c *LLMConfig) ValidateProvider() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return MissingConfigError("OPENAI_API_KEY")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return MissingConfigError("GEMINI_API_KEY")
		}
	default:
		return NewAppError(CodeInvalidConfig, fmt.Sprintf("unknown EXTRACTION_PROVIDER %q", c.Provider), ErrInvalidInput)
	}
	return nil
}

// Location resolves the campus timezone.
func (c CampusConfig) Location() (*time.Location, error) {
	tz := c.Timezone
	if tz == "" {
		tz = constants.DefaultCampusTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, NewAppError(CodeInvalidConfig, fmt.Sprintf("invalid CAMPUS_TIMEZONE %q", tz), err)
	}
	return loc, nil
}

// SetupHint returns guidance for a missing-configuration error.
func SetupHint(err error) string {
	if !IsMissingConfig(err) {
		return ""
	}
	msg := Message(err)
	key := strings.TrimPrefix(msg, MissingConfigPrefix)
	if key == msg {
		return "Create .env.local and set the missing variable."
	}
	return fmt.Sprintf("Create .env.local and set %s.", key)
}
