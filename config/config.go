package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

// Config holds the run-scoped configuration.
// It is read from the environment once at process start and passed explicitly
// to every component; components never read the environment themselves.
type Config struct {
	// Storage
	AWSRegion   string
	AWSEndpoint string
	Bucket      string

	// Training run
	Tenant            string
	TrainingID        string
	TrainingConfigKey string `env:"TRAINING_CONFIG_KEY" validate:"required"`
	ModelKey          string `env:"MODEL_KEY" validate:"required"`

	// Status tracking
	APIURL             string
	StatusTimeout      time.Duration
	JournalDatabaseURL string

	// Serving engine
	EngineBin            string
	EnginePort           int
	WorkDir              string
	ReadinessInterval    time.Duration
	ReadinessMaxAttempts int

	// Serve mode
	Model           string
	TemplateDir     string
	ConfigDir       string
	TrackerStoreURL string

	ShellBin string
	Debug    bool
}

// DefaultModel is served when no model reference is configured
const DefaultModel = "default/models/model.tar.gz"

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint: getEnv("AWS_ENDPOINT_URL", ""),
		Bucket:      getEnv("BUCKET_NAME", ""),

		Tenant:            getEnv("BOT_ID", ""),
		TrainingID:        getEnv("TRAINING_ID", ""),
		TrainingConfigKey: getEnv("TRAINING_CONFIG_KEY", ""),
		ModelKey:          getEnv("MODEL_KEY", ""),

		APIURL:             strings.TrimRight(getEnv("API_URL", ""), "/"),
		StatusTimeout:      getDuration("STATUS_TIMEOUT", 10*time.Second),
		JournalDatabaseURL: getEnv("JOURNAL_DATABASE_URL", ""),

		EngineBin:            getEnv("ENGINE_BIN", "rasa"),
		EnginePort:           getIntEnv("ENGINE_PORT", 5005),
		WorkDir:              getEnv("WORK_DIR", "/tmp/work"),
		ReadinessInterval:    getDuration("READINESS_INTERVAL", time.Second),
		ReadinessMaxAttempts: getIntEnv("READINESS_MAX_ATTEMPTS", 0),

		Model:           getEnv("MODEL", ""),
		TemplateDir:     getEnv("TEMPLATE_DIR", "/app/templates"),
		ConfigDir:       getEnv("CONFIG_DIR", "/app"),
		TrackerStoreURL: getEnv("TRACKER_STORE_URL", ""),

		ShellBin: getEnv("SHELL_BIN", "/bin/bash"),
		Debug:    getBoolEnv("DEBUG", false),
	}
}

// WithTenant returns a copy of the configuration bound to the given tenant
func (c *Config) WithTenant(tenant string) *Config {
	cp := *c
	if tenant != "" {
		cp.Tenant = tenant
	}
	return &cp
}

// ModelRef returns the model reference to serve, falling back to DefaultModel
func (c *Config) ModelRef() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel
}

// EngineURL returns the loopback base URL of the serving engine
func (c *Config) EngineURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", c.EnginePort)
}

// MissingError lists required configuration values that are absent
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.Keys, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// ValidateTraining checks the values a training run cannot start without.
// It returns a *MissingError naming the absent environment keys.
func (c *Config) ValidateTraining() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	missing := &MissingError{}
	for _, fe := range verrs {
		missing.Keys = append(missing.Keys, fe.Field())
	}
	return missing
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := cast.ToIntE(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := cast.ToBoolE(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
