package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
)

// DefaultRISBaseURL is the DB API Marketplace RIS-Stations v1 endpoint.
const DefaultRISBaseURL = "https://apis.deutschebahn.com/db-api-marketplace/apis/ris-stations/v1"

// Config holds all settings for a station index run, populated from environment variables.
type Config struct {
	// DB API Marketplace credentials.
	ClientID string `env:"DB_CLIENT_ID" validate:"required"`
	APIKey   string `env:"DB_API_KEY" validate:"required"`

	RISBaseURL  string        `env:"RIS_BASE_URL" validate:"required,url"`
	RISPageSize int           `env:"RIS_PAGE_SIZE" validate:"gte=1,lte=10000"`
	RISTimeout  time.Duration `env:"RIS_TIMEOUT" validate:"gt=0"`

	OutputDir string `env:"OUTPUT_DIR" validate:"required"`

	LogLevel        string `env:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	LogFormat       string `env:"LOG_FORMAT" validate:"oneof=json text"`
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Optional Kafka publishing of the index.
	KafkaBrokers       []string
	KafkaStationsTopic string
}

// KafkaEnabled reports whether index entries should be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return c.KafkaStationsTopic != ""
}

// Load reads configuration from environment variables, applying defaults where unset.
// It fails when the DB API credentials are missing.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	risTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("RIS_TIMEOUT", "30s"))
	if err != nil || risTimeout <= 0 {
		return nil, errors.New("invalid RIS_TIMEOUT")
	}

	pageSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("RIS_PAGE_SIZE", "1000"))
	if err != nil {
		return nil, errors.New("invalid RIS_PAGE_SIZE")
	}

	cfg := &Config{
		ClientID:    os.Getenv("DB_CLIENT_ID"),
		APIKey:      os.Getenv("DB_API_KEY"),
		RISBaseURL:  strings.TrimRight(sharedcfg.EnvOrDefault("RIS_BASE_URL", DefaultRISBaseURL), "/"),
		RISPageSize: pageSize,
		RISTimeout:  risTimeout,
		OutputDir:   sharedcfg.EnvOrDefault("OUTPUT_DIR", "station_cache"),

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaStationsTopic: os.Getenv("KAFKA_STATIONS_TOPIC"),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	if cfg.KafkaEnabled() && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_STATIONS_TOPIC is set but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

var validate = newValidator()

// newValidator returns a validation func whose errors name the offending
// environment variable rather than the struct field.
func newValidator() func(*Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})

	return func(cfg *Config) error {
		err := v.Struct(cfg)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("invalid %s: failed %q check", fe.Field(), fe.Tag())
	}
}
