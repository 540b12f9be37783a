package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Env представляет окружение приложения
type Env string

const (
	// EnvLocal - локальное окружение (для разработки на хосте)
	EnvLocal Env = "local"
	// EnvDocker - Docker окружение (для запуска в контейнерах)
	EnvDocker Env = "docker"
)

// Config содержит конфигурацию Storefront
type Config struct {
	AppEnv          Env
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// transbank-api (Transaction Forwarder)
	TransbankAPIURL     string
	TransbankAPITimeout time.Duration

	// OpenTelemetry
	OTelEnabled       bool
	OTelEndpoint      string
	OTelSamplingRatio float64
}

// Load загружает конфигурацию из переменных окружения
// TRANSBANK_API_URL имеет приоритет над парой API_REST_HOST/API_REST_PORT
func Load() (Config, error) {
	cfg := Config{}

	appEnvStr := getString("APP_ENV", string(EnvLocal))
	appEnv := Env(appEnvStr)
	if appEnv != EnvLocal && appEnv != EnvDocker {
		return Config{}, fmt.Errorf("invalid APP_ENV: %s (must be 'local' or 'docker')", appEnvStr)
	}
	cfg.AppEnv = appEnv

	if cfg.AppEnv == EnvLocal {
		cfg.HTTPAddr = getString("HTTP_ADDR", "127.0.0.1:5000")
	} else {
		cfg.HTTPAddr = getString("HTTP_ADDR", "0.0.0.0:5000")
	}

	var err error
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", "5s"); err != nil {
		return Config{}, err
	}

	cfg.TransbankAPIURL = os.Getenv("TRANSBANK_API_URL")
	if cfg.TransbankAPIURL == "" {
		host, port := os.Getenv("API_REST_HOST"), os.Getenv("API_REST_PORT")
		switch {
		case host != "" && port != "":
			cfg.TransbankAPIURL = fmt.Sprintf("http://%s:%s", host, port)
		case cfg.AppEnv == EnvLocal:
			cfg.TransbankAPIURL = "http://127.0.0.1:8900"
		default:
			cfg.TransbankAPIURL = "http://transbank:8900"
		}
	}
	cfg.TransbankAPIURL = strings.TrimRight(cfg.TransbankAPIURL, "/")

	// больше, чем GATEWAY_TIMEOUT transbank-api, чтобы ошибку шлюза увидеть от API, а не по таймауту
	if cfg.TransbankAPITimeout, err = getDuration("TRANSBANK_API_TIMEOUT", "35s"); err != nil {
		return Config{}, err
	}

	cfg.OTelEnabled = getBool("OTEL_ENABLED", false)
	if cfg.AppEnv == EnvLocal {
		cfg.OTelEndpoint = getString("OTEL_EXPORTER_OTLP_ENDPOINT", "127.0.0.1:4317")
	} else {
		cfg.OTelEndpoint = getString("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")
	}
	cfg.OTelSamplingRatio = 1.0
	if v := os.Getenv("OTEL_SAMPLING_RATIO"); v != "" {
		if cfg.OTelSamplingRatio, err = strconv.ParseFloat(v, 64); err != nil {
			return Config{}, fmt.Errorf("invalid OTEL_SAMPLING_RATIO: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate проверяет корректность конфигурации
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	u, err := url.Parse(c.TransbankAPIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("TRANSBANK_API_URL must be an absolute http(s) URL, got %q", c.TransbankAPIURL)
	}
	if c.TransbankAPITimeout <= 0 {
		return fmt.Errorf("TRANSBANK_API_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// Log выводит конфигурацию в лог
func (c Config) Log() {
	log.Printf("Config loaded:")
	log.Printf("  APP_ENV: %s", c.AppEnv)
	log.Printf("  HTTP_ADDR: %s", c.HTTPAddr)
	log.Printf("  TRANSBANK_API_URL: %s", c.TransbankAPIURL)
	log.Printf("  TRANSBANK_API_TIMEOUT: %s", c.TransbankAPITimeout)
	log.Printf("  SHUTDOWN_TIMEOUT: %s", c.ShutdownTimeout)
	log.Printf("  OTEL_ENABLED: %v", c.OTelEnabled)
}

func getString(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getString(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
