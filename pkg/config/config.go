package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/Basil-Gomaa/AZTrackonomy/pkg/logger"
)

type Config struct {
	Database DatabaseConfig `json:"database"`
	SMTP     SMTPConfig     `json:"smtp"`
	Checker  CheckerConfig  `json:"checker"`
	Logging  LoggingConfig  `json:"logging"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	Port     int    `json:"port"`
	SSLMode  string `json:"sslmode"`
}

type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	From     string `json:"from"`
}

type CheckerConfig struct {
	// DefaultFrequencyHours is used for users without settings. Users may
	// narrow it to 12 or widen it to 48 via their settings record.
	DefaultFrequencyHours int     `json:"default_frequency_hours"`
	ItemDelaySeconds      int     `json:"item_delay_seconds"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds"`
	NotifyThreshold       float64 `json:"notify_threshold"`
	DeliveryPollSeconds   int     `json:"delivery_poll_seconds"`
	// ProductAPIKey enables the hosted product-data API strategy when set.
	ProductAPIKey string `json:"product_api_key"`
}

type LoggingConfig struct {
	Level     string `json:"level"`
	File      string `json:"file"`
	GormLevel string `json:"gorm_level"`
}

var AppConfig Config

func LoadConfig(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		logger.Error("failed to open config file", "error", err)
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&AppConfig); err != nil {
		logger.Error("failed to decode config file", "error", err)
		return err
	}

	applyDefaults(&AppConfig)
	applyEnvOverrides(&AppConfig)
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Checker.DefaultFrequencyHours <= 0 {
		cfg.Checker.DefaultFrequencyHours = 24
	}
	if cfg.Checker.ItemDelaySeconds <= 0 {
		cfg.Checker.ItemDelaySeconds = 1
	}
	if cfg.Checker.RequestTimeoutSeconds <= 0 {
		cfg.Checker.RequestTimeoutSeconds = 10
	}
	if cfg.Checker.NotifyThreshold <= 0 {
		cfg.Checker.NotifyThreshold = 5.00
	}
	if cfg.Checker.DeliveryPollSeconds <= 0 {
		cfg.Checker.DeliveryPollSeconds = 60
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
}

// Environment variables win over config.json so deployments can keep
// credentials out of the file.
func applyEnvOverrides(cfg *Config) {
	cfg.Database.Host = getenv("DB_HOST", cfg.Database.Host)
	cfg.Database.User = getenv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getenv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getenv("DB_NAME", cfg.Database.DBName)
	cfg.Database.Port = atoienv("DB_PORT", cfg.Database.Port)
	cfg.Database.SSLMode = getenv("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.SMTP.Host = getenv("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = atoienv("SMTP_PORT", cfg.SMTP.Port)
	cfg.SMTP.User = getenv("SMTP_USER", cfg.SMTP.User)
	cfg.SMTP.Password = getenv("SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.From = getenv("SMTP_FROM", cfg.SMTP.From)

	cfg.Checker.ProductAPIKey = getenv("PRODUCT_API_KEY", cfg.Checker.ProductAPIKey)

	cfg.Logging.Level = getenv("LOG_LEVEL", cfg.Logging.Level)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (c CheckerConfig) ItemDelay() time.Duration {
	return time.Duration(c.ItemDelaySeconds) * time.Second
}

func (c CheckerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c CheckerConfig) DeliveryPollInterval() time.Duration {
	return time.Duration(c.DeliveryPollSeconds) * time.Second
}
