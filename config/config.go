// Package config loads loanmesh configuration from an optional YAML file and
// LOANMESH_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the complete runtime configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	LLM    LLMConfig    `koanf:"llm"`
	OTP    OTPConfig    `koanf:"otp"`
	Store  StoreConfig  `koanf:"store"`
	CRM    CRMConfig    `koanf:"crm"`
	Log    LogConfig    `koanf:"log"`
	Flow   FlowConfig   `koanf:"flow"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxUploadBytes  int64         `koanf:"max_upload_bytes"`
}

// LLMConfig selects the text generation provider. Credentials come from the
// providers' conventional environment variables.
type LLMConfig struct {
	Provider    string  `koanf:"provider"` // auto, gemini, openai, anthropic, mock
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
	Stream      bool    `koanf:"stream"`
}

// OTPConfig configures one-time code delivery.
type OTPConfig struct {
	CountryCode    string        `koanf:"country_code"`
	ResendInterval time.Duration `koanf:"resend_interval"`
	ResendBurst    int           `koanf:"resend_burst"`
	MaxAttempts    int           `koanf:"max_attempts"`
}

// StoreConfig selects the record and artifact backend.
type StoreConfig struct {
	Driver string `koanf:"driver"` // memory or sqlite
	Path   string `koanf:"path"`
}

// CRMConfig points at an optional YAML customer book. The demo book is used
// when empty.
type CRMConfig struct {
	CustomersFile string `koanf:"customers_file"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level   string `koanf:"level"`
	Format  string `koanf:"format"`
	Backend string `koanf:"backend"`
}

// FlowConfig bounds a processing cycle.
type FlowConfig struct {
	MaxHops int `koanf:"max_hops"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 10 << 20
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "auto"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.OTP.CountryCode == "" {
		cfg.OTP.CountryCode = "+91"
	}
	if cfg.OTP.ResendInterval == 0 {
		cfg.OTP.ResendInterval = 30 * time.Second
	}
	if cfg.OTP.ResendBurst == 0 {
		cfg.OTP.ResendBurst = 1
	}
	if cfg.OTP.MaxAttempts == 0 {
		cfg.OTP.MaxAttempts = 3
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memory"
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = "data/loanmesh.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Backend == "" {
		cfg.Log.Backend = "slog"
	}
	if cfg.Flow.MaxHops == 0 {
		cfg.Flow.MaxHops = 6
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "auto", "gemini", "openai", "anthropic", "mock":
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is not one of auto, gemini, openai, anthropic, mock", c.LLM.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature %.2f out of range [0,2]", c.LLM.Temperature))
	}
	if !strings.HasPrefix(c.OTP.CountryCode, "+") {
		errs = append(errs, fmt.Errorf("otp.country_code %q must start with +", c.OTP.CountryCode))
	}
	if c.OTP.ResendBurst < 1 {
		errs = append(errs, errors.New("otp.resend_burst must be at least 1"))
	}
	if c.OTP.MaxAttempts < 1 {
		errs = append(errs, errors.New("otp.max_attempts must be at least 1"))
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of memory, sqlite", c.Store.Driver))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", c.Log.Format))
	}
	switch c.Log.Backend {
	case "slog", "zap":
	default:
		errs = append(errs, fmt.Errorf("log.backend %q is not one of slog, zap", c.Log.Backend))
	}
	if c.Flow.MaxHops < 1 {
		errs = append(errs, errors.New("flow.max_hops must be at least 1"))
	}

	return errors.Join(errs...)
}
