package config

import (
	"errors"
	"fmt"
)

type ProxyConfig struct {
	Listen             string `yaml:"listen" json:"listen" default:"0.0.0.0:9600"`
	TLS                TLS    `yaml:"tls" json:"tls"`
	TimeoutRead        int64  `yaml:"timeout_read" json:"timeout_read" default:"10" envconfig:"TIMEOUT_READ"`
	TimeoutWrite       int64  `yaml:"timeout_write" json:"timeout_write" default:"60" envconfig:"TIMEOUT_WRITE"`
	MaxRequestBodySize int64  `yaml:"max_request_body_size" json:"max_request_body_size" default:"1048576" envconfig:"MAX_REQUEST_BODY_SIZE"`
	DefaultOrigin      string `yaml:"default_origin" json:"default_origin" default:"webhook.sh" envconfig:"DEFAULT_ORIGIN"`

	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig limits webhook requests per fingerprint. A zero quota
// disables limiting.
type RateLimitConfig struct {
	Quota  int   `yaml:"quota" json:"quota" default:"100"`
	Period int64 `yaml:"period" json:"period" default:"60"`
}

func (cfg RateLimitConfig) Validate() error {
	if cfg.Quota < 0 {
		return errors.New("quota cannot be negative value")
	}
	if cfg.Quota > 0 && cfg.Period < 1 {
		return errors.New("period must be at least 1 second")
	}
	return nil
}

func (cfg RateLimitConfig) IsEnabled() bool {
	return cfg.Quota > 0
}

func (cfg ProxyConfig) Validate() error {
	if cfg.MaxRequestBodySize < 0 {
		return errors.New("max_request_body_size cannot be negative value")
	}
	if cfg.TimeoutRead < 0 {
		return errors.New("timeout_read cannot be negative value")
	}
	if cfg.TimeoutWrite < 0 {
		return errors.New("timeout_write cannot be negative value")
	}
	if cfg.DefaultOrigin == "" {
		return errors.New("default_origin cannot be empty")
	}
	if err := cfg.TLS.Validate(); err != nil {
		return fmt.Errorf("tls: %w", err)
	}
	if err := cfg.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate_limit: %w", err)
	}
	return nil
}

func (cfg ProxyConfig) IsEnabled() bool {
	if cfg.Listen == "" || cfg.Listen == "off" {
		return false
	}
	return true
}
