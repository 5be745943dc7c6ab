package config

import (
	"errors"
	"fmt"
)

type AdminConfig struct {
	Listen string `yaml:"listen" json:"listen" default:"127.0.0.1:9601"`
	TLS    TLS    `yaml:"tls" json:"tls"`
}

func (cfg AdminConfig) Validate() error {
	if err := cfg.TLS.Validate(); err != nil {
		return fmt.Errorf("tls: %w", err)
	}
	return nil
}

func (cfg AdminConfig) IsEnabled() bool {
	if cfg.Listen == "" || cfg.Listen == "off" {
		return false
	}
	return true
}

type TLS struct {
	Cert string `yaml:"cert" json:"cert"`
	Key  string `yaml:"key" json:"key"`
}

// Validate requires cert and key to be configured together.
func (cfg TLS) Validate() error {
	if (cfg.Cert == "") != (cfg.Key == "") {
		return errors.New("cert and key must be set together")
	}
	return nil
}

func (cfg TLS) Enabled() bool {
	return cfg.Cert != "" && cfg.Key != ""
}
