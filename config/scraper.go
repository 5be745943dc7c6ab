package config

import "errors"

type ScraperConfig struct {
	Endpoint string   `yaml:"endpoint" json:"endpoint" default:"https://api.firecrawl.dev"`
	APIKey   Password `yaml:"api_key" json:"api_key" envconfig:"API_KEY"`
	Timeout  int64    `yaml:"timeout" json:"timeout" default:"60"`
}

func (cfg ScraperConfig) Validate() error {
	if cfg.Timeout < 0 {
		return errors.New("timeout cannot be negative value")
	}
	return nil
}

func (cfg ScraperConfig) IsEnabled() bool {
	return cfg.Endpoint != "" && cfg.APIKey != ""
}
