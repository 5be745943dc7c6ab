package config

import (
	"encoding/json"

	"github.com/creasty/defaults"
)

// Config Configuration
type Config struct {
	Log       LogConfig       `yaml:"log" json:"log" envconfig:"LOG"`
	AccessLog AccessLogConfig `yaml:"access_log" json:"access_log" envconfig:"ACCESS_LOG"`
	Proxy     ProxyConfig     `yaml:"proxy" json:"proxy" envconfig:"PROXY"`
	Admin     AdminConfig     `yaml:"admin" json:"admin" envconfig:"ADMIN"`
	Function  FunctionConfig  `yaml:"function" json:"function" envconfig:"FUNCTION"`
	Store     StoreConfig     `yaml:"store" json:"store" envconfig:"STORE"`
	Redis     RedisConfig     `yaml:"redis" json:"redis" envconfig:"REDIS"`
	Database  DatabaseConfig  `yaml:"database" json:"database" envconfig:"DATABASE"`
	Blob      BlobConfig      `yaml:"blob" json:"blob" envconfig:"BLOB"`
	Scraper   ScraperConfig   `yaml:"scraper" json:"scraper" envconfig:"SCRAPER"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics" envconfig:"METRICS"`
	Tracing   TracingConfig   `yaml:"tracing" json:"tracing" envconfig:"TRACING"`
}

func (cfg Config) String() string {
	bytes, err := json.Marshal(cfg)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

func (cfg Config) Validate() error {
	validators := []interface{ Validate() error }{
		cfg.Log,
		cfg.AccessLog,
		cfg.Proxy,
		cfg.Admin,
		cfg.Function,
		cfg.Store,
		cfg.Blob,
		cfg.Scraper,
		cfg.Metrics,
		cfg.Tracing,
	}
	if cfg.Store.Type == StoreTypeRedis {
		validators = append(validators, cfg.Redis)
	}
	if cfg.Store.IsSQL() {
		validators = append(validators, cfg.Database)
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func New() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}
