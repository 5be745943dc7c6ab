package config

import (
	"errors"
	"fmt"
)

// DatabaseConfig is used by the postgres and sqlite stores.
// DSN takes precedence over the discrete postgres fields.
type DatabaseConfig struct {
	DSN      string   `yaml:"dsn" json:"dsn" default:""`
	Host     string   `yaml:"host" json:"host" default:"localhost"`
	Port     uint32   `yaml:"port" json:"port" default:"5432"`
	Username string   `yaml:"username" json:"username" default:"hookscope"`
	Password Password `yaml:"password" json:"password" default:""`
	Database string   `yaml:"database" json:"database" default:"hookscope"`
	Path     string   `yaml:"path" json:"path" default:"hookscope.db"`
}

func (cfg DatabaseConfig) GetDSN(driver StoreType) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	if driver == StoreTypeSQLite {
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", cfg.Path)
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)
}

func (cfg DatabaseConfig) Validate() error {
	if cfg.Port > 65535 {
		return fmt.Errorf("port must be in the range [0, 65535]")
	}
	if cfg.DSN == "" && cfg.Path == "" && cfg.Host == "" {
		return errors.New("either dsn, path or host is required")
	}
	return nil
}
