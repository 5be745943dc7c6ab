package config

import (
	"errors"
	"fmt"
	"slices"
)

type StoreType string

const (
	StoreTypeMemory   StoreType = "memory"
	StoreTypeRedis    StoreType = "redis"
	StoreTypePostgres StoreType = "postgres"
	StoreTypeSQLite   StoreType = "sqlite"
)

type StoreConfig struct {
	Type    StoreType `yaml:"type" json:"type" default:"memory"`
	MaxLogs int       `yaml:"max_logs" json:"max_logs" default:"100" envconfig:"MAX_LOGS"`
}

func (cfg StoreConfig) Validate() error {
	if !slices.Contains([]StoreType{StoreTypeMemory, StoreTypeRedis, StoreTypePostgres, StoreTypeSQLite}, cfg.Type) {
		return fmt.Errorf("unknown type: %s", cfg.Type)
	}
	if cfg.MaxLogs < 1 {
		return errors.New("max_logs must be at least 1")
	}
	return nil
}

func (cfg StoreConfig) IsSQL() bool {
	return cfg.Type == StoreTypePostgres || cfg.Type == StoreTypeSQLite
}
