package config

import (
	"errors"
	"time"
)

// FunctionConfig bounds every script run.
type FunctionConfig struct {
	Timeout           int64 `yaml:"timeout" json:"timeout" default:"30000"`
	MaxScriptSize     int   `yaml:"max_script_size" json:"max_script_size" default:"262144" envconfig:"MAX_SCRIPT_SIZE"`
	MaxCallStackSize  int   `yaml:"max_call_stack_size" json:"max_call_stack_size" default:"1024" envconfig:"MAX_CALL_STACK_SIZE"`
	MaxLogEntries     int   `yaml:"max_log_entries" json:"max_log_entries" default:"1000" envconfig:"MAX_LOG_ENTRIES"`
	MaxLogMessageSize int   `yaml:"max_log_message_size" json:"max_log_message_size" default:"16384" envconfig:"MAX_LOG_MESSAGE_SIZE"`
	ProgramCacheSize  int   `yaml:"program_cache_size" json:"program_cache_size" default:"128" envconfig:"PROGRAM_CACHE_SIZE"`
	MaxMemoryMB       int   `yaml:"max_memory_mb" json:"max_memory_mb" default:"512" envconfig:"MAX_MEMORY_MB"`
}

func (cfg FunctionConfig) Validate() error {
	if cfg.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if cfg.MaxScriptSize < 0 {
		return errors.New("max_script_size cannot be negative value")
	}
	if cfg.MaxCallStackSize < 0 {
		return errors.New("max_call_stack_size cannot be negative value")
	}
	if cfg.MaxLogEntries < 0 {
		return errors.New("max_log_entries cannot be negative value")
	}
	if cfg.MaxLogMessageSize < 0 {
		return errors.New("max_log_message_size cannot be negative value")
	}
	if cfg.MaxMemoryMB < 0 {
		return errors.New("max_memory_mb cannot be negative value")
	}
	if cfg.ProgramCacheSize < 1 {
		return errors.New("program_cache_size must be at least 1")
	}
	return nil
}

// MaxMemoryBytes is zero when the memory ceiling is disabled.
func (cfg FunctionConfig) MaxMemoryBytes() int64 {
	return int64(cfg.MaxMemoryMB) << 20
}

func (cfg FunctionConfig) TimeoutDuration() time.Duration {
	return time.Duration(cfg.Timeout) * time.Millisecond
}
