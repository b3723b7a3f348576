package core

import (
	"fmt"
	"strings"
	"time"
)

type ProcessorConfig struct {
	// WorkDuration is the simulated settlement step. Tests shrink it to
	// zero; production deployments tune it to the downstream SLA.
	WorkDuration   time.Duration `koanf:"work_duration" mapstructure:"work_duration"`
	MaxAttempts    int           `koanf:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `koanf:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `koanf:"max_backoff" mapstructure:"max_backoff"`
}

type DispatchConfig struct {
	BufferSize int `koanf:"buffer_size" mapstructure:"buffer_size"`
	Workers    int `koanf:"workers" mapstructure:"workers"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr" mapstructure:"addr"`
}

type StorageConfig struct {
	Driver string `koanf:"driver" mapstructure:"driver"`
	DSN    string `koanf:"dsn" mapstructure:"dsn"`
}

type Config struct {
	ServiceName string          `koanf:"service_name" mapstructure:"service_name"`
	Processor   ProcessorConfig `koanf:"processor" mapstructure:"processor"`
	Dispatch    DispatchConfig  `koanf:"dispatch" mapstructure:"dispatch"`
	HTTP        HTTPConfig      `koanf:"http" mapstructure:"http"`
	Storage     StorageConfig   `koanf:"storage" mapstructure:"storage"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "transactions",
		Processor: ProcessorConfig{
			WorkDuration:   30 * time.Second,
			MaxAttempts:    5,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     5 * time.Minute,
		},
		Dispatch: DispatchConfig{
			BufferSize: 64,
			Workers:    4,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			Driver: "sqlite3",
			DSN:    "file:transactions.db?_foreign_keys=on",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Processor.WorkDuration < 0 {
		return fmt.Errorf("core: processor.work_duration must not be negative")
	}
	if c.Processor.MaxAttempts < 1 {
		return fmt.Errorf("core: processor.max_attempts must be at least 1")
	}
	if c.Dispatch.BufferSize < 1 {
		return fmt.Errorf("core: dispatch.buffer_size must be at least 1")
	}
	if c.Dispatch.Workers < 1 {
		return fmt.Errorf("core: dispatch.workers must be at least 1")
	}
	return nil
}
