// Package config loads pioneers configuration.
//
// A configuration file is CUE, unified with the embedded #Config schema that
// carries every default and constraint. Environment variables prefixed with
// PIONEERS_ override file values; the result is checked against the schema
// again so an override cannot escape its bounds.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "PIONEERS_"

// Config is the decoded configuration.
type Config struct {
	Listen  string        `json:"listen" env:"LISTEN"`
	Journal string        `json:"journal" env:"JOURNAL"`
	Log     LogConfig     `json:"log" envPrefix:"LOG_"`
	Machine MachineConfig `json:"machine" envPrefix:"MACHINE_"`
	Client  ClientConfig  `json:"client" envPrefix:"CLIENT_"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `json:"level" env:"LEVEL"`
	Format string `json:"format" env:"FORMAT"`
}

// MachineConfig bounds every state machine.
type MachineConfig struct {
	MaxDepth   int `json:"max_depth" env:"MAX_DEPTH"`
	CacheLimit int `json:"cache_limit" env:"CACHE_LIMIT"`
}

// ClientConfig tunes the interactive client.
type ClientConfig struct {
	DialTimeoutMS int    `json:"dial_timeout_ms" env:"DIAL_TIMEOUT_MS"`
	HistoryFile   string `json:"history_file" env:"HISTORY_FILE"`
}

// DialTimeout returns the client dial timeout as a duration.
func (c ClientConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMS) * time.Millisecond
}

// SlogLevel maps Level onto slog.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the schema defaults.
func Default() (*Config, error) {
	return Load("")
}

// Load reads path (empty for defaults only), applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	ctx := cuecontext.New()
	def, err := schema(ctx)
	if err != nil {
		return nil, err
	}

	v := def
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		file := ctx.CompileBytes(data, cue.Filename(path))
		if err := file.Err(); err != nil {
			return nil, newValidationError(path, err)
		}
		v = def.Unify(file)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, newValidationError(path, err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	// Overrides are checked against the same schema as the file.
	if err := def.Unify(ctx.Encode(cfg)).Validate(cue.Concrete(true)); err != nil {
		return nil, newValidationError("environment", err)
	}

	return &cfg, nil
}

// Check validates path against the schema without applying the environment.
// It returns nil or a *ValidationError listing every problem.
func Check(path string) error {
	ctx := cuecontext.New()
	def, err := schema(ctx)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	file := ctx.CompileBytes(data, cue.Filename(path))
	if err := file.Err(); err != nil {
		return newValidationError(path, err)
	}
	if err := def.Unify(file).Validate(cue.Concrete(true)); err != nil {
		return newValidationError(path, err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func schema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile schema: %w", err)
	}
	return v.LookupPath(cue.ParsePath("#Config")), nil
}
