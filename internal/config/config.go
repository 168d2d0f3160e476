// Package config loads the YAML configuration shared by the CLI, the
// REPL, the HTTP server and the GUI.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hailam/algchess/internal/storage"
)

// EnvPath overrides the config file location.
const EnvPath = "ALGCHESS_CONFIG"

var validate = validator.New()

// Config is the whole configuration file.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Book    BookConfig    `yaml:"book"`
}

// EngineConfig bounds and tunes evaluation.
type EngineConfig struct {
	MaxSteps          uint64        `yaml:"max_steps" validate:"gte=0"`
	Timeout           time.Duration `yaml:"timeout" validate:"gte=0"`
	Workers           int           `yaml:"workers" validate:"gte=0,lte=256"`
	ParallelThreshold int           `yaml:"parallel_threshold" validate:"gte=-1"`
	RuleCacheSize     int64         `yaml:"rule_cache_size" validate:"gte=0"`
}

// StorageConfig says where cached results and sessions live.
type StorageConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	InMemory  bool          `yaml:"in_memory"`
	ResultTTL time.Duration `yaml:"result_ttl" validate:"gte=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

// BookConfig names an extra games file merged over the built-in games.
type BookConfig struct {
	File string `yaml:"file"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxSteps:          2_000_000,
			Timeout:           30 * time.Second,
			ParallelThreshold: 64,
			RuleCacheSize:     256,
		},
		Storage: StorageConfig{
			Enabled:   true,
			ResultTTL: 7 * 24 * time.Hour,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		Log:    LogConfig{Level: "info"},
	}
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// Path returns the config file location: $ALGCHESS_CONFIG if set,
// otherwise config.yaml in the platform config directory.
func Path() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	dir, err := storage.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the file at path over the defaults. An empty path means
// Path(). A missing file is created with the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = Path(); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if err := Decode(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses YAML into cfg, rejecting unknown keys.
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// Save writes cfg as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	header := []byte("# algchess configuration\n# durations use Go syntax, for example 30s or 5m\n")
	return errors.Wrapf(os.WriteFile(path, append(header, data...), 0644), "write %s", path)
}
