// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ava-labs/avalanchego/utils/logging"
	"gopkg.in/yaml.v2"

	"github.com/ava-labs/bankvm/pebble"
	"github.com/ava-labs/bankvm/runtime"
	"github.com/ava-labs/bankvm/trace"
)

const (
	defaultLogLevel     = "info"
	defaultDatabaseDir  = "db"
	defaultLogDirectory = "logs"
)

type LogConfig struct {
	Level     string `json:"level"     yaml:"level"`
	Directory string `json:"directory" yaml:"directory"`
	// Rotation of the log file, see lumberjack.Logger.
	MaxSize  int  `json:"maxSize"  yaml:"maxSize"`  // megabytes
	MaxAge   int  `json:"maxAge"   yaml:"maxAge"`   // days
	MaxFiles int  `json:"maxFiles" yaml:"maxFiles"` // files
	Compress bool `json:"compress" yaml:"compress"`
}

type Config struct {
	Log          LogConfig      `json:"log"          yaml:"log"`
	DatabasePath string         `json:"databasePath" yaml:"databasePath"`
	Pebble       pebble.Config  `json:"pebble"       yaml:"pebble"`
	Trace        trace.Config   `json:"traceConfig"  yaml:"traceConfig"`
	Runtime      runtime.Config `json:"runtime"      yaml:"runtime"`
}

// New parses [b] as JSON on top of the defaults. Relative paths are
// resolved against [baseDir].
func New(baseDir string, b []byte) (*Config, error) {
	c := defaultConfig()
	if len(b) > 0 {
		if err := json.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
		}
	}
	if err := c.finish(baseDir); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the config file at [path]. Files ending in .yaml or .yml are
// parsed as YAML, anything else as JSON. A missing file yields the defaults.
func Load(baseDir string, path string) (*Config, error) {
	if len(path) == 0 {
		return New(baseDir, nil)
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(baseDir, nil)
	}
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		c := defaultConfig()
		if err := yaml.UnmarshalStrict(b, c); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
		}
		if err := c.finish(baseDir); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return New(baseDir, b)
	}
}

func defaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:     defaultLogLevel,
			Directory: defaultLogDirectory,
			MaxSize:   8,
			MaxAge:    7,
			MaxFiles:  4,
		},
		DatabasePath: defaultDatabaseDir,
		Pebble:       pebble.NewDefaultConfig(),
		Trace: trace.Config{
			Enabled:         false,
			TraceSampleRate: 1,
			Endpoint:        trace.DefaultEndpoint,
			AppName:         "bank-cli",
		},
		Runtime: runtime.NewConfig(),
	}
}

func (c *Config) finish(baseDir string) error {
	if _, err := c.GetLogLevel(); err != nil {
		return err
	}
	if c.Runtime.MaxInstructions <= 0 || c.Runtime.MaxAccountsPerInstruction <= 0 || c.Runtime.MaxAccountDataSize <= 0 {
		return fmt.Errorf("%w: runtime limits must be positive", ErrInvalidConfig)
	}
	if !filepath.IsAbs(c.DatabasePath) {
		c.DatabasePath = filepath.Join(baseDir, c.DatabasePath)
	}
	if !filepath.IsAbs(c.Log.Directory) {
		c.Log.Directory = filepath.Join(baseDir, c.Log.Directory)
	}
	return nil
}

func (c *Config) GetLogLevel() (logging.Level, error) {
	level, err := logging.ToLevel(c.Log.Level)
	if err != nil {
		return logging.Off, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	return level, nil
}
