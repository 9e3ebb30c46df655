// Package config loads fusadocs settings.
//
// Precedence: CLI flags > env vars (FUSADOCS_ prefix) > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix for environment overrides, e.g. FUSADOCS_DATA_DIR.
	EnvPrefix = "FUSADOCS"
	// FileName is the config file name searched for without extension.
	FileName = "fusadocs"
)

// Config holds all settings.
type Config struct {
	// DataDir holds the session database.
	DataDir string `mapstructure:"data_dir"`
	// OutputDir receives exported documents. Defaults to <DataDir>/documents.
	OutputDir string `mapstructure:"output_dir"`

	Logging    LoggingConfig    `mapstructure:"logging"`
	Validation ValidationConfig `mapstructure:"validation"`
	Export     ExportConfig     `mapstructure:"export"`
	Format     FormatConfig     `mapstructure:"format"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// ValidationConfig tunes validator thresholds.
type ValidationConfig struct {
	// AllocationSoftThreshold is the allocation ratio from which partial
	// allocation is reported as a warning.
	AllocationSoftThreshold float64 `mapstructure:"allocation_soft_threshold"`
}

// ExportConfig tunes document assembly.
type ExportConfig struct {
	IDLimit            int `mapstructure:"id_limit"`
	UnallocatedIDLimit int `mapstructure:"unallocated_id_limit"`
}

// FormatConfig sets response formatting defaults.
type FormatConfig struct {
	DefaultOutput string `mapstructure:"default_output"` // standard or minimal
}

// DefaultDataDir returns ~/.fusadocs, or .fusadocs in the working directory
// when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fusadocs"
	}
	return filepath.Join(home, ".fusadocs")
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("output_dir", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("validation.allocation_soft_threshold", 0.8)
	v.SetDefault("export.id_limit", 5)
	v.SetDefault("export.unallocated_id_limit", 10)
	v.SetDefault("format.default_output", "standard")
}

// Load reads configuration into v and unmarshals it. cfgFile, when set,
// names the config file; otherwise fusadocs.yaml is searched in the data
// directory and the current directory. A missing file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(v.GetString("data_dir"))
		v.AddConfigPath(".")
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(cfg.DataDir, "documents")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: data_dir must not be empty")
	}
	if t := c.Validation.AllocationSoftThreshold; t < 0 || t > 1 {
		return fmt.Errorf("config: validation.allocation_soft_threshold %v must be within [0, 1]", t)
	}
	if c.Export.IDLimit < 1 || c.Export.UnallocatedIDLimit < 1 {
		return errors.New("config: export id limits must be positive")
	}
	switch c.Format.DefaultOutput {
	case "standard", "minimal":
	default:
		return fmt.Errorf("config: format.default_output %q must be standard or minimal", c.Format.DefaultOutput)
	}
	return nil
}
