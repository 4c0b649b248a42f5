package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "PANTRY"
)

// Config keys, matching the mapstructure tags of types.Config.
const (
	cfgKeyLogLevel        = "log_level"
	cfgKeyLogFormat       = "log_format"
	cfgKeyColor           = "color"
	cfgKeyPreviewLength   = "preview_length"
	cfgKeySampleSize      = "sample_size"
	cfgKeySampleField     = "sample_field"
	cfgKeyMissingFastPath = "missing_fast_path"
	cfgKeySQLiteTable     = "sqlite_table"
	cfgKeyDataDir         = "data_dir"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# pantry configuration
# Every key can be overridden with a PANTRY_ environment variable,
# for example PANTRY_PREVIEW_LENGTH=80.

log_level: info     # debug, info, warn, error
log_format: text    # text or json
color: auto         # auto, on, off

# Characters of each failed strategy's error kept in diagnostics.
preview_length: 50

# Column sampled in summaries, and how many leading values to show.
sample_field: functions
sample_size: 3

# Skip the decoders for paths that do not exist.
missing_fast_path: false

# Table read from SQLite files holding more than one.
# sqlite_table:

# Directory relative manifest paths resolve against.
# data_dir:
`

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. PANTRY_* environment variables override file
// values.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	setDefaults(v, types.DefaultConfig())
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func setDefaults(v *viper.Viper, cfg types.Config) {
	v.SetDefault(cfgKeyLogLevel, cfg.LogLevel)
	v.SetDefault(cfgKeyLogFormat, cfg.LogFormat)
	v.SetDefault(cfgKeyColor, cfg.Color)
	v.SetDefault(cfgKeyPreviewLength, cfg.PreviewLength)
	v.SetDefault(cfgKeySampleSize, cfg.SampleSize)
	v.SetDefault(cfgKeySampleField, cfg.SampleField)
	v.SetDefault(cfgKeyMissingFastPath, cfg.MissingFastPath)
	v.SetDefault(cfgKeySQLiteTable, cfg.SQLiteTable)
	v.SetDefault(cfgKeyDataDir, cfg.DataDir)
}

// decodeConfig copies the merged viper settings into a types.Config.
func decodeConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
