package types

import "errors"

// Config holds the settings the CLI passes to the loader, the summarizer,
// and the logging setup.
type Config struct {
	LogLevel        string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogFormat       string `json:"log_format" yaml:"log_format" mapstructure:"log_format"`
	Color           string `json:"color" yaml:"color" mapstructure:"color"`
	PreviewLength   int    `json:"preview_length" yaml:"preview_length" mapstructure:"preview_length"`
	SampleSize      int    `json:"sample_size" yaml:"sample_size" mapstructure:"sample_size"`
	SampleField     string `json:"sample_field" yaml:"sample_field" mapstructure:"sample_field"`
	MissingFastPath bool   `json:"missing_fast_path" yaml:"missing_fast_path" mapstructure:"missing_fast_path"`
	SQLiteTable     string `json:"sqlite_table" yaml:"sqlite_table" mapstructure:"sqlite_table"`
	DataDir         string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
}

// Defaults applied when a key is absent from config.yaml and the
// environment.
const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultColor         = "auto"
	DefaultPreviewLength = 50
	DefaultSampleSize    = 3
	DefaultSampleField   = "functions"
)

// Color modes.
const (
	ColorAuto = "auto"
	ColorOn   = "on"
	ColorOff  = "off"
)

// Config validation errors.
var (
	ErrPreviewLengthInvalid = errors.New("preview length must be positive")
	ErrSampleSizeInvalid    = errors.New("sample size must not be negative")
	ErrLogFormatUnknown     = errors.New("unknown log format")
	ErrColorModeUnknown     = errors.New("unknown color mode")
)

var knownLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

var knownColorModes = map[string]bool{
	ColorAuto: true,
	ColorOn:   true,
	ColorOff:  true,
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		Color:         DefaultColor,
		PreviewLength: DefaultPreviewLength,
		SampleSize:    DefaultSampleSize,
		SampleField:   DefaultSampleField,
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.PreviewLength <= 0 {
		return ErrPreviewLengthInvalid
	}
	if c.SampleSize < 0 {
		return ErrSampleSizeInvalid
	}
	if !knownLogFormats[c.LogFormat] {
		return ErrLogFormatUnknown
	}
	if !knownColorModes[c.Color] {
		return ErrColorModeUnknown
	}
	return nil
}
