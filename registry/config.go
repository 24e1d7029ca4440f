package registry

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/refptr/errors"
)

// Config is the file form of registry options.
type Config struct {
	// Name labels the registry.
	Name string `yaml:"name"`

	// TraceEntries logs every entry creation and destruction at debug level.
	TraceEntries bool `yaml:"trace_entries"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{Name: "registry"}
}

// ParseConfig decodes a YAML document on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.PhaseRegistry, errors.KindInvalidInput, err, "decode config")
	}
	if cfg.Name == "" {
		return Config{}, errors.InvalidInput(errors.PhaseRegistry, "config: name must not be empty")
	}
	return cfg, nil
}

// LoadConfig reads and decodes a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseRegistry, errors.KindInvalidInput, err, "read config")
	}
	return ParseConfig(data)
}

// Options converts the config into registry options. base is the logger
// entries are traced to; nil means the package logger.
func (c Config) Options(base *zap.Logger) []Option {
	if base == nil {
		base = Logger()
	}
	if !c.TraceEntries {
		base = base.WithOptions(zap.IncreaseLevel(zap.InfoLevel))
	}
	return []Option{WithName(c.Name), WithLogger(base)}
}
