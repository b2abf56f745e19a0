package npjson

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for npjson
type Config struct {
	Codec   CodecConfig   `mapstructure:"codec"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CodecConfig defines the tagged codec settings
type CodecConfig struct {
	Type          CodecType `mapstructure:"type"`
	Prefix        string    `mapstructure:"prefix"`
	Indent        string    `mapstructure:"indent"`
	AllowComments bool      `mapstructure:"allow_comments"`
}

// LoggingConfig defines logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps command-line flag names to configuration keys
var flagKeys = map[string]string{
	"codec":          "codec.type",
	"indent":         "codec.indent",
	"allow-comments": "codec.allow_comments",
	"log-level":      "logging.level",
	"log-format":     "logging.format",
}

// envKeyReplacer lets NPJSON_CODEC_TYPE set codec.type
var envKeyReplacer = strings.NewReplacer(".", "_")

// LoadConfig loads configuration from file, environment and flags. Flags
// that were set on the command line take precedence over the environment,
// which takes precedence over the file. flags may be nil.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("npjson")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/npjson")
	}

	// Read environment variables
	v.SetEnvPrefix("NPJSON")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file doesn't exist, we have defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := NewCodec(cfg.Codec.Type); err != nil {
		return nil, fmt.Errorf("invalid codec.type: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Codec defaults
	v.SetDefault("codec.type", string(CodecJSON))
	v.SetDefault("codec.prefix", "")
	v.SetDefault("codec.indent", "")
	v.SetDefault("codec.allow_comments", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
