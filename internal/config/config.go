// Package config resolves command line settings from flags, environment
// variables and an optional config file.
package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the CLI reads, for example
// NESTEDFORMS_DSN or NESTEDFORMS_LOG_LEVEL.
const EnvPrefix = "NESTEDFORMS"

// Setting keys. Flags share these names.
const (
	KeyConfig      = "config"
	KeyDSN         = "dsn"
	KeyDeclaration = "declaration"
	KeyLogLevel    = "log-level"
	KeyLogJSON     = "log-json"
)

// DefaultDSN keeps records in memory for the lifetime of one command.
const DefaultDSN = ":memory:"

// Config is the resolved CLI configuration.
type Config struct {
	DSN         string `mapstructure:"dsn"`
	Declaration string `mapstructure:"declaration"`
	LogLevel    string `mapstructure:"log-level"`
	LogJSON     bool   `mapstructure:"log-json"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the default value of every setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDSN, DefaultDSN)
	v.SetDefault(KeyDeclaration, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogJSON, false)
}

// BindFlags binds the settings to flags of the same name found in flags.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{KeyDSN, KeyDeclaration, KeyLogLevel, KeyLogJSON} {
		flag := flags.Lookup(key)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "config: bind flag %q", key)
		}
	}
	return nil
}

// Load reads the config file at path, when given, and resolves the settings.
// Precedence, highest first: flags, environment, file, defaults.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "config: read %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "config: decode settings")
	}
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	if cfg.DSN == "" {
		cfg.DSN = DefaultDSN
	}
	return cfg, nil
}
