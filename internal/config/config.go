// Package config loads generation options from a .protogen.yaml file,
// PROTOGEN_* environment variables, and command-line flags, in that order
// of increasing precedence, via viper.
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config mirrors emit.Options plus the handful of settings that aren't
// per-run emitter toggles.
type Config struct {
	Doxygen     bool
	Markdown    bool
	HelperFiles bool
	Verbose     bool
}

// Load builds a viper instance seeded with defaults, a config file (if one
// exists at path or the default search locations), PROTOGEN_*
// environment variables, and finally flags, then decodes the result.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("doxygen", true)
	v.SetDefault("markdown", true)
	v.SetDefault("helperfiles", true)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix("PROTOGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".protogen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if path != "" || !notFound {
			return nil, err
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	return &Config{
		Doxygen:     v.GetBool("doxygen"),
		Markdown:    v.GetBool("markdown"),
		HelperFiles: v.GetBool("helperfiles"),
		Verbose:     v.GetBool("verbose"),
	}, nil
}
