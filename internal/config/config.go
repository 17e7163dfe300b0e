// SPDX-License-Identifier: MPL-2.0

// Package config loads the condalint configuration file and validates it
// against an embedded CUE schema before use, so malformed configuration is
// rejected with a located error instead of surfacing as odd lint behavior.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"condalint/pkg/cueutil"
)

const (
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "condalint"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "yaml"
)

//go:embed schema.cue
var configSchema string

// DefaultSubdirs are the platforms linted when neither the config file nor
// the command line narrows them.
var DefaultSubdirs = []string{
	"linux-64", "linux-aarch64", "linux-ppc64le", "linux-s390x",
	"osx-64", "osx-arm64", "win-64",
}

// Config is the parsed condalint configuration.
type Config struct {
	// Subdirs are the target platforms to render and lint recipes for.
	Subdirs []string `mapstructure:"subdirs"`
	// SeverityMin is the minimum severity included in output.
	SeverityMin string `mapstructure:"severity_min"`
	// Exclude lists check names disabled for every recipe.
	Exclude []string `mapstructure:"exclude"`
	// Skips maps recipe names to extra checks skipped for them, merged
	// with the skip directives found in the environment or commit message.
	Skips map[string][]string `mapstructure:"skips"`
	// URLTimeoutSeconds bounds each URL reachability probe.
	URLTimeoutSeconds int `mapstructure:"url_timeout_seconds"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Subdirs:           DefaultSubdirs,
		SeverityMin:       "INFO",
		URLTimeoutSeconds: 10,
	}
}

// Load reads the configuration. With an explicit path the file must exist;
// otherwise condalint.yaml is searched in the working directory and its
// absence is not an error. The loaded document is validated against the
// embedded schema before being returned.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("subdirs", defaults.Subdirs)
	v.SetDefault("severity_min", defaults.SeverityMin)
	v.SetDefault("url_timeout_seconds", defaults.URLTimeoutSeconds)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := validateFile(path); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileExt)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if used := v.ConfigFileUsed(); used != "" {
			if err := validateFile(used); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// validateFile checks a YAML config document against the #Config schema.
func validateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}
	return Validate(data, path)
}

// Validate checks a YAML config document against the embedded schema and
// returns a located error on mismatch.
func Validate(data []byte, filename string) error {
	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	docValue, err := cueutil.CompileYAML(ctx, data, filename)
	if err != nil {
		return cueutil.FormatError(err, filename)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(docValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, filename)
	}
	return nil
}
