// Package config holds the command line configuration.
//
// Every option is a flag. Values are taken from, in order of priority, the
// command line, H5SHARD_* environment variables, a config file given with
// --config, and the flag defaults. The config file format follows its
// extension (toml, yaml or json).
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/robert-malhotra/h5shard/fileset"
	"github.com/robert-malhotra/h5shard/internal/logging"
)

// EnvPrefix is prepended to the upper-cased flag name, with dashes as
// underscores, to form the environment variable of each option.
const EnvPrefix = "H5SHARD"

// Config is the set of options shared by every command.
type Config struct {
	Path      string
	Count     int
	Files     []string
	Parallel  bool
	Progress  bool
	Workers   int
	LogLevel  string
	LogFormat string

	// ConfigFile is the path of the config file, if any.
	ConfigFile string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Count:     1,
		Parallel:  true,
		Progress:  true,
		LogLevel:  "warn",
		LogFormat: logging.FormatConsole,
	}
}

// Flags defines the configuration flags on fs. Parsed values are written
// into c, whose current values are the defaults.
func (c *Config) Flags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Path, "path", "p", c.Path, "File path, or a pattern with one integer slot such as out_%03d.h5.")
	fs.IntVarP(&c.Count, "count", "n", c.Count, "Number of files a pattern expands to.")
	fs.StringSliceVarP(&c.Files, "files", "f", c.Files, "Explicit comma separated file list. Takes precedence over --path.")
	fs.BoolVar(&c.Parallel, "parallel", c.Parallel, "Read the files of a set concurrently.")
	fs.BoolVar(&c.Progress, "progress", c.Progress, "Show a progress bar while loading.")
	fs.IntVarP(&c.Workers, "workers", "w", c.Workers, "Concurrent reads; 0 means one per CPU.")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: trace, debug, info, warn or error.")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: console or json.")
	fs.StringVarP(&c.ConfigFile, "config", "c", c.ConfigFile, "Configuration file to read from.")
}

// Spec returns the file set the configuration describes. An explicit file
// list wins over a path.
func (c *Config) Spec() fileset.Spec {
	if len(c.Files) > 0 {
		return fileset.Explicit(c.Files...)
	}
	return fileset.Auto(c.Path, c.Count)
}

// Validate checks values that flags cannot constrain.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return errors.Errorf("invalid log format %q", c.LogFormat)
	}
	if len(c.Files) == 0 && c.Path == "" {
		return errors.WithMessage(fileset.ErrInvalidSpec, "one of --path or --files is required")
	}
	return nil
}

// Load fills every flag in flags that was not set on the command line from
// the environment or the config file. A config file key that names no flag
// is an error.
func Load(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	validKeys := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		validKeys[f.Name] = true
	})

	if c := v.GetString("config"); c != "" {
		v.SetConfigFile(c)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading configuration file %q", c)
		}
		for _, key := range v.AllKeys() {
			if !validKeys[key] {
				return errors.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			return
		}
		var value string
		if f.Value.Type() == "stringSlice" {
			// GetString is empty for a list read from a file.
			value = strings.Join(v.GetStringSlice(f.Name), ",")
		} else {
			value = v.GetString(f.Name)
		}
		if err := f.Value.Set(value); err != nil {
			flagErr = errors.Wrapf(err, "option %s", f.Name)
		}
	})
	return flagErr
}
