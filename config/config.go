package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys for every setting the crossfill binaries understand. Use these
// instead of raw strings so typos fail at compile time.
const (
	ConfigDebug              = "debug"
	ConfigDataPath           = "data-path"
	ConfigDefaultLexicon     = "default-lexicon"
	ConfigLexiconPath        = "lexicon-path"
	ConfigStructurePath      = "structure-path"
	ConfigWordListBaseURL    = "word-list-base-url"
	ConfigNatsURL            = "nats-url"
	ConfigSolveHistoryDB     = "solve-history-db"
	ConfigSolveTimeoutSecs   = "solve-timeout-secs"
	ConfigCacheMemoryGuard   = "cache-memory-guard"
	ConfigCPUProfile         = "cpu-profile"
	ConfigMemProfile         = "mem-profile"
	ConfigLambdaFunctionName = "lambda-function-name"
)

const envPrefix = "CROSSFILL"

// Config wraps a viper instance. Settings resolve in the usual order:
// explicit Set, command-line flag, CROSSFILL_ environment variable,
// config file, default.
type Config struct {
	v *viper.Viper

	configFilePath string
}

func defaults(v *viper.Viper) {
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigDataPath, "./data")
	v.SetDefault(ConfigDefaultLexicon, "common")
	v.SetDefault(ConfigLexiconPath, "./data/lexica")
	v.SetDefault(ConfigStructurePath, "./data/structures")
	v.SetDefault(ConfigWordListBaseURL, "")
	v.SetDefault(ConfigNatsURL, "nats://localhost:4222")
	v.SetDefault(ConfigSolveHistoryDB, "./data/solve-history.db")
	v.SetDefault(ConfigSolveTimeoutSecs, 0)
	v.SetDefault(ConfigCacheMemoryGuard, 0.25)
	v.SetDefault(ConfigCPUProfile, "")
	v.SetDefault(ConfigMemProfile, "")
	v.SetDefault(ConfigLambdaFunctionName, "crossfill-solver")
}

// DefaultConfig returns a config with every setting at its default,
// without parsing flags or the environment.
func DefaultConfig() *Config {
	v := viper.New()
	defaults(v)
	return &Config{v: v}
}

// Load parses args, binds environment variables, and reads the config
// file if one exists. It must be called before any Get.
func (c *Config) Load(args []string) error {
	c.v = viper.New()
	defaults(c.v)

	fs := pflag.NewFlagSet("crossfill", pflag.ContinueOnError)
	// Binaries layer their own flags on top of these, so unknown flags
	// are not an error here.
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigDataPath, "./data", "directory holding crossfill data files")
	fs.String(ConfigDefaultLexicon, "common", "the default word list to use")
	fs.String(ConfigLexiconPath, "./data/lexica", "directory holding word lists")
	fs.String(ConfigStructurePath, "./data/structures", "directory holding grid structure files")
	fs.String(ConfigWordListBaseURL, "", "base URL to fetch missing word lists from")
	fs.String(ConfigNatsURL, "nats://localhost:4222", "the NATS server URL")
	fs.String(ConfigSolveHistoryDB, "./data/solve-history.db", "path to the solve history database")
	fs.Int(ConfigSolveTimeoutSecs, 0, "default solve timeout in seconds; 0 for none")
	fs.String(ConfigCPUProfile, "", "path for CPU profile")
	fs.String(ConfigMemProfile, "", "path for memory profile")
	fs.String(ConfigLambdaFunctionName, "crossfill-solver", "name of the solver lambda function")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.v.BindPFlags(fs); err != nil {
		return err
	}

	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	cfgdir, err := os.UserConfigDir()
	if err == nil {
		cfgdir = filepath.Join(cfgdir, "crossfill")
		c.v.AddConfigPath(cfgdir)
		c.configFilePath = filepath.Join(cfgdir, "config.yaml")
	}
	c.v.SetConfigName("config")
	c.v.SetConfigType("yaml")
	err = c.v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		log.Debug().Msg("no config file found; using defaults")
	}
	return nil
}

func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// Set overrides a setting for the lifetime of this process. Use Write
// to persist it.
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Write saves the current settings to the user config file.
func (c *Config) Write() error {
	if c.configFilePath == "" {
		return fmt.Errorf("no config file path could be determined")
	}
	if err := os.MkdirAll(filepath.Dir(c.configFilePath), 0755); err != nil {
		return err
	}
	return c.v.WriteConfigAs(c.configFilePath)
}

// AdjustRelativePaths rewrites any relative path settings to be
// relative to the executable's directory, rather than the working
// directory.
func (c *Config) AdjustRelativePaths(exePath string) {
	for _, key := range []string{
		ConfigDataPath, ConfigLexiconPath, ConfigStructurePath, ConfigSolveHistoryDB,
	} {
		p := c.v.GetString(key)
		if p != "" && !filepath.IsAbs(p) {
			c.v.Set(key, toAbsPath(exePath, p, key))
		}
	}
}

func toAbsPath(exePath, path, logname string) string {
	abs := filepath.Clean(filepath.Join(exePath, path))
	log.Debug().Str("name", logname).Str("path", abs).Msg("adjusted relative path")
	return abs
}

// AllSettings dumps the resolved settings, for the shell's config
// display.
func (c *Config) AllSettings() map[string]interface{} {
	return c.v.AllSettings()
}

// SanitizedSettings is like AllSettings. It exists so that settings we
// would not want logged (API keys and the like) have a place to be
// scrubbed; everything crossfill holds today is loggable.
func (c *Config) SanitizedSettings() map[string]interface{} {
	return c.v.AllSettings()
}
