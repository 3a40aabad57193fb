package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Register RegisterConfig `yaml:"register" mapstructure:"register"`
	Roster   RosterConfig   `yaml:"roster" mapstructure:"roster"`
	Match    MatchConfig    `yaml:"match" mapstructure:"match"`
	Denylist DenylistConfig `yaml:"denylist" mapstructure:"denylist"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the snapshot and decision database.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// RegisterConfig configures where per-group record files are read from and
// where diff reports are written.
type RegisterConfig struct {
	GroupsDir string `yaml:"groups_dir" mapstructure:"groups_dir"`
	DiffsDir  string `yaml:"diffs_dir" mapstructure:"diffs_dir"`
}

// RosterConfig configures the canonical roster source.
type RosterConfig struct {
	PeopleFile string `yaml:"people_file" mapstructure:"people_file"`
}

// MatchConfig configures the name matcher thresholds. Floor is the minimum
// similarity for a candidate to be proposed; AutoAccept is the bar exactly
// one candidate must clear for unattended acceptance.
type MatchConfig struct {
	Floor         float64 `yaml:"floor" mapstructure:"floor"`
	AutoAccept    float64 `yaml:"auto_accept" mapstructure:"auto_accept"`
	MaxCandidates int     `yaml:"max_candidates" mapstructure:"max_candidates"`
}

// DenylistConfig points at the ineligible-person deny-list file.
type DenylistConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("APPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "data/appgtrack.db")
	v.SetDefault("register.groups_dir", "data/appgs")
	v.SetDefault("register.diffs_dir", "data/interim/diffs")
	v.SetDefault("roster.people_file", "data/raw/people.json")
	v.SetDefault("match.floor", 0.5)
	v.SetDefault("match.auto_accept", 0.9)
	v.SetDefault("match.max_candidates", 5)
	v.SetDefault("denylist.path", "data/raw/ineligible.yaml")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks configuration bounds before a run starts.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "memory":
	default:
		return eris.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if c.Match.Floor < 0 || c.Match.Floor > 1 {
		return eris.New("config: match.floor must be between 0 and 1")
	}
	if c.Match.AutoAccept < 0 || c.Match.AutoAccept > 1 {
		return eris.New("config: match.auto_accept must be between 0 and 1")
	}
	if c.Match.AutoAccept < c.Match.Floor {
		return eris.New("config: match.auto_accept must be >= match.floor")
	}
	if c.Match.MaxCandidates < 1 {
		return eris.New("config: match.max_candidates must be >= 1")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
