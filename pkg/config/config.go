// Package config loads .spreads.yaml, SPREADS_* environment overrides and
// built-in defaults into a Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"tableflip.dev/spreads/pkg/journal"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/timeutil"
)

// Keys.
const (
	KeyPath               = "path"
	KeyDevice             = "device"
	KeyFirstWeekday       = "calendar.first_weekday"
	KeyMode               = "journal.mode"
	KeyProtectYearSpreads = "journal.protect_year_spreads"
	KeySyncEnabled        = "sync.enabled"
	KeySyncRemote         = "sync.remote"
	KeySyncInterval       = "sync.interval"
	KeySyncLogSize        = "sync.log_size"
	KeyLogFile            = "log.file"
	KeyLogLevel           = "log.level"
	KeyLogMaxSize         = "log.max_size_mb"
	KeyLogMaxBackups      = "log.max_backups"
)

// Config is the resolved configuration.
type Config struct {
	Path   string `json:"path"`
	device string

	FirstWeekday       time.Weekday `json:"firstWeekday"`
	Mode               journal.Mode `json:"mode"`
	ProtectYearSpreads bool         `json:"protectYearSpreads"`

	Sync Sync `json:"sync"`
	Log  Log  `json:"log"`

	// File is the config file that was read, if any.
	File string `json:"file,omitempty"`
}

// Sync configures the sync engine.
type Sync struct {
	Enabled  bool          `json:"enabled"`
	Remote   string        `json:"remote,omitempty"`
	Interval time.Duration `json:"interval"`
	LogSize  int           `json:"logSize"`
}

// Log configures the process logger.
type Log struct {
	File       string `json:"file,omitempty"`
	Level      string `json:"level"`
	MaxSizeMB  int    `json:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups"`
}

// BasePath is the local store directory.
func (c *Config) BasePath() string {
	return c.Path
}

// Device is the configured device identifier, possibly empty.
func (c *Config) Device() string {
	return c.device
}

// Calendar is the calendar entries and spreads are normalized against.
func (c *Config) Calendar() period.Calendar {
	return period.Calendar{FirstWeekday: c.FirstWeekday, Location: time.Local}
}

// Journal returns coordinator options for this configuration.
func (c *Config) Journal() journal.Options {
	return journal.Options{
		Calendar:           c.Calendar(),
		Mode:               c.Mode,
		ProtectYearSpreads: c.ProtectYearSpreads,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyPath, "~/.spreads.db")
	v.SetDefault(KeyDevice, "")
	v.SetDefault(KeyFirstWeekday, "sunday")
	v.SetDefault(KeyMode, string(journal.Conventional))
	v.SetDefault(KeyProtectYearSpreads, false)
	v.SetDefault(KeySyncEnabled, false)
	v.SetDefault(KeySyncRemote, "")
	v.SetDefault(KeySyncInterval, "15m")
	v.SetDefault(KeySyncLogSize, 200)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogMaxSize, 10)
	v.SetDefault(KeyLogMaxBackups, 3)
}

// Load reads configuration. Search order for .spreads.yaml is
// $SPREADS_CONFIG_PATH, the working directory, then $HOME. A missing file is
// not an error.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName(".spreads") // .yaml is implicit
	v.SetEnvPrefix("SPREADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("SPREADS_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	path, err := homedir.Expand(v.GetString(KeyPath))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", KeyPath, err)
	}
	weekday, err := period.ParseWeekday(v.GetString(KeyFirstWeekday))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", KeyFirstWeekday, err)
	}
	mode, err := journal.ParseMode(v.GetString(KeyMode))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", KeyMode, err)
	}
	interval, _, err := timeutil.ParseInterval(v.GetString(KeySyncInterval))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", KeySyncInterval, err)
	}
	remote := v.GetString(KeySyncRemote)
	if remote != "" {
		if remote, err = homedir.Expand(remote); err != nil {
			return nil, fmt.Errorf("config: %s: %w", KeySyncRemote, err)
		}
	}
	logFile := v.GetString(KeyLogFile)
	if logFile != "" {
		if logFile, err = homedir.Expand(logFile); err != nil {
			return nil, fmt.Errorf("config: %s: %w", KeyLogFile, err)
		}
	}

	return &Config{
		Path:               path,
		device:             strings.TrimSpace(v.GetString(KeyDevice)),
		FirstWeekday:       weekday,
		Mode:               mode,
		ProtectYearSpreads: v.GetBool(KeyProtectYearSpreads),
		Sync: Sync{
			Enabled:  v.GetBool(KeySyncEnabled),
			Remote:   remote,
			Interval: interval,
			LogSize:  v.GetInt(KeySyncLogSize),
		},
		Log: Log{
			File:       logFile,
			Level:      v.GetString(KeyLogLevel),
			MaxSizeMB:  v.GetInt(KeyLogMaxSize),
			MaxBackups: v.GetInt(KeyLogMaxBackups),
		},
		File: v.ConfigFileUsed(),
	}, nil
}
