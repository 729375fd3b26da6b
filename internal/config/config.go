package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all fibday configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Clock    ClockConfig    `mapstructure:"clock"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Bind string `mapstructure:"bind"`
	Port int    `mapstructure:"port"`
}

type StoreConfig struct {
	Driver string      `mapstructure:"driver"` // "sqlite", "redis", "memory"
	Path   string      `mapstructure:"path"`   // sqlite file; empty means store.DefaultDBPath()
	Redis  RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type ClockConfig struct {
	Timezone string `mapstructure:"timezone"` // IANA name; empty means the host's local zone
}

type ScheduleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Daily   string `mapstructure:"daily"` // cron spec for the synthetic activation
}

type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37778,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Redis: RedisConfig{
				Addr:   "127.0.0.1:6379",
				Prefix: "fibday",
			},
		},
		Schedule: ScheduleConfig{
			Enabled: true,
			Daily:   "0 0 * * *",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.fibday/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".fibday", "config.yaml"), nil
}

// Load reads path (if it exists) over the defaults, then applies FIBDAY_*
// environment overrides such as FIBDAY_SERVER_PORT or FIBDAY_STORE_DRIVER.
// An explicitly named file that does not exist is an error; a missing
// default file is not.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("fibday")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
			if explicit || !missing {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during
// Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.bind", d.Server.Bind)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.redis.addr", d.Store.Redis.Addr)
	v.SetDefault("store.redis.password", d.Store.Redis.Password)
	v.SetDefault("store.redis.db", d.Store.Redis.DB)
	v.SetDefault("store.redis.prefix", d.Store.Redis.Prefix)
	v.SetDefault("clock.timezone", d.Clock.Timezone)
	v.SetDefault("schedule.enabled", d.Schedule.Enabled)
	v.SetDefault("schedule.daily", d.Schedule.Daily)
	v.SetDefault("log.level", d.Log.Level)
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("store.driver %q: want sqlite, redis or memory", c.Store.Driver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves clock.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Clock.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Clock.Timezone)
	if err != nil {
		return nil, fmt.Errorf("clock.timezone: %w", err)
	}
	return loc, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
