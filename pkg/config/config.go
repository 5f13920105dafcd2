package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	xdgAppName = "steady"
	configFile = "config.json"
	envPrefix  = "STEADY"

	DefaultAPIURL = "https://to-do-habit-tracker.onrender.com"
)

type Config struct {
	// APIURL is the base URL of the remote task store.
	APIURL string `mapstructure:"api_url" json:"api_url" yaml:"api_url"`
	// RequestTimeout bounds a single HTTP round-trip, in seconds. Zero means
	// the transport default.
	RequestTimeout int `mapstructure:"request_timeout" json:"request_timeout" yaml:"request_timeout"`
	// GoogleClientID is the OAuth client id the backend verifies ID tokens against.
	GoogleClientID string `mapstructure:"google_client_id" json:"google_client_id" yaml:"google_client_id"`
	// Calendar is the Google Calendar deadlines are exported to.
	Calendar string `mapstructure:"calendar" json:"calendar" yaml:"calendar"`
	LogLevel string `mapstructure:"log_level" json:"log_level" yaml:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json" yaml:"log_json"`

	Proxy ProxyConfig `mapstructure:"proxy" json:"proxy" yaml:"proxy"`
}

type ProxyConfig struct {
	Listen string `mapstructure:"listen" json:"listen" yaml:"listen"`
	// Upstream is the backend the proxy forwards to; empty disables forwarding.
	Upstream    string `mapstructure:"upstream" json:"upstream" yaml:"upstream"`
	StaticDir   string `mapstructure:"static_dir" json:"static_dir" yaml:"static_dir"`
	PingMessage string `mapstructure:"ping_message" json:"ping_message" yaml:"ping_message"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("request_timeout", 0)
	v.SetDefault("google_client_id", "")
	v.SetDefault("calendar", "Tasks")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("proxy.listen", ":8080")
	v.SetDefault("proxy.upstream", "")
	v.SetDefault("proxy.static_dir", "")
	v.SetDefault("proxy.ping_message", "ping")
}

// GetXdgHome returns the directory holding steady's config and state files.
func GetXdgHome() (string, error) {
	if dir := os.Getenv(envPrefix + "_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := GetXdgHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the default config file.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads path, applies defaults for anything missing and lets
// STEADY_* environment variables override both. A missing file is not an
// error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" && os.Getenv(envPrefix+"_LOG_LEVEL") == "" {
		cfg.LogLevel = lvl
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &cfg, nil
}

// Save writes cfg to the default config path.
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("api_url", cfg.APIURL)
	v.Set("request_timeout", cfg.RequestTimeout)
	v.Set("google_client_id", cfg.GoogleClientID)
	v.Set("calendar", cfg.Calendar)
	v.Set("log_level", cfg.LogLevel)
	v.Set("log_json", cfg.LogJSON)
	v.Set("proxy.listen", cfg.Proxy.Listen)
	v.Set("proxy.upstream", cfg.Proxy.Upstream)
	v.Set("proxy.static_dir", cfg.Proxy.StaticDir)
	v.Set("proxy.ping_message", cfg.Proxy.PingMessage)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(path, 0600)
}

// Keys lists the settings Set understands, in file order.
var Keys = []string{
	"api_url", "request_timeout", "google_client_id", "calendar", "log_level", "log_json",
	"proxy.listen", "proxy.upstream", "proxy.static_dir", "proxy.ping_message",
}

// Set assigns one setting by its file key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "api_url":
		c.APIURL = strings.TrimRight(value, "/")
	case "request_timeout":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("request_timeout must be a non-negative number of seconds, got %q", value)
		}
		c.RequestTimeout = n
	case "google_client_id":
		c.GoogleClientID = value
	case "calendar":
		c.Calendar = value
	case "log_level":
		if _, err := logrus.ParseLevel(value); err != nil {
			return err
		}
		c.LogLevel = value
	case "log_json":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("log_json must be true or false, got %q", value)
		}
		c.LogJSON = b
	case "proxy.listen":
		c.Proxy.Listen = value
	case "proxy.upstream":
		c.Proxy.Upstream = value
	case "proxy.static_dir":
		c.Proxy.StaticDir = value
	case "proxy.ping_message":
		c.Proxy.PingMessage = value
	default:
		return fmt.Errorf("unknown setting %q (one of %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}
