// Package dcpconfig loads configuration for the dcpclient CLI tools
// (cmd/dcpsend, cmd/dcplisten, cmd/dcpterm). The core dcpclient
// package itself takes no dependency on this package or on viper —
// see spec.md §6, "no environment variables are required by the
// core."
package dcpconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the configuration shared by the dcpclient command-line
// tools.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (bound by the caller, highest priority)
//  2. Environment variables (DCPCLIENT_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	Server        ServerConfig  `mapstructure:"server" yaml:"server"`
	DeviceName    string        `mapstructure:"device_name" yaml:"device_name"`
	AutoReconnect bool          `mapstructure:"auto_reconnect" yaml:"auto_reconnect"`
	ReconnectMS   int           `mapstructure:"reconnect_interval_ms" yaml:"reconnect_interval_ms"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig identifies the DCP hub to connect to.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port uint16 `mapstructure:"port" yaml:"port"`
}

// LoggingConfig controls internal/dcplog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// GetDefaultConfig returns a Config populated with the library's
// defaults (DefaultPort, a 30s reconnect interval, text logging to
// stdout at info level).
func GetDefaultConfig() *Config {
	return &Config{
		Server:        ServerConfig{Host: "localhost", Port: 2001},
		DeviceName:    "dcpclient",
		AutoReconnect: false,
		ReconnectMS:   30000,
		Logging:       LoggingConfig{Level: "INFO", Format: "text", Output: "stdout"},
	}
}

// Load loads configuration from file, environment, and defaults.
// configPath may be empty, in which case the default location
// ($XDG_CONFIG_HOME/dcpclient/config.yaml) is used if present.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	defaults := GetDefaultConfig()
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("device_name", defaults.DeviceName)
	v.SetDefault("auto_reconnect", defaults.AutoReconnect)
	v.SetDefault("reconnect_interval_ms", defaults.ReconnectMS)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.output", defaults.Logging.Output)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	cfg := GetDefaultConfig()
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes cfg to path in YAML form.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("DCPCLIENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dcpclient")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dcpclient"
	}
	return filepath.Join(home, ".config", "dcpclient")
}

// GetDefaultConfigPath returns the default config file location.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
