package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"rolltodo/pkg/api"
	"rolltodo/pkg/keymaps"
)

// EnvPrefix prefixes every environment override, e.g. ROLLTODO_API_URL.
const EnvPrefix = "ROLLTODO"

// Config holds the application configuration
type Config struct {
	APIURL            string            `mapstructure:"api_url"`
	Database          string            `mapstructure:"database"`
	RequestTimeout    time.Duration     `mapstructure:"request_timeout"`
	RequestsPerSecond float64           `mapstructure:"requests_per_second"`
	LogLevel          string            `mapstructure:"log_level"`
	KeyMap            map[string]string `mapstructure:"keymap"`
	StylesFile        string            `mapstructure:"styles_file"`
}

// Options are command line values that take precedence over the file.
type Options struct {
	ConfigPath string
	APIURL     string
	Database   string
}

// Dir returns the directory holding config.json, styles.json and the database.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "rolltodo"), nil
}

// Load reads the configuration file, creating it with defaults when missing,
// then applies .env, ROLLTODO_* variables and opts on top.
func Load(opts Options) (Config, Styles, error) {
	configDir, err := Dir()
	if err != nil {
		return Config{}, Styles{}, err
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = filepath.Join(configDir, "config.json")
	}

	v := viper.New()
	v.SetDefault("api_url", api.DefaultBaseURL)
	v.SetDefault("database", filepath.Join(configDir, "local.db"))
	v.SetDefault("request_timeout", "0s")
	v.SetDefault("requests_per_second", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("keymap", keymaps.GetDefaultKeyMappings())
	v.SetDefault("styles_file", filepath.Join(filepath.Dir(configPath), "styles.json"))
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	// Written before env binding so overrides never end up in the file.
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return Config{}, Styles{}, err
		}
		if err := v.WriteConfigAs(configPath); err != nil {
			return Config{}, Styles{}, fmt.Errorf("error writing default config: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return Config{}, Styles{}, fmt.Errorf("error reading config %s: %w", configPath, err)
	}

	// A missing .env is the normal case.
	_ = godotenv.Load()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.APIURL != "" {
		v.Set("api_url", opts.APIURL)
	}
	if opts.Database != "" {
		v.Set("database", opts.Database)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, Styles{}, fmt.Errorf("error parsing config: %w", err)
	}

	styles, err := loadStyles(cfg.StylesFile)
	if err != nil {
		return cfg, styles, fmt.Errorf("error loading styles: %w", err)
	}

	return cfg, styles, nil
}
