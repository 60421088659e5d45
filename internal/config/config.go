package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Reading  ReadingConfig  `mapstructure:"reading"`
	Client   ClientConfig   `mapstructure:"client"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// AuthConfig holds settings for session tokens and the external identity provider.
type AuthConfig struct {
	// ProviderURL is the endpoint the /auth/session exchange calls with an
	// X-Session-ID header to resolve user data. Empty disables the exchange.
	ProviderURL  string `mapstructure:"provider_url"`
	TokenTTLDays int    `mapstructure:"token_ttl_days"`
}

// ReadingConfig holds reading-session behavior shared by server and client.
type ReadingConfig struct {
	DefaultImageCount int `mapstructure:"default_image_count"`
	// ResultDisplayMs is how long a submitted result stays on screen before
	// the session advances to the next image.
	ResultDisplayMs int `mapstructure:"result_display_ms"`
	TickMs          int `mapstructure:"tick_ms"`
	// StaleAfterHours is how long an in_progress session may sit idle before
	// the cleanup scheduler marks it quit.
	StaleAfterHours int `mapstructure:"stale_after_hours"`
}

// ClientConfig holds settings for the medread CLI.
type ClientConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// ResultDisplay returns the configured result display interval as a duration.
func (r ReadingConfig) ResultDisplay() time.Duration {
	return time.Duration(r.ResultDisplayMs) * time.Millisecond
}

// Tick returns the configured timer tick resolution as a duration.
func (r ReadingConfig) Tick() time.Duration {
	return time.Duration(r.TickMs) * time.Millisecond
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")

	// Database defaults
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "medread-db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	// Auth defaults
	v.SetDefault("auth.provider_url", "")
	v.SetDefault("auth.token_ttl_days", 7)

	// Reading session defaults
	v.SetDefault("reading.default_image_count", 20)
	v.SetDefault("reading.result_display_ms", 1000)
	v.SetDefault("reading.tick_ms", 100)
	v.SetDefault("reading.stale_after_hours", 24)

	// Client defaults. An empty base_url leaves CORS open to any origin.
	v.SetDefault("client.base_url", "")
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) error {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config") // Name of config file (without extension)
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("MEDREAD") // e.g., MEDREAD_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the initial configuration from the file.
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the config into our global Conf variable
	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})

	log.Info("Configuration loaded successfully")
	return nil
}
