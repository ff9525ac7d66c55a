package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Email    EmailConfig    `mapstructure:"email"`
	SMS      SMSConfig      `mapstructure:"sms"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds the gorm/postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// StorageConfig holds attachment storage configuration
type StorageConfig struct {
	AttachmentDir string `mapstructure:"attachment_dir"`
}

// EmailConfig holds SMTP delivery configuration
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	From     string `mapstructure:"from"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// SMSConfig holds SMS gateway configuration
type SMSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	GatewayURL string `mapstructure:"gateway_url"`
	APIKey     string `mapstructure:"api_key"`
	Sender     string `mapstructure:"sender"`
}

// WebhookConfig holds outbound chat webhook configuration
type WebhookConfig struct {
	URLs []string `mapstructure:"urls"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from the given YAML file (if present) and
// environment variables. Environment always wins.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	// A missing file is fine: env vars plus defaults are a full config.
	if err := viper.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.name", "reportflow")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("storage.attachment_dir", "data/attachments")

	viper.SetDefault("email.enabled", false)
	viper.SetDefault("email.port", 587)
	viper.SetDefault("sms.enabled", false)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

func bindEnvVars() {
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.name", "DB_NAME")
	viper.BindEnv("database.sslmode", "DB_SSLMODE")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("storage.attachment_dir", "ATTACHMENT_DIR")
	viper.BindEnv("email.host", "SMTP_HOST")
	viper.BindEnv("email.port", "SMTP_PORT")
	viper.BindEnv("email.from", "SMTP_FROM")
	viper.BindEnv("email.username", "SMTP_USERNAME")
	viper.BindEnv("email.password", "SMTP_PASSWORD")
	viper.BindEnv("sms.gateway_url", "SMS_GATEWAY_URL")
	viper.BindEnv("sms.api_key", "SMS_API_KEY")
	viper.BindEnv("server.port", "PORT")
}

// Validate checks the configuration for required values.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Email.Enabled && c.Email.Host == "" {
		return fmt.Errorf("email.host is required when email is enabled")
	}
	if c.SMS.Enabled && c.SMS.GatewayURL == "" {
		return fmt.Errorf("sms.gateway_url is required when sms is enabled")
	}
	return nil
}
