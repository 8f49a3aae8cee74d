package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Configuration struct {
	Server   ServerConfig   `mapstructure:"server"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	QR       QRConfig       `mapstructure:"qr"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type SecurityConfig struct {
	// TokenSecret signs permit tokens. It is injected into the token
	// codec at construction and never read anywhere else.
	TokenSecret string        `mapstructure:"token_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type QRConfig struct {
	// FrontendURL, when set, makes the QR encode a verification URL of
	// the form {FrontendURL}/viewPermit/?token=<token> for browser scan
	// flows. When empty the QR carries the raw token for native
	// scanner apps.
	FrontendURL string `mapstructure:"frontend_url"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory". The memory driver backs local
	// development and tests with in-process stores.
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            string `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// Load reads configuration from an optional file plus EMS_-prefixed
// environment variables (EMS_SECURITY_TOKEN_SECRET, EMS_DATABASE_HOST, ...).
func Load(filePath string) (*Configuration, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("EMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filePath != "" {
		v.SetConfigFile(filePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Configuration{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if cfg.Security.TokenSecret == "" {
		return nil, fmt.Errorf("security.token_secret is required")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)

	// An empty default keeps the key visible to viper so the env
	// override is picked up during Unmarshal.
	v.SetDefault("security.token_secret", "")
	v.SetDefault("security.token_ttl", 720*time.Hour)

	v.SetDefault("logging.level", "info")

	v.SetDefault("qr.frontend_url", "")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "ems_clearance")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 300)
}

// LogConfig writes the effective configuration with secrets redacted.
func LogConfig(cfg *Configuration, logger *zap.Logger) {
	logger.Info("Application configuration",
		zap.String("port", cfg.Server.Port),
		zap.Duration("read_timeout", cfg.Server.ReadTimeout),
		zap.Duration("write_timeout", cfg.Server.WriteTimeout),
		zap.Duration("token_ttl", cfg.Security.TokenTTL),
		zap.String("token_secret", "[REDACTED]"),
		zap.String("frontend_url", cfg.QR.FrontendURL),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("database_host", cfg.Database.Host),
		zap.String("database_name", cfg.Database.Name),
	)
}
