package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full process configuration, resolved once at startup and
// passed explicitly into constructors.
type Config struct {
	Server  Server  `mapstructure:"server"`
	Storage Storage `mapstructure:"storage"`
	Admin   Admin   `mapstructure:"admin"`
	OAuth   OAuth   `mapstructure:"oauth"`
	SMTP    SMTP    `mapstructure:"smtp"`
}

// Server holds HTTP listener settings.
type Server struct {
	Port           string   `mapstructure:"port"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// Storage selects the backend. Backend is an explicit enum
// (file | redis | memory); when empty the selector probes capabilities in
// the documented order.
type Storage struct {
	Backend       string `mapstructure:"backend"`
	DataDir       string `mapstructure:"data_dir"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// Admin holds the legacy admin login and the signed-cookie secret.
// PasswordHash is a bcrypt hash, never a plain password.
type Admin struct {
	Username      string   `mapstructure:"username"`
	PasswordHash  string   `mapstructure:"password_hash"`
	SessionSecret string   `mapstructure:"session_secret"`
	AllowedEmails []string `mapstructure:"allowed_emails"`
}

// OAuth holds the current admin login (Google code flow).
type OAuth struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// SMTP holds the contact notification mailer; all-empty disables sending.
type SMTP struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	To       string `mapstructure:"to"`
}

// Load reads config.yaml (working dir or ./config) with BILAH_* environment
// overrides. A missing file is fine: defaults plus environment cover the
// serverless deployment case.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("BILAH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "8082")
	v.SetDefault("server.trusted_proxies", []string{"127.0.0.1", "::1"})
	v.SetDefault("storage.backend", "")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("smtp.port", 587)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Hosting platforms inject PORT; it wins over the configured port.
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	return cfg, nil
}
