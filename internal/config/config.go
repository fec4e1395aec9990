// Package config loads and validates the application configuration from
// the environment. A .env file in the working directory is loaded first.
package config

import (
	"errors"
	"fmt"
	"time"

	"members/internal/database"
	"members/internal/storage"

	_ "github.com/joho/godotenv/autoload"
)

// Config is the complete application configuration
type Config struct {
	Env     string
	GinMode string

	Server   ServerConfig
	Database database.Config
	Migrate  bool
	Redis    RedisConfig
	Session  SessionConfig

	PublicDir          string
	MemberImages       []string
	CORSAllowedOrigins []string

	// S3 is used for member images when S3.Endpoint is set.
	S3 storage.S3Config
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RedisConfig holds the session store connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SessionConfig holds cookie and session settings
type SessionConfig struct {
	Secret           string
	EncryptionSecret string
	CookieName       string
	MaxAge           int
}

// Lifetime returns MaxAge as a duration.
func (s SessionConfig) Lifetime() time.Duration {
	return time.Duration(s.MaxAge) * time.Second
}

// Production reports whether the app runs in release mode, where cookies
// are marked Secure.
func (c *Config) Production() bool {
	return c.GinMode == "release" || c.Env == "production"
}

// S3Enabled reports whether member images come from S3.
func (c *Config) S3Enabled() bool {
	return c.S3.Endpoint != ""
}

// Load reads the configuration from the environment and validates it
func Load() (*Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := &Config{
		Env:     GetEnvOrDefault("APP_ENV", "development"),
		GinMode: GetEnvOrDefault("GIN_MODE", "debug"),
		Database: database.Config{
			URL:      GetEnvOrDefault("DATABASE_URL", ""),
			Host:     GetEnvOrDefault("DB_HOST", ""),
			Port:     GetEnvOrDefault("DB_PORT", "5432"),
			User:     GetEnvOrDefault("DB_USER", ""),
			Password: GetEnvOrDefault("DB_PASSWORD", ""),
			Name:     GetEnvOrDefault("DB_NAME", ""),
			SSLMode:  GetEnvOrDefault("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: GetEnvOrDefault("REDIS_PASSWORD", ""),
		},
		Session: SessionConfig{
			Secret:           GetEnvOrDefault("SESSION_SECRET", ""),
			EncryptionSecret: GetEnvOrDefault("SESSION_ENCRYPTION_SECRET", ""),
			CookieName:       GetEnvOrDefault("SESSION_COOKIE_NAME", "members_session"),
		},
		PublicDir:          GetEnvOrDefault("PUBLIC_DIR", "./public"),
		MemberImages:       getEnvList("MEMBER_IMAGES", []string{"ssm1.jpg", "ssm2.jpg", "ssm3.jpg"}),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),
		S3: storage.S3Config{
			Endpoint:       GetEnvOrDefault("S3_ENDPOINT", ""),
			PublicEndpoint: GetEnvOrDefault("S3_PUBLIC_ENDPOINT", ""),
			AccessKey:      GetEnvOrDefault("S3_ACCESS_KEY", ""),
			SecretKey:      GetEnvOrDefault("S3_SECRET_KEY", ""),
			Bucket:         GetEnvOrDefault("S3_BUCKET_NAME", ""),
			Region:         GetEnvOrDefault("S3_REGION", ""),
		},
	}

	var err error
	cfg.Server.Port, err = getEnvInt("PORT", 3000)
	collect(err)
	cfg.Server.ReadTimeout, err = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	collect(err)
	cfg.Server.WriteTimeout, err = getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second)
	collect(err)
	cfg.Server.IdleTimeout, err = getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second)
	collect(err)
	cfg.Migrate, err = getEnvBool("DB_MIGRATE", true)
	collect(err)
	cfg.Redis.DB, err = getEnvInt("REDIS_DB", 0)
	collect(err)
	cfg.Session.MaxAge, err = getEnvInt("SESSION_MAX_AGE", 86400)
	collect(err)
	cfg.S3.UseSSL, err = getEnvBool("S3_USE_SSL", false)
	collect(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements
func (c *Config) Validate() error {
	var errs []error

	if err := ValidateSessionSecrets(c.Session.Secret, c.Session.EncryptionSecret); err != nil {
		errs = append(errs, err)
	}
	if c.Session.MaxAge <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_MAX_AGE must be positive, got %d", c.Session.MaxAge))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME cannot be empty"))
	}
	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "") {
		errs = append(errs, errors.New("DATABASE_URL or DB_HOST, DB_USER and DB_NAME are required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Server.Port))
	}
	if len(c.MemberImages) == 0 {
		errs = append(errs, errors.New("MEMBER_IMAGES cannot be empty"))
	}
	if c.S3Enabled() {
		if err := c.S3.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
