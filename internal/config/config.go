// Package config assembles the server configuration from built-in defaults,
// an optional .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends understood by the server.
const (
	StorageS3    = "s3"
	StorageLocal = "local"
)

// Config holds runtime settings for the messaging server.
//
// Fields:
//   - JWTSecret: HMAC secret for access and refresh tokens (HS256).
//   - AccessTokenTTL / RefreshTokenTTL: token lifetimes.
//   - DBType: "postgres" (lib/pq) or "pgx" (pgx stdlib).
//   - StorageBackend: "s3" for an S3-compatible bucket, "local" for MediaRoot.
//   - MediaBaseURL: prefix that turns a stored key into a fetchable URL.
type Config struct {
	Env             string
	Port            string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	DBType      string
	DatabaseURL string

	AllowedOrigins []string

	StorageBackend string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3PathStyle    bool
	S3ACL          string
	MediaRoot      string
	MediaBaseURL   string
	MaxUploadBytes int64
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Env = "development"
	c.Port = "8080"
	c.AccessTokenTTL = 5 * time.Minute
	c.RefreshTokenTTL = 24 * time.Hour
	c.DBType = "postgres"
	c.StorageBackend = StorageLocal
	c.S3Region = "us-east-1"
	c.S3ACL = "public-read"
	c.MediaRoot = "media"
	c.MaxUploadBytes = 5 << 20
}

// Load builds a Config from defaults, the given .env files (".env" when none
// are given) and the environment. A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{}
	cfg.LoadDefaults()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Env, "ENV")
	setString(&c.Port, "PORT")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.DBType, "DB_TYPE")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.StorageBackend, "STORAGE_BACKEND")
	setString(&c.S3Bucket, "S3_BUCKET")
	setString(&c.S3Region, "S3_REGION")
	setString(&c.S3Endpoint, "S3_ENDPOINT")
	setString(&c.S3AccessKey, "S3_ACCESS_KEY")
	setString(&c.S3SecretKey, "S3_SECRET_KEY")
	if v, ok := os.LookupEnv("S3_ACL"); ok {
		// An explicit empty value disables ACLs for buckets that enforce ownership.
		c.S3ACL = strings.TrimSpace(v)
	}
	setString(&c.MediaRoot, "MEDIA_ROOT")
	setString(&c.MediaBaseURL, "MEDIA_BASE_URL")

	if err := setDuration(&c.AccessTokenTTL, "ACCESS_TOKEN_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.RefreshTokenTTL, "REFRESH_TOKEN_TTL"); err != nil {
		return err
	}

	if raw := strings.TrimSpace(os.Getenv("S3_PATH_STYLE")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("S3_PATH_STYLE: %w", err)
		}
		c.S3PathStyle = v
	}

	if raw := strings.TrimSpace(os.Getenv("MAX_UPLOAD_BYTES")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("MAX_UPLOAD_BYTES must be a positive integer, got %q", raw)
		}
		c.MaxUploadBytes = v
	}

	if raw := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, origin)
			}
		}
	}

	if c.DatabaseURL == "" {
		// Fallback to individual connection parameters if DATABASE_URL not set
		host := os.Getenv("DB_HOST")
		name := os.Getenv("DB_NAME")
		user := os.Getenv("DB_USER")
		if host != "" && name != "" && user != "" {
			port := os.Getenv("DB_PORT")
			if port == "" {
				port = "5432"
			}
			c.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
				user, os.Getenv("DB_PASSWORD"), host, port, name)
		}
	}

	if c.MediaBaseURL == "" {
		c.MediaBaseURL = c.defaultMediaBaseURL()
	}
	return nil
}

func (c *Config) defaultMediaBaseURL() string {
	switch {
	case c.StorageBackend == StorageLocal:
		return fmt.Sprintf("http://localhost:%s/media/", c.Port)
	case c.S3Endpoint != "":
		return strings.TrimRight(c.S3Endpoint, "/") + "/" + c.S3Bucket + "/"
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", c.S3Bucket, c.S3Region)
	}
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("database connection details missing: set DATABASE_URL or individual DB_* variables")
	}
	switch c.StorageBackend {
	case StorageLocal:
	case StorageS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
