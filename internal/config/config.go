package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvDevelopment is the server.env value that enables verbose error output.
const EnvDevelopment = "development"

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Auth     AuthConfig     `koanf:"auth"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string     `koanf:"host"`
	Port        int        `koanf:"port"`
	Mode        string     `koanf:"mode"`
	Env         string     `koanf:"env"`
	InstanceID  string     `koanf:"instance_id"`
	FrontendURL string     `koanf:"frontend_url"`
	CORS        CORSConfig `koanf:"cors"`
	Metrics     bool       `koanf:"metrics"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Development reports whether the process runs in the development environment.
func (s ServerConfig) Development() bool {
	return s.Env == EnvDevelopment
}

// CORSConfig tunes the single global CORS policy. The allowed origin is
// always server.frontend_url.
type CORSConfig struct {
	AllowMethods []string `koanf:"allow_methods"`
	AllowHeaders []string `koanf:"allow_headers"`
	MaxAge       string   `koanf:"max_age"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver      string         `koanf:"driver"`
	AutoMigrate *bool          `koanf:"auto_migrate"`
	SQLite      SQLiteConfig   `koanf:"sqlite"`
	Postgres    PostgresConfig `koanf:"postgres"`
	Pool        PoolConfig     `koanf:"pool"`
}

// ShouldAutoMigrate reports whether the schema is migrated at startup.
// Unset means yes.
func (d DatabaseConfig) ShouldAutoMigrate() bool {
	return d.AutoMigrate == nil || *d.AutoMigrate
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	Enabled     bool   `koanf:"enabled"`
	JWTSecret   string `koanf:"jwt_secret"`
	TokenExpiry string `koanf:"token_expiry"`
}

// TokenTTL returns the parsed token lifetime. Validate guarantees it parses.
func (a AuthConfig) TokenTTL() time.Duration {
	d, _ := time.ParseDuration(a.TokenExpiry)
	return d
}

var defaults = map[string]any{
	"server.host":                     "0.0.0.0",
	"server.port":                     3000,
	"server.frontend_url":             "http://localhost:8080",
	"server.metrics":                  true,
	"server.cors.allow_methods":       []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	"server.cors.allow_headers":       []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
	"server.cors.max_age":             "12h",
	"database.driver":                 "sqlite",
	"database.sqlite.path":            "data/studio.db",
	"database.postgres.port":          5432,
	"database.postgres.sslmode":       "disable",
	"database.pool.conn_max_lifetime": "1h",
	"log.level":                       "info",
	"log.format":                      "json",
	"auth.token_expiry":               "24h",
}

// legacyEnv maps the plain process variables the service has always honoured
// onto config keys. Empty values are ignored.
var legacyEnv = map[string]string{
	"PORT":         "server.port",
	"INSTANCE_ID":  "server.instance_id",
	"FRONTEND_URL": "server.frontend_url",
	"NODE_ENV":     "server.env",
	"JWT_SECRET":   "auth.jwt_secret",
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none are
// given) into the process environment. Variables that are already set win.
// A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load dotenv: %w", err)
	}
	return nil
}

// Load builds the configuration from, in increasing precedence: built-in
// defaults, the YAML file at configPath (skipped when empty), the legacy
// variables PORT, INSTANCE_ID, FRONTEND_URL, NODE_ENV and JWT_SECRET, and
// APP__ variables.
//
// APP__ variables use a double underscore as the hierarchy separator, so
// APP__DATABASE__POOL__MAX_IDLE_CONNS=20 sets database.pool.max_idle_conns.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return legacyEnv[key], value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy env variables: %w", err)
	}

	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		return strings.ReplaceAll(strings.ToLower(key), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes fields and checks supported values and cross-field
// constraints.
func (c *Config) Validate() error {
	c.Server.Env = strings.ToLower(strings.TrimSpace(c.Server.Env))
	c.Server.InstanceID = strings.TrimSpace(c.Server.InstanceID)

	mode := strings.TrimSpace(c.Server.Mode)
	if mode == "" {
		mode = gin.ReleaseMode
		if c.Server.Development() {
			mode = gin.DebugMode
		}
	}
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	frontend, err := normalizeOrigin(c.Server.FrontendURL)
	if err != nil {
		return fmt.Errorf("invalid server.frontend_url %q: %w", c.Server.FrontendURL, err)
	}
	c.Server.FrontendURL = frontend

	if err := c.validateDatabase(); err != nil {
		return err
	}

	durations := []struct {
		name     string
		value    *string
		required bool
	}{
		{"server.cors.max_age", &c.Server.CORS.MaxAge, false},
		{"database.pool.conn_max_lifetime", &c.Database.Pool.ConnMaxLifetime, false},
		{"auth.token_expiry", &c.Auth.TokenExpiry, true},
	}
	for _, f := range durations {
		if err := validateDuration(f.name, f.value, f.required); err != nil {
			return err
		}
	}

	c.Auth.JWTSecret = strings.TrimSpace(c.Auth.JWTSecret)
	if c.Auth.Enabled {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required when auth is enabled")
		}
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("invalid auth.jwt_secret: must be at least 32 characters")
		}
		if c.Server.Mode == gin.ReleaseMode && CountSecretClasses(c.Auth.JWTSecret) < 3 {
			return fmt.Errorf("auth.jwt_secret must include at least 3 character classes (lowercase, uppercase, digit, symbol) in release mode")
		}
	}

	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}

	return nil
}

func (c *Config) validateDatabase() error {
	db := &c.Database
	switch db.Driver {
	case "sqlite":
		db.SQLite.Path = strings.TrimSpace(db.SQLite.Path)
		if db.SQLite.Path == "" {
			return fmt.Errorf("database.sqlite.path is required when driver is sqlite")
		}
	case "postgres":
		pg := &db.Postgres
		pg.Host = strings.TrimSpace(pg.Host)
		pg.User = strings.TrimSpace(pg.User)
		pg.DBName = strings.TrimSpace(pg.DBName)
		pg.SSLMode = strings.TrimSpace(pg.SSLMode)
		if pg.Host == "" {
			return fmt.Errorf("database.postgres.host is required when driver is postgres")
		}
		if pg.Port < 1 || pg.Port > 65535 {
			return fmt.Errorf("invalid database.postgres.port %d: must be between 1 and 65535", pg.Port)
		}
		if pg.User == "" {
			return fmt.Errorf("database.postgres.user is required when driver is postgres")
		}
		if pg.DBName == "" {
			return fmt.Errorf("database.postgres.dbname is required when driver is postgres")
		}
		switch pg.SSLMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid database.postgres.sslmode %q", pg.SSLMode)
		}
	default:
		return fmt.Errorf("invalid database.driver %q: must be one of %q, %q", db.Driver, "sqlite", "postgres")
	}
	return nil
}

// validateDuration trims *value and checks that it is a positive Go duration.
// Optional fields may be empty.
func validateDuration(name string, value *string, required bool) error {
	v := strings.TrimSpace(*value)
	*value = v
	if v == "" {
		if required {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be greater than 0", name, v)
	}
	return nil
}

// normalizeOrigin checks that raw is an http(s) origin and returns it without
// surrounding whitespace or trailing slashes.
func normalizeOrigin(raw string) (string, error) {
	origin := strings.TrimRight(strings.TrimSpace(raw), "/")
	if origin == "" {
		return "", errors.New("must not be empty")
	}
	u, err := url.Parse(origin)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return "", errors.New("host is required")
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return "", errors.New("must be an origin without path, query or fragment")
	}
	return origin, nil
}

// CountSecretClasses counts how many character classes (lowercase, uppercase,
// digit, symbol) appear in secret.
func CountSecretClasses(secret string) int {
	var lower, upper, digit, symbol int
	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			lower = 1
		case unicode.IsUpper(r):
			upper = 1
		case unicode.IsDigit(r):
			digit = 1
		default:
			symbol = 1
		}
	}
	return lower + upper + digit + symbol
}
