// Package config loads the application configuration from config.toml
// and RETAILBILL_-prefixed environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root of all runtime configuration.
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Settlement SettlementConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
	// EnforcePermissions switches lifecycle actions from the allow-all
	// checker to JWT-claims-backed authorization.
	EnforcePermissions bool
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // minutes
	ConnMaxIdleTime int // minutes
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret                 string
	RefreshSecret          string // falls back to Secret when empty
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	Issuer                 string
	MaxRefreshCount        int
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// SettlementConfig drives the refund settlement engine: the
// idempotency guard TTL and the inventory/loyalty endpoints called
// while a return is approved and completed.
type SettlementConfig struct {
	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration
	AutoRestockEnabled bool
	InventoryBaseURL   string
	LoyaltyBaseURL     string
	CallTimeout        time.Duration
}

// Load reads config.toml (working directory or /app), then layers
// RETAILBILL_-prefixed environment variables on top. Missing values
// fall back to built-in defaults; the result is validated before use.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		// Running on defaults plus env vars alone is supported.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("RETAILBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:               v.GetString("app.name"),
			Env:                v.GetString("app.env"),
			Port:               v.GetString("app.port"),
			EnforcePermissions: v.GetBool("app.enforce_permissions"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("jwt.secret"),
			RefreshSecret:          v.GetString("jwt.refresh_secret"),
			AccessTokenExpiration:  v.GetDuration("jwt.access_token_expiration"),
			RefreshTokenExpiration: v.GetDuration("jwt.refresh_token_expiration"),
			Issuer:                 v.GetString("jwt.issuer"),
			MaxRefreshCount:        v.GetInt("jwt.max_refresh_count"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
		},
		Settlement: SettlementConfig{
			IdempotencyEnabled: v.GetBool("settlement.idempotency_enabled"),
			IdempotencyTTL:     v.GetDuration("settlement.idempotency_ttl"),
			AutoRestockEnabled: v.GetBool("settlement.auto_restock_enabled"),
			InventoryBaseURL:   v.GetString("settlement.inventory_base_url"),
			LoyaltyBaseURL:     v.GetString("settlement.loyalty_base_url"),
			CallTimeout:        v.GetDuration("settlement.call_timeout"),
		},
	}

	cfg.fillDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func strDefault(p *string, def string) {
	if *p == "" {
		*p = def
	}
}

func intDefault(p *int, def int) {
	if *p == 0 {
		*p = def
	}
}

func durDefault(p *time.Duration, def time.Duration) {
	if *p == 0 {
		*p = def
	}
}

// fillDefaults replaces zero values with the built-in defaults, so an
// empty environment still yields a runnable development configuration.
func (c *Config) fillDefaults() {
	strDefault(&c.App.Name, "retailbill-backend")
	strDefault(&c.App.Env, "development")
	strDefault(&c.App.Port, "8080")

	strDefault(&c.Database.Host, "localhost")
	intDefault(&c.Database.Port, 5432)
	strDefault(&c.Database.User, "postgres")
	strDefault(&c.Database.DBName, "retailbill")
	strDefault(&c.Database.SSLMode, "disable")
	intDefault(&c.Database.MaxOpenConns, 25)
	intDefault(&c.Database.MaxIdleConns, 5)
	intDefault(&c.Database.ConnMaxLifetime, 60)
	intDefault(&c.Database.ConnMaxIdleTime, 30)

	strDefault(&c.Redis.Host, "localhost")
	intDefault(&c.Redis.Port, 6379)

	durDefault(&c.JWT.AccessTokenExpiration, 15*time.Minute)
	durDefault(&c.JWT.RefreshTokenExpiration, 7*24*time.Hour)
	intDefault(&c.JWT.MaxRefreshCount, 30)
	strDefault(&c.JWT.Issuer, "retailbill-backend")

	strDefault(&c.Log.Level, "info")
	strDefault(&c.Log.Format, "console")
	strDefault(&c.Log.Output, "stdout")

	durDefault(&c.HTTP.ReadTimeout, 15*time.Second)
	durDefault(&c.HTTP.WriteTimeout, 15*time.Second)
	durDefault(&c.HTTP.IdleTimeout, 60*time.Second)
	intDefault(&c.HTTP.MaxHeaderBytes, 1<<20)
	if c.HTTP.MaxBodySize == 0 {
		c.HTTP.MaxBodySize = 10 << 20
	}
	// No CORS origin default: an empty list allows no cross-origin
	// requests until origins are configured explicitly.
	if len(c.HTTP.CORSAllowMethods) == 0 {
		c.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(c.HTTP.CORSAllowHeaders) == 0 {
		c.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-Tenant-ID"}
	}
	intDefault(&c.HTTP.RateLimitRequests, 100)
	durDefault(&c.HTTP.RateLimitWindow, time.Minute)

	durDefault(&c.Settlement.IdempotencyTTL, 24*time.Hour)
	durDefault(&c.Settlement.CallTimeout, 10*time.Second)
}

func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.App.Env != "production" {
		return nil
	}

	// Production deployments must not run with development shortcuts.
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required in production")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("jwt.secret must be at least 32 characters in production")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("database.password is required in production")
	}
	if c.Database.SSLMode == "disable" {
		return fmt.Errorf("database.sslmode cannot be 'disable' in production")
	}
	for _, origin := range c.HTTP.CORSAllowOrigins {
		if origin == "*" {
			return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
		}
	}
	if c.Settlement.AutoRestockEnabled && c.Settlement.InventoryBaseURL == "" {
		return fmt.Errorf("settlement.inventory_base_url is required when auto restock is enabled in production")
	}

	return nil
}

// DSN renders the connection string with user and password escaped.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr renders the Redis address in host:port form.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
