package internal

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	// NotFoundStatus is the HTTP status written for NotFound errors.
	NotFoundStatus int `mapstructure:"not_found_status"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	PasswordEncoder string `mapstructure:"password_encoder"`
	BCryptCost      int    `mapstructure:"bcrypt_cost"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Rate    float64 `mapstructure:"rate"`
	Burst   int     `mapstructure:"burst"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// ----------------- ENV -----------------

// LoadConfigFromEnv builds the configuration from plain environment variables.
// Used for container deployments where no config.yml is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("PORT", 8080),
			BaseURL:           getEnv("BASE_URL", ""),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
			RequestTimeout:    getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
			NotFoundStatus:    getEnvAsInt("NOT_FOUND_STATUS", http.StatusNotFound),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DATABASE_DRIVER", DriverPostgres),
			MaxOpenConns:    getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DATABASE_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			PasswordEncoder: getEnv("PASSWORD_ENCODER", "plain"),
			BCryptCost:      getEnvAsInt("BCRYPT_COST", 12),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnv("RATE_LIMIT_ENABLED", "true") == "true",
			Rate:    getEnvAsFloat("RATE_LIMIT_RATE", 20),
			Burst:   getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.RateLimit.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("rate limit config: %v", err))
	}

	if err := c.Observability.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	var errs []string
	if c.AllowedOrigins != "" {
		for _, origin := range c.Origins() {
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				errs = append(errs, fmt.Sprintf("invalid allowed origin %s: %v", origin, err))
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		errs = append(errs, "read_timeout must be >= read_header_timeout")
	}
	if c.NotFoundStatus != 0 && (c.NotFoundStatus < 400 || c.NotFoundStatus > 599) {
		errs = append(errs, fmt.Sprintf("not_found_status %d is not an error status", c.NotFoundStatus))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, ", "))
	}
	return nil
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (c *ServerConfig) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// GetNotFoundStatus returns the configured NotFound status, 404 when unset.
func (c *ServerConfig) GetNotFoundStatus() int {
	if c.NotFoundStatus == 0 {
		return http.StatusNotFound
	}
	return c.NotFoundStatus
}

func (c *DatabaseConfig) Validate() error {
	var errs []string
	switch c.Driver {
	case "", DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		errs = append(errs, fmt.Sprintf("unsupported driver %q", c.Driver))
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		errs = append(errs, "max_idle_conns cannot be greater than max_open_conns")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, ", "))
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

// GetDriver returns the configured driver, postgres when unset.
func (c *DatabaseConfig) GetDriver() string {
	if c.Driver == "" {
		return DriverPostgres
	}
	return c.Driver
}

func (c *SecurityConfig) Validate() error {
	switch c.PasswordEncoder {
	case "", "plain":
	case "bcrypt":
		if c.BCryptCost < 4 || c.BCryptCost > 31 {
			return fmt.Errorf("bcrypt_cost %d out of range 4..31", c.BCryptCost)
		}
	default:
		return fmt.Errorf("unsupported password_encoder %q", c.PasswordEncoder)
	}
	return nil
}

func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Rate <= 0 {
		return errors.New("rate must be positive")
	}
	if c.Burst < 1 {
		return errors.New("burst must be at least 1")
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported level %q", c.Level)
	}
	switch c.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	return nil
}
