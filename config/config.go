package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Supported credential store drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

// DatabaseConfig holds credential store configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	Driver           string
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	ConnectTimeout   time.Duration
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// JWTConfig holds token signing and verification settings
type JWTConfig struct {
	PrivateKeyFile string
	PublicKeyFile  string
	Algorithm      string
	Issuer         string
	ExpiresIn      time.Duration
}

// PasswordConfig holds password hashing and policy settings
type PasswordConfig struct {
	SaltRounds int
	MinLength  int
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
		},
		Database: loadDatabaseConfig(),
		JWT: JWTConfig{
			PrivateKeyFile: getEnv("JWT_PRIVATE_KEY", "keys/jwt.private.key"),
			PublicKeyFile:  getEnv("JWT_PUBLIC_KEY", "keys/jwt.pub.key"),
			Algorithm:      getEnv("JWT_ALGORITHM", "RS512"),
			Issuer:         getEnv("JWT_ISSUER", "dummy_issuer"),
			ExpiresIn:      getEnvAsExpiry("JWT_EXPIRES_IN", 24*time.Hour),
		},
		Password: PasswordConfig{
			SaltRounds: getEnvAsInt("SALT_ROUND", 12),
			MinLength:  getEnvAsInt("PASSWORD_MIN_LENGTH", 6),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMongo, DriverPostgres:
		if c.Database.ConnectionString == "" && c.Database.Host == "" {
			return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
		}
		if c.Database.ConnectionString == "" && c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	case DriverMemory:
		if c.IsProduction() {
			return fmt.Errorf("memory driver is not allowed in production")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	method := jwt.GetSigningMethod(c.JWT.Algorithm)
	if method == nil || method.Alg() == "none" {
		return fmt.Errorf("unknown JWT algorithm %q", c.JWT.Algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); ok {
		return fmt.Errorf("JWT algorithm %q is symmetric, an asymmetric algorithm is required", c.JWT.Algorithm)
	}
	if c.JWT.Issuer == "" {
		return fmt.Errorf("JWT issuer is required")
	}
	if c.JWT.ExpiresIn <= 0 {
		return fmt.Errorf("JWT expiry must be positive")
	}

	if c.Password.SaltRounds < bcrypt.MinCost || c.Password.SaltRounds > bcrypt.MaxCost {
		return fmt.Errorf("salt rounds must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Password.MinLength < 1 {
		return fmt.Errorf("password min length must be positive")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// MongoURI returns the MongoDB connection URI.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) MongoURI() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	u := url.URL{
		Scheme: "mongodb",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	return u.String()
}

// DatabaseName returns the database name, preferring the path of ConnectionString when set.
func (c *DatabaseConfig) DatabaseName() string {
	if c.ConnectionString != "" {
		if u, err := url.Parse(c.ConnectionString); err == nil {
			if db := strings.TrimPrefix(u.Path, "/"); db != "" {
				return db
			}
		}
	}
	return c.Database
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			return fmt.Sprintf("driver=%s host=%s database=%s", c.Driver, u.Host, strings.TrimPrefix(u.Path, "/"))
		}
		return fmt.Sprintf("driver=%s host=<from DATABASE_URL>", c.Driver)
	}
	return fmt.Sprintf("driver=%s host=%s port=%d database=%s", c.Driver, c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	driver := strings.ToLower(getEnv("DB_DRIVER", DriverMongo))
	defaultPort := 27017
	if driver == DriverPostgres {
		defaultPort = 5432
	}
	return DatabaseConfig{
		Driver:           driver,
		ConnectionString: getEnv("DATABASE_URL", ""),
		Host:             getEnv("DB_HOST", "localhost"),
		Port:             getEnvAsInt("DB_PORT", defaultPort),
		User:             getEnv("DB_USER", ""),
		Password:         getEnv("DB_PASSWORD", ""),
		Database:         getEnv("DB_NAME", "users"),
		SSLMode:          getEnv("DB_SSLMODE", "disable"),
		ConnectTimeout:   getEnvAsDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsExpiry(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := ParseExpiry(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// ParseExpiry parses a token lifetime. It accepts Go durations ("90m", "12h"),
// whole day spans ("1d", "7d") and bare numbers, which are read as seconds.
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty expiry")
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day span %q: %w", s, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
