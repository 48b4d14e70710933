package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Supported values for DB_KIND.
const (
	DBKindPostgres = "postgres"
	DBKindMySQL    = "mysql"
	DBKindSQLite   = "sqlite"
)

type Config struct {
	ProjectName string
	Port        string
	BindAddress string

	DBKind            string
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBPath            string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// UseMigrations hands schema ownership to cmd/migrate.
	UseMigrations bool
	EchoSQL       bool

	SecretKey            string
	JWTAlgorithm         string
	AccessTokenExpireMin int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	p := &parser{}
	cfg := &Config{
		ProjectName: getEnv("PROJECT_NAME", "Student Quiz App"),
		Port:        getEnv("PORT", "8080"),
		BindAddress: getEnv("BIND_ADDRESS", ""),

		DBKind:            getEnv("DB_KIND", DBKindPostgres),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "studentquiz"),
		DBPassword:        getEnv("DB_PASSWORD", "studentquiz"),
		DBName:            getEnv("DB_NAME", "studentquiz"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		DBPath:            getEnv("DB_PATH", "studentquiz.db"),
		DBMaxOpenConns:    p.int("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    p.int("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: p.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		UseMigrations: p.bool("USE_MIGRATIONS", false),
		EchoSQL:       p.bool("ECHO_SQL", false),

		SecretKey:            os.Getenv("SECRET_KEY"),
		JWTAlgorithm:         getEnv("JWT_ALGORITHM", "HS256"),
		AccessTokenExpireMin: p.int("ACCESS_TOKEN_EXPIRE_MIN", 30),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       p.int("REDIS_DB", 0),
	}
	if p.err != nil {
		return nil, p.err
	}

	if cfg.SecretKey == "" {
		key, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.SecretKey = key
		slog.Warn("SECRET_KEY not set, generated a random key; tokens will not survive a restart")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBKind {
	case DBKindPostgres, DBKindMySQL, DBKindSQLite:
	default:
		return fmt.Errorf("unsupported DB_KIND %q", c.DBKind)
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.JWTAlgorithm)
	}
	if c.AccessTokenExpireMin <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MIN must be positive")
	}
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY must not be empty")
	}
	return nil
}

// DSN returns the connection string for the configured database kind.
func (c *Config) DSN() string {
	switch c.DBKind {
	case DBKindMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.DBUser, c.DBPassword, net.JoinHostPort(c.DBHost, c.DBPort), c.DBName)
	case DBKindSQLite:
		return c.DBPath + "?_pragma=foreign_keys(1)"
	default:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
	}
}

// PostgresURL is the URL form of the postgres DSN, as golang-migrate expects.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.BindAddress, c.Port)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMin) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser collects the first malformed value so Load can report it once.
type parser struct {
	err error
}

func (p *parser) int(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return defaultValue
	}
	return v
}

func (p *parser) bool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return defaultValue
	}
	return v
}

func (p *parser) duration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return defaultValue
	}
	return v
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
