package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultAdminPassword  = "admin123"
	defaultAdminJWTSecret = "development-only-admin-secret"
)

// Config holds application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// Application configuration
	App AppConfig `json:"app"`

	// Database configuration
	Database DatabaseConfig `json:"database"`

	// Survey session configuration
	Survey SurveyConfig `json:"survey"`

	// Admin panel authentication
	Admin AdminConfig `json:"admin"`

	// Public survey definition cache
	Cache CacheConfig `json:"cache"`

	// Janitor intervals
	Janitor JanitorConfig `json:"janitor"`

	// CORS configuration
	CORS CORSConfig `json:"cors"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// LoggingConfig holds logging-specific configuration
type LoggingConfig struct {
	Level string `json:"level"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Debug       bool   `json:"debug"`
}

// DatabaseConfig selects the gorm dialector and its DSN
type DatabaseConfig struct {
	Driver string `json:"driver"` // sqlite or postgres
	DSN    string `json:"dsn"`
}

// SurveyConfig holds survey session configuration
type SurveyConfig struct {
	SessionDuration time.Duration `json:"session_duration"` // lifetime of a respondent session
	LinkLength      int           `json:"link_length"`      // characters in a generated unique link
	PublicURL       string        `json:"public_url"`       // base url used to build public survey links
}

type AdminConfig struct {
	Emails          []string      `json:"emails"`
	Password        string        // ENV only
	JWTSecret       string        // ENV only
	SessionDuration time.Duration `json:"session_duration"`
}

// CacheConfig holds the redis cache configuration. An empty address disables caching.
type CacheConfig struct {
	RedisAddr string        `json:"redis_addr"`
	TTL       time.Duration `json:"ttl"`
}

// JanitorConfig holds janitor-specific configuration
type JanitorConfig struct {
	ShortCleanInterval time.Duration `json:"short_clean_interval"`
	FullCleanInterval  time.Duration `json:"full_clean_interval"`
}

type CORSConfig struct {
	AllowedOrigins string `json:"allowed_origins"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.RWMutex
)

// Get returns the singleton configuration instance
func Get() *Config {
	mu.RLock()
	if instance != nil {
		defer mu.RUnlock()
		return instance
	}
	mu.RUnlock()

	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		instance = loadConfig()
	})
	return instance
}

// Load loads configuration from environment variables (deprecated, use Get() instead)
func Load() *Config {
	return Get()
}

// load loads configuration from environment variables
func loadConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		App: AppConfig{
			Name:        getEnv("APP_NAME", "evaluations-backend"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("ENV", "development"),
			Debug:       getEnvAsBool("DEBUG", false),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:    getEnv("DB_DSN", "data/evaluations.db"),
		},
		Survey: SurveyConfig{
			SessionDuration: getEnvAsDuration("SURVEY_SESSION_DURATION", 24*time.Hour),
			LinkLength:      getEnvAsInt("SURVEY_LINK_LENGTH", 10),
			PublicURL:       getEnv("PUBLIC_APP_URL", "http://localhost:3000"),
		},
		Admin: AdminConfig{
			Emails:          getEnvAsList("ADMIN_EMAILS", []string{"admin@example.com"}),
			Password:        getEnv("ADMIN_PASSWORD", defaultAdminPassword),
			JWTSecret:       getEnv("ADMIN_JWT_SECRET", defaultAdminJWTSecret),
			SessionDuration: getEnvAsDuration("ADMIN_SESSION_DURATION", 24*time.Hour),
		},
		Cache: CacheConfig{
			RedisAddr: strings.TrimPrefix(getEnv("REDIS_ADDR", ""), "redis://"),
			TTL:       getEnvAsDuration("CACHE_TTL", 30*time.Second),
		},
		Janitor: JanitorConfig{
			ShortCleanInterval: getEnvAsDuration("JANITOR_SHORT_INTERVAL", 5*time.Minute),
			FullCleanInterval:  getEnvAsDuration("JANITOR_FULL_INTERVAL", time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	return cfg
}

// validate validates the configuration
func (c *Config) validate() error {
	// Validate server port
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production"}
	if !contains(validEnvs, c.App.Environment) {
		return fmt.Errorf("invalid environment: %s (must be one of: %s)",
			c.App.Environment, strings.Join(validEnvs, ", "))
	}

	// Validate log level
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)",
			c.Logging.Level, strings.Join(validLevels, ", "))
	}

	validDrivers := []string{"sqlite", "postgres"}
	if !slices.Contains(validDrivers, c.Database.Driver) {
		return fmt.Errorf("invalid database driver: %s (must be one of: %s)",
			c.Database.Driver, strings.Join(validDrivers, ", "))
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN must not be empty")
	}

	if c.Survey.SessionDuration <= 0 {
		return fmt.Errorf("invalid SURVEY_SESSION_DURATION: %s", c.Survey.SessionDuration)
	}
	if c.Survey.LinkLength < 6 || c.Survey.LinkLength > 32 {
		return fmt.Errorf("invalid SURVEY_LINK_LENGTH: %d (must be between 6 and 32)", c.Survey.LinkLength)
	}

	// Validate admin auth
	if len(c.Admin.Emails) == 0 {
		return fmt.Errorf("ADMIN_EMAILS must list at least one address")
	}
	for _, email := range c.Admin.Emails {
		if !strings.Contains(email, "@") {
			return fmt.Errorf("invalid admin email: %s", email)
		}
	}
	if c.IsProduction() {
		if c.Admin.Password == defaultAdminPassword {
			return fmt.Errorf("ADMIN_PASSWORD must be set in production")
		}
		if len(c.Admin.JWTSecret) < 32 {
			return fmt.Errorf("ADMIN_JWT_SECRET must be at least 32 characters in production")
		}
	}

	return nil
}

// IsDevelopment returns true if the app is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the app is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetServerAddress returns the server address in the format "host:port"
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// PublicSurveyURL returns the link a respondent opens for the given survey
func (c *Config) PublicSurveyURL(uniqueLink string) string {
	return strings.TrimRight(c.Survey.PublicURL, "/") + "/survey/" + uniqueLink
}

// Reload reloads the configuration (useful for testing or after loading .env files)
func Reload() {
	mu.Lock()
	defer mu.Unlock()
	once = sync.Once{}
	instance = nil
}

// ForceReload forces an immediate reload of the configuration
func ForceReload() {
	mu.Lock()
	defer mu.Unlock()
	instance = loadConfig()
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsBool gets an environment variable as boolean with a fallback value
func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvAsDuration gets an environment variable as duration with a fallback value
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getEnvAsList splits a comma separated environment variable, dropping empty items
func getEnvAsList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, strings.ToLower(item))
		}
	}
	return items
}

// contains checks if a slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
