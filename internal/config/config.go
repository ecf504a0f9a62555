package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the cropadvisor server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Inference InferenceConfig
	Weather   WeatherConfig
	History   HistoryConfig
}

type ServerConfig struct {
	Port               int
	Env                string
	RateLimitPerMin    int
	CORSAllowedOrigins []string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type InferenceConfig struct {
	URL     string
	Timeout time.Duration
}

// WeatherConfig configures the OpenWeatherMap lookup. An empty APIKey disables
// weather overrides entirely; requests fall back to manual climate values.
type WeatherConfig struct {
	APIKey         string
	BaseURL        string
	Timeout        time.Duration
	CacheTTL       time.Duration
	RequestsPerMin int
}

type HistoryConfig struct {
	WriteTimeout time.Duration
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:               envInt("CROPADVISOR_PORT", 8080),
			Env:                envString("CROPADVISOR_ENV", "development"),
			RateLimitPerMin:    envInt("RATE_LIMIT_PER_MIN", 60),
			CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: loadDatabase(),
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Inference: InferenceConfig{
			URL:     envString("ML_SERVER_URL", "http://localhost:8000/predict"),
			Timeout: envDuration("ML_SERVER_TIMEOUT", 5*time.Second),
		},
		Weather: WeatherConfig{
			APIKey:         os.Getenv("OPENWEATHER_API_KEY"),
			BaseURL:        envString("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
			Timeout:        envDuration("WEATHER_TIMEOUT", 3*time.Second),
			CacheTTL:       envDuration("WEATHER_CACHE_TTL", 10*time.Minute),
			RequestsPerMin: envInt("WEATHER_REQUESTS_PER_MIN", 60),
		},
		History: HistoryConfig{
			WriteTimeout: envDuration("HISTORY_WRITE_TIMEOUT", 5*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads only the database settings, for operator commands that
// never touch Redis or the inference server.
func LoadDatabase() (DatabaseConfig, error) {
	db := loadDatabase()
	if db.URL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL is required")
	}
	return db, nil
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		URL:             os.Getenv("DATABASE_URL"),
		MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !isHTTPURL(c.Inference.URL) {
		return fmt.Errorf("ML_SERVER_URL must start with http:// or https://, got %q", c.Inference.URL)
	}
	if c.Inference.Timeout <= 0 {
		return fmt.Errorf("ML_SERVER_TIMEOUT must be positive, got %s", c.Inference.Timeout)
	}

	if c.Weather.APIKey != "" {
		if !isHTTPURL(c.Weather.BaseURL) {
			return fmt.Errorf("OPENWEATHER_BASE_URL must start with http:// or https://, got %q", c.Weather.BaseURL)
		}
		if c.Weather.Timeout <= 0 {
			return fmt.Errorf("WEATHER_TIMEOUT must be positive, got %s", c.Weather.Timeout)
		}
	}

	return nil
}

// WeatherEnabled reports whether live weather overrides are configured.
func (c *Config) WeatherEnabled() bool {
	return c.Weather.APIKey != ""
}

func isHTTPURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
