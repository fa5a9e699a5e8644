package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	DB        DatabaseConfig
	Blob      BlobConfig
	Geocoder  GeocoderConfig
	GPS       GPSConfig
	Watcher   WatcherConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Path string
}

// BlobConfig picks where report photos live. "inline" stores them as
// data URIs inside the report document; "file" writes them under Dir.
type BlobConfig struct {
	Strategy        string
	Dir             string
	MaxEncodedBytes int
}

type GeocoderConfig struct {
	BaseURL       string
	UserAgent     string
	CountryCodes  string
	MaxResults    int
	Timeout       time.Duration
	MinInterval   time.Duration
	DebounceDelay time.Duration
}

type GPSConfig struct {
	Timeout time.Duration
}

type WatcherConfig struct {
	PollInterval time.Duration
}

type RateLimitConfig struct {
	RPS   int
	Burst int
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/cleanspot.db"),
		},
		Blob: BlobConfig{
			Strategy:        getEnv("BLOB_STRATEGY", "inline"),
			Dir:             getEnv("BLOB_DIR", "./data/blobs"),
			MaxEncodedBytes: getEnvInt("BLOB_MAX_ENCODED_BYTES", 750000),
		},
		Geocoder: GeocoderConfig{
			BaseURL:       getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:     getEnv("GEOCODER_USER_AGENT", "CleanSpotApp/1.0 (contact: cleanspot@example.com)"),
			CountryCodes:  getEnv("GEOCODER_COUNTRY_CODES", "cm"),
			MaxResults:    getEnvInt("GEOCODER_MAX_RESULTS", 5),
			Timeout:       getEnvDuration("GEOCODER_TIMEOUT", 15*time.Second),
			MinInterval:   getEnvDuration("GEOCODER_MIN_INTERVAL", time.Second),
			DebounceDelay: getEnvDuration("GEOCODER_DEBOUNCE_DELAY", 500*time.Millisecond),
		},
		GPS: GPSConfig{
			Timeout: getEnvDuration("GPS_TIMEOUT", 10*time.Second),
		},
		Watcher: WatcherConfig{
			PollInterval: getEnvDuration("WATCHER_POLL_INTERVAL", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvInt("RATE_LIMIT_RPS", 10),
			Burst: getEnvInt("RATE_LIMIT_BURST", 20),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Blob.Strategy != "inline" && c.Blob.Strategy != "file" {
		return fmt.Errorf("invalid blob strategy: %s", c.Blob.Strategy)
	}
	if c.Blob.MaxEncodedBytes < 1 {
		return fmt.Errorf("blob max encoded bytes must be positive")
	}

	// Nominatim's usage policy caps anonymous clients at one request
	// per second.
	if c.Geocoder.MinInterval < time.Second {
		return fmt.Errorf("geocoder min interval must be at least 1 second")
	}
	if c.Geocoder.MaxResults < 1 {
		return fmt.Errorf("geocoder max results must be positive")
	}

	if c.GPS.Timeout < time.Second {
		return fmt.Errorf("GPS timeout must be at least 1 second")
	}
	if c.Watcher.PollInterval < time.Second {
		return fmt.Errorf("watcher poll interval must be at least 1 second")
	}
	if c.RateLimit.RPS < 1 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
