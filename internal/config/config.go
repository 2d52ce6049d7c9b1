package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Data sources for the primary record reader.
const (
	SourceSheets = "sheets"
	SourceProxy  = "proxy"
	SourceFile   = "file"
	SourceMemory = "memory"
)

var validSources = []string{SourceSheets, SourceProxy, SourceFile, SourceMemory}

type Config struct {
	// HTTP Server
	Port           string
	LogLevel       string
	TrustedProxies []string

	// Primary source selection
	DataSource string

	// Google Sheets
	GoogleSpreadsheetID       string
	GoogleSheetsRange         string
	GoogleServiceAccountJSON  string
	GoogleServiceAccountFile  string
	GoogleServiceAccountEmail string
	GooglePrivateKey          string
	SheetsTimeout             time.Duration

	// Remote proxy
	SheetsProxyURL string

	// Fallback file
	FallbackFile  string
	FallbackSheet string

	// Memory source seed ("date,category" lines; empty uses a built-in sample)
	MemorySeedFile string

	// Ingestion
	DateField     string
	CategoryField string

	// Refresh
	RefreshInterval      time.Duration
	RefreshTimeout       time.Duration
	RefreshRatePerMinute int

	// Stats
	StatsStartYear int
	StatsTimezone  string
	CacheSize      int
	CacheTTL       time.Duration

	// Highlights
	HighlightsFile string

	// Refresh journal (empty path disables it)
	JournalDBPath    string
	JournalRetention time.Duration

	// AMQP (empty URL disables it)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		DataSource: strings.ToLower(getEnv("DATA_SOURCE", SourceSheets)),

		GoogleSpreadsheetID:       getEnvFirst("", "GOOGLE_SHEET_ID", "GOOGLE_SPREADSHEET_ID"),
		GoogleSheetsRange:         getEnv("GOOGLE_SHEETS_RANGE", "Dashboard!A:C"),
		GoogleServiceAccountJSON:  getEnvFirst("", "GOOGLE_SERVICE_ACCOUNT_KEY", "GOOGLE_SERVICE_ACCOUNT_JSON"),
		GoogleServiceAccountFile:  getEnvFirst("", "GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS"),
		GoogleServiceAccountEmail: getEnv("GOOGLE_SERVICE_ACCOUNT_EMAIL", ""),
		GooglePrivateKey:          getEnv("GOOGLE_PRIVATE_KEY", ""),
		SheetsTimeout:             getEnvDuration("SHEETS_TIMEOUT", 30*time.Second),

		SheetsProxyURL: getEnv("SHEETS_PROXY_URL", ""),

		FallbackFile:  getEnv("FALLBACK_FILE", "data/adoptions.csv"),
		FallbackSheet: getEnv("FALLBACK_SHEET", ""),

		MemorySeedFile: getEnv("MEMORY_SEED_FILE", ""),

		DateField:     getEnv("DATE_FIELD", "Date"),
		CategoryField: getEnv("CATEGORY_FIELD", "Species"),

		RefreshInterval:      getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),
		RefreshTimeout:       getEnvDuration("REFRESH_TIMEOUT", time.Minute),
		RefreshRatePerMinute: getEnvInt("REFRESH_RATE_PER_MINUTE", 6),

		StatsStartYear: getEnvInt("STATS_START_YEAR", 2023),
		StatsTimezone:  getEnv("STATS_TIMEZONE", "Local"),
		CacheSize:      getEnvInt("CACHE_SIZE", 256),
		CacheTTL:       getEnvDuration("CACHE_TTL", 10*time.Minute),

		HighlightsFile: getEnv("HIGHLIGHTS_FILE", "data/highlights.yaml"),

		JournalDBPath:    getEnv("JOURNAL_DB_PATH", ""),
		JournalRetention: getEnvDuration("JOURNAL_RETENTION", 30*24*time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "shelterstats"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "refresh_requests"),
	}

	return cfg
}

// Location resolves StatsTimezone.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.StatsTimezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", tz, err)
	}
	return loc, nil
}

// Validate validates the configuration and returns an error if invalid.
// Missing Google credentials or spreadsheet id are not errors: the process
// starts and the affected reads fail per request.
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validSources, c.DataSource) {
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, validSources))
	}

	// Validate proxy URL when it is the primary source or configured at all
	if c.DataSource == SourceProxy && c.SheetsProxyURL == "" {
		errors = append(errors, "SHEETS_PROXY_URL is required when DATA_SOURCE is proxy")
	}
	if c.SheetsProxyURL != "" {
		if u, err := url.Parse(c.SheetsProxyURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid sheets proxy URL '%s': must be an absolute http(s) URL", c.SheetsProxyURL))
		}
	}

	if c.DataSource == SourceFile && c.FallbackFile == "" {
		errors = append(errors, "FALLBACK_FILE is required when DATA_SOURCE is file")
	}

	if strings.TrimSpace(c.DateField) == "" || strings.TrimSpace(c.CategoryField) == "" {
		errors = append(errors, "DATE_FIELD and CATEGORY_FIELD cannot be empty")
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate refresh configuration
	if c.RefreshInterval < 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at least 10 seconds", c.RefreshInterval))
	} else if c.RefreshInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at most 24 hours", c.RefreshInterval))
	}
	if c.RefreshTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid refresh timeout %v: must be at least 1 second", c.RefreshTimeout))
	}
	if c.RefreshRatePerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid refresh rate %d: must be at least 1 per minute", c.RefreshRatePerMinute))
	}

	// Validate stats configuration
	if c.StatsStartYear < 1900 || c.StatsStartYear > 9999 {
		errors = append(errors, fmt.Sprintf("invalid stats start year %d: must be between 1900 and 9999", c.StatsStartYear))
	}
	if _, err := c.Location(); err != nil {
		errors = append(errors, err.Error())
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFirst returns the first non-empty variable among keys.
func getEnvFirst(defaultValue string, keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
