package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const (
	defaultListingURL = "https://api.github.com/repos/CSSEGISandData/COVID-19/contents/csse_covid_19_data/csse_covid_19_daily_reports"
	defaultRawBaseURL = "https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/csse_covid_19_data/csse_covid_19_daily_reports/"
)

// Run modes.
const (
	ModePrompt   = ""
	ModeGenerate = "generate"
	ModeUpdate   = "update"
)

// Config holds all extractor settings, populated from environment variables.
type Config struct {
	OutputFile   string
	OutputSchema string
	Mode         string
	TargetsFile  string

	ListingURL     string
	RawBaseURL     string
	GitHubToken    string
	ListingTimeout time.Duration
	FetchTimeout   time.Duration
	MaxRedirects   int

	LogLevel        string
	LogFormat       string
	MetricsAddr     string
	ShutdownTimeout time.Duration

	// Optional Kafka mirror of every written row.
	KafkaBrokers []string
	KafkaTopic   string
}

// KafkaEnabled reports whether rows should be mirrored to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	listingTimeout, err := parseTimeout("LISTING_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseTimeout("FETCH_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	maxRedirects, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAX_REDIRECTS", "10"))
	if err != nil || maxRedirects < 0 {
		return nil, errors.New("invalid MAX_REDIRECTS")
	}

	cfg := &Config{
		OutputFile:   sharedcfg.EnvOrDefault("OUTPUT_FILE", "cases.csv"),
		OutputSchema: sharedcfg.EnvOrDefault("OUTPUT_SCHEMA", "full"),
		Mode:         strings.ToLower(os.Getenv("MODE")),
		TargetsFile:  os.Getenv("TARGETS_FILE"),

		ListingURL:     sharedcfg.EnvOrDefault("LISTING_URL", defaultListingURL),
		RawBaseURL:     sharedcfg.EnvOrDefault("RAW_BASE_URL", defaultRawBaseURL),
		GitHubToken:    os.Getenv("GITHUB_TOKEN"),
		ListingTimeout: listingTimeout,
		FetchTimeout:   fetchTimeout,
		MaxRedirects:   maxRedirects,

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "covid-daily-cases"),
	}

	if cfg.OutputFile == "" {
		return nil, errors.New("OUTPUT_FILE is required")
	}
	switch cfg.OutputSchema {
	case "full", "minimal":
	default:
		return nil, fmt.Errorf("OUTPUT_SCHEMA must be full or minimal, got %q", cfg.OutputSchema)
	}
	switch cfg.Mode {
	case ModePrompt, ModeGenerate, ModeUpdate:
	default:
		return nil, fmt.Errorf("MODE must be generate or update, got %q", cfg.Mode)
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// parseTimeout reads a positive duration from key.
func parseTimeout(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseBrokers splits KAFKA_BROKERS. Unset means the Kafka mirror is off,
// so there is no default broker.
func parseBrokers(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(v)
}
