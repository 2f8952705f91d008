package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
)

// Notifier kinds.
const (
	NotifierLog   = "log"
	NotifierKafka = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Provider credentials and endpoints.
	OpenWeatherAPIKey  string
	NewsAPIKey         string
	OpenWeatherBaseURL string
	NewsAPIBaseURL     string
	RedditBaseURL      string
	RedditSubreddit    string
	FEMABaseURL        string

	// Fetching and aggregation.
	HTTPTimeout      time.Duration
	FetchMaxAttempts int
	FetchBaseDelay   time.Duration
	CityNewsDelay    time.Duration
	NearbyCityCount  int

	// Alerting.
	RedRadiusMeters    float64
	YellowRadiusMeters float64
	CheckInterval      time.Duration
	UserPosition       *domain.Position

	// Notification transport.
	Notifier         string
	KafkaBrokers     []string
	KafkaNotifyTopic string

	// Report archive.
	ArchiveEnabled bool
	ArchivePath    string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is read first; variables
// already set in the environment take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		NewsAPIKey:         os.Getenv("NEWS_API_KEY"),
		OpenWeatherBaseURL: sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
		NewsAPIBaseURL:     sharedcfg.EnvOrDefault("NEWS_API_BASE_URL", "https://newsapi.org"),
		RedditBaseURL:      sharedcfg.EnvOrDefault("REDDIT_BASE_URL", "https://www.reddit.com"),
		RedditSubreddit:    sharedcfg.EnvOrDefault("REDDIT_SUBREDDIT", "news"),
		FEMABaseURL:        sharedcfg.EnvOrDefault("FEMA_BASE_URL", "https://www.fema.gov"),

		Notifier:         strings.ToLower(sharedcfg.EnvOrDefault("NOTIFIER", NotifierLog)),
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaNotifyTopic: sharedcfg.EnvOrDefault("KAFKA_NOTIFY_TOPIC", "disaster-notifications"),

		ArchivePath: sharedcfg.EnvOrDefault("ARCHIVE_PATH", defaultArchivePath()),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.loadTunables(); err != nil {
		return nil, err
	}
	if err := cfg.loadPosition(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadTunables() error {
	var err error
	if c.HTTPTimeout, err = parseDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return err
	}
	if c.FetchMaxAttempts, err = parsePositiveInt("FETCH_MAX_ATTEMPTS", 3); err != nil {
		return err
	}
	if c.FetchBaseDelay, err = parseDuration("FETCH_BASE_DELAY", time.Second); err != nil {
		return err
	}
	if c.CityNewsDelay, err = parseDuration("CITY_NEWS_DELAY", time.Second); err != nil {
		return err
	}
	if c.NearbyCityCount, err = parsePositiveInt("NEARBY_CITY_COUNT", 5); err != nil {
		return err
	}
	if c.RedRadiusMeters, err = parsePositiveFloat("RED_RADIUS_METERS", 50_000); err != nil {
		return err
	}
	if c.YellowRadiusMeters, err = parsePositiveFloat("YELLOW_RADIUS_METERS", 150_000); err != nil {
		return err
	}
	if c.CheckInterval, err = parseDuration("CHECK_INTERVAL", 10*time.Minute); err != nil {
		return err
	}
	if c.ArchiveEnabled, err = parseBool("ARCHIVE_ENABLED", true); err != nil {
		return err
	}
	return nil
}

// loadPosition reads USER_LAT and USER_LON, which must be set together.
func (c *Config) loadPosition() error {
	latStr, lonStr := os.Getenv("USER_LAT"), os.Getenv("USER_LON")
	if latStr == "" && lonStr == "" {
		return nil
	}
	if latStr == "" || lonStr == "" {
		return errors.New("USER_LAT and USER_LON must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return errors.New("invalid USER_LAT")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return errors.New("invalid USER_LON")
	}
	c.UserPosition = &domain.Position{Lat: lat, Lon: lon}
	return nil
}

func (c *Config) validate() error {
	if c.YellowRadiusMeters <= c.RedRadiusMeters {
		return errors.New("YELLOW_RADIUS_METERS must be greater than RED_RADIUS_METERS")
	}
	switch c.Notifier {
	case NotifierLog:
	case NotifierKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("NOTIFIER is kafka but KAFKA_BROKERS is empty")
		}
		if c.KafkaNotifyTopic == "" {
			return errors.New("NOTIFIER is kafka but KAFKA_NOTIFY_TOPIC is empty")
		}
	default:
		return fmt.Errorf("invalid NOTIFIER %q: want log or kafka", c.Notifier)
	}
	if c.ArchiveEnabled && c.ArchivePath == "" {
		return errors.New("ARCHIVE_ENABLED is true but ARCHIVE_PATH is empty")
	}
	return nil
}

// RequireProviderKeys reports a missing credential needed by commands that
// call the providers.
func (c *Config) RequireProviderKeys() error {
	if c.OpenWeatherAPIKey == "" {
		return errors.New("OPENWEATHER_API_KEY is required")
	}
	if c.NewsAPIKey == "" {
		return errors.New("NEWS_API_KEY is required")
	}
	return nil
}

func defaultArchivePath() string {
	return filepath.Join(xdg.DataHome, "disasterwatch", "archive.db")
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}
