package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
	"github.com/couchcryptid/observed-deaths-etl/internal/geometry"
	"github.com/couchcryptid/observed-deaths-etl/internal/source"
)

// Config holds all service settings, populated from environment variables
// and the optional style file.
type Config struct {
	SourceURL    string
	CensusPath   string
	CachePath    string
	CacheTTL     time.Duration
	FetchTimeout time.Duration

	OutputDir       string
	Workers         int
	TrimWindow      int
	CanvasSize      int
	RadiusTransform geometry.RadiusTransform
	ExcludedRegion  string
	StylePath       string
	RunInterval     time.Duration

	// Resolved from the style file, or defaults when none is given.
	Aliases []domain.AliasRule
	Palette geometry.Palette
	Rings   geometry.RingTable

	KafkaBrokers      []string
	KafkaSummaryTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parsePositiveDuration("CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	runInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("RUN_INTERVAL", "0s"))
	if err != nil || runInterval < 0 {
		return nil, errors.New("invalid RUN_INTERVAL")
	}

	workers, err := parsePositiveInt("WORKERS", runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	trimWindow, err := parsePositiveInt("TRIM_WINDOW", domain.DefaultTrimWindow)
	if err != nil {
		return nil, err
	}
	canvasSize, err := parsePositiveInt("CANVAS_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	transform, err := geometry.TransformByName(sharedcfg.EnvOrDefault("RADIUS_TRANSFORM", "sqrt"))
	if err != nil {
		return nil, fmt.Errorf("invalid RADIUS_TRANSFORM: %w", err)
	}

	cfg := &Config{
		SourceURL:    sharedcfg.EnvOrDefault("SOURCE_URL", source.DefaultURL),
		CensusPath:   sharedcfg.EnvOrDefault("CENSUS_PATH", "data/census-2020.csv"),
		CachePath:    sharedcfg.EnvOrDefault("CACHE_PATH", filepath.Join(os.TempDir(), "odv-cache.db")),
		CacheTTL:     cacheTTL,
		FetchTimeout: fetchTimeout,

		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "out"),
		Workers:         workers,
		TrimWindow:      trimWindow,
		CanvasSize:      canvasSize,
		RadiusTransform: transform,
		ExcludedRegion:  sharedcfg.EnvOrDefault("EXCLUDED_REGION", domain.DefaultExcludedRegion),
		StylePath:       os.Getenv("STYLE_PATH"),
		RunInterval:     runInterval,

		Aliases: domain.DefaultAliases(),
		Palette: geometry.DefaultPalette(),
		Rings:   geometry.DefaultRingTable(),

		KafkaSummaryTopic: sharedcfg.EnvOrDefault("KAFKA_SUMMARY_TOPIC", "region-summaries"),

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.SourceURL == "" {
		return nil, errors.New("SOURCE_URL is required")
	}
	if cfg.CensusPath == "" {
		return nil, errors.New("CENSUS_PATH is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSummaryTopic == "" {
		return nil, errors.New("KAFKA_SUMMARY_TOPIC is required when KAFKA_BROKERS is set")
	}

	if cfg.StylePath != "" {
		style, err := LoadStyle(cfg.StylePath)
		if err != nil {
			return nil, fmt.Errorf("invalid STYLE_PATH: %w", err)
		}
		if err := cfg.applyStyle(style); err != nil {
			return nil, fmt.Errorf("invalid STYLE_PATH: %w", err)
		}
	}

	return cfg, nil
}

// applyStyle overlays style file settings. EXCLUDED_REGION set in the
// environment wins over the file.
func (c *Config) applyStyle(s Style) error {
	if s.ExcludedRegion != "" && os.Getenv("EXCLUDED_REGION") == "" {
		c.ExcludedRegion = s.ExcludedRegion
	}
	if s.Aliases != nil {
		c.Aliases = s.Aliases
	}
	palette, err := s.Palette.Apply(c.Palette)
	if err != nil {
		return err
	}
	c.Palette = palette
	if s.Rings != nil {
		if err := s.Rings.Validate(); err != nil {
			return err
		}
		c.Rings = *s.Rings
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
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
