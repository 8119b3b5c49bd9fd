package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var ErrInvalidConfig = errors.New("invalid config")

const envPrefix = "CR_"

type Config struct {
	ProxyAPIKey string `koanf:"proxy_api_key"`
	APIBaseURL  string `koanf:"api_base_url"`

	DBPath     string `koanf:"db_path"`
	OutputPath string `koanf:"output_path"`
	ServerPort string `koanf:"server_port"`
	LogLevel   string `koanf:"log_level"`
	RedisAddr  string `koanf:"redis_addr"`

	PlayerLimit       int `koanf:"player_limit"`
	PlayerPageSize    int `koanf:"player_page_size"`
	BattleLimit       int `koanf:"battle_limit"`
	MaxConcurrency    int `koanf:"max_concurrency"`
	ProgressEvery     int `koanf:"progress_every"`
	ProfileSampleSize int `koanf:"profile_sample_size"`

	LeaderboardLocation string `koanf:"leaderboard_location"`
	LeaderboardSize     int    `koanf:"leaderboard_size"`

	// outbound pacing; 0 disables the client-side limiter
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	RequestBurst      int           `koanf:"request_burst"`
	BackoffBase       time.Duration `koanf:"backoff_base"`
	BackoffJitter     time.Duration `koanf:"backoff_jitter"`

	CatalogTTL        time.Duration `koanf:"catalog_ttl"`
	RefreshInterval   time.Duration `koanf:"refresh_interval"`
	SnapshotRetention int           `koanf:"snapshot_retention"`

	TopCards         int `koanf:"top_cards"`
	TopDecks         int `koanf:"top_decks"`
	TopSynergies     int `koanf:"top_synergies"`
	MinRegionDecks   int `koanf:"min_region_decks"`
	MinMatchupSample int `koanf:"min_matchup_sample"`
	MinElixirSample  int `koanf:"min_elixir_sample"`
}

// Source selects where configuration is read from besides the environment.
type Source struct {
	File string
	// RequireAPIKey is false for commands that only read stored snapshots.
	RequireAPIKey bool
}

func Default() *Config {
	return &Config{
		APIBaseURL:          "https://proxy.royaleapi.dev/v1",
		DBPath:              "meta.db",
		OutputPath:          "data/meta_snapshot.json",
		ServerPort:          "8080",
		LogLevel:            "info",
		PlayerLimit:         1000,
		PlayerPageSize:      50,
		BattleLimit:         100,
		MaxConcurrency:      15,
		ProgressEvery:       50,
		ProfileSampleSize:   50,
		LeaderboardLocation: "57000000",
		LeaderboardSize:     5,
		RequestsPerSecond:   0,
		RequestBurst:        10,
		BackoffBase:         2 * time.Second,
		BackoffJitter:       1 * time.Second,
		CatalogTTL:          24 * time.Hour,
		RefreshInterval:     6 * time.Hour,
		SnapshotRetention:   30,
		TopCards:            50,
		TopDecks:            12,
		TopSynergies:        100,
		MinRegionDecks:      20,
		MinMatchupSample:    30,
		MinElixirSample:     10,
	}
}

func Load(logger zerolog.Logger, src Source) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	k := koanf.New(".")

	path := src.File
	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// CR_PLAYER_LIMIT -> player_limit
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(src.RequireAPIKey); err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("output_path", cfg.OutputPath).
		Str("log_level", cfg.LogLevel).
		Int("player_limit", cfg.PlayerLimit).
		Int("max_concurrency", cfg.MaxConcurrency).
		Dur("refresh_interval", cfg.RefreshInterval).
		Bool("redis", cfg.RedisAddr != "").
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) Validate(requireAPIKey bool) error {
	if requireAPIKey && c.ProxyAPIKey == "" {
		return fmt.Errorf("%w: CR_PROXY_API_KEY is required", ErrInvalidConfig)
	}
	positive := map[string]int{
		"player_page_size":   c.PlayerPageSize,
		"battle_limit":       c.BattleLimit,
		"max_concurrency":    c.MaxConcurrency,
		"progress_every":     c.ProgressEvery,
		"snapshot_retention": c.SnapshotRetention,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, name, v)
		}
	}
	if c.PlayerLimit < 0 || c.ProfileSampleSize < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidConfig)
	}
	if c.BackoffBase <= 0 {
		return fmt.Errorf("%w: backoff_base must be positive", ErrInvalidConfig)
	}
	if c.BackoffJitter < 0 {
		return fmt.Errorf("%w: backoff_jitter must not be negative", ErrInvalidConfig)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests_per_second must not be negative", ErrInvalidConfig)
	}
	if c.RequestsPerSecond > 0 && c.RequestBurst <= 0 {
		return fmt.Errorf("%w: request_burst must be positive when requests_per_second is set", ErrInvalidConfig)
	}
	return nil
}

var Module = fx.Provide(Load)
