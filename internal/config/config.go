package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"bingohall/internal/bingo"
)

// Config is the full server configuration: yaml file values overridden by
// environment variables.
type Config struct {
	ListenAddr string        `yaml:"listen_addr"`
	HTTPAddr   string        `yaml:"http_addr"`
	Match      MatchSettings `yaml:"match"`
}

// MatchSettings are the defaults applied to every created match.
type MatchSettings struct {
	MinPlayers          int    `yaml:"min_players"`
	MaxPlayers          int    `yaml:"max_players"`
	CountdownSeconds    int    `yaml:"countdown_seconds"`
	DrawIntervalSeconds int    `yaml:"draw_interval_seconds"`
	CardsPerPlayer      int    `yaml:"cards_per_player"`
	WinRule             string `yaml:"win_rule"` // "full_card" or "any_line"
}

func Default() *Config {
	return &Config{
		ListenAddr: ":5000",
		HTTPAddr:   ":8080",
		Match: MatchSettings{
			MinPlayers:          2,
			MaxPlayers:          10,
			CountdownSeconds:    30,
			DrawIntervalSeconds: 3,
			CardsPerPlayer:      1,
			WinRule:             "full_card",
		},
	}
}

// Load reads the optional yaml file at path, then applies environment
// overrides. A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.ListenAddr = getEnv("BINGO_LISTEN_ADDR", cfg.ListenAddr)
	cfg.HTTPAddr = getEnv("BINGO_HTTP_ADDR", cfg.HTTPAddr)
	cfg.Match.MinPlayers = getEnvAsInt("BINGO_MIN_PLAYERS", cfg.Match.MinPlayers)
	cfg.Match.MaxPlayers = getEnvAsInt("BINGO_MAX_PLAYERS", cfg.Match.MaxPlayers)
	cfg.Match.CountdownSeconds = getEnvAsInt("BINGO_COUNTDOWN_SECONDS", cfg.Match.CountdownSeconds)
	cfg.Match.DrawIntervalSeconds = getEnvAsInt("BINGO_DRAW_INTERVAL_SECONDS", cfg.Match.DrawIntervalSeconds)
	cfg.Match.CardsPerPlayer = getEnvAsInt("BINGO_CARDS_PER_PLAYER", cfg.Match.CardsPerPlayer)
	cfg.Match.WinRule = getEnv("BINGO_WIN_RULE", cfg.Match.WinRule)

	if cfg.Match.WinRule != "full_card" && cfg.Match.WinRule != "any_line" {
		return nil, fmt.Errorf("unknown win_rule %q", cfg.Match.WinRule)
	}
	return cfg, nil
}

// MatchConfig converts the settings into the engine's config type.
func (c *Config) MatchConfig() bingo.MatchConfig {
	rule := bingo.FullCard
	if c.Match.WinRule == "any_line" {
		rule = bingo.AnyLine
	}
	return bingo.MatchConfig{
		MinPlayers:     c.Match.MinPlayers,
		MaxPlayers:     c.Match.MaxPlayers,
		Countdown:      time.Duration(c.Match.CountdownSeconds) * time.Second,
		DrawInterval:   time.Duration(c.Match.DrawIntervalSeconds) * time.Second,
		CardsPerPlayer: c.Match.CardsPerPlayer,
		WinRule:        rule,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
