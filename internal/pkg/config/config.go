package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from yaml strings like
// "20s" or "15m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	API      APIConfig      `yaml:"api"`
	Leagues  LeaguesConfig  `yaml:"leagues"`
	Signals  SignalsConfig  `yaml:"signals"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Scan     ScanConfig     `yaml:"scan"`
	Storage  StorageConfig  `yaml:"storage"`
	Telegram TelegramConfig `yaml:"telegram"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type APIConfig struct {
	BaseURL  string   `yaml:"base_url"`
	Key      string   `yaml:"key"`
	Timezone string   `yaml:"timezone"`
	Timeout  Duration `yaml:"timeout"`

	// Response cache TTLs. Zero disables caching for that endpoint family.
	OddsCacheTTL Duration `yaml:"odds_cache_ttl"`
	FormCacheTTL Duration `yaml:"form_cache_ttl"`
}

type LeaguesConfig struct {
	// IncludeIDs is the league allowlist. A fixture passes when its league
	// id is listed or its country is in IncludeCountries.
	IncludeIDs       []int64  `yaml:"include_ids"`
	IncludeCountries []string `yaml:"include_countries"`
	// ExcludeNameTokens drops leagues whose name contains any token
	// (youth, reserve and women competitions).
	ExcludeNameTokens []string `yaml:"exclude_name_tokens"`
}

type SignalsConfig struct {
	// DropThreshold is the minimum price fall on the currently favored
	// side between snapshot and re-fetch.
	DropThreshold float64 `yaml:"drop_threshold"`
	// DropCeiling is the "still worth betting" cap on the current
	// favorite price.
	DropCeiling float64 `yaml:"drop_ceiling"`
	// InversionMargin is the minimum home/away gap for a favorite flip to
	// count; near-dead-heat flips are noise.
	InversionMargin float64 `yaml:"inversion_margin"`
	// TrapThreshold: an over-2.5 price below this reads as a likely
	// low-scoring match and zeroes the rating.
	TrapThreshold float64 `yaml:"trap_threshold"`
}

type ScoringConfig struct {
	BaseRating     int `yaml:"base_rating"`
	DropBonus      int `yaml:"drop_bonus"`
	InversionBonus int `yaml:"inversion_bonus"`

	ValueZoneLow  float64 `yaml:"value_zone_low"`
	ValueZoneHigh float64 `yaml:"value_zone_high"`
	ValueBonus    int     `yaml:"value_bonus"`

	FirstHalfQuoteLow  float64 `yaml:"first_half_quote_low"`
	FirstHalfQuoteHigh float64 `yaml:"first_half_quote_high"`
	FirstHalfBonus     int     `yaml:"first_half_bonus"`

	FormRateThreshold float64 `yaml:"form_rate_threshold"`
	FormBonus         int     `yaml:"form_bonus"`
	GoalHungerBonus   int     `yaml:"goal_hunger_bonus"`

	SweetSpotLow  float64 `yaml:"sweet_spot_low"`
	SweetSpotHigh float64 `yaml:"sweet_spot_high"`

	// Legacy spectacle-index rules, disabled unless enabled explicitly.
	SpectacleRules  bool    `yaml:"spectacle_rules"`
	SpectacleLow    float64 `yaml:"spectacle_low"`
	SpectacleHigh   float64 `yaml:"spectacle_high"`
	SpectacleBonus  int     `yaml:"spectacle_bonus"`
	SaturationLimit float64 `yaml:"saturation_limit"`
	SaturationMalus int     `yaml:"saturation_malus"`
}

type ScanConfig struct {
	// Workers bounds fixture fan-out; 1 reproduces the strictly
	// sequential behavior.
	Workers   int  `yaml:"workers"`
	MinRating int  `yaml:"min_rating"`
	HideTraps bool `yaml:"hide_traps"`
	// WithForm toggles the two extra history lookups per fixture.
	WithForm bool `yaml:"with_form"`
}

type StorageConfig struct {
	// Backend is "file" or "postgres".
	Backend      string `yaml:"backend"`
	SnapshotPath string `yaml:"snapshot_path"`
	HistoryPath  string `yaml:"history_path"`
	PostgresDSN  string `yaml:"postgres_dsn"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	// MinRating gates pick alerts; batch-level warnings always go out.
	MinRating int `yaml:"min_rating"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads the yaml config and applies defaults and environment
// overrides. A .env file next to the process is honored when present so
// secrets stay out of committed configs.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnvOverrides()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://v3.football.api-sports.io"
	}
	if c.API.Timezone == "" {
		c.API.Timezone = "Europe/Rome"
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = Duration(20 * time.Second)
	}
	if len(c.Leagues.ExcludeNameTokens) == 0 {
		c.Leagues.ExcludeNameTokens = []string{
			"Women", "Femminile", "U19", "U20", "U21", "U23",
			"Primavera", "Youth", "Reserve", "Friendly",
		}
	}

	if c.Signals.DropThreshold <= 0 {
		c.Signals.DropThreshold = 0.15
	}
	if c.Signals.DropCeiling <= 0 {
		c.Signals.DropCeiling = 1.85
	}
	if c.Signals.InversionMargin <= 0 {
		c.Signals.InversionMargin = 0.10
	}
	if c.Signals.TrapThreshold <= 0 {
		c.Signals.TrapThreshold = 1.50
	}

	s := &c.Scoring
	if s.BaseRating <= 0 {
		s.BaseRating = 40
	}
	if s.DropBonus <= 0 {
		s.DropBonus = 40
	}
	if s.InversionBonus <= 0 {
		s.InversionBonus = 25
	}
	if s.ValueZoneLow <= 0 {
		s.ValueZoneLow = 1.70
	}
	if s.ValueZoneHigh <= 0 {
		s.ValueZoneHigh = 2.15
	}
	if s.ValueBonus <= 0 {
		s.ValueBonus = 15
	}
	if s.FirstHalfQuoteLow <= 0 {
		s.FirstHalfQuoteLow = 1.30
	}
	if s.FirstHalfQuoteHigh <= 0 {
		s.FirstHalfQuoteHigh = 1.55
	}
	if s.FirstHalfBonus <= 0 {
		s.FirstHalfBonus = 10
	}
	if s.FormRateThreshold <= 0 {
		s.FormRateThreshold = 0.60
	}
	if s.FormBonus <= 0 {
		s.FormBonus = 20
	}
	if s.GoalHungerBonus <= 0 {
		s.GoalHungerBonus = 15
	}
	if s.SweetSpotLow <= 0 {
		s.SweetSpotLow = 1.40
	}
	if s.SweetSpotHigh <= 0 {
		s.SweetSpotHigh = 2.10
	}
	if s.SpectacleLow <= 0 {
		s.SpectacleLow = 2.2
	}
	if s.SpectacleHigh <= 0 {
		s.SpectacleHigh = 3.8
	}
	if s.SpectacleBonus <= 0 {
		s.SpectacleBonus = 10
	}
	if s.SaturationLimit <= 0 {
		s.SaturationLimit = 3.8
	}
	if s.SaturationMalus <= 0 {
		s.SaturationMalus = 20
	}

	if c.Scan.Workers <= 0 {
		c.Scan.Workers = 1
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.SnapshotPath == "" {
		c.Storage.SnapshotPath = "data/snapshot.json"
	}
	if c.Storage.HistoryPath == "" {
		c.Storage.HistoryPath = "data/history.csv"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("APISPORTS_KEY"); key != "" {
		c.API.Key = key
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		c.Storage.PostgresDSN = dsn
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.BotToken = token
	}
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		if chatID, err := strconv.ParseInt(chatIDStr, 10, 64); err == nil {
			c.Telegram.ChatID = chatID
		}
	}
}
