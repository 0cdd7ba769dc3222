// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"cloud-architect-sim/internal/errors"
	"cloud-architect-sim/internal/logging"
)

// EnvPrefix is the prefix for environment overrides (ARCHSIM_SERVER_ADDR, ...)
const EnvPrefix = "ARCHSIM"

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" mapstructure:"version"`

	// Scoring contains score deltas applied by the validator and session
	Scoring ScoringConfig `json:"scoring" mapstructure:"scoring"`

	// Ranks contains the rank thresholds
	Ranks RankConfig `json:"ranks" mapstructure:"ranks"`

	// Data points at catalog and level files
	Data DataConfig `json:"data" mapstructure:"data"`

	// Engine contains evaluation tuning
	Engine EngineConfig `json:"engine" mapstructure:"engine"`

	// Game contains session rules
	Game GameConfig `json:"game" mapstructure:"game"`

	// Storage contains progress persistence settings
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Server contains HTTP server settings
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" mapstructure:"logging"`
}

// ScoringConfig contains score deltas. Penalties are negative.
type ScoringConfig struct {
	RequirementsFulfilled int `json:"requirements_fulfilled" mapstructure:"requirements_fulfilled"`
	CorrectConnection     int `json:"correct_connection" mapstructure:"correct_connection"`
	SecurityViolation     int `json:"security_violation" mapstructure:"security_violation"`
	UnnecessaryService    int `json:"unnecessary_service" mapstructure:"unnecessary_service"`
	CostOptimization      int `json:"cost_optimization" mapstructure:"cost_optimization"`
}

// RankConfig contains the minimum scores for each rank above Bronze
type RankConfig struct {
	Silver int `json:"silver" mapstructure:"silver"`
	Gold   int `json:"gold" mapstructure:"gold"`
}

// DataConfig contains catalog and level file locations.
// Empty paths select the embedded game data.
type DataConfig struct {
	CatalogPath string `json:"catalog_path" mapstructure:"catalog_path"`
	LevelsPath  string `json:"levels_path" mapstructure:"levels_path"`
}

// EngineConfig contains evaluation tuning
type EngineConfig struct {
	// MaxPaths caps simple-path enumeration in the latency estimator
	MaxPaths int `json:"max_paths" mapstructure:"max_paths"`

	// CostOptimizationRatio is the budget fraction below which the bonus applies
	CostOptimizationRatio float64 `json:"cost_optimization_ratio" mapstructure:"cost_optimization_ratio"`

	// MaxLevel is the highest level that can be unlocked
	MaxLevel int `json:"max_level" mapstructure:"max_level"`

	// Workers bounds concurrent evaluations in a batch
	Workers int `json:"workers" mapstructure:"workers"`
}

// GameConfig contains session rules
type GameConfig struct {
	// TimeTrialSeconds is the time limit of a time trial session
	TimeTrialSeconds int `json:"time_trial_seconds" mapstructure:"time_trial_seconds"`

	// UnlockAllLevels opens every level from the start
	UnlockAllLevels bool `json:"unlock_all_levels" mapstructure:"unlock_all_levels"`
}

// StorageConfig contains progress persistence settings
type StorageConfig struct {
	// DatabasePath is the sqlite file; empty keeps progress in memory
	DatabasePath string `json:"database_path" mapstructure:"database_path"`

	// Player is the default player profile name
	Player string `json:"player" mapstructure:"player"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr        string   `json:"addr" mapstructure:"addr"`
	CORSOrigins []string `json:"cors_origins" mapstructure:"cors_origins"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".archsim", "progress.db")

	return &Config{
		Version: "1.0",
		Scoring: ScoringConfig{
			RequirementsFulfilled: 100,
			CorrectConnection:     10,
			SecurityViolation:     -20,
			UnnecessaryService:    -10,
			CostOptimization:      50,
		},
		Ranks: RankConfig{
			Silver: 150,
			Gold:   250,
		},
		Engine: EngineConfig{
			MaxPaths:              100000,
			CostOptimizationRatio: 0.8,
			MaxLevel:              10,
			Workers:               4,
		},
		Game: GameConfig{
			TimeTrialSeconds: 300,
		},
		Storage: StorageConfig{
			DatabasePath: dbPath,
			Player:       "Architect",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file (json, yaml or toml) with
// ARCHSIM_* environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(errors.TypeConfig, err, "reading config %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.TypeConfig, err, "reading config %s", path)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "decoding config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("version", cfg.Version)

	v.SetDefault("scoring.requirements_fulfilled", cfg.Scoring.RequirementsFulfilled)
	v.SetDefault("scoring.correct_connection", cfg.Scoring.CorrectConnection)
	v.SetDefault("scoring.security_violation", cfg.Scoring.SecurityViolation)
	v.SetDefault("scoring.unnecessary_service", cfg.Scoring.UnnecessaryService)
	v.SetDefault("scoring.cost_optimization", cfg.Scoring.CostOptimization)

	v.SetDefault("ranks.silver", cfg.Ranks.Silver)
	v.SetDefault("ranks.gold", cfg.Ranks.Gold)

	v.SetDefault("data.catalog_path", cfg.Data.CatalogPath)
	v.SetDefault("data.levels_path", cfg.Data.LevelsPath)

	v.SetDefault("engine.max_paths", cfg.Engine.MaxPaths)
	v.SetDefault("engine.cost_optimization_ratio", cfg.Engine.CostOptimizationRatio)
	v.SetDefault("engine.max_level", cfg.Engine.MaxLevel)
	v.SetDefault("engine.workers", cfg.Engine.Workers)

	v.SetDefault("game.time_trial_seconds", cfg.Game.TimeTrialSeconds)
	v.SetDefault("game.unlock_all_levels", cfg.Game.UnlockAllLevels)

	v.SetDefault("storage.database_path", cfg.Storage.DatabasePath)
	v.SetDefault("storage.player", cfg.Storage.Player)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.cors_origins", cfg.Server.CORSOrigins)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
	v.SetDefault("logging.development", cfg.Logging.Development)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Engine.MaxPaths <= 0 {
		return errors.New(errors.TypeConfig, "engine.max_paths must be positive")
	}
	if c.Engine.CostOptimizationRatio <= 0 || c.Engine.CostOptimizationRatio > 1 {
		return errors.New(errors.TypeConfig, "engine.cost_optimization_ratio must be in (0, 1]")
	}
	if c.Engine.MaxLevel <= 0 {
		return errors.New(errors.TypeConfig, "engine.max_level must be positive")
	}
	if c.Engine.Workers <= 0 {
		return errors.New(errors.TypeConfig, "engine.workers must be positive")
	}
	if c.Game.TimeTrialSeconds <= 0 {
		return errors.New(errors.TypeConfig, "game.time_trial_seconds must be positive")
	}
	if c.Ranks.Gold < c.Ranks.Silver {
		return errors.New(errors.TypeConfig, "ranks.gold must not be below ranks.silver")
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
