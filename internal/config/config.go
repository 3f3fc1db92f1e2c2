// Package config provides configuration management functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aristath/commodities/internal/utils"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration
type Config struct {
	LogLevel  string         `yaml:"log_level"`
	LogPretty bool           `yaml:"log_pretty"`
	DataDir   string         `yaml:"data_dir"` // Holds the report archive
	Port      int            `yaml:"port"`
	Schedule  string         `yaml:"schedule"` // Cron spec with seconds for scheduled discovery
	Pipeline  PipelineConfig `yaml:"pipeline"`
	Skills    SkillsConfig   `yaml:"skills"`
}

// PipelineConfig holds the analysis parameters shared by both run modes
type PipelineConfig struct {
	Workers            int      `yaml:"workers"`
	TopMovers          int      `yaml:"top_movers"`
	Periods            []int    `yaml:"periods"` // Lookback days used for screening
	OHLCVDays          int      `yaml:"ohlcv_days"`
	Indicators         []string `yaml:"indicators"`
	TopOptionsByVolume int      `yaml:"top_options_by_volume"`
	RiskFreeRate       float64  `yaml:"risk_free_rate"`
	NewsSources        []string `yaml:"news_sources"`
	MaxNewsPerSource   int      `yaml:"max_news_per_source"`
	OutputDir          string   `yaml:"output_dir"`
	AlertQuery         string   `yaml:"alert_query"`
	Weights            Weights  `yaml:"weights"`
}

// Weights are the review score weights in percent
type Weights struct {
	Sensitivity int `yaml:"sensitivity"`
	Technical   int `yaml:"technical"`
	Time        int `yaml:"time"`
	Sentiment   int `yaml:"sentiment"`
}

// Sum returns the total of all four weights
func (w Weights) Sum() int {
	return w.Sensitivity + w.Technical + w.Time + w.Sentiment
}

// SkillsConfig locates the external data scripts
type SkillsConfig struct {
	Dir         string        `yaml:"dir"`
	Interpreter string        `yaml:"interpreter"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DefaultWeights returns the 30/30/20/20 split
func DefaultWeights() Weights {
	return Weights{Sensitivity: 30, Technical: 30, Time: 20, Sentiment: 20}
}

// DefaultPipeline returns the stock analysis parameters
func DefaultPipeline() PipelineConfig {
	return PipelineConfig{
		Workers:            8,
		TopMovers:          3,
		Periods:            []int{1, 3, 5},
		OHLCVDays:          15,
		Indicators:         []string{"ma", "macd", "rsi", "boll", "kdj", "atr", "obv", "cci"},
		TopOptionsByVolume: 5,
		RiskFreeRate:       0.02,
		NewsSources:        []string{"eastmoney", "sina"},
		MaxNewsPerSource:   5,
		OutputDir:          "reports",
		AlertQuery:         "from:alerts-noreply@google.com",
		Weights:            DefaultWeights(),
	}
}

// Default returns a configuration with every default applied
func Default() *Config {
	skillsDir := ".claude/skills"
	if home, err := os.UserHomeDir(); err == nil {
		skillsDir = filepath.Join(home, ".claude", "skills")
	}

	return &Config{
		LogLevel: "info",
		DataDir:  "data",
		Port:     8001,
		Schedule: "0 30 15 * * 1-5",
		Pipeline: DefaultPipeline(),
		Skills: SkillsConfig{
			Dir:         skillsDir,
			Interpreter: "python3",
			Timeout:     30 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, .env and the environment.
// Later sources override earlier ones. The result is validated.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogPretty = getEnvAsBool("LOG_PRETTY", c.LogPretty)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.Port = getEnvAsInt("PORT", c.Port)
	c.Schedule = getEnv("PIPELINE_SCHEDULE", c.Schedule)

	p := &c.Pipeline
	p.Workers = getEnvAsInt("PIPELINE_WORKERS", p.Workers)
	p.TopMovers = getEnvAsInt("PIPELINE_TOP_MOVERS", p.TopMovers)
	p.Periods = getEnvAsInts("PIPELINE_PERIODS", p.Periods)
	p.OHLCVDays = getEnvAsInt("PIPELINE_OHLCV_DAYS", p.OHLCVDays)
	p.Indicators = getEnvAsList("PIPELINE_INDICATORS", p.Indicators)
	p.TopOptionsByVolume = getEnvAsInt("PIPELINE_TOP_OPTIONS", p.TopOptionsByVolume)
	p.RiskFreeRate = getEnvAsFloat("PIPELINE_RISK_FREE_RATE", p.RiskFreeRate)
	p.NewsSources = getEnvAsList("PIPELINE_NEWS_SOURCES", p.NewsSources)
	p.MaxNewsPerSource = getEnvAsInt("PIPELINE_MAX_NEWS", p.MaxNewsPerSource)
	p.OutputDir = getEnv("PIPELINE_OUTPUT_DIR", p.OutputDir)
	p.AlertQuery = getEnv("PIPELINE_ALERT_QUERY", p.AlertQuery)
	if w := getEnvAsInts("PIPELINE_WEIGHTS", nil); len(w) == 4 {
		p.Weights = Weights{Sensitivity: w[0], Technical: w[1], Time: w[2], Sentiment: w[3]}
	}

	c.Skills.Dir = getEnv("SKILLS_DIR", c.Skills.Dir)
	c.Skills.Interpreter = getEnv("SKILLS_INTERPRETER", c.Skills.Interpreter)
	c.Skills.Timeout = getEnvAsDuration("SKILLS_TIMEOUT", c.Skills.Timeout)
}

// ArchivePath is the sqlite file holding archived reports
func (c *Config) ArchivePath() string {
	return filepath.Join(c.DataDir, "reports.db")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535, got %d", ErrInvalidConfig, c.Port)
	}
	if c.Skills.Timeout < 0 {
		return fmt.Errorf("%w: skills timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Validate checks the analysis parameters. It runs before any stage.
func (p PipelineConfig) Validate() error {
	var problems []string

	if p.Workers <= 0 {
		problems = append(problems, fmt.Sprintf("workers must be positive, got %d", p.Workers))
	}
	if p.TopMovers <= 0 {
		problems = append(problems, fmt.Sprintf("top_movers must be positive, got %d", p.TopMovers))
	}
	if len(p.Periods) == 0 {
		problems = append(problems, "at least one screening period is required")
	}
	for _, period := range p.Periods {
		if period <= 0 {
			problems = append(problems, fmt.Sprintf("periods must be positive, got %d", period))
		}
	}
	if p.OHLCVDays <= 0 {
		problems = append(problems, fmt.Sprintf("ohlcv_days must be positive, got %d", p.OHLCVDays))
	}
	if p.TopOptionsByVolume <= 0 {
		problems = append(problems, fmt.Sprintf("top_options_by_volume must be positive, got %d", p.TopOptionsByVolume))
	}
	if p.MaxNewsPerSource < 0 {
		problems = append(problems, "max_news_per_source must not be negative")
	}

	w := p.Weights
	if w.Sensitivity < 0 || w.Technical < 0 || w.Time < 0 || w.Sentiment < 0 {
		problems = append(problems, "weights must not be negative")
	}
	if w.Sum() != 100 {
		problems = append(problems, fmt.Sprintf("weights must sum to 100, got %d", w.Sum()))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	out := utils.SplitList(value, ",")
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvAsInts parses a comma separated list of integers; any bad entry keeps the default
func getEnvAsInts(key string, defaultValue []int) []int {
	parts := getEnvAsList(key, nil)
	if len(parts) == 0 {
		return defaultValue
	}
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}
