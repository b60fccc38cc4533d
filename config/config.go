package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the automation agent.
type Config struct {
	General   GeneralConfig    `mapstructure:"general"`
	Server    ServerConfig     `mapstructure:"server"`
	Planner   PlannerConfig    `mapstructure:"planner"`
	Tools     ToolsConfig      `mapstructure:"tools"`
	LLM       LLMConfig        `mapstructure:"llm"`
	Search    SearchConfig     `mapstructure:"search"`
	Scraper   ScraperConfig    `mapstructure:"scraper"`
	SMTP      SMTPConfig       `mapstructure:"smtp"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Telemetry TelemetryConfig  `mapstructure:"telemetry"`
	Schedules []ScheduleConfig `mapstructure:"schedules"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings.
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// Planner modes and tool profiles.
const (
	PlannerModeRule = "rule"
	PlannerModeLLM  = "llm"

	ToolsProfileBasic    = "basic"
	ToolsProfileEnhanced = "enhanced"
)

// PlannerConfig selects how commands are decomposed into plans.
type PlannerConfig struct {
	Mode string `mapstructure:"mode"` // rule or llm
}

func (p PlannerConfig) Validate() error {
	switch p.Mode {
	case "", PlannerModeRule, PlannerModeLLM:
		return nil
	}
	return fmt.Errorf("planner.mode must be rule or llm, got %q", p.Mode)
}

// ToolsConfig selects which adapter set backs the registry.
type ToolsConfig struct {
	Profile string `mapstructure:"profile"` // basic or enhanced
}

func (t ToolsConfig) Validate() error {
	switch t.Profile {
	case "", ToolsProfileBasic, ToolsProfileEnhanced:
		return nil
	}
	return fmt.Errorf("tools.profile must be basic or enhanced, got %q", t.Profile)
}

// LLMConfig contains the OpenAI-compatible completion settings used by the
// LLM planner, summarizer and resume analyzer.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SearchConfig contains web search backend settings.
type SearchConfig struct {
	BraveAPIKey  string        `mapstructure:"brave_api_key"`
	SerperAPIKey string        `mapstructure:"serper_api_key"`
	MaxResults   int           `mapstructure:"max_results"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ScraperConfig contains page fetching settings.
type ScraperConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
}

// SMTPConfig contains outgoing mail settings. An empty host means the email
// tool runs in demo mode and only logs what it would send.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Configured reports whether the SMTP settings are complete enough to send.
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.User != "" && s.Password != ""
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	File     FileConfig     `mapstructure:"file"`
}

// RedisConfig contains Redis connection settings for run history and
// scheduler locks. Empty host disables Redis.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Addr returns host:port for the Redis client.
func (r RedisConfig) Addr() string {
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return fmt.Sprintf("%s:%s", r.Host, port)
}

// PostgresConfig contains connection settings for the run archive. Empty
// host and URL disable the archive.
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Configured reports whether a postgres connection can be built.
func (p PostgresConfig) Configured() bool {
	return p.URL != "" || (p.Host != "" && p.DBName != "")
}

// DSN builds a postgres connection string.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", errors.New("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// FileConfig contains file storage settings.
type FileConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// TelemetryConfig contains metrics settings.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ScheduleConfig declares one recurring automation.
type ScheduleConfig struct {
	Name    string `mapstructure:"name"`
	Cron    string `mapstructure:"cron"` // @hourly, @daily or a cron expression
	Command string `mapstructure:"command"`
	Email   string `mapstructure:"email"`
}

func (s ScheduleConfig) Validate() error {
	if strings.TrimSpace(s.Command) == "" {
		return fmt.Errorf("schedule %q: command is required", s.Name)
	}
	if strings.TrimSpace(s.Cron) == "" {
		return fmt.Errorf("schedule %q: cron is required", s.Name)
	}
	return nil
}

// LoadConfig loads configuration from an optional config file, a .env file
// and TASKPILOT_* environment variables. Components never read the
// environment directly; everything flows through the returned value.
func LoadConfig(path string) (*Config, error) {
	// best-effort .env, matching the original dotenv behaviour
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("planner.mode", "rule")
	viper.SetDefault("tools.profile", "enhanced")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.max_tokens", 800)
	viper.SetDefault("llm.timeout", 30*time.Second)
	viper.SetDefault("search.max_results", 5)
	viper.SetDefault("search.timeout", 15*time.Second)
	viper.SetDefault("scraper.timeout", 15*time.Second)
	viper.SetDefault("scraper.max_chars", 20000)
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("TASKPILOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// no config file is fine, env and defaults carry the day
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Planner.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Tools.Validate(); err != nil {
		return nil, err
	}
	for _, s := range cfg.Schedules {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
