package config

import (
	"fmt"
	"os"
	"time"

	"lovelink/pkg/chat"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ModelSettings struct {
		Temperature       float64 `yaml:"temperature"`
		TopP              float64 `yaml:"top_p"`
		MaxTokens         int     `yaml:"max_tokens"`
		GenerationTimeout float64 `yaml:"generation_timeout_seconds"`
	} `yaml:"model_settings"`
	Companion struct {
		Timezone      string       `yaml:"timezone"`
		HistoryWindow int          `yaml:"history_window"`
		HistoryMax    int          `yaml:"history_max"`
		Persona       chat.Persona `yaml:"persona"`
	} `yaml:"companion"`
	Catalog struct {
		Path           string `yaml:"path"`
		SyntheticCount int    `yaml:"synthetic_count"`
	} `yaml:"catalog"`
	Sync struct {
		IntervalMinutes float64 `yaml:"interval_minutes"`
	} `yaml:"sync"`
	Manager struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"manager"`
}

// Secrets come from the environment (optionally a .env file)
type Secrets struct {
	DiscordToken   string `env:"DISCORD_TOKEN"`
	DiscordGuildID string `env:"DISCORD_GUILD_ID"`
	LLMAPIKeys     string `env:"LLM_API_KEYS"`
	LLMBaseURL     string `env:"LLM_BASE_URL"`
	LLMModel       string `env:"LLM_MODEL"`
	SurrealHost    string `env:"SURREAL_DB_HOST"`
	SurrealUser    string `env:"SURREAL_DB_USER"`
	SurrealPass    string `env:"SURREAL_DB_PASS"`
	SurrealNS      string `env:"SURREAL_DB_NAMESPACE" envDefault:"lovelink"`
	SurrealDB      string `env:"SURREAL_DB_DATABASE" envDefault:"relationships"`
	RedisURL       string `env:"REDIS_URL"`
	LocalDBPath    string `env:"LOCAL_DB_PATH" envDefault:"lovelink.db"`
}

func defaults() *Config {
	config := &Config{}
	config.ModelSettings.Temperature = 1
	config.ModelSettings.TopP = 1
	config.ModelSettings.MaxTokens = 512
	config.ModelSettings.GenerationTimeout = 30
	config.Companion.Timezone = "Local"
	config.Companion.HistoryWindow = 5
	config.Companion.HistoryMax = 100
	config.Catalog.SyntheticCount = 3
	config.Sync.IntervalMinutes = 5
	config.Manager.Capacity = 256
	return config
}

func LoadConfig(path string) (*Config, error) {
	config := defaults()

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return config, nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Fields missing from the file keep their defaults
	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// LoadSecrets reads .env files when present and parses the environment
func LoadSecrets(files ...string) (*Secrets, error) {
	if err := godotenv.Load(files...); err != nil {
		// Missing .env is fine, the variables may already be set
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	secrets := &Secrets{}
	if err := env.Parse(secrets); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return secrets, nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Companion.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Companion.Timezone)
}

func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.ModelSettings.GenerationTimeout * float64(time.Second))
}

func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Sync.IntervalMinutes * float64(time.Minute))
}
