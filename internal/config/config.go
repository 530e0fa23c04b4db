package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	APIKey     string        `yaml:"api_key"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type TrialConfig struct {
	Days            int      `yaml:"days"`
	GenerationLimit int      `yaml:"generation_limit"`
	ExemptUserIDs   []string `yaml:"exempt_user_ids"`
	ExemptEmails    []string `yaml:"exempt_emails"`
}

type PaymentConfig struct {
	Provider string `yaml:"provider"` // mock | stripe
	Currency string `yaml:"currency"`
	Stripe   struct {
		SecretKey string `yaml:"secret_key"`
	} `yaml:"stripe"`
	Mock struct {
		FailureRate int `yaml:"failure_rate"` // percent of declined renewals
	} `yaml:"mock"`
}

type AIConfig struct {
	Provider     string `yaml:"provider"` // openai | gemini | noop
	OpenAIKey    string `yaml:"openai_key"`
	GeminiKey    string `yaml:"gemini_key"`
	GeminiURL    string `yaml:"gemini_url"`
	DefaultModel string `yaml:"default_model"`
	MaxTokens    int    `yaml:"max_tokens"`
}

type SchedulerConfig struct {
	RenewalInterval time.Duration `yaml:"renewal_interval"` // loop tick
	DueWindow       time.Duration `yaml:"due_window"`       // expiring within this window are renewed
	GatewayTimeout  time.Duration `yaml:"gateway_timeout"`  // per-call cap on the payment gateway
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Trial     TrialConfig     `yaml:"trial"`
	Payment   PaymentConfig   `yaml:"payment"`
	AI        AIConfig        `yaml:"ai"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Trial.Days <= 0 {
		cfg.Trial.Days = 7
	}
	if cfg.Trial.GenerationLimit <= 0 {
		cfg.Trial.GenerationLimit = 2
	}
	if cfg.Payment.Provider == "" {
		cfg.Payment.Provider = "mock"
	}
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "usd"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "noop"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.MaxTokens <= 0 {
		cfg.AI.MaxTokens = 2048
	}
	if cfg.Scheduler.RenewalInterval <= 0 {
		cfg.Scheduler.RenewalInterval = 12 * time.Hour
	}
	if cfg.Scheduler.DueWindow <= 0 {
		cfg.Scheduler.DueWindow = 24 * time.Hour
	}
	if cfg.Scheduler.GatewayTimeout <= 0 {
		cfg.Scheduler.GatewayTimeout = 30 * time.Second
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Payment.Provider == "stripe" && cfg.Payment.Stripe.SecretKey == "" {
		return nil, errors.New("payment.stripe.secret_key is required for the stripe provider")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
