package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bbuilders/actionbot/pkg/config"
)

// SourceConfig points at the workspace database holding action items.
type SourceConfig struct {
	BaseURL    string `yaml:"base_url"`
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

// MailerConfig points at the email provider.
type MailerConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	From     string `yaml:"from"`
	Provider string `yaml:"provider"`
	PauseMS  int    `yaml:"pause_ms"`
}

// RecipientsConfig holds the fixed escalation addresses.
type RecipientsConfig struct {
	Admins    []string `yaml:"admins"`
	President string   `yaml:"president"`
	VP        string   `yaml:"vp"`
}

// TriggerConfig guards the scheduled run endpoint. SecretHash (bcrypt) is
// preferred; Secret supports plain comparison for local setups.
type TriggerConfig struct {
	Secret     string `yaml:"secret"`
	SecretHash string `yaml:"secret_hash"`
}

type Config struct {
	Server     config.ServerConfig `yaml:"server"`
	DB         config.DBConfig     `yaml:"db"`
	Redis      config.RedisConfig  `yaml:"redis"`
	MQ         config.MQConfig     `yaml:"mq"`
	JWT        config.JWTConfig    `yaml:"jwt"`
	Source     SourceConfig        `yaml:"source"`
	Mailer     MailerConfig        `yaml:"mailer"`
	Recipients RecipientsConfig    `yaml:"recipients"`
	Trigger    TriggerConfig       `yaml:"trigger"`
	// Timezone is the reference zone for all calendar-day decisions.
	Timezone string `yaml:"timezone"`
}

func Load() *Config {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var cfg Config
	cfgData, err := yaml.Marshal(cfgMap)
	if err != nil {
		log.Fatalf("failed to marshal config: %v", err)
	}
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideJWTFromEnv(&cfg.JWT)
	overrideFromEnv(&cfg)

	if cfg.Timezone == "" {
		cfg.Timezone = "America/New_York"
	}

	return &cfg
}

func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("SOURCE_BASE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("SOURCE_TOKEN"); v != "" {
		cfg.Source.Token = v
	}
	if v := os.Getenv("SOURCE_DATABASE_ID"); v != "" {
		cfg.Source.DatabaseID = v
	}
	if v := os.Getenv("MAILER_API_KEY"); v != "" {
		cfg.Mailer.APIKey = v
	}
	if v := os.Getenv("MAILER_FROM"); v != "" {
		cfg.Mailer.From = v
	}
	if v := os.Getenv("TRIGGER_SECRET"); v != "" {
		cfg.Trigger.Secret = v
	}
	if v := os.Getenv("TRIGGER_SECRET_HASH"); v != "" {
		cfg.Trigger.SecretHash = v
	}
}
