package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nulzo/care-assist/internal/ai"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Redis     RedisConfig     `mapstructure:"redis" yaml:"redis"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Tracing   TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
	AI        AIConfig        `mapstructure:"ai" yaml:"ai"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
	Env  string `mapstructure:"env" yaml:"env"`
	// APIKeys are the bearer tokens accepted on /v1. Empty disables auth.
	APIKeys []string `mapstructure:"api_keys" yaml:"api_keys"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
}

type CacheConfig struct {
	TTL    time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Prefix string        `mapstructure:"prefix" yaml:"prefix"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
}

type AIConfig struct {
	Preferred string           `mapstructure:"preferred" yaml:"preferred"`
	Timeout   time.Duration    `mapstructure:"timeout" yaml:"timeout"`
	Providers []ProviderConfig `mapstructure:"providers" yaml:"providers"`
}

type ProviderConfig struct {
	Name    string            `mapstructure:"name" yaml:"name"`
	APIKey  string            `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string            `mapstructure:"base_url" yaml:"base_url"`
	Model   string            `mapstructure:"model" yaml:"model"`
	Timeout time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	Options map[string]string `mapstructure:"options" yaml:"options"`
}

// defaultKeyEnv is used when no providers are listed in the config file.
var defaultKeyEnv = map[ai.ProviderName]string{
	ai.OpenAI:    "OPENAI_API_KEY",
	ai.Anthropic: "ANTHROPIC_API_KEY",
	ai.Groq:      "GROQ_API_KEY",
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	return load(v)
}

// LoadConfigFile reads configuration from an explicit file path.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("database.dsn", "file:careassist.db?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.prefix", "careassist:")
	v.SetDefault("rate_limit.requests_per_second", 5.0)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("ai.timeout", ai.DefaultTimeout.String())

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if len(cfg.AI.Providers) == 0 {
		for _, name := range ai.Providers() {
			cfg.AI.Providers = append(cfg.AI.Providers, ProviderConfig{
				Name:   string(name),
				APIKey: "ENV:" + defaultKeyEnv[name],
			})
		}
	}

	for i, p := range cfg.AI.Providers {
		cfg.AI.Providers[i].APIKey = resolve(v, p.APIKey)
	}
	for i, k := range cfg.Server.APIKeys {
		cfg.Server.APIKeys[i] = resolve(v, k)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolve expands "ENV:NAME" references to the named environment variable.
func resolve(v *viper.Viper, value string) string {
	if !strings.HasPrefix(value, "ENV:") {
		return value
	}
	envVar := strings.TrimPrefix(value, "ENV:")
	// Check process environment first (explicit override)
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	// Then check viper (which might have it from other sources)
	return v.GetString(envVar)
}

func (c *Config) Validate() error {
	if c.AI.Preferred != "" {
		if _, ok := ai.ParseProviderName(c.AI.Preferred); !ok {
			return fmt.Errorf("ai.preferred: unknown provider %q", c.AI.Preferred)
		}
	}
	seen := map[string]bool{}
	for _, p := range c.AI.Providers {
		if _, ok := ai.ParseProviderName(p.Name); !ok {
			return fmt.Errorf("ai.providers: unknown provider %q", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("ai.providers: %q listed twice", p.Name)
		}
		seen[p.Name] = true
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	return nil
}

// ProviderSettings returns the static adapter settings keyed by provider.
// Keys are excluded; they flow through the settings service.
func (c *Config) ProviderSettings() map[ai.ProviderName]ai.ProviderConfig {
	out := make(map[ai.ProviderName]ai.ProviderConfig, len(c.AI.Providers))
	for _, p := range c.AI.Providers {
		name, _ := ai.ParseProviderName(p.Name)
		timeout := p.Timeout
		if timeout <= 0 {
			timeout = c.AI.Timeout
		}
		out[name] = ai.ProviderConfig{
			Name:    name,
			BaseURL: p.BaseURL,
			Model:   p.Model,
			Timeout: timeout,
			Config:  p.Options,
		}
	}
	return out
}

// SiteDefaults returns the configured keys and preference used until the site stores its own.
func (c *Config) SiteDefaults() ai.SiteSettings {
	creds := ai.Credentials{}
	for _, p := range c.AI.Providers {
		name, _ := ai.ParseProviderName(p.Name)
		creds[name] = p.APIKey
	}
	preferred, _ := ai.ParseProviderName(c.AI.Preferred)
	return ai.SiteSettings{Credentials: creds, Preferred: preferred}
}

// Redacted returns a copy with every secret passed through mask.
func (c *Config) Redacted(mask func(string) string) *Config {
	out := *c
	out.Redis.Password = mask(c.Redis.Password)
	out.Server.APIKeys = make([]string, len(c.Server.APIKeys))
	for i, k := range c.Server.APIKeys {
		out.Server.APIKeys[i] = mask(k)
	}
	out.AI.Providers = make([]ProviderConfig, len(c.AI.Providers))
	for i, p := range c.AI.Providers {
		p.APIKey = mask(p.APIKey)
		out.AI.Providers[i] = p
	}
	return &out
}
