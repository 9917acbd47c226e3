// Package config loads growthkit settings: defaults, then an optional YAML
// file, then a .env file, then the process environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Output    OutputConfig    `yaml:"output"`
	Server    ServerConfig    `yaml:"server"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Contact   ContactConfig   `yaml:"contact"`
	Publish   PublishConfig   `yaml:"publish"`
	Log       LogConfig       `yaml:"log"`
}

// OutputConfig controls document generation.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	SiteURL    string `yaml:"site_url"`
	BookingURL string `yaml:"booking_url"`
	Brand      string `yaml:"brand"`
	PageBreaks bool   `yaml:"page_breaks"`
	// MetricsFont measures text with real glyph advances instead of the
	// character-count heuristic.
	MetricsFont bool `yaml:"metrics_font"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// TrustedProxies lists the peers (IPs or CIDRs) whose X-Forwarded-For
	// header is believed. Empty means the client is the TCP peer.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type RateLimitConfig struct {
	Window time.Duration `yaml:"window"`
	Max    int           `yaml:"max"`
	// RedisURL selects the shared store; empty keeps hits in memory.
	RedisURL string `yaml:"redis_url"`
}

// Contact modes.
const (
	ModeWebhook = "webhook"
	ModeSES     = "ses"
)

type ContactConfig struct {
	Mode          string   `yaml:"mode"`
	WebhookURL    string   `yaml:"webhook_url"`
	WebhookSecret string   `yaml:"webhook_secret"`
	SESFrom       string   `yaml:"ses_from"`
	SESTo         []string `yaml:"ses_to"`
	Region        string   `yaml:"region"`
}

type PublishConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:        "public/growth-plans",
			SiteURL:    "https://nexgen.studio",
			BookingURL: "https://nexgen.studio/#contact",
			Brand:      "NexGen Studio",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Window: time.Minute,
			Max:    5,
		},
		Contact: ContactConfig{
			Mode: ModeWebhook,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. A missing YAML path or .env file is not an
// error; an unreadable or malformed one is.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, goerr.Wrap(err, "failed to read config", goerr.V("path", path))
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, goerr.Wrap(err, "failed to parse config", goerr.V("path", path))
			}
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, goerr.Wrap(err, "failed to read env file", goerr.V("path", envFile))
		default:
			dotenv = m
		}
	}

	// Real environment variables win over the .env file.
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	boolean := func(dst *bool, key string) {
		if v, ok := lookup(key); ok {
			*dst = asBool(v, *dst)
		}
	}
	duration := func(dst *time.Duration, key string) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return goerr.Wrap(err, "invalid duration", goerr.V("key", key), goerr.V("value", v))
		}
		*dst = d
		return nil
	}

	str(&c.Output.Dir, "GROWTHKIT_OUTPUT_DIR")
	str(&c.Output.SiteURL, "GROWTHKIT_SITE_URL")
	str(&c.Output.BookingURL, "GROWTHKIT_BOOKING_URL")
	str(&c.Output.Brand, "GROWTHKIT_BRAND")
	boolean(&c.Output.PageBreaks, "GROWTHKIT_PAGE_BREAKS")
	boolean(&c.Output.MetricsFont, "GROWTHKIT_METRICS_FONT")

	str(&c.Server.Addr, "GROWTHKIT_ADDR")
	if err := duration(&c.Server.ReadTimeout, "GROWTHKIT_READ_TIMEOUT"); err != nil {
		return err
	}
	if err := duration(&c.Server.WriteTimeout, "GROWTHKIT_WRITE_TIMEOUT"); err != nil {
		return err
	}
	if v, ok := lookup("GROWTHKIT_TRUSTED_PROXIES"); ok && v != "" {
		c.Server.TrustedProxies = splitList(v)
	}

	if err := duration(&c.RateLimit.Window, "GROWTHKIT_RATE_WINDOW"); err != nil {
		return err
	}
	if v, ok := lookup("GROWTHKIT_RATE_MAX"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return goerr.New("invalid GROWTHKIT_RATE_MAX", goerr.V("value", v))
		}
		c.RateLimit.Max = n
	}
	str(&c.RateLimit.RedisURL, "GROWTHKIT_REDIS_URL", "REDIS_URL")

	str(&c.Contact.Mode, "GROWTHKIT_CONTACT_MODE")
	str(&c.Contact.WebhookURL, "GROWTHKIT_WEBHOOK_URL", "N8N_WEBHOOK_URL")
	str(&c.Contact.WebhookSecret, "GROWTHKIT_WEBHOOK_SECRET", "N8N_WEBHOOK_SECRET")
	str(&c.Contact.SESFrom, "GROWTHKIT_SES_FROM")
	if v, ok := lookup("GROWTHKIT_SES_TO"); ok && v != "" {
		c.Contact.SESTo = splitList(v)
	}
	str(&c.Contact.Region, "GROWTHKIT_CONTACT_REGION", "AWS_REGION")

	str(&c.Publish.Bucket, "GROWTHKIT_PUBLISH_BUCKET")
	str(&c.Publish.Prefix, "GROWTHKIT_PUBLISH_PREFIX")
	str(&c.Publish.Region, "GROWTHKIT_PUBLISH_REGION", "AWS_REGION")

	str(&c.Log.Level, "GROWTHKIT_LOG_LEVEL")
	boolean(&c.Log.Development, "GROWTHKIT_LOG_DEVELOPMENT")
	return nil
}

// Validate checks settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch c.Contact.Mode {
	case ModeWebhook:
	case ModeSES:
		if c.Contact.SESFrom == "" || len(c.Contact.SESTo) == 0 {
			return goerr.New("ses mode needs ses_from and ses_to")
		}
	default:
		return goerr.New("unknown contact mode", goerr.V("mode", c.Contact.Mode))
	}
	if c.RateLimit.Window <= 0 || c.RateLimit.Max <= 0 {
		return goerr.New("rate limit window and max must be positive")
	}
	return nil
}

// asBool accepts 1/true/yes/on and 0/false/no/off in any case. Anything else
// keeps def.
func asBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
