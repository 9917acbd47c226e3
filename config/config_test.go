package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "https://nexgen.studio", cfg.Output.SiteURL)
	assert.Equal(t, "https://nexgen.studio/#contact", cfg.Output.BookingURL)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, ModeWebhook, cfg.Contact.Mode)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFilesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nope.yaml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, Default().Output, cfg.Output)
	assert.Equal(t, Default().RateLimit.Max, cfg.RateLimit.Max)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "growthkit.yaml", `
output:
  dir: out
  brand: Acme Labs
  page_breaks: true
rate_limit:
  window: 30s
  max: 3
contact:
  mode: ses
  ses_from: site@acme.test
  ses_to: [team@acme.test]
`)
	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "Acme Labs", cfg.Output.Brand)
	assert.True(t, cfg.Output.PageBreaks)
	// Unset keys keep their defaults.
	assert.Equal(t, "https://nexgen.studio", cfg.Output.SiteURL)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 3, cfg.RateLimit.Max)
	require.NoError(t, cfg.Validate())
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "output: [unclosed")
	_, err := Load(path, "")
	assert.Error(t, err)
}

func TestEnvOverridesFileAndDotenv(t *testing.T) {
	path := writeFile(t, "growthkit.yaml", "output:\n  brand: From YAML\n")
	envFile := writeFile(t, ".env", "GROWTHKIT_BRAND=From Dotenv\nN8N_WEBHOOK_URL=https://hooks.example/dotenv\nN8N_WEBHOOK_SECRET=dotenv-secret\n")

	cfg, err := Load(path, envFile)
	require.NoError(t, err)
	assert.Equal(t, "From Dotenv", cfg.Output.Brand)
	assert.Equal(t, "https://hooks.example/dotenv", cfg.Contact.WebhookURL)
	assert.Equal(t, "dotenv-secret", cfg.Contact.WebhookSecret)

	t.Setenv("GROWTHKIT_BRAND", "From Env")
	t.Setenv("GROWTHKIT_WEBHOOK_URL", "https://hooks.example/env")
	cfg, err = Load(path, envFile)
	require.NoError(t, err)
	assert.Equal(t, "From Env", cfg.Output.Brand)
	// The growthkit name takes precedence over the legacy one.
	assert.Equal(t, "https://hooks.example/env", cfg.Contact.WebhookURL)
}

func TestEnvTypedValues(t *testing.T) {
	t.Setenv("GROWTHKIT_PAGE_BREAKS", "yes")
	t.Setenv("GROWTHKIT_METRICS_FONT", "maybe")
	t.Setenv("GROWTHKIT_RATE_WINDOW", "90s")
	t.Setenv("GROWTHKIT_RATE_MAX", "12")
	t.Setenv("GROWTHKIT_SES_TO", "a@x.test, b@x.test,")
	t.Setenv("GROWTHKIT_TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.True(t, cfg.Output.PageBreaks)
	assert.False(t, cfg.Output.MetricsFont, "unrecognized value keeps the default")
	assert.Equal(t, 90*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 12, cfg.RateLimit.Max)
	assert.Equal(t, []string{"a@x.test", "b@x.test"}, cfg.Contact.SESTo)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Server.TrustedProxies)
}

func TestEnvInvalidValues(t *testing.T) {
	t.Setenv("GROWTHKIT_RATE_WINDOW", "soon")
	_, err := Load("", "")
	assert.Error(t, err)

	t.Setenv("GROWTHKIT_RATE_WINDOW", "")
	t.Setenv("GROWTHKIT_RATE_MAX", "-1")
	_, err = Load("", "")
	assert.Error(t, err)
}

func TestAsBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", " yes ", "on"} {
		assert.True(t, asBool(v, false), v)
	}
	for _, v := range []string{"0", "false", "No", "off"} {
		assert.False(t, asBool(v, true), v)
	}
	assert.True(t, asBool("", true))
	assert.False(t, asBool("2", false))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Contact.Mode = ModeSES
	assert.Error(t, cfg.Validate())

	cfg.Contact.SESFrom = "a@x.test"
	cfg.Contact.SESTo = []string{"b@x.test"}
	assert.NoError(t, cfg.Validate())

	cfg.Contact.Mode = "carrier-pigeon"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.RateLimit.Max = 0
	assert.Error(t, cfg.Validate())
}
