package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/shiplog/internal/jira"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v, t.TempDir())
	require.NoError(t, BindEnv(v))
	return v
}

func TestLoad_Defaults(t *testing.T) {
	v := newViper(t)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, jira.FallbackBuiltin, cfg.Fallback)
	assert.Equal(t, 50, cfg.MaxResults)
	assert.Equal(t, 5, cfg.RatePerMinute)
	assert.Equal(t, 5, cfg.RateBurst)
	assert.Equal(t, 2025, cfg.CutoffYear)
	assert.True(t, cfg.SecureCookie)
	assert.False(t, cfg.UseDummyData)
	assert.Empty(t, cfg.AllowedEmails)
	assert.Equal(t, "https://api.mailgun.net", cfg.MailgunBaseURL)
	assert.Equal(t, "shiplog.db", filepath.Base(cfg.DBPath))
}

func TestLoad_UnprefixedEnvNames(t *testing.T) {
	t.Setenv("WHITELISTED_EMAILS", "a@example.com, b@example.com,,")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MAILGUN_API_KEY", "key-1")
	t.Setenv("MAILGUN_DOMAIN", "mg.example.com")
	t.Setenv("JIRA_DOMAIN", "acme.atlassian.net")
	t.Setenv("JIRA_EMAIL", "bot@example.com")
	t.Setenv("JIRA_API_TOKEN", "tok")
	t.Setenv("USE_DUMMY_DATA", "true")

	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.AllowedEmails)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.True(t, cfg.MailConfigured())
	assert.Equal(t, jira.Config{Domain: "acme.atlassian.net", Email: "bot@example.com", APIToken: "tok"}, cfg.Jira)
	assert.True(t, cfg.UseDummyData)
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	t.Setenv("SHIPLOG_AUTH_JWT_SECRET", "prefixed")
	t.Setenv("JWT_SECRET", "plain")
	t.Setenv("SHIPLOG_JIRA_FALLBACK", "snapshot")

	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.JWTSecret)
	assert.Equal(t, jira.FallbackSnapshot, cfg.Fallback)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  allowed_emails:
    - ada@example.com
    - grace@example.com
  otp_ttl: 5m
board:
  cutoff_year: 2024
`), 0644))

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"ada@example.com", "grace@example.com"}, cfg.AllowedEmails)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 2024, cfg.CutoffYear)
}

func TestLoad_InvalidValues(t *testing.T) {
	v := newViper(t)
	v.Set(KeyJiraFallback, "retry")
	_, err := Load(v)
	assert.ErrorContains(t, err, KeyJiraFallback)

	v = newViper(t)
	v.Set(KeyHTTPTimeout, "soon")
	_, err = Load(v)
	assert.ErrorContains(t, err, KeyHTTPTimeout)

	v = newViper(t)
	v.Set(KeyOTPTTL, "-1m")
	_, err = Load(v)
	assert.ErrorContains(t, err, "must be positive")
}

func TestValidate(t *testing.T) {
	cfg, err := Load(newViper(t))
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.JWTSecret = "x"
	assert.NoError(t, cfg.Validate())

	cfg.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestKeys_EnvNames(t *testing.T) {
	for _, k := range Keys {
		require.NotEmpty(t, k.EnvVars, k.Key)
		assert.Regexp(t, `^SHIPLOG_[A-Z_]+$`, k.EnvVars[0], k.Key)
	}
	assert.Equal(t, []string{"SHIPLOG_AUTH_JWT_SECRET", "JWT_SECRET"}, envNames(KeyJWTSecret, "JWT_SECRET"))
}
