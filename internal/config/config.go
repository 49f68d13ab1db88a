// Package config maps viper settings onto the typed shiplog configuration.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/joescharf/shiplog/internal/board"
	"github.com/joescharf/shiplog/internal/jira"
)

// EnvPrefix is prepended to every automatically bound variable.
const EnvPrefix = "SHIPLOG"

// Keys recognised by shiplog.
const (
	KeyStateDir       = "state_dir"
	KeyDBPath         = "db_path"
	KeyPort           = "port"
	KeyAllowedEmails  = "auth.allowed_emails"
	KeyJWTSecret      = "auth.jwt_secret"
	KeySecureCookie   = "auth.secure_cookie"
	KeyOTPTTL         = "auth.otp_ttl"
	KeyMailgunAPIKey  = "mailgun.api_key"
	KeyMailgunDomain  = "mailgun.domain"
	KeyMailgunBaseURL = "mailgun.base_url"
	KeyJiraDomain     = "jira.domain"
	KeyJiraEmail      = "jira.email"
	KeyJiraAPIToken   = "jira.api_token"
	KeyUseDummyData   = "jira.use_dummy_data"
	KeyJiraFallback   = "jira.fallback"
	KeyJiraMaxResults = "jira.max_results"
	KeySnapshotKeep   = "jira.snapshot_keep"
	KeyHTTPTimeout    = "http.timeout"
	KeyRatePerMinute  = "ratelimit.per_minute"
	KeyRateBurst      = "ratelimit.burst"
	KeyCutoffYear     = "board.cutoff_year"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
)

// KeyInfo describes a config key for display purposes. EnvVars lists every
// variable that can set the key, in precedence order.
type KeyInfo struct {
	Key     string
	EnvVars []string
	Secret  bool
}

// Keys is the ordered set shown by `shiplog config show`. Keys that the
// deployment environment already knew under an unprefixed name accept that
// name as well.
var Keys = []KeyInfo{
	{Key: KeyStateDir, EnvVars: envNames(KeyStateDir)},
	{Key: KeyDBPath, EnvVars: envNames(KeyDBPath)},
	{Key: KeyPort, EnvVars: envNames(KeyPort, "PORT")},
	{Key: KeyAllowedEmails, EnvVars: envNames(KeyAllowedEmails, "WHITELISTED_EMAILS")},
	{Key: KeyJWTSecret, EnvVars: envNames(KeyJWTSecret, "JWT_SECRET"), Secret: true},
	{Key: KeySecureCookie, EnvVars: envNames(KeySecureCookie)},
	{Key: KeyOTPTTL, EnvVars: envNames(KeyOTPTTL)},
	{Key: KeyMailgunAPIKey, EnvVars: envNames(KeyMailgunAPIKey, "MAILGUN_API_KEY"), Secret: true},
	{Key: KeyMailgunDomain, EnvVars: envNames(KeyMailgunDomain, "MAILGUN_DOMAIN")},
	{Key: KeyMailgunBaseURL, EnvVars: envNames(KeyMailgunBaseURL)},
	{Key: KeyJiraDomain, EnvVars: envNames(KeyJiraDomain, "JIRA_DOMAIN")},
	{Key: KeyJiraEmail, EnvVars: envNames(KeyJiraEmail, "JIRA_EMAIL")},
	{Key: KeyJiraAPIToken, EnvVars: envNames(KeyJiraAPIToken, "JIRA_API_TOKEN"), Secret: true},
	{Key: KeyUseDummyData, EnvVars: envNames(KeyUseDummyData, "USE_DUMMY_DATA")},
	{Key: KeyJiraFallback, EnvVars: envNames(KeyJiraFallback)},
	{Key: KeyJiraMaxResults, EnvVars: envNames(KeyJiraMaxResults)},
	{Key: KeySnapshotKeep, EnvVars: envNames(KeySnapshotKeep)},
	{Key: KeyHTTPTimeout, EnvVars: envNames(KeyHTTPTimeout)},
	{Key: KeyRatePerMinute, EnvVars: envNames(KeyRatePerMinute)},
	{Key: KeyRateBurst, EnvVars: envNames(KeyRateBurst)},
	{Key: KeyCutoffYear, EnvVars: envNames(KeyCutoffYear)},
	{Key: KeyLogLevel, EnvVars: envNames(KeyLogLevel)},
	{Key: KeyLogFormat, EnvVars: envNames(KeyLogFormat)},
}

// envNames returns SHIPLOG_<KEY> followed by any extra names.
func envNames(key string, extra ...string) []string {
	name := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	return append([]string{name}, extra...)
}

// SetDefaults registers defaults on v. configDir is the state directory.
func SetDefaults(v *viper.Viper, configDir string) {
	v.SetDefault(KeyStateDir, configDir)
	v.SetDefault(KeyDBPath, filepath.Join(configDir, "shiplog.db"))
	v.SetDefault(KeyPort, 8080)
	v.SetDefault(KeyAllowedEmails, "")
	v.SetDefault(KeyJWTSecret, "")
	v.SetDefault(KeySecureCookie, true)
	v.SetDefault(KeyOTPTTL, "10m")
	v.SetDefault(KeyMailgunAPIKey, "")
	v.SetDefault(KeyMailgunDomain, "")
	v.SetDefault(KeyMailgunBaseURL, "https://api.mailgun.net")
	v.SetDefault(KeyJiraDomain, "")
	v.SetDefault(KeyJiraEmail, "")
	v.SetDefault(KeyJiraAPIToken, "")
	v.SetDefault(KeyUseDummyData, false)
	v.SetDefault(KeyJiraFallback, string(jira.FallbackBuiltin))
	v.SetDefault(KeyJiraMaxResults, jira.DefaultMaxResults)
	v.SetDefault(KeySnapshotKeep, jira.DefaultSnapshotKeep)
	v.SetDefault(KeyHTTPTimeout, "30s")
	v.SetDefault(KeyRatePerMinute, 5)
	v.SetDefault(KeyRateBurst, 5)
	v.SetDefault(KeyCutoffYear, board.DefaultCutoffYear)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// BindEnv binds every key to its environment variables. Explicit binding
// keeps the unprefixed names working alongside SHIPLOG_*.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range Keys {
		args := append([]string{k.Key}, k.EnvVars...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env %s: %w", k.Key, err)
		}
	}
	return nil
}

// Config is the typed view of the settings.
type Config struct {
	StateDir      string
	DBPath        string
	Port          int
	AllowedEmails []string
	JWTSecret     string
	SecureCookie  bool
	OTPTTL        time.Duration

	MailgunAPIKey  string
	MailgunDomain  string
	MailgunBaseURL string

	Jira         jira.Config
	UseDummyData bool
	Fallback     jira.FallbackMode
	MaxResults   int
	SnapshotKeep int

	HTTPTimeout   time.Duration
	RatePerMinute int
	RateBurst     int
	CutoffYear    int

	LogLevel  string
	LogFormat string
}

// Load reads v into a Config. It fails on values that cannot be parsed.
func Load(v *viper.Viper) (*Config, error) {
	fallback, err := jira.ParseFallbackMode(v.GetString(KeyJiraFallback))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyJiraFallback, err)
	}
	otpTTL, err := parseDuration(v, KeyOTPTTL)
	if err != nil {
		return nil, err
	}
	timeout, err := parseDuration(v, KeyHTTPTimeout)
	if err != nil {
		return nil, err
	}

	return &Config{
		StateDir:       v.GetString(KeyStateDir),
		DBPath:         v.GetString(KeyDBPath),
		Port:           v.GetInt(KeyPort),
		AllowedEmails:  allowList(v.Get(KeyAllowedEmails)),
		JWTSecret:      v.GetString(KeyJWTSecret),
		SecureCookie:   v.GetBool(KeySecureCookie),
		OTPTTL:         otpTTL,
		MailgunAPIKey:  v.GetString(KeyMailgunAPIKey),
		MailgunDomain:  v.GetString(KeyMailgunDomain),
		MailgunBaseURL: v.GetString(KeyMailgunBaseURL),
		Jira: jira.Config{
			Domain:   v.GetString(KeyJiraDomain),
			Email:    v.GetString(KeyJiraEmail),
			APIToken: v.GetString(KeyJiraAPIToken),
		},
		UseDummyData:  v.GetBool(KeyUseDummyData),
		Fallback:      fallback,
		MaxResults:    v.GetInt(KeyJiraMaxResults),
		SnapshotKeep:  v.GetInt(KeySnapshotKeep),
		HTTPTimeout:   timeout,
		RatePerMinute: v.GetInt(KeyRatePerMinute),
		RateBurst:     v.GetInt(KeyRateBurst),
		CutoffYear:    v.GetInt(KeyCutoffYear),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFormat:     v.GetString(KeyLogFormat),
	}, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, raw)
	}
	return d, nil
}

// allowList accepts a comma-separated string or a YAML list. Entries are
// trimmed of surrounding whitespace; matching stays exact.
func allowList(raw any) []string {
	var parts []string
	switch val := raw.(type) {
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []any:
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("%s (JWT_SECRET) is required", KeyJWTSecret))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s: invalid port %d", KeyPort, c.Port))
	}
	if c.RatePerMinute <= 0 || c.RateBurst <= 0 {
		errs = append(errs, fmt.Errorf("ratelimit: per_minute and burst must be positive"))
	}
	return errors.Join(errs...)
}

// MailConfigured reports whether outbound email can be sent.
func (c *Config) MailConfigured() bool {
	return c.MailgunAPIKey != "" && c.MailgunDomain != ""
}
