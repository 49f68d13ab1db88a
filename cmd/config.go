package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/joescharf/shiplog/internal/config"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "shiplog"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage shiplog configuration.

Running bare 'shiplog config' is the same as 'shiplog config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
// Secrets are left out on purpose; set them through the environment.
const configTemplate = `# shiplog configuration
# See: shiplog config show (for effective values and sources)

# State/data directory (default: ~/.config/shiplog)
# state_dir: {{ .StateDir }}

# SQLite database path for board snapshots (default: ~/.config/shiplog/shiplog.db)
# db_path: {{ .DBPath }}

# HTTP listen port (env: PORT)
port: {{ .Port }}

auth:
  # Addresses allowed to request a one-time passcode (env: WHITELISTED_EMAILS)
  allowed_emails: "{{ .AllowedEmails }}"
  # Session signing secret. Prefer JWT_SECRET in the environment.
  # jwt_secret: ""
  # Mark the session cookie Secure (disable only for plain-HTTP local use)
  secure_cookie: {{ .SecureCookie }}
  # Passcode lifetime
  otp_ttl: "{{ .OTPTTL }}"

mailgun:
  # api_key: ""   (env: MAILGUN_API_KEY)
  domain: "{{ .MailgunDomain }}"
  base_url: "{{ .MailgunBaseURL }}"

jira:
  # Site host, e.g. example.atlassian.net (env: JIRA_DOMAIN)
  domain: "{{ .JiraDomain }}"
  email: "{{ .JiraEmail }}"
  # api_token: ""   (env: JIRA_API_TOKEN)
  # Serve the built-in dataset instead of calling Jira (env: USE_DUMMY_DATA)
  use_dummy_data: {{ .UseDummyData }}
  # What to serve when Jira fails: builtin, snapshot or none
  fallback: "{{ .Fallback }}"
  max_results: {{ .MaxResults }}
  # Number of board snapshots to keep
  snapshot_keep: {{ .SnapshotKeep }}

http:
  # Timeout for outbound calls to Jira and Mailgun
  timeout: "{{ .HTTPTimeout }}"

ratelimit:
  # Login attempts per client IP
  per_minute: {{ .RatePerMinute }}
  burst: {{ .RateBurst }}

board:
  # Issues created before this year are hidden
  cutoff_year: {{ .CutoffYear }}

log:
  # debug, info, warn or error
  level: "{{ .LogLevel }}"
  # console or json
  format: "{{ .LogFormat }}"
`

type configTemplateData struct {
	StateDir       string
	DBPath         string
	Port           int
	AllowedEmails  string
	SecureCookie   bool
	OTPTTL         string
	MailgunDomain  string
	MailgunBaseURL string
	JiraDomain     string
	JiraEmail      string
	UseDummyData   bool
	Fallback       string
	MaxResults     int
	SnapshotKeep   int
	HTTPTimeout    string
	RatePerMinute  int
	RateBurst      int
	CutoffYear     int
	LogLevel       string
	LogFormat      string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		StateDir:       viper.GetString(config.KeyStateDir),
		DBPath:         viper.GetString(config.KeyDBPath),
		Port:           viper.GetInt(config.KeyPort),
		AllowedEmails:  viper.GetString(config.KeyAllowedEmails),
		SecureCookie:   viper.GetBool(config.KeySecureCookie),
		OTPTTL:         viper.GetString(config.KeyOTPTTL),
		MailgunDomain:  viper.GetString(config.KeyMailgunDomain),
		MailgunBaseURL: viper.GetString(config.KeyMailgunBaseURL),
		JiraDomain:     viper.GetString(config.KeyJiraDomain),
		JiraEmail:      viper.GetString(config.KeyJiraEmail),
		UseDummyData:   viper.GetBool(config.KeyUseDummyData),
		Fallback:       viper.GetString(config.KeyJiraFallback),
		MaxResults:     viper.GetInt(config.KeyJiraMaxResults),
		SnapshotKeep:   viper.GetInt(config.KeySnapshotKeep),
		HTTPTimeout:    viper.GetString(config.KeyHTTPTimeout),
		RatePerMinute:  viper.GetInt(config.KeyRatePerMinute),
		RateBurst:      viper.GetInt(config.KeyRateBurst),
		CutoffYear:     viper.GetInt(config.KeyCutoffYear),
		LogLevel:       viper.GetString(config.KeyLogLevel),
		LogFormat:      viper.GetString(config.KeyLogFormat),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	fileValues := readConfigFileValues(cfgPath)

	for _, k := range config.Keys {
		val := displayValue(k, viper.Get(k.Key))
		source := detectSource(k.Key, k.EnvVars, fileValues)
		fmt.Fprintf(ui.Out, "  %-22s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// displayValue masks secrets, showing only whether they are set.
func displayValue(k config.KeyInfo, val any) any {
	if !k.Secret {
		return val
	}
	if s, _ := val.(string); s != "" {
		return "********"
	}
	return "(unset)"
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from. The first
// variable set in envVars wins.
func detectSource(key string, envVars []string, fileValues map[string]bool) string {
	for _, env := range envVars {
		if _, ok := os.LookupEnv(env); ok {
			return fmt.Sprintf("(env: %s)", env)
		}
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set, set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'shiplog config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
