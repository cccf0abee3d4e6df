package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvHome          = "MIMIC_HOME"
	EnvBotUserID     = "MIMIC_BOT_USER_ID"
	EnvSlackToken    = "MIMIC_SLACK_BOT_TOKEN"
	EnvSigningSecret = "MIMIC_SLACK_SIGNING_SECRET"
	EnvSlackAPIURL   = "MIMIC_SLACK_API_URL"
	EnvLogLevel      = "MIMIC_LOG_LEVEL"
	EnvPort          = "PORT"
)

// Config holds application configuration.
type Config struct {
	// Bind is the HTTP listen address for `mimic serve`
	Bind string `json:"bind,omitempty"`

	// Port is the HTTP listen port for `mimic serve`
	Port int `json:"port,omitempty"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `json:"log_level,omitempty"`

	// BotUserID is the Slack user ID of the bot itself. Mentions of this ID
	// trigger generation; without it the bot never answers.
	BotUserID string `json:"bot_user_id,omitempty"`

	// SlackBotToken is the xoxb- token used for chat.postMessage and users.info.
	// Prefer setting it through MIMIC_SLACK_BOT_TOKEN or the .env file.
	SlackBotToken string `json:"slack_bot_token,omitempty"`

	// SlackSigningSecret verifies inbound webhook requests.
	// Empty disables verification (local testing only).
	SlackSigningSecret string `json:"slack_signing_secret,omitempty"`

	// SlackAPIURL is the Web API base URL
	SlackAPIURL string `json:"slack_api_url,omitempty"`

	// DisableIngest stops storing ordinary channel messages from the webhook.
	DisableIngest bool `json:"disable_ingest,omitempty"`

	// MaxLineTokens caps every random walk during generation
	MaxLineTokens int `json:"max_line_tokens,omitempty"`

	// HaikuYearMin and HaikuYearMax bound the attribution year, inclusive
	HaikuYearMin int `json:"haiku_year_min,omitempty"`
	HaikuYearMax int `json:"haiku_year_max,omitempty"`

	// DedupCapacity is how many recent webhook event IDs are remembered
	DedupCapacity int `json:"dedup_capacity,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type names ("message", "mimic") to disable.
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Bind:          "127.0.0.1",
		Port:          3000,
		LogLevel:      "info",
		SlackAPIURL:   "https://slack.com/api",
		MaxLineTokens: 64,
		HaikuYearMin:  1644,
		HaikuYearMax:  1900,
		DedupCapacity: 10000,
	}
}

// BaseDir returns $MIMIC_HOME, or ~/.mimic.
func BaseDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(EnvHome)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mimic"), nil
}

// Load loads configuration from baseDir/config.json, then applies
// environment overrides. A baseDir/.env file, if present, is loaded into the
// environment first without replacing variables that are already set.
// Returns default config if config.json doesn't exist.
func Load(baseDir string) (*Config, error) {
	envPath := filepath.Join(baseDir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, err
		}
	}

	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// applyEnv overrides cfg with any non-empty environment variables.
func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		EnvBotUserID:     &cfg.BotUserID,
		EnvSlackToken:    &cfg.SlackBotToken,
		EnvSigningSecret: &cfg.SlackSigningSecret,
		EnvSlackAPIURL:   &cfg.SlackAPIURL,
		EnvLogLevel:      &cfg.LogLevel,
	}
	for name, dst := range strs {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("PORT must be an integer")
		}
		cfg.Port = port
	}
	return nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Strings: overlay wins if non-empty
	result.Bind = firstString(overlay.Bind, base.Bind)
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)
	result.BotUserID = firstString(overlay.BotUserID, base.BotUserID)
	result.SlackBotToken = firstString(overlay.SlackBotToken, base.SlackBotToken)
	result.SlackSigningSecret = firstString(overlay.SlackSigningSecret, base.SlackSigningSecret)
	result.SlackAPIURL = firstString(overlay.SlackAPIURL, base.SlackAPIURL)

	// Ints: overlay wins if non-zero
	result.Port = firstInt(overlay.Port, base.Port)
	result.MaxLineTokens = firstInt(overlay.MaxLineTokens, base.MaxLineTokens)
	result.HaikuYearMin = firstInt(overlay.HaikuYearMin, base.HaikuYearMin)
	result.HaikuYearMax = firstInt(overlay.HaikuYearMax, base.HaikuYearMax)
	result.DedupCapacity = firstInt(overlay.DedupCapacity, base.DedupCapacity)
	result.DBMaxOpenConns = firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	// Booleans: overlay wins if true, else base
	result.DisableIngest = base.DisableIngest || overlay.DisableIngest

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstString(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func firstInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
