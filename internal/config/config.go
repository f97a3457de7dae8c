// Package config provides configuration management for complaintsync.
//
// This package handles loading configuration from environment variables,
// validating required settings, and providing defaults for optional
// parameters. Configuration is loaded once at startup and is not modified
// afterwards.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (highest priority)
//  2. External .env file, or the file passed with --env-file
//  3. Embedded defaults.env (fallback, included in binary)
//  4. Hard-coded defaults (lowest priority)
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// embeddedEnv contains defaults.env embedded at build time.
//
// It only carries non-secret values (portal URL, selectors, sheet names)
// so the binary works with nothing but credentials in the environment.
//
//go:embed defaults.env
var embeddedEnv string

// Provider names accepted by INTERPRET_PROVIDER.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Config holds all application configuration.
type Config struct {
	// Outlets to harvest, in order
	OutletIDs []string

	// Portal
	PortalURL               string
	StorageStatePath        string // Playwright-style persisted login
	UserDataDir             string
	ChromePath              string
	Headless                bool
	NavigationTimeout       time.Duration
	SelectTimeout           time.Duration // outlet selection settles
	ListTimeout             time.Duration // complaint list visible
	DetailTimeout           time.Duration // detail text settles
	CloseTimeout            time.Duration // detail dismissed
	PollInterval            time.Duration
	PollMaxInterval         time.Duration
	ReloadBetweenComplaints bool
	Selectors               Selectors

	// Interpreter
	InterpretProvider string
	GeminiAPIKey      string
	GeminiModel       string
	AnthropicAPIKey   string
	AnthropicModel    string
	InterpretTimeout  time.Duration
	InterpretRPM      int

	// Spreadsheet
	CredentialsFile string
	SpreadsheetID   string
	SpreadsheetName string
	WorksheetName   string

	// Debug mode - logs rows instead of appending them
	DryRun bool

	// Telegram configuration (optional)
	TelegramBotToken string
	TelegramChatID   string

	// Optional PNG of the rows appended in this run
	SummaryImagePath string

	LogLevel  string
	LogFormat string
}

// Selectors locates portal elements. Values starting with "/" are XPath,
// everything else is a CSS selector.
type Selectors struct {
	OutletDropdown string
	OutletInput    string
	ApplyButton    string
	ComplaintEntry string // CSS, filtered by EntryText
	EntryText      string
	OrderDetails   string
	DetailRoot     string
	CloseControl   string
	DetailPane     string
}

// LoadConfig loads configuration from the layered sources.
//
// Loading process:
//  1. Parse embedded defaults.env and set values that are not in the environment
//  2. Load the external env file, if any (missing file is not an error)
//  3. Read environment variables into the struct
//  4. Validate
//
// envFile may be empty, in which case ./.env is tried.
func LoadConfig(envFile string) (*Config, error) {
	// Step 1: embedded defaults only fill gaps.
	// Step 2 runs first so the external file wins over the embedded one.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, eris.Wrapf(err, "config: load env file %s", envFile)
		}
	} else {
		_ = godotenv.Load()
	}

	envMap, err := godotenv.Unmarshal(embeddedEnv)
	if err == nil {
		for k, v := range envMap {
			if _, ok := os.LookupEnv(k); !ok {
				os.Setenv(k, v)
			}
		}
	}

	cfg := &Config{
		OutletIDs: getEnvList("OUTLET_IDS"),

		PortalURL:               getEnvOrDefault("PORTAL_URL", "https://www.zomato.com/partners/onlineordering/customerIssues/"),
		StorageStatePath:        getEnvOrDefault("STORAGE_STATE_PATH", "zomato_login.json"),
		UserDataDir:             os.Getenv("USER_DATA_DIR"),
		ChromePath:              os.Getenv("CHROME_PATH"),
		Headless:                getEnvBool("HEADLESS", true),
		NavigationTimeout:       getEnvDuration("NAVIGATION_TIMEOUT", 60*time.Second),
		SelectTimeout:           getEnvDuration("SELECT_TIMEOUT", 15*time.Second),
		ListTimeout:             getEnvDuration("LIST_TIMEOUT", 20*time.Second),
		DetailTimeout:           getEnvDuration("DETAIL_TIMEOUT", 20*time.Second),
		CloseTimeout:            getEnvDuration("CLOSE_TIMEOUT", 10*time.Second),
		PollInterval:            getEnvDuration("POLL_INTERVAL", 250*time.Millisecond),
		PollMaxInterval:         getEnvDuration("POLL_MAX_INTERVAL", 2*time.Second),
		ReloadBetweenComplaints: getEnvBool("RELOAD_BETWEEN_COMPLAINTS", false),
		Selectors: Selectors{
			OutletDropdown: os.Getenv("PORTAL_DROPDOWN_SELECTOR"),
			OutletInput:    os.Getenv("PORTAL_INPUT_SELECTOR"),
			ApplyButton:    os.Getenv("PORTAL_APPLY_SELECTOR"),
			ComplaintEntry: os.Getenv("PORTAL_ENTRY_SELECTOR"),
			EntryText:      getEnvOrDefault("PORTAL_ENTRY_TEXT", "View details"),
			OrderDetails:   os.Getenv("PORTAL_ORDER_DETAILS_SELECTOR"),
			DetailRoot:     getEnvOrDefault("PORTAL_DETAIL_SELECTOR", "body"),
			CloseControl:   os.Getenv("PORTAL_CLOSE_SELECTOR"),
			DetailPane:     os.Getenv("PORTAL_DETAIL_PANE_SELECTOR"),
		},

		InterpretProvider: strings.ToLower(getEnvOrDefault("INTERPRET_PROVIDER", ProviderGemini)),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    getEnvOrDefault("ANTHROPIC_MODEL", "claude-haiku-4-5-20251001"),
		InterpretTimeout:  getEnvDuration("INTERPRET_TIMEOUT", 60*time.Second),
		InterpretRPM:      getEnvInt("INTERPRET_RPM", 30),

		CredentialsFile: getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", "service_account.json"),
		SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
		SpreadsheetName: os.Getenv("SPREADSHEET_NAME"),
		WorksheetName:   getEnvOrDefault("WORKSHEET_NAME", "Zomato Complaints"),

		DryRun: getEnvBool("DRY_RUN", false),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),

		SummaryImagePath: os.Getenv("SUMMARY_IMAGE_PATH"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "console"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present and values are sensible.
//
// Validation rules:
//   - At least one outlet ID
//   - Portal URL and worksheet name non-empty
//   - Spreadsheet ID or spreadsheet name set
//   - API key present for the selected interpreter provider
//   - Timeouts positive, rate limit at least 1
func (c *Config) Validate() error {
	if len(c.OutletIDs) == 0 {
		return fmt.Errorf("OUTLET_IDS environment variable is required")
	}
	if c.PortalURL == "" {
		return fmt.Errorf("PORTAL_URL cannot be empty")
	}

	switch c.InterpretProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
		}
	default:
		return fmt.Errorf("INTERPRET_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderAnthropic, c.InterpretProvider)
	}

	if c.SpreadsheetID == "" && c.SpreadsheetName == "" {
		return fmt.Errorf("SPREADSHEET_ID or SPREADSHEET_NAME is required")
	}
	if c.WorksheetName == "" {
		return fmt.Errorf("WORKSHEET_NAME cannot be empty")
	}

	durations := []struct {
		key string
		val time.Duration
	}{
		{"NAVIGATION_TIMEOUT", c.NavigationTimeout},
		{"SELECT_TIMEOUT", c.SelectTimeout},
		{"LIST_TIMEOUT", c.ListTimeout},
		{"DETAIL_TIMEOUT", c.DetailTimeout},
		{"CLOSE_TIMEOUT", c.CloseTimeout},
		{"POLL_INTERVAL", c.PollInterval},
		{"INTERPRET_TIMEOUT", c.InterpretTimeout},
	}
	for _, d := range durations {
		if d.val <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.key, d.val)
		}
	}
	if c.PollMaxInterval < c.PollInterval {
		return fmt.Errorf("POLL_MAX_INTERVAL (%s) must not be below POLL_INTERVAL (%s)", c.PollMaxInterval, c.PollInterval)
	}
	if c.InterpretRPM < 1 {
		return fmt.Errorf("INTERPRET_RPM must be at least 1, got %d", c.InterpretRPM)
	}

	return nil
}

// InitLogger builds the global zap logger. "console" selects the
// development encoder, anything else JSON.
func InitLogger(level, format string) error {
	var zapCfg zap.Config
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(lvl)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Helper functions for environment variable parsing

// getEnvOrDefault returns the environment variable value or a default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an integer or a default if not set/invalid
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a default if not set/invalid.
//
// Accepts standard Go duration strings like "5s", "10m", "1h30m"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvBool accepts anything strconv.ParseBool does
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks
func getEnvList(key string) []string {
	return SplitList(os.Getenv(key))
}

// SplitList splits a comma separated list, trimming items and dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
