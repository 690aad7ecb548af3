// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes bot settings such as
// owner identities, the command prefix, quota limits, protection windows,
// upstream API access, and logging.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// APIConfig defines access to the upstream fun/meta API.
type APIConfig struct {
	BaseURL string        // API_BASE_URL
	Key     string        // API_KEY, sent as the apikey query parameter
	Timeout time.Duration // API_TIMEOUT per-request budget
	RPS     float64       // API_RPS outbound tokens per second (>= 0)
	Burst   int           // API_BURST bucket size (>= 1)
}

// IdentityConfig defines the bot's presented identity.
type IdentityConfig struct {
	BotName         string // BOT_NAME
	OwnerName       string // OWNER_NAME
	StickerPackname string // STICKER_PACKNAME
	StickerAuthor   string // STICKER_AUTHOR
}

// ToggleConfig seeds the runtime switches owners can flip from chat.
type ToggleConfig struct {
	AntiCall         bool // ANTI_CALL
	CallBlock        bool // CALL_BLOCK also block rejected callers
	AutoReactGroup   bool // AUTO_REACT_GROUP
	SaveStatus       bool // SAVE_STATUS
	AntiDelete       bool // ANTI_DELETE
	AntiStatusDelete bool // ANTI_STATUS_DELETE
}

// Config holds all configuration values for the application.
type Config struct {
	// Access
	OwnerNumbers  []string // OWNER_NUMBERS, comma separated, digits or formatted
	CommandPrefix string   // COMMAND_PREFIX, e.g. "."
	PublicMode    bool     // PUBLIC_MODE, false starts the bot owner-only

	// Quota
	DefaultLimit int // DEFAULT_LIMIT daily command uses per user

	// Storage
	DBPath string // SQLite path; empty runs memory-only

	// Protection
	SpamWindow     time.Duration // SPAM_WINDOW sliding window for burst detection
	SpamThreshold  int           // SPAM_THRESHOLD events in window that trigger
	RecallCapacity int           // RECALL_CAPACITY retained messages for anti-delete
	MetadataTTL    time.Duration // METADATA_TTL group roster cache freshness

	// Admin HTTP
	AdminPort    string        // ADMIN_PORT for /healthz, /status, /metrics; empty disables
	GinMode      string        // GIN_MODE debug|release|test
	ReadTimeout  time.Duration // READ_TIMEOUT for the admin server
	WriteTimeout time.Duration // WRITE_TIMEOUT for the admin server

	// Logging
	LogLevel  string // LOG_LEVEL debug|info|warn|error|fatal|panic
	LogPretty bool   // LOG_PRETTY pretty console logs in dev

	API      APIConfig
	Identity IdentityConfig
	Toggles  ToggleConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Access
		OwnerNumbers:  splitCSV(getenv("OWNER_NUMBERS", "")),
		CommandPrefix: getenv("COMMAND_PREFIX", "."),
		PublicMode:    getbool("PUBLIC_MODE", true),

		// Quota
		DefaultLimit: getint("DEFAULT_LIMIT", 25),

		// Storage
		DBPath: getenv("DB_PATH", "bot.db"),

		// Protection
		SpamWindow:     getdur("SPAM_WINDOW", 8*time.Second),
		SpamThreshold:  getint("SPAM_THRESHOLD", 6),
		RecallCapacity: getint("RECALL_CAPACITY", 4096),
		MetadataTTL:    getdur("METADATA_TTL", time.Minute),

		// Admin HTTP
		AdminPort:    getenv("ADMIN_PORT", ""),
		GinMode:      strings.ToLower(getenv("GIN_MODE", "release")),
		ReadTimeout:  getdur("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getdur("WRITE_TIMEOUT", 20*time.Second),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		API: APIConfig{
			BaseURL: getenv("API_BASE_URL", ""),
			Key:     getenv("API_KEY", ""),
			Timeout: getdur("API_TIMEOUT", 30*time.Second),
			RPS:     getfloat("API_RPS", 5.0),
			Burst:   getint("API_BURST", 10),
		},
		Identity: IdentityConfig{
			BotName:         getenv("BOT_NAME", "wabot"),
			OwnerName:       getenv("OWNER_NAME", ""),
			StickerPackname: getenv("STICKER_PACKNAME", "wabot"),
			StickerAuthor:   getenv("STICKER_AUTHOR", "wabot"),
		},
		Toggles: ToggleConfig{
			AntiCall:         getbool("ANTI_CALL", false),
			CallBlock:        getbool("CALL_BLOCK", false),
			AutoReactGroup:   getbool("AUTO_REACT_GROUP", false),
			SaveStatus:       getbool("SAVE_STATUS", false),
			AntiDelete:       getbool("ANTI_DELETE", false),
			AntiStatusDelete: getbool("ANTI_STATUS_DELETE", false),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	cfg.CommandPrefix = strings.TrimSpace(cfg.CommandPrefix)
	for i, n := range cfg.OwnerNumbers {
		cfg.OwnerNumbers[i] = digitsOnly(n)
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if len(cfg.OwnerNumbers) == 0 {
		return cfg, errors.New("OWNER_NUMBERS must list at least one number")
	}
	if cfg.CommandPrefix == "" {
		return cfg, errors.New("COMMAND_PREFIX must not be empty")
	}
	if cfg.DefaultLimit < 0 {
		return cfg, errors.New("DEFAULT_LIMIT must be >= 0")
	}
	if cfg.SpamWindow <= 0 {
		return cfg, errors.New("SPAM_WINDOW must be a positive duration")
	}
	if cfg.SpamThreshold < 1 {
		return cfg, errors.New("SPAM_THRESHOLD must be >= 1")
	}
	if cfg.RecallCapacity < 1 {
		return cfg, errors.New("RECALL_CAPACITY must be >= 1")
	}
	if cfg.MetadataTTL <= 0 {
		return cfg, errors.New("METADATA_TTL must be a positive duration")
	}
	if cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.API.Timeout <= 0 {
		return cfg, errors.New("API_TIMEOUT must be a positive duration")
	}
	if cfg.API.RPS < 0 {
		return cfg, errors.New("API_RPS must be >= 0")
	}
	if cfg.API.Burst < 1 {
		return cfg, errors.New("API_BURST must be >= 1")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// digitsOnly strips everything but digits so formatted numbers in the
// environment match JID user parts.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
