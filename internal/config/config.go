// apps/go-server/internal/config/config.go
//
// Process configuration read from the environment (and .env via godotenv in main).
//
// Variables (defaults in parentheses):
//   PORT (5175), LOG_LEVEL (info), DB_PATH (./data/app.db), MIGRATIONS_DIR (sql),
//   CLIENT_ORIGIN (http://localhost:5173), JWT_SECRET, JWT_EXPIRES_DAYS (14),
//   COOKIE_NAME (minesweeper_token), DAILY_SALT, DEFAULT_PRESET (intermediate),
//   TICK_INTERVAL_MS (1000), STRICT_WIN (false), NODE_ENV,
//   SESSION_IDLE_TTL_MIN (120), FINISHED_TTL_MIN (15), SWEEP_INTERVAL_SEC (60).
//
// PRESETS_FILE is read directly by the presets package.

package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          string
	LogLevel      string
	DBPath        string
	MigrationsDir string

	ClientOrigin   string
	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	AnonCookieName string
	Production     bool

	DailySalt     string
	DefaultPreset string
	TickInterval  time.Duration
	StrictWin     bool

	// Live sessions are evicted after SessionIdleTTL without a move, or
	// FinishedTTL after the game ended. The sweeper runs every SweepInterval.
	SessionIdleTTL time.Duration
	FinishedTTL    time.Duration
	SweepInterval  time.Duration
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// getenvPositive is getenvInt scaled to a duration; values <= 0 fall back to def.
func getenvPositive(key string, def int, unit time.Duration) time.Duration {
	n := getenvInt(key, def)
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * unit
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Load reads the environment. Unparseable numbers fall back to their defaults.
func Load() Config {
	return Config{
		Port:          getEnv("PORT", "5175"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBPath:        getEnv("DB_PATH", "./data/app.db"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "sql"),

		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresDays: getenvInt("JWT_EXPIRES_DAYS", 14),
		CookieName:     getEnv("COOKIE_NAME", "minesweeper_token"),
		AnonCookieName: "minesweeper_anon",
		Production:     os.Getenv("NODE_ENV") == "production",

		DailySalt:     getEnv("DAILY_SALT", "local_dev_salt"),
		DefaultPreset: getEnv("DEFAULT_PRESET", "intermediate"),
		TickInterval:  getenvPositive("TICK_INTERVAL_MS", 1000, time.Millisecond),
		StrictWin:     getenvBool("STRICT_WIN", false),

		SessionIdleTTL: getenvPositive("SESSION_IDLE_TTL_MIN", 120, time.Minute),
		FinishedTTL:    getenvPositive("FINISHED_TTL_MIN", 15, time.Minute),
		SweepInterval:  getenvPositive("SWEEP_INTERVAL_SEC", 60, time.Second),
	}
}
