package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"expenses/internal/core"
)

type Config struct {
	// HTTP Server
	Port           string
	BaseURL        string
	SecureCookies  bool
	TrustedProxies []string // CIDRs whose X-Forwarded-For is believed

	// Database
	DBDriver     string
	SQLiteDBPath string
	DatabaseURL  string

	// Accounts
	TokenSecret    string
	SessionTTL     time.Duration
	LoginRateLimit int

	// Ledger
	DefaultCurrency   string
	SummaryWindowDays int
	ExpensePolicy     core.ValidationPolicy
	IncomePolicy      core.ValidationPolicy

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	expense := core.DefaultExpensePolicy()
	income := core.DefaultIncomePolicy()

	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8081"),
		SecureCookies:  getEnvBool("SECURE_COOKIES", false),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		DBDriver:     getEnv("DB_DRIVER", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/expenses.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		TokenSecret:    getEnv("TOKEN_SECRET", ""),
		SessionTTL:     getEnvDuration("SESSION_TTL", 720*time.Hour),
		LoginRateLimit: getEnvInt("LOGIN_RATE_LIMIT", 10),

		DefaultCurrency:   getEnv("DEFAULT_CURRENCY", core.DefaultCurrency),
		SummaryWindowDays: getEnvInt("SUMMARY_WINDOW_DAYS", 180),
		ExpensePolicy: core.ValidationPolicy{
			RequirePositive: getEnvBool("EXPENSE_REQUIRE_POSITIVE", expense.RequirePositive),
			RejectFuture:    getEnvBool("EXPENSE_REJECT_FUTURE", expense.RejectFuture),
		},
		IncomePolicy: core.ValidationPolicy{
			RequirePositive: getEnvBool("INCOME_REQUIRE_POSITIVE", income.RequirePositive),
			RejectFuture:    getEnvBool("INCOME_REJECT_FUTURE", income.RejectFuture),
		},

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expenses"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "activation_mail"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	errors = append(errors, c.databaseErrors()...)

	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid base URL '%s': must be an absolute URL", c.BaseURL))
	}

	if c.TokenSecret == "" {
		errors = append(errors, "TOKEN_SECRET is required")
	} else if len(c.TokenSecret) < 16 {
		errors = append(errors, "TOKEN_SECRET must be at least 16 characters")
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	if c.LoginRateLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid login rate limit %d: must not be negative", c.LoginRateLimit))
	}

	if len(c.DefaultCurrency) != 3 || strings.ToUpper(c.DefaultCurrency) != c.DefaultCurrency {
		errors = append(errors, fmt.Sprintf("invalid default currency '%s': must be a 3-letter uppercase code", c.DefaultCurrency))
	}

	if c.SummaryWindowDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid summary window %d: must be at least 1 day", c.SummaryWindowDays))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateDatabase checks only the settings needed to reach the database.
// The admin CLI uses it so that maintenance does not need server secrets.
func (c *Config) ValidateDatabase() error {
	if errors := c.databaseErrors(); len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) databaseErrors() []string {
	var errors []string
	switch c.DBDriver {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLITE_DB_PATH cannot be empty when DB_DRIVER is sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when DB_DRIVER is postgres")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of [sqlite postgres]", c.DBDriver))
	}
	return errors
}

// ExportConfigured reports whether enough Google settings are present to
// export to a spreadsheet.
func (c *Config) ExportConfigured() bool {
	return c.GoogleSpreadsheetID != "" &&
		(c.GoogleServiceAccountFile != "" || c.GoogleServiceAccountJSON != "")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping blank items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
