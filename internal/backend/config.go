package backend

import (
	"errors"
	"fmt"
	"time"

	"expenses/internal/config"
	"expenses/internal/core"
	"expenses/internal/storage"
)

// Config is the subset of the application configuration the factory needs.
type Config struct {
	Storage storage.Options

	BaseURL           string
	TokenSecret       string
	SessionTTL        time.Duration
	DefaultCurrency   string
	SummaryWindowDays int
	ExpensePolicy     core.ValidationPolicy
	IncomePolicy      core.ValidationPolicy

	// AMQP is optional; without it activation links are logged.
	AMQPURL          string
	AMQPExchange     string
	AMQPQueue        string
	AMQPConnAttempts int
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	return Config{
		Storage: storage.Options{
			Driver:      appConfig.DBDriver,
			SQLitePath:  appConfig.SQLiteDBPath,
			DatabaseURL: appConfig.DatabaseURL,
		},

		BaseURL:           appConfig.BaseURL,
		TokenSecret:       appConfig.TokenSecret,
		SessionTTL:        appConfig.SessionTTL,
		DefaultCurrency:   appConfig.DefaultCurrency,
		SummaryWindowDays: appConfig.SummaryWindowDays,
		ExpensePolicy:     appConfig.ExpensePolicy,
		IncomePolicy:      appConfig.IncomePolicy,

		AMQPURL:          appConfig.AMQPURL,
		AMQPExchange:     appConfig.AMQPExchange,
		AMQPQueue:        appConfig.AMQPQueue,
		AMQPConnAttempts: 3,
	}, nil
}

// Validate checks what the factory cannot default.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case storage.DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("SQLite database path is required for the sqlite driver")
		}
	case storage.DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid database driver: %s", c.Storage.Driver)
	}
	if c.TokenSecret == "" {
		return errors.New("token secret is required")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return errors.New("AMQP exchange and queue are required when AMQP is enabled")
	}
	return nil
}
