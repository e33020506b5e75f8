package backend

import (
	"context"
	"fmt"

	"expenses/internal/amqp"
	"expenses/internal/auth"
	"expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/storage"
)

const tokenIssuer = "expenses"

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create implements Factory.Create. Optional integrations that fail to
// start are replaced by their local stand-ins with a warning.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}

	store, err := storage.Open(ctx, config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	publisher := f.createPublisher(ctx, config)

	sessions := auth.NewSessions(store, config.SessionTTL)
	tokens := auth.NewTokenIssuer(config.TokenSecret, tokenIssuer)
	accounts := services.NewAccountService(store, tokens, sessions, publisher, services.AccountConfig{
		BaseURL:         config.BaseURL,
		DefaultCurrency: config.DefaultCurrency,
	}, f.logger)

	res := &Result{
		Store:       store,
		Expenses:    services.NewExpenseService(store, config.ExpensePolicy, f.logger),
		Incomes:     services.NewIncomeService(store, config.IncomePolicy, f.logger),
		Summaries:   services.NewSummaryService(store, config.SummaryWindowDays),
		Preferences: services.NewPreferenceService(store, config.DefaultCurrency),
		Accounts:    accounts,
	}
	res.Cleanup = func() error {
		var errs []error
		if err := accounts.Close(); err != nil {
			errs = append(errs, fmt.Errorf("accounts: %w", err))
		}
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
		if len(errs) > 0 {
			return fmt.Errorf("close backend: %v", errs)
		}
		return nil
	}

	f.logger.InfoContext(ctx, "Initialized backend",
		"driver", store.Driver(),
		"amqp_enabled", config.AMQPURL != "")
	return res, nil
}

func (f *DefaultFactory) createPublisher(ctx context.Context, config Config) services.ActivationPublisher {
	fallback := amqp.NewLogPublisher(f.logger)
	if config.AMQPURL == "" {
		return fallback
	}

	client, err := amqp.Connect(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, config.AMQPConnAttempts)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, logging activation links instead",
			log.FieldError, err)
		return fallback
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
