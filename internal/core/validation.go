package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidationPolicy selects the optional checks applied to a ledger.
type ValidationPolicy struct {
	RequirePositive bool
	RejectFuture    bool
}

// DefaultExpensePolicy accepts any parseable amount and any date.
func DefaultExpensePolicy() ValidationPolicy {
	return ValidationPolicy{}
}

// DefaultIncomePolicy rejects non-positive amounts and future dates.
func DefaultIncomePolicy() ValidationPolicy {
	return ValidationPolicy{RequirePositive: true, RejectFuture: true}
}

// ExpenseInput is the raw form submission for an expense.
type ExpenseInput struct {
	Amount      string
	Description string
	Category    string
	Date        string
}

// IncomeInput is the raw form submission for an income entry.
type IncomeInput struct {
	Amount      string
	Description string
	Source      string
	Date        string
}

// CheckAmount parses a submitted amount and applies the sign rule.
func (p ValidationPolicy) CheckAmount(raw string) (decimal.Decimal, error) {
	amount, err := ParseAmount(raw)
	switch {
	case errors.Is(err, ErrMissingAmount):
		return decimal.Zero, invalid("amount", "Amount is required", err)
	case err != nil:
		return decimal.Zero, invalid("amount", "Invalid amount", err)
	}
	if p.RequirePositive && !amount.IsPositive() {
		return decimal.Zero, invalid("amount", "Amount must be greater than zero.", ErrNonPositiveAmount)
	}
	return amount, nil
}

// CheckDate parses a submitted date and applies the future-date rule.
func (p ValidationPolicy) CheckDate(raw string, today Date) (Date, error) {
	d, err := ParseDate(raw)
	if err != nil {
		return Date{}, invalid("date", "Invalid date format", err)
	}
	if p.RejectFuture && d.After(today.Time) {
		return Date{}, invalid("date", "Date cannot be in the future.", ErrFutureDate)
	}
	return d, nil
}

// ParseExpense validates an expense submission. Fields are checked in
// order amount, description, date; the first failure is returned. The
// description is stored as submitted. The category name is only trimmed:
// resolving it needs the registry.
func (p ValidationPolicy) ParseExpense(in ExpenseInput, today Date) (Expense, error) {
	amount, err := p.CheckAmount(in.Amount)
	if err != nil {
		return Expense{}, err
	}
	if strings.TrimSpace(in.Description) == "" {
		return Expense{}, invalid("description", "Description is required", ErrEmptyDescription)
	}
	date, err := p.CheckDate(in.Date, today)
	if err != nil {
		return Expense{}, err
	}
	return Expense{
		Amount:      amount,
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		Date:        date,
	}, nil
}

// ParseIncome validates an income submission. Description and source are
// optional.
func (p ValidationPolicy) ParseIncome(in IncomeInput, today Date) (Income, error) {
	amount, err := p.CheckAmount(in.Amount)
	if err != nil {
		return Income{}, err
	}
	date, err := p.CheckDate(in.Date, today)
	if err != nil {
		return Income{}, err
	}
	return Income{
		Amount:      amount,
		Date:        date,
		Description: in.Description,
		Source:      ParseIncomeSource(in.Source),
	}, nil
}

// UnknownCategory is the rejection for a category name that does not exist.
func UnknownCategory() error {
	return invalid("category", "Selected category does not exist", ErrUnknownCategory)
}
