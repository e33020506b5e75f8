package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the only accepted textual form of a ledger date.
const DateLayout = "2006-01-02"

// DefaultCurrency is assigned to every freshly provisioned preference.
const DefaultCurrency = "USD"

type (
	// Date is a calendar day stored at UTC midnight.
	Date struct {
		time.Time
	}

	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		Active       bool
		CreatedAt    time.Time
	}

	// Category is a shared label; it is not owned by any user.
	Category struct {
		ID   int64
		Name string
	}

	UserPreference struct {
		ID       int64
		OwnerID  int64
		Currency string
	}

	Expense struct {
		ID          int64
		OwnerID     int64
		Amount      decimal.Decimal
		CategoryID  int64
		Category    string // Category name, resolved on read
		Description string
		Date        Date
	}

	Income struct {
		ID          int64
		OwnerID     int64
		Amount      decimal.Decimal
		Date        Date
		Description string
		Source      IncomeSource
	}
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrMissingAmount      = errors.New("missing amount")
	ErrNonPositiveAmount  = errors.New("amount must be positive")
	ErrInvalidDate        = errors.New("invalid date")
	ErrFutureDate         = errors.New("date in the future")
	ErrEmptyDescription   = errors.New("empty description")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrCategoryInUse      = errors.New("category in use")
	ErrDuplicate          = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("inactive user")
)

// ValidationError is a user-facing rejection of a submitted field.
// It matches both ErrValidation and the specific cause with errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

func invalid(field, message string, cause error) error {
	return &ValidationError{Field: field, Message: message, Err: cause}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// MonthStart truncates the date to the first day of its month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}
