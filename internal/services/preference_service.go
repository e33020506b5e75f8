package services

import (
	"context"
	"errors"
	"fmt"

	"expenses/internal/core"
	"expenses/internal/storage"
)

// Currency is a selectable preference value.
type Currency struct {
	Code string
	Name string
}

// Currencies is the fixed list offered on the preferences page.
var Currencies = []Currency{
	{"AUD", "Australian Dollar"},
	{"BRL", "Brazilian Real"},
	{"CAD", "Canadian Dollar"},
	{"CHF", "Swiss Franc"},
	{"CNY", "Chinese Yuan"},
	{"EUR", "Euro"},
	{"GBP", "British Pound"},
	{"INR", "Indian Rupee"},
	{"JPY", "Japanese Yen"},
	{"KES", "Kenyan Shilling"},
	{"MXN", "Mexican Peso"},
	{"NGN", "Nigerian Naira"},
	{"SEK", "Swedish Krona"},
	{"USD", "US Dollar"},
	{"ZAR", "South African Rand"},
}

// KnownCurrency reports whether code is in Currencies.
func KnownCurrency(code string) bool {
	for _, c := range Currencies {
		if c.Code == code {
			return true
		}
	}
	return false
}

type PreferenceService struct {
	store    *storage.Store
	currency string
}

func NewPreferenceService(store *storage.Store, defaultCurrency string) *PreferenceService {
	if defaultCurrency == "" {
		defaultCurrency = core.DefaultCurrency
	}
	return &PreferenceService{store: store, currency: defaultCurrency}
}

// Get returns the owner's preference, provisioning it when missing.
func (s *PreferenceService) Get(ctx context.Context, ownerID int64) (core.UserPreference, error) {
	pref, err := s.store.GetPreference(ctx, ownerID)
	if err == nil {
		return pref, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.UserPreference{}, err
	}

	pref, err = s.store.CreatePreference(ctx, ownerID, s.currency)
	if errors.Is(err, core.ErrDuplicate) {
		// Provisioned concurrently.
		return s.store.GetPreference(ctx, ownerID)
	}
	if err != nil {
		return core.UserPreference{}, fmt.Errorf("provision preference: %w", err)
	}
	return pref, nil
}

// SetCurrency stores one of the known currency codes.
func (s *PreferenceService) SetCurrency(ctx context.Context, ownerID int64, code string) (core.UserPreference, error) {
	if !KnownCurrency(code) {
		return core.UserPreference{}, &core.ValidationError{Field: "currency", Message: "Select a valid currency"}
	}
	pref, err := s.Get(ctx, ownerID)
	if err != nil {
		return core.UserPreference{}, err
	}
	if err := s.store.SetCurrency(ctx, ownerID, code); err != nil {
		return core.UserPreference{}, err
	}
	pref.Currency = code
	return pref, nil
}
