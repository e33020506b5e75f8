package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-01", true},
		{" 2024-12-31 ", true},
		{"2024-02-30", false},
		{"01/02/2024", false},
		{"2024-1-1", false},
		{"", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
		if tc.ok && d.Location() != time.UTC {
			t.Fatalf("%q expected UTC date", tc.in)
		}
	}
}

func TestDateHelpers(t *testing.T) {
	d := NewDate(2024, 3, 15)
	if d.String() != "2024-03-15" {
		t.Fatalf("unexpected string %q", d.String())
	}
	if got := d.AddDays(-180).String(); got != "2023-09-17" {
		t.Fatalf("unexpected AddDays result %q", got)
	}
	if got := d.MonthStart().String(); got != "2024-03-01" {
		t.Fatalf("unexpected MonthStart %q", got)
	}
	if (Date{}).String() != "" {
		t.Fatalf("zero date should render empty")
	}

	loc := time.FixedZone("UTC+10", 10*3600)
	late := time.Date(2024, 3, 15, 23, 30, 0, 0, loc)
	if DateOf(late).String() != "2024-03-15" {
		t.Fatalf("DateOf should keep the local calendar day")
	}
}

func TestValidationErrorMatching(t *testing.T) {
	err := invalid("amount", "Invalid amount", ErrInvalidAmount)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation")
	}
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "amount" {
		t.Fatalf("expected ValidationError for amount, got %v", err)
	}
	if err.Error() != "Invalid amount" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
