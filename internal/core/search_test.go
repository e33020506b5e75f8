package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestExpenseMatches(t *testing.T) {
	e := Expense{
		Amount:      decimal.RequireFromString("10.50"),
		Category:    "Transport",
		Description: "Train to Milan",
		Date:        NewDate(2024, 1, 2),
	}

	tests := []struct {
		q    string
		want bool
	}{
		{"10", true},       // amount prefix
		{"10.5", true},     // amount prefix
		{"0.50", false},    // amount is prefix-only
		{"2024-01", true},  // date prefix
		{"01-02", false},   // date is prefix-only
		{"milan", true},    // description, any case
		{"TRANS", true},    // category, any case
		{"port", true},     // category substring
		{"bus", false},
		{"", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Matches(tt.q), "query %q", tt.q)
	}
}

func TestIncomeMatches(t *testing.T) {
	salary := Income{Amount: decimal.RequireFromString("2500"), Date: NewDate(2024, 3, 1), Source: IncomeSource{Kind: SourceSideHustle}}
	gift := Income{Amount: decimal.RequireFromString("50"), Date: NewDate(2024, 3, 5), Description: "Birthday", Source: IncomeSource{Kind: SourceOther, Label: "Grandma"}}

	assert.True(t, salary.Matches("side"))
	assert.True(t, salary.Matches("side_hustle"))
	assert.True(t, salary.Matches("2500.00"))
	assert.False(t, salary.Matches("grand"))

	assert.True(t, gift.Matches("grand"))
	assert.True(t, gift.Matches("birth"))
	assert.True(t, gift.Matches("other"))

	got := FilterIncomes([]Income{salary, gift}, "2024-03-0")
	assert.Len(t, got, 2)
	got = FilterIncomes([]Income{salary, gift}, "grandma")
	assert.Equal(t, []Income{gift}, got)
}

func TestFilterExpensesEmpty(t *testing.T) {
	got := FilterExpenses(nil, "anything")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
