package core

import "strings"

// SourceKind enumerates the well-known income sources.
type SourceKind string

const (
	SourceSalary     SourceKind = "SALARY"
	SourceBusiness   SourceKind = "BUSINESS"
	SourceInvestment SourceKind = "INVESTMENT"
	SourceSideHustle SourceKind = "SIDE_HUSTLE"
	SourceOther      SourceKind = "OTHER"
)

var sourceNames = map[SourceKind]string{
	SourceSalary:     "Salary",
	SourceBusiness:   "Business",
	SourceInvestment: "Investment",
	SourceSideHustle: "Side Hustle",
	SourceOther:      "Other",
}

// SourceKinds returns every kind in display order.
func SourceKinds() []SourceKind {
	return []SourceKind{SourceSalary, SourceBusiness, SourceInvestment, SourceSideHustle, SourceOther}
}

func (k SourceKind) Valid() bool {
	_, ok := sourceNames[k]
	return ok
}

// DisplayName returns the human readable name of the kind.
func (k SourceKind) DisplayName() string {
	if name, ok := sourceNames[k]; ok {
		return name
	}
	return string(k)
}

// IncomeSource is a tagged source: one of the fixed kinds, optionally
// carrying free text when the kind is OTHER.
type IncomeSource struct {
	Kind  SourceKind
	Label string
}

// ParseIncomeSource maps form input onto a source. Input naming a kind
// (by value or display name, any case) selects that kind; any other text
// is kept as the label of an OTHER source.
func ParseIncomeSource(s string) IncomeSource {
	s = strings.TrimSpace(s)
	if s == "" {
		return IncomeSource{Kind: SourceOther}
	}
	for _, k := range SourceKinds() {
		if strings.EqualFold(s, string(k)) || strings.EqualFold(s, k.DisplayName()) {
			return IncomeSource{Kind: k}
		}
	}
	return IncomeSource{Kind: SourceOther, Label: s}
}

// Key is the grouping key used by summaries: the kind value, or the label
// for free-text sources.
func (s IncomeSource) Key() string {
	if s.Kind == SourceOther && s.Label != "" {
		return s.Label
	}
	if s.Kind == "" {
		return string(SourceOther)
	}
	return string(s.Kind)
}

func (s IncomeSource) String() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Kind.DisplayName()
}

// Matches reports whether q occurs, case-insensitively, in the kind value,
// its display name or the label.
func (s IncomeSource) Matches(q string) bool {
	return containsFold(string(s.Kind), q) ||
		containsFold(s.Kind.DisplayName(), q) ||
		containsFold(s.Label, q)
}
