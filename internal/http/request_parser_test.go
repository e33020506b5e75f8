package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		key      string
		want     string
		wantJSON bool
		wantErr  bool
	}{
		{name: "json string", body: `{"searchText":"  lunch "}`, key: "searchText", want: "lunch", wantJSON: true},
		{name: "json number", body: `{"searchText":12.5}`, key: "searchText", want: "12.5", wantJSON: true},
		{name: "json missing key", body: `{"other":"x"}`, key: "searchText", want: "", wantJSON: true},
		{name: "form", body: "username=alice&x=1", key: "username", want: "alice"},
		{name: "control characters dropped", body: "username=al%00ice", key: "username", want: "alice"},
		{name: "empty body", body: "", key: "username", want: ""},
		{name: "broken json", body: `{"searchText":`, key: "searchText", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			p := NewRequestBodyParser(httptest.NewRecorder(), r)
			err := p.Parse()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected a parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := p.Get(tt.key); got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON() = %v, want %v", p.IsJSON(), tt.wantJSON)
			}
		})
	}
}

func TestRequestBodyParserRejectsHugeBodies(t *testing.T) {
	body := "q=" + strings.Repeat("a", maxBodyBytes+10)
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	p := NewRequestBodyParser(httptest.NewRecorder(), r)
	if err := p.Parse(); err == nil {
		t.Fatal("expected an error for an oversized body")
	}
}

func TestPathID(t *testing.T) {
	tests := map[string]struct {
		id   int64
		want bool
	}{
		"42":  {42, true},
		"0":   {0, false},
		"-3":  {0, false},
		"abc": {0, false},
		"":    {0, false},
	}
	for raw, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.SetPathValue("id", raw)
		id, ok := pathID(r)
		if ok != tt.want || id != tt.id {
			t.Errorf("pathID(%q) = %d, %v; want %d, %v", raw, id, ok, tt.id, tt.want)
		}
	}
}

func TestExpenseInputAcceptsBothDateNames(t *testing.T) {
	form := url.Values{"amount": {" 12.50 "}, "description": {"Lunch"}, "category": {"Food"}, "date": {"2024-03-01"}}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in := expenseInput(r)
	if in.Amount != "12.50" || in.Date != "2024-03-01" || in.Category != "Food" {
		t.Errorf("unexpected input: %+v", in)
	}
}

func TestIncomeInput(t *testing.T) {
	form := url.Values{"amount": {"1000"}, "source": {"Salary"}, "income_date": {"2024-03-01"}, "date": {"1999-01-01"}}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in := incomeInput(r)
	if in.Source != "Salary" || in.Date != "2024-03-01" {
		t.Errorf("unexpected input: %+v", in)
	}
}
