// Package http serves the ledger web UI and its JSON endpoints.
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expenses/internal/core"
)

// maxBodyBytes caps request bodies read by RequestBodyParser.
const maxBodyBytes = 1 << 20

// RequestBodyParser reads a JSON or form-encoded body once and exposes its
// fields by name. The live search and field checks post JSON; plain forms
// post urlencoded data.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like a JSON object and as
// form data otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal([]byte(trimmed), &p.jsonData)
		return p.err
	}
	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns the sanitized value of key, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput trims whitespace and drops control characters.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

// stripControl drops control characters other than tab and newlines.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// pathID reads the {id} wildcard; ok is false for anything that is not a
// positive integer.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func expenseInput(r *http.Request) core.ExpenseInput {
	return core.ExpenseInput{
		Amount:      sanitizeInput(r.PostFormValue("amount")),
		Description: stripControl(r.PostFormValue("description")),
		Category:    sanitizeInput(r.PostFormValue("category")),
		Date:        firstValue(r, "expense_date", "date"),
	}
}

func incomeInput(r *http.Request) core.IncomeInput {
	return core.IncomeInput{
		Amount:      sanitizeInput(r.PostFormValue("amount")),
		Description: stripControl(r.PostFormValue("description")),
		Source:      sanitizeInput(r.PostFormValue("source")),
		Date:        firstValue(r, "income_date", "date"),
	}
}

// firstValue returns the first non-empty form field among names.
func firstValue(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := sanitizeInput(r.PostFormValue(name)); v != "" {
			return v
		}
	}
	return ""
}
