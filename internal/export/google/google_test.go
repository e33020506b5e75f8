package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"expenses/internal/core"
)

// fakeSheets serves the three Sheets API calls the client makes.
type fakeSheets struct {
	mu       sync.Mutex
	titles   []string
	added    []string
	appended map[string][][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/"):
		sheets := make([]map[string]any, 0, len(f.titles))
		for _, t := range f.titles {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sid", "sheets": sheets})

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		var req struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			f.titles = append(f.titles, rq.AddSheet.Properties.Title)
			f.added = append(f.added, rq.AddSheet.Properties.Title)
		}
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sid"})

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var body struct {
			Values [][]any `json:"values"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		rng := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/sid/values/"), ":append")
		f.appended[rng] = append(f.appended[rng], body.Values...)
		json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId": "sid",
			"updates":       map[string]any{"updatedRange": rng + ":D"},
		})

	default:
		http.Error(w, `{"error":{"code":404}}`, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), "sid",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestClientCreatesSheetAndWritesHeader(t *testing.T) {
	fake := &fakeSheets{appended: map[string][][]any{}}
	c := newTestClient(t, fake)

	expenses := []core.Expense{{
		Amount:      decimal.RequireFromString("12.50"),
		Category:    "Food",
		Description: "Lunch",
		Date:        core.NewDate(2024, 3, 1),
	}}
	ref, err := c.WriteExpenses(context.Background(), "alice", expenses)
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	assert.Equal(t, []string{"alice Expenses"}, fake.added)
	rows := fake.appended["'alice Expenses'!A1"]
	require.Len(t, rows, 2)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, []any{"2024-03-01", "Lunch", "Food", 12.5}, rows[1])

	// Second export reuses the sheet and skips the header.
	_, err = c.WriteExpenses(context.Background(), "alice", expenses)
	require.NoError(t, err)
	assert.Len(t, fake.added, 1)
	assert.Len(t, fake.appended["'alice Expenses'!A1"], 3)
}

func TestClientWritesIncomeSheet(t *testing.T) {
	fake := &fakeSheets{titles: []string{"bob Income"}, appended: map[string][][]any{}}
	c := newTestClient(t, fake)

	_, err := c.WriteIncomes(context.Background(), "bob", []core.Income{{
		Amount: decimal.RequireFromString("1000"),
		Date:   core.NewDate(2024, 3, 1),
		Source: core.IncomeSource{Kind: core.SourceSalary},
	}})
	require.NoError(t, err)

	assert.Empty(t, fake.added)
	rows := fake.appended["'bob Income'!A1"]
	require.Len(t, rows, 1)
	assert.Equal(t, "Salary", rows[0][2])
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ")
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestLoadCredentials(t *testing.T) {
	_, err := loadCredentials("", "")
	assert.ErrorContains(t, err, "missing service account credentials")

	got, err := loadCredentials("/ignored", `{"type":"service_account"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"service_account"}`, string(got))

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0600))
	got, err = loadCredentials(path, "")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	_, err = loadCredentials(filepath.Join(t.TempDir(), "missing.json"), "")
	assert.ErrorContains(t, err, "read service account file")
}

func TestQuoteSheet(t *testing.T) {
	assert.Equal(t, "'alice Expenses'", quoteSheet("alice Expenses"))
	assert.Equal(t, "'o''brien Income'", quoteSheet("o'brien Income"))
}
