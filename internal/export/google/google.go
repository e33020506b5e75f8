// Package google writes ledger exports to a Google spreadsheet, one sheet
// per user and ledger kind.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expenses/internal/core"
	"expenses/internal/export"
	"expenses/internal/log"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ export.Writer = (*Client)(nil)

// New builds a client over an existing Sheets service configuration.
func New(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// NewFromServiceAccount authenticates with service account credentials,
// given inline or as a file path. Inline JSON wins when both are set.
func NewFromServiceAccount(ctx context.Context, spreadsheetID, credentialsFile, credentialsJSON string) (*Client, error) {
	creds, err := loadCredentials(credentialsFile, credentialsJSON)
	if err != nil {
		return nil, err
	}
	log.FromContext(ctx).WithComponent(log.ComponentExport).InfoContext(ctx, "Creating Google Sheets service with service account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	return New(ctx, spreadsheetID,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

func loadCredentials(file, inline string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	file = strings.TrimSpace(file)
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

func (c *Client) WriteExpenses(ctx context.Context, owner string, expenses []core.Expense) (string, error) {
	return c.appendRows(ctx, export.ExpenseSheet(owner), export.ExpenseHeader, export.ExpenseRows(expenses))
}

func (c *Client) WriteIncomes(ctx context.Context, owner string, incomes []core.Income) (string, error) {
	return c.appendRows(ctx, export.IncomeSheet(owner), export.IncomeHeader, export.IncomeRows(incomes))
}

func (c *Client) appendRows(ctx context.Context, title string, header []any, rows [][]any) (string, error) {
	created, err := c.ensureSheet(ctx, title)
	if err != nil {
		return "", err
	}
	if created {
		rows = append([][]any{header}, rows...)
	}
	if len(rows) == 0 {
		return "", nil
	}

	rng := fmt.Sprintf("%s!A1", quoteSheet(title))
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", title, err)
	}
	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// ensureSheet adds the sheet when it does not exist yet and reports
// whether it did so.
func (c *Client) ensureSheet(ctx context.Context, title string) (bool, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return false, nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("add sheet %s: %w", title, err)
	}
	log.FromContext(ctx).WithComponent(log.ComponentExport).InfoContext(ctx, "Created export sheet", "sheet", title)
	return true, nil
}

// quoteSheet quotes a sheet title for use in A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
