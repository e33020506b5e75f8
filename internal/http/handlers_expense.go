package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/services"
)

// expenseForm backs both the add and the edit page.
type expenseForm struct {
	Action     string
	Editing    bool
	Values     core.ExpenseInput
	Categories []core.Category
	Error      string
}

// expenseJSON is the search payload: every stored field of an expense.
type expenseJSON struct {
	ID          int64   `json:"id"`
	OwnerID     int64   `json:"owner_id"`
	Amount      float64 `json:"amount"`
	CategoryID  int64   `json:"category_id"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	ExpenseDate string  `json:"expense_date"`
}

func toExpenseJSON(rows []core.Expense) []expenseJSON {
	out := make([]expenseJSON, 0, len(rows))
	for _, e := range rows {
		out = append(out, expenseJSON{
			ID:          e.ID,
			OwnerID:     e.OwnerID,
			Amount:      e.Amount.InexactFloat64(),
			CategoryID:  e.CategoryID,
			Category:    e.Category,
			Description: e.Description,
			ExpenseDate: e.Date.String(),
		})
	}
	return out
}

type expenseListView struct {
	Page services.ExpensePage
}

func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	page, err := s.svc.Expenses.Page(r.Context(), u.ID, r.URL.Query().Get("page"))
	if err != nil {
		s.serverError(w, r, err, log.ComponentExpense, log.OpList)
		return
	}
	s.render(w, r, http.StatusOK, "expenses", "Expenses", expenseListView{Page: page})
}

func (s *Server) handleExpenseAddForm(w http.ResponseWriter, r *http.Request) {
	s.renderExpenseForm(w, r, http.StatusOK, expenseForm{
		Action: "/expenses/add",
		Values: core.ExpenseInput{Date: core.DateOf(time.Now()).String()},
	})
}

func (s *Server) handleExpenseCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	u, _ := userFrom(r.Context())
	in := expenseInput(r)

	if _, err := s.svc.Expenses.Create(r.Context(), u.ID, in); err != nil {
		if msg, ok := validationMessage(err); ok {
			s.renderExpenseForm(w, r, formStatus(r), expenseForm{Action: "/expenses/add", Values: in, Error: msg})
			return
		}
		s.serverError(w, r, err, log.ComponentExpense, log.OpCreate)
		return
	}
	s.redirectWithFlash(w, r, "/expenses/", "success", "Expense saved successfully")
}

func (s *Server) handleExpenseEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	u, _ := userFrom(r.Context())
	e, err := s.svc.Expenses.Get(r.Context(), u.ID, id)
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err, log.ComponentExpense, log.OpRead)
		return
	}
	s.renderExpenseForm(w, r, http.StatusOK, expenseForm{
		Action:  "/expenses/edit/" + strconv.FormatInt(id, 10),
		Editing: true,
		Values: core.ExpenseInput{
			Amount:      e.Amount.StringFixed(2),
			Description: e.Description,
			Category:    e.Category,
			Date:        e.Date.String(),
		},
	})
}

func (s *Server) handleExpenseUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	u, _ := userFrom(r.Context())
	in := expenseInput(r)

	_, err := s.svc.Expenses.Update(r.Context(), u.ID, id, in)
	switch {
	case err == nil:
		s.redirectWithFlash(w, r, "/expenses/", "success", "Expense updated successfully")
	case errors.Is(err, core.ErrNotFound):
		http.NotFound(w, r)
	default:
		if msg, ok := validationMessage(err); ok {
			s.renderExpenseForm(w, r, formStatus(r), expenseForm{
				Action:  "/expenses/edit/" + strconv.FormatInt(id, 10),
				Editing: true,
				Values:  in,
				Error:   msg,
			})
			return
		}
		s.serverError(w, r, err, log.ComponentExpense, log.OpUpdate)
	}
}

func (s *Server) handleExpenseDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	u, _ := userFrom(r.Context())
	err := s.svc.Expenses.Delete(r.Context(), u.ID, id)
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err, log.ComponentExpense, log.OpDelete)
		return
	}
	s.redirectWithFlash(w, r, "/expenses/", "success", "Expense removed successfully")
}

func (s *Server) renderExpenseForm(w http.ResponseWriter, r *http.Request, status int, form expenseForm) {
	cats, err := s.svc.Expenses.Categories(r.Context())
	if err != nil {
		s.serverError(w, r, err, log.ComponentExpense, log.OpRead)
		return
	}
	form.Categories = cats
	title := "Add Expense"
	if form.Editing {
		title = "Edit Expense"
	}
	s.render(w, r, status, "expense_form", title, form)
}

// handleExpenseSearch answers the live search box. Anything but a POST
// gets an empty list.
func (s *Server) handleExpenseSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		NewJSONResponse([]expenseJSON{}).Write(w)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		ErrorJSON(http.StatusBadRequest, "invalid request body").Write(w)
		return
	}
	u, _ := userFrom(r.Context())
	rows, err := s.svc.Expenses.Search(r.Context(), u.ID, p.Get("searchText"))
	if err != nil {
		s.failJSON(w, r, err, log.ComponentExpense, log.OpSearch)
		return
	}
	NewJSONResponse(toExpenseJSON(rows)).Write(w)
}

// handleExpenseCategorySummary feeds the category chart with totals from
// the recent window.
func (s *Server) handleExpenseCategorySummary(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	totals, err := s.svc.Summaries.ExpenseCategories(r.Context(), u.ID)
	if err != nil {
		s.failJSON(w, r, err, log.ComponentSummary, log.OpSummary)
		return
	}
	data := make(map[string]float64, len(totals))
	for _, t := range totals {
		data[t.Name] = t.Total.InexactFloat64()
	}
	NewJSONResponse(map[string]any{"expense_category_data": data}).Write(w)
}

type summaryView struct {
	Summary core.OverallSummary
}

func (s *Server) handleSummaryPage(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	sum, err := s.svc.Summaries.Overall(r.Context(), u.ID)
	if err != nil {
		s.serverError(w, r, err, log.ComponentSummary, log.OpSummary)
		return
	}
	s.render(w, r, http.StatusOK, "summary", "Summary", summaryView{Summary: sum})
}

func (s *Server) handleSummaryData(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	sum, err := s.svc.Summaries.Overall(r.Context(), u.ID)
	if err != nil {
		s.failJSON(w, r, err, log.ComponentSummary, log.OpSummary)
		return
	}
	amounts := make([]float64, 0, len(sum.Amounts))
	for _, a := range sum.Amounts {
		amounts = append(amounts, a.InexactFloat64())
	}
	NewJSONResponse(map[string]any{
		"total_expenses": sum.TotalExpenses.InexactFloat64(),
		"total_income":   sum.TotalIncome.InexactFloat64(),
		"balance":        sum.Balance.InexactFloat64(),
		"categories":     sum.Categories,
		"amounts":        amounts,
	}).Write(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "stats", "Statistics", nil)
}
