package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/services"
)

type incomeForm struct {
	Action  string
	Editing bool
	Values  core.IncomeInput
	Sources []core.SourceKind
	Error   string
}

// incomeJSON is the search payload. Category is the display name of the
// source and Source its grouping key.
type incomeJSON struct {
	ID          int64   `json:"id"`
	OwnerID     int64   `json:"owner_id"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Source      string  `json:"source"`
}

func toIncomeJSON(rows []core.Income) []incomeJSON {
	out := make([]incomeJSON, 0, len(rows))
	for _, i := range rows {
		out = append(out, incomeJSON{
			ID:          i.ID,
			OwnerID:     i.OwnerID,
			Amount:      i.Amount.InexactFloat64(),
			Date:        i.Date.String(),
			Description: i.Description,
			Category:    i.Source.String(),
			Source:      i.Source.Key(),
		})
	}
	return out
}

type incomeListView struct {
	Page services.IncomePage
	// Chart series as JSON, read by app.js from data attributes.
	TrendLabels string
	TrendTotals string
}

func (s *Server) handleIncomeList(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	page, err := s.svc.Incomes.Page(r.Context(), u.ID, r.URL.Query().Get("page"))
	if err != nil {
		s.serverError(w, r, err, log.ComponentIncome, log.OpList)
		return
	}
	trend, err := s.svc.Incomes.Trend(r.Context(), u.ID)
	if err != nil {
		s.serverError(w, r, err, log.ComponentIncome, log.OpSummary)
		return
	}

	labels := make([]string, 0, len(trend))
	totals := make([]float64, 0, len(trend))
	for _, p := range trend {
		labels = append(labels, p.Label)
		totals = append(totals, p.Total.InexactFloat64())
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		s.serverError(w, r, err, log.ComponentIncome, log.OpSummary)
		return
	}
	totalsJSON, err := json.Marshal(totals)
	if err != nil {
		s.serverError(w, r, err, log.ComponentIncome, log.OpSummary)
		return
	}

	s.render(w, r, http.StatusOK, "income", "Income", incomeListView{
		Page:        page,
		TrendLabels: string(labelsJSON),
		TrendTotals: string(totalsJSON),
	})
}

func (s *Server) handleIncomeAddForm(w http.ResponseWriter, r *http.Request) {
	s.renderIncomeForm(w, r, http.StatusOK, incomeForm{
		Action: "/income/add",
		Values: core.IncomeInput{Date: core.DateOf(time.Now()).String()},
	})
}

func (s *Server) handleIncomeCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	u, _ := userFrom(r.Context())
	in := incomeInput(r)

	if _, err := s.svc.Incomes.Create(r.Context(), u.ID, in); err != nil {
		if msg, ok := validationMessage(err); ok {
			s.renderIncomeForm(w, r, formStatus(r), incomeForm{Action: "/income/add", Values: in, Error: msg})
			return
		}
		s.serverError(w, r, err, log.ComponentIncome, log.OpCreate)
		return
	}
	s.redirectWithFlash(w, r, "/income/", "success", "Record saved successfully")
}

func (s *Server) handleIncomeEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	u, _ := userFrom(r.Context())
	inc, err := s.svc.Incomes.Get(r.Context(), u.ID, id)
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err, log.ComponentIncome, log.OpRead)
		return
	}
	s.renderIncomeForm(w, r, http.StatusOK, incomeForm{
		Action:  "/income/edit/" + strconv.FormatInt(id, 10),
		Editing: true,
		Values: core.IncomeInput{
			Amount:      inc.Amount.StringFixed(2),
			Description: inc.Description,
			Source:      inc.Source.String(),
			Date:        inc.Date.String(),
		},
	})
}

func (s *Server) handleIncomeUpdate(w http.ResponseWriter, r *http.Request) {
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
	in := incomeInput(r)

	_, err := s.svc.Incomes.Update(r.Context(), u.ID, id, in)
	switch {
	case err == nil:
		s.redirectWithFlash(w, r, "/income/", "success", "Record updated successfully")
	case errors.Is(err, core.ErrNotFound):
		http.NotFound(w, r)
	default:
		if msg, ok := validationMessage(err); ok {
			s.renderIncomeForm(w, r, formStatus(r), incomeForm{
				Action:  "/income/edit/" + strconv.FormatInt(id, 10),
				Editing: true,
				Values:  in,
				Error:   msg,
			})
			return
		}
		s.serverError(w, r, err, log.ComponentIncome, log.OpUpdate)
	}
}

func (s *Server) handleIncomeDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	u, _ := userFrom(r.Context())
	err := s.svc.Incomes.Delete(r.Context(), u.ID, id)
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err, log.ComponentIncome, log.OpDelete)
		return
	}
	s.redirectWithFlash(w, r, "/income/", "success", "Record removed")
}

func (s *Server) renderIncomeForm(w http.ResponseWriter, r *http.Request, status int, form incomeForm) {
	form.Sources = core.SourceKinds()
	title := "Add Income"
	if form.Editing {
		title = "Edit Income"
	}
	s.render(w, r, status, "income_form", title, form)
}

// handleIncomeSearch rejects anything but a POST with 400.
func (s *Server) handleIncomeSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ErrorJSON(http.StatusBadRequest, "invalid method").Write(w)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		ErrorJSON(http.StatusBadRequest, "invalid request body").Write(w)
		return
	}
	u, _ := userFrom(r.Context())
	rows, err := s.svc.Incomes.Search(r.Context(), u.ID, p.Get("searchText"))
	if err != nil {
		s.failJSON(w, r, err, log.ComponentIncome, log.OpSearch)
		return
	}
	NewJSONResponse(toIncomeJSON(rows)).Write(w)
}

// handleIncomeSummary returns a flat map of source key to total.
func (s *Server) handleIncomeSummary(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	totals, err := s.svc.Summaries.IncomeSources(r.Context(), u.ID)
	if err != nil {
		s.failJSON(w, r, err, log.ComponentSummary, log.OpSummary)
		return
	}
	data := make(map[string]float64, len(totals))
	for k, v := range totals {
		data[k] = v.InexactFloat64()
	}
	NewJSONResponse(data).Write(w)
}
