package http

import (
	"net/http"

	"expenses/internal/log"
	"expenses/internal/services"
)

type preferencesView struct {
	Selected   string
	Currencies []services.Currency
	Error      string
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	pref, err := s.svc.Preferences.Get(r.Context(), u.ID)
	if err != nil {
		s.serverError(w, r, err, log.ComponentAccount, log.OpRead)
		return
	}
	s.render(w, r, http.StatusOK, "preferences", "Preferences", preferencesView{
		Selected:   pref.Currency,
		Currencies: services.Currencies,
	})
}

func (s *Server) handlePreferencesSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	u, _ := userFrom(r.Context())
	code := sanitizeInput(r.PostFormValue("currency"))

	if _, err := s.svc.Preferences.SetCurrency(r.Context(), u.ID, code); err != nil {
		if msg, ok := validationMessage(err); ok {
			s.render(w, r, formStatus(r), "preferences", "Preferences", preferencesView{
				Selected:   code,
				Currencies: services.Currencies,
				Error:      msg,
			})
			return
		}
		s.serverError(w, r, err, log.ComponentAccount, log.OpUpdate)
		return
	}
	s.redirectWithFlash(w, r, "/preferences/", "success", "Changes saved")
}
