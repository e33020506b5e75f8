package http

import (
	"context"
	"errors"
	"net/http"

	"expenses/internal/auth"
	"expenses/internal/core"
	"expenses/internal/log"
)

type registerView struct {
	Values auth.RegistrationForm
	Errors auth.FormErrors
}

type loginView struct {
	Username string
	Next     string
	Error    string
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register", "Register", registerView{Errors: auth.FormErrors{}})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := auth.RegistrationForm{
		Username: sanitizeInput(r.PostFormValue("username")),
		Email:    sanitizeInput(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}

	_, errs, err := s.svc.Accounts.Register(r.Context(), form)
	if err != nil {
		s.serverError(w, r, err, log.ComponentAccount, log.OpRegister)
		return
	}
	if errs.Any() {
		form.Password = ""
		s.render(w, r, http.StatusOK, "register", "Register", registerView{Values: form, Errors: errs})
		return
	}
	s.redirectWithFlash(w, r, "/authentication/login", "success",
		"Account successfully created. Check your email to activate it")
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", "Login", loginView{Next: r.URL.Query().Get("next")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	view := loginView{
		Username: sanitizeInput(r.PostFormValue("username")),
		Next:     r.PostFormValue("next"),
	}

	sess, user, err := s.svc.Accounts.Login(r.Context(), view.Username, r.PostFormValue("password"))
	switch {
	case errors.Is(err, core.ErrInvalidCredentials):
		view.Error = "Invalid credentials, try again"
		s.render(w, r, http.StatusUnauthorized, "login", "Login", view)
		return
	case errors.Is(err, core.ErrInactiveUser):
		view.Error = "Account is not active, please check your email"
		s.render(w, r, http.StatusForbidden, "login", "Login", view)
		return
	case err != nil:
		s.serverError(w, r, err, log.ComponentAccount, log.OpLogin)
		return
	}

	s.setSessionCookie(w, sess)
	s.redirectWithFlash(w, r, safeNext(view.Next), "success",
		"Welcome, "+user.Username+" you are now logged in")
}

// handleLoginLimited renders the login page for clients over the attempt
// limit; the limiter has already set Retry-After.
func (s *Server) handleLoginLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Login rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r))
	s.render(w, r, http.StatusTooManyRequests, "login", "Login", loginView{
		Next:  r.URL.Query().Get("next"),
		Error: "Too many login attempts, try again in a minute",
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.SessionCookieName); err == nil {
		if err := s.svc.Accounts.Logout(r.Context(), c.Value); err != nil {
			s.events.LogError(r.Context(), "Failed to end session", err, log.ComponentAccount, log.OpLogout, nil)
		}
	}
	s.clearSessionCookie(w)
	s.redirectWithFlash(w, r, "/authentication/login", "success", "You have been logged out")
}

// handleValidateUsername answers the live check on the registration form.
func (s *Server) handleValidateUsername(w http.ResponseWriter, r *http.Request) {
	s.validateField(w, r, "username", s.svc.Accounts.CheckUsername)
}

func (s *Server) handleValidateEmail(w http.ResponseWriter, r *http.Request) {
	s.validateField(w, r, "email", s.svc.Accounts.CheckEmail)
}

// validateField replies {"<field>_valid": true}, or {"<field>_error": msg}
// with 409 for a taken value and 400 for a malformed one.
func (s *Server) validateField(w http.ResponseWriter, r *http.Request, field string, check func(ctx context.Context, value string) error) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		ErrorJSON(http.StatusBadRequest, "invalid request body").Write(w)
		return
	}

	err := check(r.Context(), p.Get(field))
	if err == nil {
		FieldJSON(http.StatusOK, field+"_valid", true).Write(w)
		return
	}
	msg, ok := validationMessage(err)
	if !ok {
		s.failJSON(w, r, err, log.ComponentAccount, log.OpRegister)
		return
	}
	status := http.StatusBadRequest
	if errors.Is(err, core.ErrDuplicate) {
		status = http.StatusConflict
	}
	FieldJSON(status, field+"_error", msg).Write(w)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Accounts.Activate(r.Context(), r.PathValue("token"))
	switch {
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, core.ErrNotFound):
		s.redirectWithFlash(w, r, "/authentication/login", "error", "Activation link is invalid or expired")
	case err != nil:
		s.serverError(w, r, err, log.ComponentAccount, log.OpActivate)
	default:
		s.logger.InfoContext(r.Context(), "Account activated via link", log.FieldUserID, user.ID)
		s.redirectWithFlash(w, r, "/authentication/login", "success", "Account activated successfully")
	}
}
