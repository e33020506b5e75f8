package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"expenses/internal/auth"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
)

type userKey struct{}

func withUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func userFrom(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(userKey{}).(core.User)
	return u, ok
}

// requireUser resolves the session cookie and sends anonymous visitors to
// the login page, remembering where they were going.
func (s *Server) requireUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentUser(w, r)
		if !ok {
			target := "/authentication/login?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		ctx := withUser(r.Context(), user)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, user.ID))
		next(w, r.WithContext(ctx))
	})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (core.User, bool) {
	c, err := r.Cookie(auth.SessionCookieName)
	if err != nil || c.Value == "" {
		return core.User{}, false
	}
	sess, user, renewed, err := s.svc.Accounts.Authenticate(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) && !errors.Is(err, core.ErrInactiveUser) {
			s.events.LogError(r.Context(), "Failed to resolve session", err, log.ComponentAccount, log.OpLogin, nil)
		}
		s.clearSessionCookie(w)
		return core.User{}, false
	}
	if renewed {
		s.setSessionCookie(w, sess)
	}
	return user, true
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess storage.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

const flashCookieName = "flash"

// flash is a one-shot message shown on the next rendered page.
type flash struct {
	Level   string // success, error or info
	Message string
}

// redirectWithFlash stores a message for the next page and redirects with
// 303 so the browser follows with a GET.
func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, level, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(level + ":" + message),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func popFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Value: "", Path: "/", MaxAge: -1})

	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	level, message, ok := strings.Cut(raw, ":")
	if !ok || message == "" {
		return nil
	}
	return &flash{Level: level, Message: message}
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/expenses/"
	}
	return next
}
