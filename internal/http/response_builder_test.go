package http

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse(map[string]float64{"Food": 12.5}).
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Header().Get("X-Test") != "1" {
		t.Error("custom header not set")
	}
	if w.Body.String() != "{\"Food\":12.5}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestErrorJSON(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorJSON(http.StatusBadRequest, "invalid method").Write(w)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d", w.Code)
	}
	if w.Body.String() != "{\"error\":\"invalid method\"}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestFieldJSON(t *testing.T) {
	w := httptest.NewRecorder()
	FieldJSON(http.StatusConflict, "username_error", "taken").Write(w)

	if w.Code != http.StatusConflict || w.Body.String() != "{\"username_error\":\"taken\"}\n" {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
}

func TestJSONResponseBuilderEncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse(math.NaN()).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}
