package http

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// JSONResponseBuilder assembles a JSON response with a fluent API.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse starts a 200 response carrying body.
func NewJSONResponse(body any) *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
		body:       body,
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Write encodes the body before sending headers, so an encoding failure
// still becomes a 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(b.body); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
		return
	}
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(b.statusCode)
	_, _ = buf.WriteTo(w)
}

// ErrorJSON builds {"error": message} with the given status.
func ErrorJSON(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse(map[string]string{"error": message}).Status(statusCode)
}

// FieldJSON builds a single-key object, as used by the live field checks.
func FieldJSON(statusCode int, key string, value any) *JSONResponseBuilder {
	return NewJSONResponse(map[string]any{key: value}).Status(statusCode)
}
