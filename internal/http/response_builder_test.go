package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("body is not an envelope: %v\n%s", err, w.Body.String())
	}
	return env
}

func TestJSONResponseBuilder_Data(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().
		Header("X-Generation", "3").
		Data(map[string]int{"records": 5}).
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("X-Generation") != "3" {
		t.Errorf("custom header missing")
	}
	env := decodeEnvelope(t, w)
	if !env.Success || env.Error != "" {
		t.Errorf("envelope = %+v", env)
	}
	if data, ok := env.Data.(map[string]any); !ok || data["records"] != float64(5) {
		t.Errorf("data = %#v", env.Data)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		code    int
	}{
		{"bad request", BadRequestError("bad"), http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError("bad"), http.StatusUnprocessableEntity},
		{"internal", InternalServerError("bad"), http.StatusInternalServerError},
		{"not found", NotFoundError("bad"), http.StatusNotFound},
		{"unavailable", ServiceUnavailableError("bad"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.code {
				t.Errorf("status = %d, want %d", w.Code, tt.code)
			}
			env := decodeEnvelope(t, w)
			if env.Success || env.Error != "bad" {
				t.Errorf("envelope = %+v", env)
			}
		})
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowedError("GET, PUT").Write(w)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", w.Code)
	}
	if w.Header().Get("Allow") != "GET, PUT" {
		t.Errorf("Allow = %q", w.Header().Get("Allow"))
	}
}

func TestJSONResponseBuilder_EncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Data(math.NaN()).Write(w)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Success {
		t.Error("expected failure envelope")
	}
}
