package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_Echo(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "with text", target: "/echo?text=hello%20world", want: "hello world"},
		{name: "empty text", target: "/echo?text=", want: NoTextProvided},
		{name: "missing text", target: "/echo", want: NoTextProvided},
	}

	h := New(nil, discardLogger())
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()

			h.Echo(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("expected text/plain, got %s", ct)
			}
			if rec.Body.String() != tt.want {
				t.Errorf("expected body %q, got %q", tt.want, rec.Body.String())
			}
		})
	}
}

func TestHandler_Time(t *testing.T) {
	h := New(nil, discardLogger())
	fixed := time.Date(2024, time.March, 5, 14, 30, 0, 0, time.FixedZone("CET", 3600))
	h.now = func() time.Time { return fixed }

	req := httptest.NewRequest(http.MethodGet, "/time", nil)
	rec := httptest.NewRecorder()

	h.Time(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if got, want := rec.Body.String(), "Tue, 05 Mar 2024 13:30:00 UTC"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHandler_NotFound(t *testing.T) {
	h := New(nil, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	rec := httptest.NewRecorder()

	h.NotFound(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}

	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	var response map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["status"] != "error" || response["message"] != "Not found" {
		t.Errorf("unexpected response: %v", response)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := New(nil, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.MethodNotAllowed(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["status"] != "error" || response["message"] != "Method not allowed" {
		t.Errorf("unexpected response: %v", response)
	}
}

func TestHandler_Index(t *testing.T) {
	static := fstest.MapFS{
		"index.html": {Data: []byte("<html>client</html>")},
		"script.js":  {Data: []byte("// client")},
	}
	h := New(static, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Index(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "client") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/script.js", nil)
	rec = httptest.NewRecorder()
	h.Index(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "// client" {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_Index_NoStatic(t *testing.T) {
	h := New(nil, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Index(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}
