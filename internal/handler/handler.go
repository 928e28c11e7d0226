// Package handler provides HTTP request handlers.
package handler

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/simplehttp/simplehttp/internal/model"
)

// NoTextProvided is echoed back when /echo receives no text.
const NoTextProvided = "NO TEXT PROVIDED"

// Handler serves the glue endpoints: the web client, router fallbacks and
// the plain-text diagnostics.
type Handler struct {
	static fs.FS
	now    func() time.Time
	logger *slog.Logger
}

// New creates a new Handler. static holds the browser client; it may be nil.
func New(static fs.FS, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		static: static,
		now:    time.Now,
		logger: logger,
	}
}

// Index serves the embedded browser client.
// GET / and GET /{file}
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if h.static == nil {
		h.NotFound(w, r)
		return
	}
	http.FileServer(http.FS(h.static)).ServeHTTP(w, r)
}

// Echo writes back the text query parameter.
// GET /echo?text=...
func (h *Handler) Echo(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		text = NoTextProvided
	}
	render.PlainText(w, r, text)
}

// Time writes the current UTC time.
// GET /time
func (h *Handler) Time(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, h.now().UTC().Format(time.RFC1123))
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusNotFound, model.Error("Not found"))
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusMethodNotAllowed, model.Error(MsgMethodNotAllowed))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, data)
}
