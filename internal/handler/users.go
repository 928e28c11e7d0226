package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/simplehttp/simplehttp/internal/metrics"
	"github.com/simplehttp/simplehttp/internal/middleware"
	"github.com/simplehttp/simplehttp/internal/model"
	"github.com/simplehttp/simplehttp/internal/repository"
)

// Response messages of the users listing.
const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgDatabaseError    = "Database error: "
	unknownDiagnostic   = "unknown error"
)

// UserLister reads every row of the users relation.
type UserLister interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// UsersHandler serves the read-only users listing.
// It keeps no per-request state and is safe for concurrent use.
type UsersHandler struct {
	store   UserLister
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewUsersHandler creates a UsersHandler over store.
func NewUsersHandler(store UserLister, logger *slog.Logger, recorder metrics.Recorder) *UsersHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UsersHandler{
		store:   store,
		logger:  logger,
		metrics: recorder,
	}
}

// ServeHTTP handles /api/db/users.
// Only GET is served; the store is not consulted for any other method.
func (h *UsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, body := h.Respond(r.Context(), r.Method)
	writeJSON(w, r, status, body)
}

// Respond runs the listing for method and returns the status code and body
// without an HTTP round trip.
func (h *UsersHandler) Respond(ctx context.Context, method string) (int, model.Envelope) {
	if method != http.MethodGet {
		h.metrics.IncUsersListing(metrics.OutcomeMethodNotAllowed)
		return http.StatusMethodNotAllowed, model.Error(MsgMethodNotAllowed)
	}
	return h.list(ctx)
}

func (h *UsersHandler) list(ctx context.Context) (int, model.Envelope) {
	start := time.Now()
	users, err := h.store.ListUsers(ctx)
	h.metrics.ObserveUsersQueryDuration(time.Since(start))

	if err != nil {
		h.metrics.IncUsersListing(metrics.OutcomeDataAccessError)
		h.logger.Error("users_list_failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		return http.StatusInternalServerError, model.Error(MsgDatabaseError + diagnostic(err))
	}

	if users == nil {
		users = []*model.User{}
	}

	h.metrics.IncUsersListing(metrics.OutcomeSuccess)
	h.metrics.ObserveUsersReturned(len(users))
	return http.StatusOK, model.Success(users)
}

// diagnostic extracts the driver message carried by a store error.
func diagnostic(err error) string {
	msg := err.Error()
	var dae *repository.DataAccessError
	if errors.As(err, &dae) && dae.Err != nil {
		msg = dae.Err.Error()
	}
	if msg == "" {
		return unknownDiagnostic
	}
	return msg
}
