package handler

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/simplehttp/simplehttp/internal/model"
)

// ExampleMessage is the fixed message of the demo endpoint.
const ExampleMessage = "This is a test response from the API example endpoint"

// ExampleData is the payload of the demo endpoint.
type ExampleData struct {
	Timestamp    int64 `json:"timestamp"`
	RandomNumber int   `json:"random_number"`
}

// ExampleHandler serves a canned JSON payload. It never touches the store.
type ExampleHandler struct {
	now      func() time.Time
	randIntN func(n int) int
}

// NewExampleHandler creates an ExampleHandler using the wall clock and the
// global random source.
func NewExampleHandler() *ExampleHandler {
	return &ExampleHandler{
		now:      time.Now,
		randIntN: rand.Intn,
	}
}

// ServeHTTP answers any method with the demo payload.
func (h *ExampleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := model.Envelope{
		Status:  model.StatusSuccess,
		Message: ExampleMessage,
		Data: ExampleData{
			Timestamp:    h.now().Unix(),
			RandomNumber: h.randIntN(100) + 1,
		},
	}
	writeJSON(w, r, http.StatusOK, body)
}
