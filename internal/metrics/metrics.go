// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcomes of a users listing.
const (
	OutcomeSuccess          = "success"
	OutcomeMethodNotAllowed = "method_not_allowed"
	OutcomeDataAccessError  = "data_access_error"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// HTTP metrics
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)

	// Users listing metrics
	IncUsersListing(outcome string) // see Outcome* constants
	ObserveUsersReturned(count int)
	ObserveUsersQueryDuration(duration time.Duration)

	// Rate limiting
	IncRateLimited()
}
