package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// ObserveHTTPRequest is a no-op.
func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}

// IncUsersListing is a no-op.
func (n *NoopRecorder) IncUsersListing(outcome string) {}

// ObserveUsersReturned is a no-op.
func (n *NoopRecorder) ObserveUsersReturned(count int) {}

// ObserveUsersQueryDuration is a no-op.
func (n *NoopRecorder) ObserveUsersQueryDuration(duration time.Duration) {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}
