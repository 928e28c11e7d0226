package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	HTTPRequests              uint64
	HTTPServerErrors          uint64
	UsersListed               uint64
	UsersMethodNotAllowed     uint64
	UsersDataAccessErrors     uint64
	UsersReturned             uint64
	UsersQueryCount           uint64
	UsersQueryDurationTotalNs int64
	RateLimited               uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	httpRequests              uint64
	httpServerErrors          uint64
	usersListed               uint64
	usersMethodNotAllowed     uint64
	usersDataAccessErrors     uint64
	usersReturned             uint64
	usersQueryCount           uint64
	usersQueryDurationTotalNs int64
	rateLimited               uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		HTTPRequests:              atomic.LoadUint64(&m.httpRequests),
		HTTPServerErrors:          atomic.LoadUint64(&m.httpServerErrors),
		UsersListed:               atomic.LoadUint64(&m.usersListed),
		UsersMethodNotAllowed:     atomic.LoadUint64(&m.usersMethodNotAllowed),
		UsersDataAccessErrors:     atomic.LoadUint64(&m.usersDataAccessErrors),
		UsersReturned:             atomic.LoadUint64(&m.usersReturned),
		UsersQueryCount:           atomic.LoadUint64(&m.usersQueryCount),
		UsersQueryDurationTotalNs: atomic.LoadInt64(&m.usersQueryDurationTotalNs),
		RateLimited:               atomic.LoadUint64(&m.rateLimited),
	}
}

// ObserveHTTPRequest counts requests and 5xx responses.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&m.httpServerErrors, 1)
	}
}

// IncUsersListing increments the counter for outcome.
func (m *InMemoryRecorder) IncUsersListing(outcome string) {
	switch outcome {
	case OutcomeSuccess:
		atomic.AddUint64(&m.usersListed, 1)
	case OutcomeMethodNotAllowed:
		atomic.AddUint64(&m.usersMethodNotAllowed, 1)
	case OutcomeDataAccessError:
		atomic.AddUint64(&m.usersDataAccessErrors, 1)
	}
}

// ObserveUsersReturned adds to the returned row total.
func (m *InMemoryRecorder) ObserveUsersReturned(count int) {
	atomic.AddUint64(&m.usersReturned, uint64(count))
}

// ObserveUsersQueryDuration records query duration.
func (m *InMemoryRecorder) ObserveUsersQueryDuration(duration time.Duration) {
	atomic.AddUint64(&m.usersQueryCount, 1)
	atomic.AddInt64(&m.usersQueryDurationTotalNs, duration.Nanoseconds())
}

// IncRateLimited increments rejected request counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}
