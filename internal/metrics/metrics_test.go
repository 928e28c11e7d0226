package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Recorder = (*NoopRecorder)(nil)
	_ Recorder = (*InMemoryRecorder)(nil)
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestInMemoryRecorder(t *testing.T) {
	m := NewInMemory()

	m.ObserveHTTPRequest("GET", "/api/db/users", 200, time.Millisecond)
	m.ObserveHTTPRequest("GET", "/api/db/users", 500, time.Millisecond)
	m.IncUsersListing(OutcomeSuccess)
	m.IncUsersListing(OutcomeMethodNotAllowed)
	m.IncUsersListing(OutcomeDataAccessError)
	m.IncUsersListing("unknown")
	m.ObserveUsersReturned(3)
	m.ObserveUsersReturned(2)
	m.ObserveUsersQueryDuration(2 * time.Millisecond)
	m.IncRateLimited()

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.HTTPRequests)
	assert.Equal(t, uint64(1), snap.HTTPServerErrors)
	assert.Equal(t, uint64(1), snap.UsersListed)
	assert.Equal(t, uint64(1), snap.UsersMethodNotAllowed)
	assert.Equal(t, uint64(1), snap.UsersDataAccessErrors)
	assert.Equal(t, uint64(5), snap.UsersReturned)
	assert.Equal(t, uint64(1), snap.UsersQueryCount)
	assert.Equal(t, (2 * time.Millisecond).Nanoseconds(), snap.UsersQueryDurationTotalNs)
	assert.Equal(t, uint64(1), snap.RateLimited)
}

func TestPrometheusRecorder(t *testing.T) {
	p := NewPrometheus()

	p.IncUsersListing(OutcomeSuccess)
	p.IncUsersListing(OutcomeSuccess)
	p.IncUsersListing(OutcomeDataAccessError)
	p.ObserveHTTPRequest("GET", "/api/db/users", 200, 10*time.Millisecond)
	p.IncRateLimited()

	assert.Equal(t, 2.0, testutil.ToFloat64(p.usersListingsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.usersListingsTotal.WithLabelValues(OutcomeDataAccessError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.httpRequestsTotal.WithLabelValues("GET", "/api/db/users", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.rateLimitedTotal))

	expected := `
# HELP http_rate_limited_total Total number of requests rejected by the rate limiter
# TYPE http_rate_limited_total counter
http_rate_limited_total 1
`
	require.NoError(t, testutil.GatherAndCompare(p.Gatherer(), strings.NewReader(expected), "http_rate_limited_total"))
}

func TestPrometheusRecordersAreIndependent(t *testing.T) {
	a := NewPrometheus()
	b := NewPrometheus()

	a.IncRateLimited()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.rateLimitedTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.rateLimitedTotal))
}
