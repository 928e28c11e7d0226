package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplehttp/simplehttp/internal/cache"
	"github.com/simplehttp/simplehttp/internal/config"
	"github.com/simplehttp/simplehttp/internal/metrics"
	"github.com/simplehttp/simplehttp/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:             "test",
		DatabaseDriver:     repository.DriverSQLite,
		DBMaxConns:         4,
		DBMinConns:         1,
		RateLimitEnabled:   false,
		RateLimitRPS:       20,
		RateLimitBurst:     40,
		MaxRequestBodySize: 1 << 20,
		MetricsEnabled:     true,
	}
}

// sqliteFile creates a database file with a users table and returns its DSN.
func sqliteFile(t *testing.T, stmts ...string) string {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "users.db")
	db, err := sql.Open(repository.DriverSQLite, dsn)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return dsn
}

const createUsers = `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT)`

func newTestApp(t *testing.T, cfg *config.Config, dsn string) *app {
	t.Helper()

	cfg.DatabaseURL = dsn
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := newApp(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_UsersListing(t *testing.T) {
	dsn := sqliteFile(t, createUsers,
		`INSERT INTO users (id, name, email) VALUES (1, 'A', 'a@example.com'), (2, 'B', NULL)`)
	router := newTestApp(t, testConfig(), dsn).router()

	rec := do(t, router, http.MethodGet, "/api/db/users")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t,
		`{"status":"success","data":[{"id":1,"name":"A","email":"a@example.com"},{"id":2,"name":"B","email":null}]}`,
		strings.TrimSpace(rec.Body.String()))
}

func TestRouter_UsersListing_Empty(t *testing.T) {
	router := newTestApp(t, testConfig(), sqliteFile(t, createUsers)).router()

	rec := do(t, router, http.MethodGet, "/api/db/users")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"status":"success","data":[]}`, strings.TrimSpace(rec.Body.String()))
}

func TestRouter_UsersListing_MissingTable(t *testing.T) {
	router := newTestApp(t, testConfig(), sqliteFile(t)).router()

	rec := do(t, router, http.MethodGet, "/api/db/users")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.True(t, strings.HasPrefix(body["message"], "Database error: "), body["message"])
	assert.Contains(t, body["message"], "no such table")
}

func TestRouter_UsersListing_RowLimit(t *testing.T) {
	dsn := sqliteFile(t, createUsers,
		`INSERT INTO users (id, name) VALUES (1, 'A'), (2, 'B'), (3, 'C')`)
	cfg := testConfig()
	cfg.MaxRows = 2
	router := newTestApp(t, cfg, dsn).router()

	rec := do(t, router, http.MethodGet, "/api/db/users")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"Database error: `)
}

func TestRouter_UsersListing_MethodNotAllowed(t *testing.T) {
	router := newTestApp(t, testConfig(), sqliteFile(t, createUsers)).router()

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		rec := do(t, router, method, "/api/db/users")

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.JSONEq(t, `{"status":"error","message":"Method not allowed"}`, rec.Body.String(), method)
	}
}

func TestRouter_Fallbacks(t *testing.T) {
	router := newTestApp(t, testConfig(), sqliteFile(t, createUsers)).router()

	tests := []struct {
		name   string
		method string
		target string
		status int
		body   string
	}{
		{name: "unknown path", method: http.MethodGet, target: "/nope", status: http.StatusNotFound, body: `{"status":"error","message":"Not found"}`},
		{name: "unknown api path", method: http.MethodGet, target: "/api/nope", status: http.StatusNotFound, body: `{"status":"error","message":"Not found"}`},
		{name: "wrong method", method: http.MethodPost, target: "/healthz", status: http.StatusMethodNotAllowed, body: `{"status":"error","message":"Method not allowed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.target)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestRouter_ExampleEndpoints(t *testing.T) {
	router := newTestApp(t, testConfig(), sqliteFile(t)).router()

	for _, target := range []string{"/api/example", "/api_example.php"} {
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			rec := do(t, router, method, target)
			require.Equal(t, http.StatusOK, rec.Code, target)

			var body struct {
				Status  string `json:"status"`
				Message string `json:"message"`
				Data    struct {
					Timestamp    int64 `json:"timestamp"`
					RandomNumber int   `json:"random_number"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "success", body.Status)
			assert.Equal(t, "This is a test response from the API example endpoint", body.Message)
			assert.Positive(t, body.Data.Timestamp)
			assert.GreaterOrEqual(t, body.Data.RandomNumber, 1)
			assert.LessOrEqual(t, body.Data.RandomNumber, 100)
		}
	}
}

func TestRouter_Diagnostics(t *testing.T) {
	router := newTestApp(t, testConfig(), sqliteFile(t)).router()

	rec := do(t, router, http.MethodGet, "/echo?text=ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ping", rec.Body.String())

	rec = do(t, router, http.MethodGet, "/echo")
	assert.Equal(t, "NO TEXT PROVIDED", rec.Body.String())

	rec = do(t, router, http.MethodGet, "/time")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasSuffix(rec.Body.String(), "UTC"), rec.Body.String())
}

func TestRouter_WebClient(t *testing.T) {
	router := newTestApp(t, testConfig(), sqliteFile(t)).router()

	rec := do(t, router, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "script.js")
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))

	rec = do(t, router, http.MethodGet, "/script.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/db/users")
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := newTestApp(t, testConfig(), sqliteFile(t, createUsers)).router()

	rec := do(t, router, http.MethodGet, "/healthz")
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok","redis":"not configured"}}`, rec.Body.String())

	do(t, router, http.MethodGet, "/api/db/users")
	rec = do(t, router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `users_listings_total{outcome="success"} 1`)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/api/db/users",status="200"} 1`)
}

func TestRouter_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false
	router := newTestApp(t, cfg, sqliteFile(t)).router()

	rec := do(t, router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := testConfig()
	cfg.RateLimitEnabled = true
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 1
	cfg.DatabaseURL = sqliteFile(t, createUsers)

	store, err := repository.NewSQL(context.Background(), repository.Options{
		Driver:      repository.DriverSQLite,
		DatabaseURL: cfg.DatabaseURL,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	a := &app{
		cfg:      cfg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		store:    store,
		cache:    cache.NewFromClient(client),
		recorder: metrics.NewNoop(),
	}
	router := a.router()

	var limited *httptest.ResponseRecorder
	for i := 0; i < 5 && limited == nil; i++ {
		rec := do(t, router, http.MethodGet, "/api/db/users")
		if rec.Code == http.StatusTooManyRequests {
			limited = rec
		}
	}
	require.NotNil(t, limited, "expected a 429 within five requests")
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(limited.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.True(t, strings.HasPrefix(body["message"], "Rate limit exceeded"))

	// Operations endpoints are not rate limited.
	rec := do(t, router, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAppClose_ReleasesDependenciesOnce(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.DatabaseURL = sqliteFile(t, createUsers)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := newApp(context.Background(), cfg, logger)
	require.NoError(t, err)

	a.close()
	a.close()

	assert.Error(t, a.store.Ping(context.Background()))
	assert.Error(t, a.cache.Ping(context.Background()))
}
