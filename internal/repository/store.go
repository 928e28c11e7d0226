package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/simplehttp/simplehttp/internal/model"
)

// Supported values for Options.Driver.
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Store is the read capability the HTTP layer needs from a backend.
type Store interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
	Ping(ctx context.Context) error
	Close() error
}

// Limits bounds a single listing.
type Limits struct {
	// QueryTimeout caps one listing. Zero means no timeout.
	QueryTimeout time.Duration
	// MaxRows is the largest result accepted. Zero means unbounded.
	MaxRows int
}

// Options configures a store connection.
type Options struct {
	Driver      string
	DatabaseURL string
	MaxConns    int32
	MinConns    int32
	Limits
}

func (o Options) maxConns() int32 {
	if o.MaxConns <= 0 {
		return 10
	}
	return o.MaxConns
}

func (o Options) minConns() int32 {
	if o.MinConns < 0 {
		return 0
	}
	if o.MinConns > o.maxConns() {
		return o.maxConns()
	}
	return o.MinConns
}

// Open connects to the backend selected by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverPgx, "":
		return New(ctx, opts)
	case DriverPostgres, DriverSQLite:
		return NewSQL(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

func (l Limits) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.QueryTimeout)
}

// exceeded reports whether reading one more row would break MaxRows.
func (l Limits) exceeded(read int) bool {
	return l.MaxRows > 0 && read >= l.MaxRows
}

// listUsersQuery selects every column of every user. With a row limit it
// fetches one extra row so an oversized table is detected instead of truncated.
func listUsersQuery(maxRows int) string {
	query := "SELECT * FROM " + model.UsersTable
	if maxRows > 0 {
		query += fmt.Sprintf(" LIMIT %d", maxRows+1)
	}
	return query
}

// buildUser pairs column names with driver values. Values that are already
// model.Values pass through unchanged.
func buildUser(names []string, values []any) *model.User {
	user := model.NewRow()
	for i, name := range names {
		var v any
		if i < len(values) {
			v = values[i]
		}
		user.Set(name, model.FromDriver(v))
	}
	return user
}
