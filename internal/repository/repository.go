// Package repository provides database access layer.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simplehttp/simplehttp/internal/model"
)

// Repository reads from PostgreSQL through a pgx connection pool.
type Repository struct {
	pool   *pgxpool.Pool
	limits Limits
}

// New creates a new Repository with a connection pool.
func New(ctx context.Context, opts Options) (*Repository, error) {
	config, err := pgxpool.ParseConfig(opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = opts.maxConns()
	config.MinConns = opts.minConns()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool, limits: opts.Limits}, nil
}

// ListUsers returns every row of the users table in the order the store yields them.
// A pooled connection is held for the duration of the query and released on return.
func (r *Repository) ListUsers(ctx context.Context) ([]*model.User, error) {
	ctx, cancel := r.limits.withTimeout(ctx)
	defer cancel()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, dataAccessError("acquire connection", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, listUsersQuery(r.limits.MaxRows))
	if err != nil {
		return nil, dataAccessError("query users", err)
	}
	defer rows.Close()

	descs := rows.FieldDescriptions()
	names := make([]string, len(descs))
	for i, fd := range descs {
		names[i] = fd.Name
	}

	users := make([]*model.User, 0)
	for rows.Next() {
		if r.limits.exceeded(len(users)) {
			return nil, dataAccessError("read users", tooManyRows(r.limits.MaxRows))
		}

		values, err := rows.Values()
		if err != nil {
			return nil, dataAccessError("read users", err)
		}
		decodeJSONColumns(descs, rows.RawValues(), values)
		users = append(users, buildUser(names, values))
	}
	if err := rows.Err(); err != nil {
		return nil, dataAccessError("read users", err)
	}

	return users, nil
}

// decodeJSONColumns replaces pgx's decoded json and jsonb values, which are
// maps without key order, with documents parsed from the column bytes.
func decodeJSONColumns(descs []pgconn.FieldDescription, raw [][]byte, values []any) {
	for i, fd := range descs {
		if i >= len(raw) || i >= len(values) || raw[i] == nil {
			continue
		}

		b := raw[i]
		switch fd.DataTypeOID {
		case pgtype.JSONOID:
		case pgtype.JSONBOID:
			// Binary jsonb starts with a version byte.
			if fd.Format == pgtype.BinaryFormatCode && len(b) > 0 && b[0] == 1 {
				b = b[1:]
			}
		default:
			continue
		}

		var doc model.Value
		if err := doc.UnmarshalJSON(b); err == nil {
			values[i] = doc
		}
	}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer adding methods to Repository.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}
