package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// UsersTableDDL is the users table used by integration tests.
const UsersTableDDL = `
	CREATE TABLE users (
		id         BIGINT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT,
		tags       TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// User is a seed row for the users table.
type User struct {
	ID    int64
	Name  string
	Email *string
	Tags  []string
}

// ResetUsersTable drops and recreates the users table, then inserts seed in order.
func ResetUsersTable(ctx context.Context, pool *pgxpool.Pool, seed ...User) error {
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS users"); err != nil {
		return fmt.Errorf("drop users table: %w", err)
	}
	if _, err := pool.Exec(ctx, UsersTableDDL); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	for _, u := range seed {
		tags := u.Tags
		if tags == nil {
			tags = []string{}
		}
		if _, err := pool.Exec(ctx,
			"INSERT INTO users (id, name, email, tags) VALUES ($1, $2, $3, $4)",
			u.ID, u.Name, u.Email, tags,
		); err != nil {
			return fmt.Errorf("insert user %d: %w", u.ID, err)
		}
	}

	return nil
}

// DropUsersTable removes the users table.
func DropUsersTable(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS users"); err != nil {
		return fmt.Errorf("drop users table: %w", err)
	}
	return nil
}

// SQLiteMemoryDSN returns a DSN for a named in-memory SQLite database shared
// by every connection of one pool.
func SQLiteMemoryDSN(name string) string {
	return "file:" + name + "?mode=memory&cache=shared"
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}
