package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/simplehttp/simplehttp/internal/model"
)

// SQLRepository reads through database/sql. It serves the lib/pq
// ("postgres") and go-sqlite3 ("sqlite3") drivers.
type SQLRepository struct {
	db     *sql.DB
	limits Limits
}

// NewSQL opens a database/sql pool for opts.Driver and verifies it.
func NewSQL(ctx context.Context, opts Options) (*SQLRepository, error) {
	db, err := sql.Open(opts.Driver, opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", opts.Driver, err)
	}

	db.SetMaxOpenConns(int(opts.maxConns()))
	db.SetMaxIdleConns(int(opts.minConns()))

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewSQLFromDB(db, opts.Limits), nil
}

// NewSQLFromDB wraps an existing pool.
func NewSQLFromDB(db *sql.DB, limits Limits) *SQLRepository {
	return &SQLRepository{db: db, limits: limits}
}

// ListUsers returns every row of the users table in the order the store yields them.
// A dedicated connection is taken from the pool and returned on every path.
func (r *SQLRepository) ListUsers(ctx context.Context) ([]*model.User, error) {
	ctx, cancel := r.limits.withTimeout(ctx)
	defer cancel()

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, dataAccessError("acquire connection", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, listUsersQuery(r.limits.MaxRows))
	if err != nil {
		return nil, dataAccessError("query users", err)
	}
	defer rows.Close()

	columns, err := rows.ColumnTypes()
	if err != nil {
		return nil, dataAccessError("read columns", err)
	}

	names := make([]string, len(columns))
	typeNames := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name()
		typeNames[i] = strings.ToUpper(c.DatabaseTypeName())
	}

	raw := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}

	users := make([]*model.User, 0)
	for rows.Next() {
		if r.limits.exceeded(len(users)) {
			return nil, dataAccessError("read users", tooManyRows(r.limits.MaxRows))
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, dataAccessError("scan user", err)
		}

		values := make([]any, len(raw))
		for i, v := range raw {
			values[i] = decodeColumn(typeNames[i], v)
		}
		users = append(users, buildUser(names, values))
	}
	if err := rows.Err(); err != nil {
		return nil, dataAccessError("read users", err)
	}

	return users, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the pool.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying pool.
// Use sparingly - prefer adding methods to SQLRepository.
func (r *SQLRepository) DB() *sql.DB {
	return r.db
}

// decodeColumn turns a scanned value into a model.Value using the column's
// database type name. Text-encoded types (arrays, numerics, JSON) arrive as
// bytes from lib/pq and need the type to be read correctly.
func decodeColumn(typeName string, v any) model.Value {
	if v == nil {
		return model.Null()
	}

	b, isBytes := v.([]byte)
	if !isBytes {
		if s, ok := v.(string); ok && (isNumericType(typeName) || isJSONType(typeName)) {
			b, isBytes = []byte(s), true
		}
	}
	if !isBytes {
		return model.FromDriver(v)
	}

	switch {
	case strings.HasPrefix(typeName, "_"):
		if arr, ok := decodePQArray(strings.TrimPrefix(typeName, "_"), b); ok {
			return arr
		}
	case isNumericType(typeName):
		if n, err := model.ParseNumber(string(b)); err == nil {
			return n
		}
	case isJSONType(typeName):
		var doc model.Value
		if err := doc.UnmarshalJSON(b); err == nil {
			return doc
		}
	case typeName == "BYTEA" || typeName == "BLOB":
		return model.String(base64.StdEncoding.EncodeToString(b))
	}

	return model.String(string(b))
}

func isNumericType(typeName string) bool {
	return typeName == "NUMERIC" || typeName == "DECIMAL"
}

func isJSONType(typeName string) bool {
	return typeName == "JSON" || typeName == "JSONB"
}

// decodePQArray parses a one-dimensional PostgreSQL array literal.
func decodePQArray(elem string, src []byte) (model.Value, bool) {
	switch elem {
	case "INT2", "INT4", "INT8":
		var items []sql.NullInt64
		if err := scanArray(&items, src); err != nil {
			return model.Value{}, false
		}
		return arrayOf(items), true
	case "FLOAT4", "FLOAT8":
		var items []sql.NullFloat64
		if err := scanArray(&items, src); err != nil {
			return model.Value{}, false
		}
		return arrayOf(items), true
	case "BOOL":
		var items []sql.NullBool
		if err := scanArray(&items, src); err != nil {
			return model.Value{}, false
		}
		return arrayOf(items), true
	case "NUMERIC":
		var items []sql.NullString
		if err := scanArray(&items, src); err != nil {
			return model.Value{}, false
		}
		out := make([]model.Value, len(items))
		for i, item := range items {
			out[i] = decodeColumn("NUMERIC", nullString(item))
		}
		return model.Array(out...), true
	default:
		var items []sql.NullString
		if err := scanArray(&items, src); err != nil {
			return model.Value{}, false
		}
		return arrayOf(items), true
	}
}

func scanArray(dest any, src []byte) error {
	arr := pq.GenericArray{A: dest}
	return arr.Scan(src)
}

func nullString(s sql.NullString) any {
	if !s.Valid {
		return nil
	}
	return s.String
}

func arrayOf[T driver.Valuer](items []T) model.Value {
	out := make([]model.Value, len(items))
	for i, item := range items {
		v, err := item.Value()
		if err != nil {
			v = nil
		}
		out[i] = model.FromDriver(v)
	}
	return model.Array(out...)
}
