package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listUsersPattern = regexp.QuoteMeta("SELECT * FROM users")

func setupMockDB(t *testing.T, limits Limits) (sqlmock.Sqlmock, *SQLRepository) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return mock, NewSQLFromDB(db, limits)
}

func TestSQLRepository_ListUsers_DecodesPostgresTypes(t *testing.T) {
	mock, repo := setupMockDB(t, Limits{})

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INT8", int64(0)),
		sqlmock.NewColumn("name").OfType("TEXT", ""),
		sqlmock.NewColumn("tags").OfType("_TEXT", []byte{}),
		sqlmock.NewColumn("scores").OfType("_INT4", []byte{}),
		sqlmock.NewColumn("balance").OfType("NUMERIC", []byte{}),
		sqlmock.NewColumn("profile").OfType("JSONB", []byte{}),
		sqlmock.NewColumn("manager_id").OfType("INT8", int64(0)),
	).
		AddRow(int64(1), "A", []byte(`{admin,NULL}`), []byte(`{3,4}`), []byte("12.50"), []byte(`{"theme":"dark"}`), nil).
		AddRow(int64(2), "B", []byte(`{}`), []byte(`{}`), []byte("7"), []byte(`null`), int64(1))

	mock.ExpectQuery(listUsersPattern).WillReturnRows(rows)

	users, err := repo.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	got, err := json.Marshal(users)
	require.NoError(t, err)
	assert.Equal(t,
		`[{"id":1,"name":"A","tags":["admin",null],"scores":[3,4],"balance":12.5,"profile":{"theme":"dark"},"manager_id":null},`+
			`{"id":2,"name":"B","tags":[],"scores":[],"balance":7,"profile":null,"manager_id":1}]`,
		string(got))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepository_ListUsers_Empty(t *testing.T) {
	mock, repo := setupMockDB(t, Limits{})

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INT8", int64(0)),
		sqlmock.NewColumn("name").OfType("TEXT", ""),
	)
	mock.ExpectQuery(listUsersPattern).WillReturnRows(rows)

	users, err := repo.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepository_ListUsers_QueryError(t *testing.T) {
	mock, repo := setupMockDB(t, Limits{})

	mock.ExpectQuery(listUsersPattern).
		WillReturnError(errors.New(`pq: relation "users" does not exist`))

	users, err := repo.ListUsers(context.Background())
	require.Error(t, err)
	assert.Nil(t, users)

	var dae *DataAccessError
	require.True(t, errors.As(err, &dae))
	assert.Equal(t, "query users", dae.Op)
	assert.Contains(t, err.Error(), `relation "users" does not exist`)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepository_ListUsers_RowError(t *testing.T) {
	mock, repo := setupMockDB(t, Limits{})

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INT8", int64(0)),
	).
		AddRow(int64(1)).
		AddRow(int64(2)).
		RowError(1, errors.New("connection reset by peer"))
	mock.ExpectQuery(listUsersPattern).WillReturnRows(rows)

	_, err := repo.ListUsers(context.Background())
	require.Error(t, err)

	var dae *DataAccessError
	assert.True(t, errors.As(err, &dae))
	assert.Contains(t, err.Error(), "connection reset by peer")
}

func TestSQLRepository_ListUsers_RowLimit(t *testing.T) {
	mock, repo := setupMockDB(t, Limits{MaxRows: 1})

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INT8", int64(0)),
	).
		AddRow(int64(1)).
		AddRow(int64(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users LIMIT 2")).WillReturnRows(rows)

	_, err := repo.ListUsers(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyRows))

	var dae *DataAccessError
	assert.True(t, errors.As(err, &dae))
}

func TestSQLRepository_ListUsers_WithinRowLimit(t *testing.T) {
	mock, repo := setupMockDB(t, Limits{MaxRows: 2})

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INT8", int64(0)),
	).
		AddRow(int64(1)).
		AddRow(int64(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users LIMIT 3")).WillReturnRows(rows)

	users, err := repo.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestDecodeColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		typeName string
		in       any
		want     string
	}{
		{"nil", "TEXT", nil, `null`},
		{"text bytes", "TEXT", []byte("hello"), `"hello"`},
		{"bytea is base64", "BYTEA", []byte{0x01, 0x02}, `"AQI="`},
		{"numeric integer", "NUMERIC", []byte("42"), `42`},
		{"numeric string", "DECIMAL", "3.25", `3.25`},
		{"numeric(20,2) stays exact", "NUMERIC", []byte("12345678901234567.89"), `12345678901234567.89`},
		{"numeric beyond int64", "NUMERIC", []byte("99999999999999999999"), `99999999999999999999`},
		{"numeric integral scale", "NUMERIC", []byte("10.00"), `10.0`},
		{"numeric NaN stays text", "NUMERIC", []byte("NaN"), `"NaN"`},
		{"json object keeps order", "JSON", []byte(`{"b":1,"a":2}`), `{"b":1,"a":2}`},
		{"invalid json stays text", "JSONB", []byte(`{oops`), `"{oops"`},
		{"bool array", "_BOOL", []byte(`{t,f,NULL}`), `[true,false,null]`},
		{"float array", "_FLOAT8", []byte(`{1.5,2}`), `[1.5,2.0]`},
		{"numeric array", "_NUMERIC", []byte(`{1.10,NULL}`), `[1.1,null]`},
		{"exact numeric array", "_NUMERIC", []byte(`{12345678901234567.89}`), `[12345678901234567.89]`},
		{"quoted text array", "_VARCHAR", []byte(`{"a b","c,d"}`), `["a b","c,d"]`},
		{"malformed array stays text", "_INT4", []byte(`{x}`), `"{x}"`},
		{"int passthrough", "INTEGER", int64(9), `9`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := json.Marshal(decodeColumn(tt.typeName, tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}
