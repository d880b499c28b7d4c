// Package store adapts the MySQL back office database: pooled access,
// schema introspection for prompt building, and read-only query execution.
package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/theboatbrokers/brokerchat/internal/config"
)

// ErrConnection marks the database as unreachable or misconfigured. It is
// fatal for the request that hits it.
var ErrConnection = errors.New("store: database connection failed")

// Store executes read statements against the brokerage database. The
// embedded pool is the only shared mutable resource across requests; each
// statement acquires one connection and releases it on every exit path.
type Store struct {
	db           *sqlx.DB
	queryTimeout time.Duration
}

// Open connects to MySQL and verifies the connection.
func Open(cfg config.DBConfig) (*Store, error) {
	db, err := sqlx.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	return &Store{db: db, queryTimeout: cfg.QueryTimeout}, nil
}

// NewWithDB wraps an existing handle; used by tests.
func NewWithDB(db *sqlx.DB, queryTimeout time.Duration) *Store {
	return &Store{db: db, queryTimeout: queryTimeout}
}

// Close releases the pool.
func (s *Store) Close() error { return s.db.Close() }

// Schema introspects the database into newline-delimited
// "table(col1,col2,...)" lines, the exact text embedded in generation
// prompts.
func (s *Store) Schema(ctx context.Context) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var tables []string
	if err := s.db.SelectContext(ctx, &tables, "SHOW TABLES"); err != nil {
		return "", s.wrapErr(err)
	}
	sort.Strings(tables)

	var b strings.Builder
	for _, table := range tables {
		cols, err := s.Columns(ctx, table)
		if err != nil {
			return "", err
		}
		b.WriteString(table)
		b.WriteString("(")
		b.WriteString(strings.Join(cols, ","))
		b.WriteString(")\n")
	}
	return b.String(), nil
}

// Tables lists table names.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	var tables []string
	if err := s.db.SelectContext(ctx, &tables, "SHOW TABLES"); err != nil {
		return nil, s.wrapErr(err)
	}
	return tables, nil
}

// Columns lists a table's column names in definition order.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryxContext(ctx, fmt.Sprintf("SHOW COLUMNS FROM `%s`", table))
	if err != nil {
		return nil, s.wrapErr(err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		if field, ok := row["Field"]; ok {
			cols = append(cols, asString(field))
		}
	}
	return cols, rows.Err()
}

// Query runs one parameterized SELECT and materializes the result as an
// ordered slice of column-keyed rows. Values are never interpolated into
// the statement text.
func (s *Store) Query(ctx context.Context, stmt string, args ...any) ([]map[string]any, error) {
	_, rows, err := s.QueryRows(ctx, stmt, args...)
	return rows, err
}

// QueryRows is Query plus the result's column names in select order, for
// renderers that need stable column ordering.
func (s *Store) QueryRows(ctx context.Context, stmt string, args ...any) ([]string, []map[string]any, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryxContext(ctx, stmt, args...)
	if err != nil {
		return nil, nil, s.wrapErr(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	out := []map[string]any{}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, nil, err
		}
		for k, v := range row {
			// The MySQL driver hands text columns back as []byte.
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

// QueryRow runs a single-row lookup; the second return is false when no
// row matched.
func (s *Store) QueryRow(ctx context.Context, stmt string, args ...any) (map[string]any, bool, error) {
	rows, err := s.Query(ctx, stmt, args...)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Store) wrapErr(err error) error {
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return err
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
