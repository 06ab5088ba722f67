// Package warehouse manages the single Snowflake connection shared by every
// query-issuing component.
//
// The connection is opened once at process start and closed at exit; there is
// no reconnection logic. Components that execute queries depend on the Querier
// interface rather than on *sql.DB directly, and must report ErrNoConnection
// when constructed without a live handle instead of panicking downstream.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/snowflakedb/gosnowflake" // registers the "snowflake" driver

	"github.com/snowchat/snowchat/internal/log"
)

// ErrNoConnection indicates an operation that needs the warehouse was invoked
// while the connection is absent (setup failed at startup).
var ErrNoConnection = errors.New("no warehouse connection")

// Querier is the interface components use to execute statements.
// *sql.DB satisfies it. Defined by the consumer side, like io.Reader.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Conn is the live connection handle.
type Conn struct {
	db     *sql.DB
	logger log.Logger
}

// Open connects to Snowflake using a gosnowflake DSN and verifies the
// connection with a ping. The caller owns the returned Conn and must Close it.
func Open(ctx context.Context, dsn string, logger log.Logger) (*Conn, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening warehouse connection: %w", err)
	}

	// One session per interactive process. The pool is an implementation
	// detail of database/sql; keep it at a single connection so session
	// context (warehouse, database, schema) is stable.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging warehouse: %w", err)
	}

	logger.Debug("warehouse connection established")
	return &Conn{db: db, logger: logger}, nil
}

// NewFromDB wraps an existing database handle. Used by tests and by callers
// that manage the handle themselves.
func NewFromDB(db *sql.DB, logger log.Logger) *Conn {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Conn{db: db, logger: logger}
}

// DB returns the underlying handle for components that take a Querier.
// Returns nil on a nil Conn, which downstream components translate into
// ErrNoConnection.
func (c *Conn) DB() *sql.DB {
	if c == nil {
		return nil
	}
	return c.db
}

// Close closes the connection.
func (c *Conn) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Details describes the session targets reported by the warehouse.
type Details struct {
	Warehouse string
	Database  string
	Schema    string
}

// Details queries the current session context for display.
func (c *Conn) Details(ctx context.Context) (Details, error) {
	if c == nil || c.db == nil {
		return Details{}, ErrNoConnection
	}

	rows, err := c.db.QueryContext(ctx,
		"SELECT CURRENT_WAREHOUSE(), CURRENT_DATABASE(), CURRENT_SCHEMA()")
	if err != nil {
		return Details{}, fmt.Errorf("querying session details: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Details{}, fmt.Errorf("reading session details: %w", err)
		}
		return Details{}, errors.New("session details query returned no rows")
	}

	var d Details
	var wh, db, schema sql.NullString
	if err := rows.Scan(&wh, &db, &schema); err != nil {
		return Details{}, fmt.Errorf("scanning session details: %w", err)
	}
	d.Warehouse = wh.String
	d.Database = db.String
	d.Schema = schema.String

	return d, rows.Err()
}
