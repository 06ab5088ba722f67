// Package testutil provides shared fakes for exercising warehouse-backed
// components without a live Snowflake connection.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
)

// Call records one statement executed against the fake database.
type Call struct {
	Query string
	Args  []driver.Value
}

// Rows is a scripted result set.
type Rows struct {
	Columns []string
	Values  [][]driver.Value
}

// outcome is what the fake returns for one statement, in FIFO order.
type outcome struct {
	rows *Rows
	err  error
}

// FakeDB is a scriptable database/sql backend. Script outcomes with QueueRows,
// QueueError or QueueOK before running the code under test; each executed
// statement consumes the next outcome. Statements beyond the script return
// empty results. All statements are recorded and available via Calls.
//
// FakeDB is safe for concurrent use.
type FakeDB struct {
	mu       sync.Mutex
	outcomes []outcome
	calls    []Call
}

// NewFakeDB creates an empty fake backend.
func NewFakeDB() *FakeDB {
	return &FakeDB{}
}

// QueueRows scripts a result set for the next statement.
func (f *FakeDB) QueueRows(columns []string, values [][]driver.Value) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome{rows: &Rows{Columns: columns, Values: values}})
}

// QueueError scripts a failure for the next statement.
func (f *FakeDB) QueueError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome{err: err})
}

// QueueOK scripts a successful statement with no rows (DDL, PUT, ...).
func (f *FakeDB) QueueOK() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome{rows: &Rows{}})
}

// Calls returns a copy of all recorded statements, in execution order.
func (f *FakeDB) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// LastCall returns the most recent statement, or a zero Call if none ran.
func (f *FakeDB) LastCall() Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return Call{}
	}
	return f.calls[len(f.calls)-1]
}

// Open returns a *sql.DB backed by this fake. Multiple calls share the same
// script and call log.
func (f *FakeDB) Open() *sql.DB {
	return sql.OpenDB(connector{f})
}

// next records the call and pops the next scripted outcome.
func (f *FakeDB) next(query string, args []driver.Value) (*Rows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Query: query, Args: args})

	if len(f.outcomes) == 0 {
		return &Rows{}, nil
	}
	o := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	if o.err != nil {
		return nil, o.err
	}
	return o.rows, nil
}

// ---- database/sql/driver plumbing ----

type connector struct{ f *FakeDB }

func (c connector) Connect(context.Context) (driver.Conn, error) { return conn{c.f}, nil }
func (c connector) Driver() driver.Driver                        { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("testutil: open by DSN not supported, use FakeDB.Open")
}

type conn struct{ f *FakeDB }

func (conn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("testutil: prepared statements not supported")
}
func (conn) Close() error              { return nil }
func (conn) Begin() (driver.Tx, error) { return nil, errors.New("testutil: transactions not supported") }

func namedToValues(named []driver.NamedValue) []driver.Value {
	vals := make([]driver.Value, len(named))
	for i, nv := range named {
		vals[i] = nv.Value
	}
	return vals
}

// QueryContext implements driver.QueryerContext.
func (c conn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	scripted, err := c.f.next(query, namedToValues(args))
	if err != nil {
		return nil, err
	}
	return &rows{script: scripted}, nil
}

// ExecContext implements driver.ExecerContext.
func (c conn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if _, err := c.f.next(query, namedToValues(args)); err != nil {
		return nil, err
	}
	return driver.RowsAffected(0), nil
}

type rows struct {
	script *Rows
	pos    int
}

func (r *rows) Columns() []string { return r.script.Columns }
func (r *rows) Close() error      { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.pos >= len(r.script.Values) {
		return io.EOF
	}
	copy(dest, r.script.Values[r.pos])
	r.pos++
	return nil
}
