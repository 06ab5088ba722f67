package warehouse

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"

	"github.com/snowchat/snowchat/internal/testutil"
)

func TestDetails(t *testing.T) {
	t.Run("returns session context", func(t *testing.T) {
		fake := testutil.NewFakeDB()
		fake.QueueRows(
			[]string{"CURRENT_WAREHOUSE()", "CURRENT_DATABASE()", "CURRENT_SCHEMA()"},
			[][]driver.Value{{"COMPUTE_WH", "DOCS_DB", "PUBLIC"}},
		)
		conn := NewFromDB(fake.Open(), nil)
		defer func() { _ = conn.Close() }()

		d, err := conn.Details(context.Background())
		if err != nil {
			t.Fatalf("Details() error = %v", err)
		}
		want := Details{Warehouse: "COMPUTE_WH", Database: "DOCS_DB", Schema: "PUBLIC"}
		if d != want {
			t.Errorf("Details() = %+v, want %+v", d, want)
		}

		if got := fake.LastCall().Query; !strings.Contains(got, "CURRENT_WAREHOUSE()") {
			t.Errorf("executed query = %q, want CURRENT_WAREHOUSE() call", got)
		}
	})

	t.Run("null columns become empty strings", func(t *testing.T) {
		fake := testutil.NewFakeDB()
		fake.QueueRows(
			[]string{"w", "d", "s"},
			[][]driver.Value{{nil, nil, nil}},
		)
		conn := NewFromDB(fake.Open(), nil)
		defer func() { _ = conn.Close() }()

		d, err := conn.Details(context.Background())
		if err != nil {
			t.Fatalf("Details() error = %v", err)
		}
		if d != (Details{}) {
			t.Errorf("Details() = %+v, want zero value", d)
		}
	})

	t.Run("query error propagates", func(t *testing.T) {
		fake := testutil.NewFakeDB()
		fake.QueueError(errors.New("session expired"))
		conn := NewFromDB(fake.Open(), nil)
		defer func() { _ = conn.Close() }()

		if _, err := conn.Details(context.Background()); err == nil {
			t.Fatal("Details() error = nil, want error")
		}
	})

	t.Run("nil connection reports ErrNoConnection", func(t *testing.T) {
		var conn *Conn
		if _, err := conn.Details(context.Background()); !errors.Is(err, ErrNoConnection) {
			t.Errorf("Details() error = %v, want %v", err, ErrNoConnection)
		}
	})
}

func TestNilConnIsSafe(t *testing.T) {
	var conn *Conn

	if db := conn.DB(); db != nil {
		t.Errorf("DB() = %v, want nil", db)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}
