// Package stage uploads documents to the warehouse object stage and lists its
// contents. The warehouse chunks and embeds staged documents on its own
// schedule; this package only moves bytes.
package stage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/snowchat/snowchat/internal/log"
	"github.com/snowchat/snowchat/internal/warehouse"
)

// Object is one entry in the stage listing.
type Object struct {
	Name string
	Size int64
}

// Stager uploads files to and lists a fixed named stage.
type Stager struct {
	db     warehouse.Querier
	stage  string
	logger log.Logger
}

// New creates a Stager for the named stage. db may be nil when connection
// setup failed; every operation then reports warehouse.ErrNoConnection.
func New(db warehouse.Querier, stageName string, logger log.Logger) *Stager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Stager{db: db, stage: stageName, logger: logger}
}

// Put uploads a document's bytes to the stage under server-side compression.
//
// The bytes are written to a uniquely named scratch file first, because PUT
// only reads from the local filesystem. The scratch path is known before any
// fallible step runs, and removal is deferred immediately after creation, so
// the file is gone when Put returns regardless of outcome.
func (s *Stager) Put(ctx context.Context, name string, content []byte) (string, error) {
	if s.db == nil {
		return "", warehouse.ErrNoConnection
	}

	tmp, err := os.CreateTemp("", "snowchat-upload-*"+filepath.Ext(name))
	if err != nil {
		return "", fmt.Errorf("creating scratch file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.logger.Warn("failed to remove scratch file", "path", tmpPath, "error", rmErr)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("writing scratch file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing scratch file: %w", err)
	}

	// PUT takes a quoted local file URL; it cannot be parameterized. The
	// path comes from os.CreateTemp, not from user input, but reject quotes
	// outright rather than trust the temp dir configuration.
	if strings.ContainsRune(tmpPath, '\'') {
		return "", fmt.Errorf("scratch path %q contains a quote", tmpPath)
	}

	stmt := fmt.Sprintf("PUT 'file://%s' @%s AUTO_COMPRESS=TRUE",
		filepath.ToSlash(tmpPath), s.stage)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return "", fmt.Errorf("uploading %q to stage @%s: %w", name, s.stage, err)
	}

	s.logger.Info("document staged", "name", name, "stage", s.stage, "bytes", len(content))
	return name, nil
}

// List returns the objects currently in the stage. No pagination, no caching;
// callers re-query whenever they need a fresh view.
func (s *Stager) List(ctx context.Context) ([]Object, error) {
	if s.db == nil {
		return nil, warehouse.ErrNoConnection
	}

	rows, err := s.db.QueryContext(ctx, "LIST @"+s.stage)
	if err != nil {
		return nil, fmt.Errorf("listing stage @%s: %w", s.stage, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading list columns: %w", err)
	}
	nameIdx, sizeIdx := -1, -1
	for i, c := range cols {
		switch strings.ToLower(c) {
		case "name":
			nameIdx = i
		case "size":
			sizeIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("list output has no name column (got %v)", cols)
	}

	var objects []Object
	for rows.Next() {
		dest := make([]any, len(cols))
		var name sql.NullString
		var size sql.NullInt64
		for i := range dest {
			switch i {
			case nameIdx:
				dest[i] = &name
			case sizeIdx:
				dest[i] = &size
			default:
				dest[i] = new(sql.RawBytes)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning list row: %w", err)
		}
		objects = append(objects, Object{Name: name.String, Size: size.Int64})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading stage listing: %w", err)
	}

	return objects, nil
}

// Name returns the stage name, for display.
func (s *Stager) Name() string {
	return s.stage
}
