// Package cortex issues Snowflake Cortex model calls through the SQL
// interface. Completion and embedding are computed server-side by the
// warehouse; this package only shapes the statements and reads the results.
package cortex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/snowchat/snowchat/internal/log"
	"github.com/snowchat/snowchat/internal/warehouse"
)

// ErrNoResponse indicates the completion call succeeded but returned an empty
// or missing result.
var ErrNoResponse = errors.New("no response from model")

// completeStmt binds the model identifier and prompt at execution time.
// String interpolation of the prompt is what forced the quote-escaping dance
// in earlier versions of this assistant; placeholders make it unnecessary.
const completeStmt = "SELECT SNOWFLAKE.CORTEX.COMPLETE(?, ?) AS response"

// Client executes Cortex completion calls over the shared warehouse
// connection.
type Client struct {
	db     warehouse.Querier
	logger log.Logger
}

// New creates a Client. db may be nil when connection setup failed; every
// call then reports warehouse.ErrNoConnection.
func New(db warehouse.Querier, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{db: db, logger: logger}
}

// Complete sends one completion request under the given model and returns the
// generated text. An empty or NULL result yields ErrNoResponse.
func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	if c.db == nil {
		return "", warehouse.ErrNoConnection
	}
	if !IsValidModel(model) {
		return "", fmt.Errorf("complete: unsupported model %q", model)
	}

	rows, err := c.db.QueryContext(ctx, completeStmt, model, prompt)
	if err != nil {
		return "", fmt.Errorf("executing completion: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", fmt.Errorf("reading completion: %w", err)
		}
		return "", ErrNoResponse
	}

	var response sql.NullString
	if err := rows.Scan(&response); err != nil {
		return "", fmt.Errorf("scanning completion: %w", err)
	}
	if !response.Valid || response.String == "" {
		return "", ErrNoResponse
	}

	c.logger.Debug("completion received", "model", model, "length", len(response.String))
	return response.String, rows.Err()
}
