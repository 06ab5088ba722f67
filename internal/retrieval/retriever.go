// Package retrieval ranks stored document chunks against a question by cosine
// similarity. The question embedding is computed server-side by the warehouse
// with a fixed embedding model; nothing vector-shaped ever crosses the wire
// into this process.
package retrieval

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/snowchat/snowchat/internal/log"
	"github.com/snowchat/snowchat/internal/warehouse"
)

// Chunk is one retrieved document fragment.
type Chunk struct {
	Text string
	Path string // relative path of the staged source document
}

// Chunks is an ordered result set, most similar first.
type Chunks []Chunk

// Context concatenates the chunk texts with no separator, matching the shape
// the prompt was tuned with. Empty for an empty result set.
func (cs Chunks) Context() string {
	var b strings.Builder
	for _, c := range cs {
		b.WriteString(c.Text)
	}
	return b.String()
}

// Options configure a Retriever.
type Options struct {
	// Table is the chunk table name. Validated as an identifier by config,
	// since table names cannot be bound as parameters.
	Table string

	// EmbeddingModel is the fixed server-side embedding model identifier.
	EmbeddingModel string

	// TopK is the number of chunks returned per question.
	TopK int
}

// Retriever executes the similarity ranking query.
type Retriever struct {
	db     warehouse.Querier
	opts   Options
	logger log.Logger
}

// New creates a Retriever. db may be nil when connection setup failed; every
// search then reports warehouse.ErrNoConnection.
func New(db warehouse.Querier, opts Options, logger log.Logger) *Retriever {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Retriever{db: db, opts: opts, logger: logger}
}

// sanitizeQuestion removes single quotes from the question before it is sent.
// The statement itself is parameterized, so this is not an injection defense;
// it preserves the retrieval behavior the chunk embeddings were built against.
func sanitizeQuestion(q string) string {
	return strings.ReplaceAll(q, "'", "")
}

// Search returns the TopK most similar chunks for the question.
// Zero matching rows yield an empty, non-nil slice. Tie-break among equal
// similarity scores is whatever order the warehouse returns.
func (r *Retriever) Search(ctx context.Context, question string) (Chunks, error) {
	if r.db == nil {
		return nil, warehouse.ErrNoConnection
	}

	// The table name and limit are spliced in: identifiers cannot be bound,
	// and both values come from validated configuration, never user input.
	stmt := fmt.Sprintf(`
		WITH results AS (
			SELECT relative_path,
			       VECTOR_COSINE_SIMILARITY(chunk_vec,
			           SNOWFLAKE.CORTEX.EMBED_TEXT_768(?, ?)) AS similarity,
			       chunk
			FROM %s
			ORDER BY similarity DESC
			LIMIT %d
		)
		SELECT chunk, relative_path FROM results`, r.opts.Table, r.opts.TopK)

	rows, err := r.db.QueryContext(ctx, stmt, r.opts.EmbeddingModel, sanitizeQuestion(question))
	if err != nil {
		return nil, fmt.Errorf("executing similarity search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	chunks := make(Chunks, 0, r.opts.TopK)
	for rows.Next() {
		var text, path sql.NullString
		if err := rows.Scan(&text, &path); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, Chunk{Text: text.String, Path: path.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}

	r.logger.Debug("similarity search complete", "chunks", len(chunks))
	return chunks, nil
}

// ContextFor runs Search and concatenates the chunk texts. This is the form
// the chat flow consumes.
func (r *Retriever) ContextFor(ctx context.Context, question string) (string, error) {
	chunks, err := r.Search(ctx, question)
	if err != nil {
		return "", err
	}
	return chunks.Context(), nil
}
