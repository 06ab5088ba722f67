package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/snowchat/snowchat/internal/chat"
	"github.com/snowchat/snowchat/internal/config"
	"github.com/snowchat/snowchat/internal/cortex"
	"github.com/snowchat/snowchat/internal/log"
	"github.com/snowchat/snowchat/internal/retrieval"
	"github.com/snowchat/snowchat/internal/stage"
	"github.com/snowchat/snowchat/internal/warehouse"
)

// runtime bundles the wired components behind one command invocation.
type runtime struct {
	cfg    *config.Config
	logger log.Logger
	conn   *warehouse.Conn // nil when connection setup failed
	stager *stage.Stager
	flow   *chat.Flow
}

// newRuntime loads configuration, opens the warehouse connection, and wires
// the pipeline. When requireConn is false a failed connection is reported but
// not fatal: components are wired with a nil handle and answer every
// operation with warehouse.ErrNoConnection, which the chat UI renders inline.
func newRuntime(ctx context.Context, requireConn bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: logLevel})
	slog.SetDefault(logger)

	var conn *warehouse.Conn
	dsn, err := cfg.DSN()
	if err == nil {
		conn, err = warehouse.Open(ctx, dsn, logger.With("component", "warehouse"))
	}
	if err != nil {
		if requireConn {
			return nil, fmt.Errorf("connecting to Snowflake: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Error connecting to Snowflake: %v\n", err)
		logger.Warn("starting without warehouse connection", "error", err)
		conn = nil
	}

	// A typed-nil *sql.DB would defeat the components' nil checks; leave the
	// interface nil when there is no connection.
	var db warehouse.Querier
	if conn != nil {
		db = conn.DB()
	}

	client := cortex.New(db, logger.With("component", "cortex"))
	retriever := retrieval.New(db, retrieval.Options{
		Table:          cfg.ChunkTable,
		EmbeddingModel: cfg.EmbeddingModel,
		TopK:           cfg.NumChunks,
	}, logger.With("component", "retrieval"))

	return &runtime{
		cfg:    cfg,
		logger: logger,
		conn:   conn,
		stager: stage.New(db, cfg.Stage, logger.With("component", "stage")),
		flow:   chat.NewFlow(retriever, client, logger.With("component", "chat")),
	}, nil
}

// Close releases the warehouse connection.
func (r *runtime) Close() error {
	return r.conn.Close()
}
