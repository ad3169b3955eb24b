package domain

import "context"

// RowSink receives the canonical rows of each processed file, in order.
type RowSink interface {
	// Name identifies the sink in logs and metrics, e.g. "csv".
	Name() string

	// Load writes every row of batch.
	Load(ctx context.Context, batch Batch) error

	// Close flushes and releases the sink.
	Close() error
}
