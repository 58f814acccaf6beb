package storage

import (
	"context"

	"github.com/darknebula/questfeed/internal/row"
)

// Sink commits batches of rows to a storage system. Rows must reach the
// sink in slice order.
type Sink interface {
	CommitRows(ctx context.Context, data []row.Row) error
}
