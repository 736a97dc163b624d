// Package db holds the pgx pool abstraction and bulk-load helpers shared by
// the Postgres store.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// DefaultCopyBatch bounds the rows sent in one COPY.
const DefaultCopyBatch = 5000

// CopyFrom bulk-inserts rows into table with the COPY protocol, batchSize
// rows at a time. It returns the total rows copied; on failure the count
// covers the batches that completed.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = DefaultCopyBatch
	}

	var total int64
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows[start:end]))
		if err != nil {
			return total, eris.Wrapf(err, "db: copy into %s rows %d-%d", table, start, end)
		}
		total += n
	}
	return total, nil
}
