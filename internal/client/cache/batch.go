package cache

import (
	"context"
	"fmt"
)

const defaultBatchSize = 50

// WriteFunc persists one chunk of records at the remote destination.
type WriteFunc[T any] func(ctx context.Context, chunk []T) error

// Progress is invoked after each successfully written chunk.
type Progress func(written, total int)

// BatchWrite splits records into chunks of batchSize and writes them
// sequentially. A chunk failure aborts the remaining chunks and is returned
// to the caller; chunks already written stay written (at-least-once, not
// atomic).
func BatchWrite[T any](ctx context.Context, write WriteFunc[T], records []T, batchSize int, progress Progress) error {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	total := len(records)
	for written := 0; written < total; {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := written + batchSize
		if end > total {
			end = total
		}
		if err := write(ctx, records[written:end]); err != nil {
			return fmt.Errorf("batch write failed after %d of %d records: %w", written, total, err)
		}
		written = end

		if progress != nil {
			progress(written, total)
		}
	}
	return nil
}
