package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/veritrail/veritrail/pkg/projectboard"
)

// DefaultInterval is the polling interval used by the ledger watch command.
const DefaultInterval = 2 * time.Second

// Follow polls the ledger and invokes fn for each record appended after the
// current tail, oldest first. It returns when the context is cancelled or
// when fn returns an error. The ledger is append-only, so a cursor past the
// last seen index is enough to pick up exactly the new records.
func Follow(ctx context.Context, client *projectboard.Client, interval time.Duration, fn func(projectboard.LedgerRecord) error) error {
	cursor, err := client.LedgerLen(ctx)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			records, err := client.LedgerRecordsFrom(ctx, cursor)
			if err != nil {
				return fmt.Errorf("failed to poll ledger: %w", err)
			}
			for _, rec := range records {
				if err := fn(rec); err != nil {
					return err
				}
			}
			cursor += int64(len(records))
		}
	}
}
