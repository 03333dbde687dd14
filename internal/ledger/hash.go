package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/veritrail/veritrail/pkg/projectboard"
)

// The integrity model is a SHA-256 hash chain over the stored records.
// Each record's entry hash is computed over its canonical JSON encoding with
// the entry_hash field blanked; the next record's prev_hash must equal it.
// LedgerRecord contains only structs and scalars (no maps), so json.Marshal
// field order is deterministic and the hash is reproducible.

// ComputeEntryHash returns the hex SHA-256 of the record with EntryHash
// cleared. PrevHash is included, which is what chains the records together.
func ComputeEntryHash(rec projectboard.LedgerRecord) (string, error) {
	rec.EntryHash = ""
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record for hashing: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Fingerprint returns the stable dedupe key for an externally sourced event:
// SHA-256 over the event's own identifier and timestamp. Re-ingesting the
// same external range therefore yields the same fingerprints and no new
// ledger records.
func Fingerprint(externalID string, timestamp time.Time) string {
	sum := sha256.Sum256([]byte(externalID + "|" + timestamp.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}
