package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/veritrail/veritrail/pkg/projectboard"
)

// Event types assigned to ingested external events.
const (
	// EventTypeVCSCommit is the event type for ingested version control commits.
	EventTypeVCSCommit = "VCS_COMMIT"

	// EventTypeExternalGeneric is the event type for ingested events from
	// sources other than the version control system.
	EventTypeExternalGeneric = "EXTERNAL_EVENT"
)

// ExternalEvent is a normalized event handed over by an external adapter.
// The external system owns the identifier and the timestamp; the raw payload
// is carried opaquely into the ledger record details.
type ExternalEvent struct {
	ExternalID string          `json:"external_id"`
	Timestamp  time.Time       `json:"timestamp"`
	AuthorName string          `json:"author_name,omitempty"`
	Summary    string          `json:"summary"`
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
}

// IngestStatus is the per-event outcome of an ingestion batch.
type IngestStatus string

const (
	IngestAppended  IngestStatus = "appended"
	IngestDuplicate IngestStatus = "duplicate"
	IngestRejected  IngestStatus = "rejected"
)

// IngestResult reports what happened to one event of a batch.
type IngestResult struct {
	ExternalID string       `json:"external_id"`
	Status     IngestStatus `json:"status"`
	EntryID    string       `json:"entry_id,omitempty"`
	Reason     string       `json:"reason,omitempty"`
}

// IngestExternal appends a batch of external events to the ledger,
// deduplicating by each event's stable fingerprint. A malformed event is
// rejected individually and never aborts the rest of the batch; only
// storage-level failures return an error. Re-ingesting an already ingested
// range is a no-op. Callers serialize ingestion, so the fingerprint check
// and its later recording need not be atomic.
func (l *Ledger) IngestExternal(ctx context.Context, events []ExternalEvent, source projectboard.SourceSystem) ([]IngestResult, error) {
	if err := source.Validate(); err != nil {
		return nil, fmt.Errorf("ledger rejected ingestion: %w", err)
	}

	eventType := EventTypeExternalGeneric
	if source == projectboard.SourceExternalVCS {
		eventType = EventTypeVCSCommit
	}

	results := make([]IngestResult, 0, len(events))
	for _, ev := range events {
		result := IngestResult{ExternalID: ev.ExternalID}

		if ev.ExternalID == "" {
			result.Status = IngestRejected
			result.Reason = "external ID is empty"
			results = append(results, result)
			continue
		}
		if ev.Timestamp.IsZero() {
			result.Status = IngestRejected
			result.Reason = "timestamp is missing"
			results = append(results, result)
			continue
		}

		fp := Fingerprint(ev.ExternalID, ev.Timestamp)
		seen, err := l.client.HasFingerprint(ctx, fp)
		if err != nil {
			return nil, err
		}
		if seen {
			result.Status = IngestDuplicate
			results = append(results, result)
			continue
		}

		summary := ev.Summary
		if summary == "" {
			summary = fmt.Sprintf("External event %s", ev.ExternalID)
		}

		entryID, err := l.Append(ctx, projectboard.LedgerRecord{
			Timestamp:          ev.Timestamp,
			EventType:          eventType,
			Actor:              projectboard.ActorSystem,
			Summary:            summary,
			Details:            projectboard.CommitChange(ev.ExternalID, ev.AuthorName, ev.RawPayload),
			DataClassification: projectboard.ClassificationInternal,
			SourceSystem:       source,
		})
		if err != nil {
			return nil, err
		}

		// The fingerprint is recorded only after the append succeeds; a batch
		// aborted by a storage failure stays retryable and loses no event.
		if _, err := l.client.AddFingerprint(ctx, fp); err != nil {
			return nil, err
		}

		result.Status = IngestAppended
		result.EntryID = entryID
		results = append(results, result)
	}
	return results, nil
}
