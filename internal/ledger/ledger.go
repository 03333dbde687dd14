// Package ledger implements the append-only, hash-chained audit ledger.
//
// The ledger records every state-changing command plus externally ingested
// events. Records are immutable once appended: there is no update or delete
// operation, and appends are only accepted at the current chain tail. A
// recomputable integrity score surfaces tampering to the compliance reporter
// instead of throwing it at callers who cannot act on it.
package ledger

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veritrail/veritrail/pkg/projectboard"
)

// Ledger provides append, query and integrity operations over the stored
// record list. Writes are expected to arrive through the engine's serialized
// command path; reads are safe to run concurrently.
type Ledger struct {
	client *projectboard.Client
}

// New creates a ledger over the given board client.
func New(client *projectboard.Client) *Ledger {
	return &Ledger{client: client}
}

// Append validates the record, assigns its identity and chain fields, and
// persists it at the tail. The caller supplies the event timestamp; ID,
// PrevHash and EntryHash are owned by the ledger and overwritten here.
// Malformed records are rejected before anything is written.
func (l *Ledger) Append(ctx context.Context, rec projectboard.LedgerRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", fmt.Errorf("ledger rejected append: %w", err)
	}

	rec.ID = uuid.New().String()

	tail, err := l.client.LastLedgerRecord(ctx)
	switch {
	case err == nil:
		rec.PrevHash = tail.EntryHash
	case projectboard.IsNotFound(err):
		rec.PrevHash = "" // genesis record
	default:
		return "", err
	}

	hash, err := ComputeEntryHash(rec)
	if err != nil {
		return "", err
	}
	rec.EntryHash = hash

	if err := l.client.AppendLedgerRecord(ctx, &rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// Filter selects ledger records. Zero values mean "no constraint".
// All constraints are ANDed together.
type Filter struct {
	EventTypePrefix    string
	Actor              projectboard.Actor
	SourceSystem       projectboard.SourceSystem
	DataClassification projectboard.DataClassification
	Since              time.Time
	Until              time.Time
	Limit              int
}

func (f *Filter) matches(rec *projectboard.LedgerRecord) bool {
	if f.EventTypePrefix != "" && !strings.HasPrefix(rec.EventType, f.EventTypePrefix) {
		return false
	}
	if f.Actor != "" && rec.Actor != f.Actor {
		return false
	}
	if f.SourceSystem != "" && rec.SourceSystem != f.SourceSystem {
		return false
	}
	if f.DataClassification != "" && rec.DataClassification != f.DataClassification {
		return false
	}
	if !f.Since.IsZero() && rec.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && rec.Timestamp.After(f.Until) {
		return false
	}
	return true
}

// Query returns matching records, newest first. A nil filter returns the
// whole ledger. Records that failed to parse from storage are skipped here;
// they still count against the integrity score.
func (l *Ledger) Query(ctx context.Context, filter *Filter) ([]projectboard.LedgerRecord, error) {
	records, err := l.client.LedgerRecords(ctx)
	if err != nil {
		return nil, err
	}

	var out []projectboard.LedgerRecord
	// Stored oldest first; walk backwards for newest-first output.
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if rec.EventType == "" && rec.EntryHash == "" {
			continue // unparseable storage line
		}
		if filter != nil && !filter.matches(&rec) {
			continue
		}
		out = append(out, rec)
		if filter != nil && filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Len returns the number of stored records.
func (l *Ledger) Len(ctx context.Context) (int64, error) {
	return l.client.LedgerLen(ctx)
}

// IntegrityReport is the result of recomputing the hash chain.
type IntegrityReport struct {
	Total  int `json:"total"`
	Broken int `json:"broken"`
	Score  int `json:"score"`
}

// IntegrityScore walks the stored chain and verifies every record's entry
// hash and its link to the previous record. The score is 100 when every link
// verifies and decreases proportionally to the number of broken links. Any
// break is a hard signal of tampering or corrupted storage; the ledger never
// auto-repairs.
func (l *Ledger) IntegrityScore(ctx context.Context) (IntegrityReport, error) {
	records, err := l.client.LedgerRecords(ctx)
	if err != nil {
		return IntegrityReport{}, err
	}

	report := IntegrityReport{Total: len(records), Score: 100}
	if len(records) == 0 {
		return report, nil
	}

	prevHash := ""
	for _, rec := range records {
		expected, err := ComputeEntryHash(rec)
		if err != nil || rec.EntryHash != expected || rec.PrevHash != prevHash {
			report.Broken++
			// Chain from the stored hash regardless, so a single altered
			// record does not cascade into blaming every successor.
			prevHash = rec.EntryHash
			continue
		}
		prevHash = rec.EntryHash
	}

	report.Score = (100 * (report.Total - report.Broken)) / report.Total
	return report, nil
}

// EventTypeKind classifies an event type name against the naming convention.
type EventTypeKind string

const (
	// EventTypeCRUD is a <DOMAIN>_<VERB> name with VERB in CREATE/UPDATE/DELETE.
	EventTypeCRUD EventTypeKind = "crud"

	// EventTypeLifecycle is a SYSTEM_* non-CRUD lifecycle event.
	EventTypeLifecycle EventTypeKind = "lifecycle"

	// EventTypeExternal is an externally sourced event such as VCS_COMMIT.
	EventTypeExternal EventTypeKind = "external"

	// EventTypeNonconforming is anything else: a data-quality defect that
	// must still be displayable without crashing any consumer.
	EventTypeNonconforming EventTypeKind = "nonconforming"
)

var crudEventType = regexp.MustCompile(`^[A-Z]+_(CREATE|UPDATE|DELETE)$`)

// ClassifyEventType reports how an event type name fits the convention.
func ClassifyEventType(eventType string) EventTypeKind {
	switch {
	case strings.HasPrefix(eventType, "SYSTEM_"):
		return EventTypeLifecycle
	case eventType == EventTypeVCSCommit || eventType == EventTypeExternalGeneric:
		return EventTypeExternal
	case crudEventType.MatchString(eventType):
		return EventTypeCRUD
	default:
		return EventTypeNonconforming
	}
}
