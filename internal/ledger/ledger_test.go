package ledger

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrail/veritrail/pkg/projectboard"
)

// setupTestLedger creates a ledger over a miniredis-backed board client,
// plus a raw Redis client for out-of-band tampering in integrity tests.
func setupTestLedger(t *testing.T) (*Ledger, *redis.Client) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := projectboard.NewClient(&redis.Options{Addr: mr.Addr()}, "test-project")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { raw.Close() })

	return New(client), raw
}

func sampleRecord(eventType string, ts time.Time) projectboard.LedgerRecord {
	return projectboard.LedgerRecord{
		Timestamp:          ts,
		EventType:          eventType,
		Actor:              projectboard.ActorUser,
		Summary:            "test record",
		Details:            projectboard.ArtifactChange(projectboard.CollectionRequirements, "REQ-1"),
		DataClassification: projectboard.ClassificationInternal,
		SourceSystem:       projectboard.SourceLocal,
	}
}

func TestAppend(t *testing.T) {
	l, _ := setupTestLedger(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("assigns id and chains hashes", func(t *testing.T) {
		id1, err := l.Append(ctx, sampleRecord("REQUIREMENT_CREATE", base))
		require.NoError(t, err)
		assert.NotEmpty(t, id1)

		id2, err := l.Append(ctx, sampleRecord("REQUIREMENT_UPDATE", base.Add(time.Minute)))
		require.NoError(t, err)
		assert.NotEqual(t, id1, id2)

		records, err := l.Query(ctx, nil)
		require.NoError(t, err)
		require.Len(t, records, 2)

		// Newest first: records[0] is the update.
		assert.Equal(t, "REQUIREMENT_UPDATE", records[0].EventType)
		assert.Equal(t, records[1].EntryHash, records[0].PrevHash)
		assert.Empty(t, records[1].PrevHash, "genesis record must have empty prev hash")
	})

	t.Run("rejects malformed input before writing", func(t *testing.T) {
		before, err := l.Len(ctx)
		require.NoError(t, err)

		rec := sampleRecord("", base)
		_, err = l.Append(ctx, rec)
		assert.Error(t, err)

		rec = sampleRecord("REQUIREMENT_CREATE", time.Time{})
		_, err = l.Append(ctx, rec)
		assert.Error(t, err)

		rec = sampleRecord("REQUIREMENT_CREATE", base)
		rec.Actor = "Committee"
		_, err = l.Append(ctx, rec)
		assert.Error(t, err)

		after, err := l.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after, "rejected appends must not grow the ledger")
	})

	t.Run("caller cannot pick its own chain fields", func(t *testing.T) {
		rec := sampleRecord("REQUIREMENT_DELETE", base.Add(2*time.Minute))
		rec.ID = "chosen-id"
		rec.PrevHash = "forged"
		rec.EntryHash = "forged"

		id, err := l.Append(ctx, rec)
		require.NoError(t, err)
		assert.NotEqual(t, "chosen-id", id)

		records, err := l.Query(ctx, &Filter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.NotEqual(t, "forged", records[0].PrevHash)
		assert.NotEqual(t, "forged", records[0].EntryHash)
	})
}

func TestIntegrityScore(t *testing.T) {
	ctx := context.Background()

	t.Run("empty ledger scores 100", func(t *testing.T) {
		l, _ := setupTestLedger(t)
		report, err := l.IntegrityScore(ctx)
		require.NoError(t, err)
		assert.Equal(t, 100, report.Score)
		assert.Zero(t, report.Total)
	})

	t.Run("append-only ledger scores 100", func(t *testing.T) {
		l, _ := setupTestLedger(t)
		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			_, err := l.Append(ctx, sampleRecord("REQUIREMENT_CREATE", base.Add(time.Duration(i)*time.Minute)))
			require.NoError(t, err)
		}

		report, err := l.IntegrityScore(ctx)
		require.NoError(t, err)
		assert.Equal(t, IntegrityReport{Total: 5, Broken: 0, Score: 100}, report)
	})

	t.Run("tampered record drops the score", func(t *testing.T) {
		l, raw := setupTestLedger(t)
		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			_, err := l.Append(ctx, sampleRecord("REQUIREMENT_CREATE", base.Add(time.Duration(i)*time.Minute)))
			require.NoError(t, err)
		}

		// Mutate the middle record's payload out of band.
		key := projectboard.LedgerKey("test-project")
		line, err := raw.LIndex(ctx, key, 1).Result()
		require.NoError(t, err)

		var rec projectboard.LedgerRecord
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		rec.Summary = "history, rewritten"
		forged, err := json.Marshal(rec)
		require.NoError(t, err)
		require.NoError(t, raw.LSet(ctx, key, 1, string(forged)).Err())

		report, err := l.IntegrityScore(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Total)
		assert.Equal(t, 1, report.Broken)
		assert.Less(t, report.Score, 100)
		assert.Equal(t, 66, report.Score)
	})

	t.Run("unparseable storage line counts as broken", func(t *testing.T) {
		l, raw := setupTestLedger(t)
		_, err := l.Append(ctx, sampleRecord("REQUIREMENT_CREATE", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
		require.NoError(t, raw.RPush(ctx, projectboard.LedgerKey("test-project"), "{not json").Err())

		report, err := l.IntegrityScore(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Total)
		assert.Equal(t, 1, report.Broken)
		assert.Equal(t, 50, report.Score)
	})
}

func TestQuery(t *testing.T) {
	l, _ := setupTestLedger(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	recs := []projectboard.LedgerRecord{
		sampleRecord("REQUIREMENT_CREATE", base),
		sampleRecord("TESTCASE_CREATE", base.Add(time.Minute)),
		sampleRecord("REQUIREMENT_UPDATE", base.Add(2*time.Minute)),
	}
	recs[1].Actor = projectboard.ActorAI
	recs[2].DataClassification = projectboard.ClassificationConfidential
	for _, rec := range recs {
		_, err := l.Append(ctx, rec)
		require.NoError(t, err)
	}

	t.Run("nil filter returns all, newest first", func(t *testing.T) {
		out, err := l.Query(ctx, nil)
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, "REQUIREMENT_UPDATE", out[0].EventType)
		assert.Equal(t, "REQUIREMENT_CREATE", out[2].EventType)
	})

	t.Run("event type prefix", func(t *testing.T) {
		out, err := l.Query(ctx, &Filter{EventTypePrefix: "REQUIREMENT_"})
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})

	t.Run("actor filter", func(t *testing.T) {
		out, err := l.Query(ctx, &Filter{Actor: projectboard.ActorAI})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "TESTCASE_CREATE", out[0].EventType)
	})

	t.Run("classification filter", func(t *testing.T) {
		out, err := l.Query(ctx, &Filter{DataClassification: projectboard.ClassificationConfidential})
		require.NoError(t, err)
		assert.Len(t, out, 1)
	})

	t.Run("time bounds", func(t *testing.T) {
		out, err := l.Query(ctx, &Filter{Since: base.Add(30 * time.Second), Until: base.Add(90 * time.Second)})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "TESTCASE_CREATE", out[0].EventType)
	})

	t.Run("limit", func(t *testing.T) {
		out, err := l.Query(ctx, &Filter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "REQUIREMENT_UPDATE", out[0].EventType)
	})
}

func TestIngestExternal(t *testing.T) {
	l, _ := setupTestLedger(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 14, 8, 0, 0, 0, time.UTC)

	batch := []ExternalEvent{
		{ExternalID: "commit-aaa", Timestamp: base, AuthorName: "dev-one", Summary: "Add parser"},
		{ExternalID: "commit-bbb", Timestamp: base.Add(time.Hour), AuthorName: "dev-two", Summary: "Fix parser", RawPayload: json.RawMessage(`{"sha":"bbb"}`)},
		{ExternalID: "", Timestamp: base.Add(2 * time.Hour), Summary: "malformed"},
	}

	t.Run("partial failure does not abort the batch", func(t *testing.T) {
		results, err := l.IngestExternal(ctx, batch, projectboard.SourceExternalVCS)
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, IngestAppended, results[0].Status)
		assert.Equal(t, IngestAppended, results[1].Status)
		assert.Equal(t, IngestRejected, results[2].Status)
		assert.NotEmpty(t, results[2].Reason)

		n, err := l.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("re-ingesting the same range is a no-op", func(t *testing.T) {
		results, err := l.IngestExternal(ctx, batch, projectboard.SourceExternalVCS)
		require.NoError(t, err)

		assert.Equal(t, IngestDuplicate, results[0].Status)
		assert.Equal(t, IngestDuplicate, results[1].Status)
		assert.Equal(t, IngestRejected, results[2].Status)

		n, err := l.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n, "idempotent ingestion must not grow the ledger")
	})

	t.Run("ingested records carry the VCS mapping", func(t *testing.T) {
		records, err := l.Query(ctx, &Filter{SourceSystem: projectboard.SourceExternalVCS})
		require.NoError(t, err)
		require.Len(t, records, 2)

		for _, rec := range records {
			assert.Equal(t, EventTypeVCSCommit, rec.EventType)
			assert.Equal(t, projectboard.ActorSystem, rec.Actor)
			require.Equal(t, projectboard.DetailsKindCommit, rec.Details.Kind)
			assert.NotEmpty(t, rec.Details.Commit.ExternalID)
		}
	})

	t.Run("ingestion keeps the chain intact", func(t *testing.T) {
		report, err := l.IntegrityScore(ctx)
		require.NoError(t, err)
		assert.Equal(t, 100, report.Score)
	})
}

func TestIngestExternal_RetryAfterStorageFault(t *testing.T) {
	l, raw := setupTestLedger(t)
	ctx := context.Background()
	key := projectboard.LedgerKey("test-project")

	batch := []ExternalEvent{
		{ExternalID: "commit-ccc", Timestamp: time.Date(2026, 2, 14, 8, 0, 0, 0, time.UTC), Summary: "Add retry"},
	}

	// Wedge the ledger key so the append fails mid-batch.
	require.NoError(t, raw.Set(ctx, key, "wedged", 0).Err())
	_, err := l.IngestExternal(ctx, batch, projectboard.SourceExternalVCS)
	require.Error(t, err)

	// The aborted event must not have been fingerprinted as ingested.
	require.NoError(t, raw.Del(ctx, key).Err())
	results, err := l.IngestExternal(ctx, batch, projectboard.SourceExternalVCS)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, IngestAppended, results[0].Status, "retry after a transient fault must append the event")

	n, err := l.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestClassifyEventType(t *testing.T) {
	cases := []struct {
		eventType string
		want      EventTypeKind
	}{
		{"REQUIREMENT_CREATE", EventTypeCRUD},
		{"TESTCASE_UPDATE", EventTypeCRUD},
		{"LINK_DELETE", EventTypeCRUD},
		{"SYSTEM_PROJECT_INIT", EventTypeLifecycle},
		{"VCS_COMMIT", EventTypeExternal},
		{"EXTERNAL_EVENT", EventTypeExternal},
		{"requirement_create", EventTypeNonconforming},
		{"REQUIREMENT_RENAMED", EventTypeNonconforming},
		{"ad-hoc note", EventTypeNonconforming},
	}

	for _, tc := range cases {
		t.Run(tc.eventType, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyEventType(tc.eventType))
		})
	}
}

func TestFingerprint(t *testing.T) {
	ts := time.Date(2026, 2, 14, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, Fingerprint("commit-aaa", ts), Fingerprint("commit-aaa", ts),
		"fingerprint must be stable")
	assert.NotEqual(t, Fingerprint("commit-aaa", ts), Fingerprint("commit-bbb", ts))
	assert.NotEqual(t, Fingerprint("commit-aaa", ts), Fingerprint("commit-aaa", ts.Add(time.Second)))

	// Timezone normalization: same instant, different zone, same fingerprint.
	assert.Equal(t, Fingerprint("commit-aaa", ts), Fingerprint("commit-aaa", ts.In(time.FixedZone("X", 3600))))
}
