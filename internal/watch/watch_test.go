package watch

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrail/veritrail/internal/ledger"
	"github.com/veritrail/veritrail/pkg/projectboard"
)

func setupTestWatch(t *testing.T) (*projectboard.Client, *ledger.Ledger) {
	mr := miniredis.RunT(t)

	client, err := projectboard.NewClient(&redis.Options{Addr: mr.Addr()}, "test-project")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, ledger.New(client)
}

func record(eventType string, ts time.Time) projectboard.LedgerRecord {
	return projectboard.LedgerRecord{
		Timestamp:          ts,
		EventType:          eventType,
		Actor:              projectboard.ActorUser,
		Summary:            "watch test record",
		Details:            projectboard.ArtifactChange(projectboard.CollectionRequirements, "REQ-1"),
		DataClassification: projectboard.ClassificationInternal,
		SourceSystem:       projectboard.SourceLocal,
	}
}

func TestFollow_SeesOnlyNewRecords(t *testing.T) {
	client, lgr := setupTestWatch(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// Records present before the watch starts must not be replayed.
	_, err := lgr.Append(ctx, record("REQUIREMENT_CREATE", base))
	require.NoError(t, err)

	seen := make(chan string, 4)
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Follow(watchCtx, client, 10*time.Millisecond, func(rec projectboard.LedgerRecord) error {
			seen <- rec.EventType
			return nil
		})
	}()

	// Give the goroutine time to capture its cursor.
	time.Sleep(50 * time.Millisecond)

	_, err = lgr.Append(ctx, record("REQUIREMENT_UPDATE", base.Add(time.Minute)))
	require.NoError(t, err)
	_, err = lgr.Append(ctx, record("TESTCASE_CREATE", base.Add(2*time.Minute)))
	require.NoError(t, err)

	assert.Equal(t, "REQUIREMENT_UPDATE", waitFor(t, seen))
	assert.Equal(t, "TESTCASE_CREATE", waitFor(t, seen))

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestFollow_StopsOnCallbackError(t *testing.T) {
	client, lgr := setupTestWatch(t)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, client, 10*time.Millisecond, func(projectboard.LedgerRecord) error {
			return assert.AnError
		})
	}()

	time.Sleep(50 * time.Millisecond)
	_, err := lgr.Append(ctx, record("RISK_CREATE", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	assert.ErrorIs(t, <-done, assert.AnError)
}

func waitFor(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watched record")
		return ""
	}
}
