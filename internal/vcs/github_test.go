package vcs

import (
	"testing"
	"time"

	"github.com/google/go-github/v47/github"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestCommitToEvent(t *testing.T) {
	date := time.Date(2026, 4, 2, 10, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	commit := &github.RepositoryCommit{
		SHA:     strPtr("abc123def456"),
		HTMLURL: strPtr("https://github.com/acme/api/commit/abc123def456"),
		Commit: &github.Commit{
			Message: strPtr("Fix traced bug\n\nLonger body explaining the change."),
			Author: &github.CommitAuthor{
				Name: strPtr("dev"),
				Date: &date,
			},
		},
	}

	ev := commitToEvent(commit)

	assert.Equal(t, "abc123def456", ev.ExternalID)
	assert.Equal(t, "Fix traced bug", ev.Summary, "only the subject line is kept")
	assert.Equal(t, "dev", ev.AuthorName)
	assert.Equal(t, date.UTC(), ev.Timestamp, "timestamps are normalized to UTC")
	assert.JSONEq(t, `{"sha":"abc123def456","url":"https://github.com/acme/api/commit/abc123def456"}`, string(ev.RawPayload))
}

func TestCommitToEvent_SparseFields(t *testing.T) {
	ev := commitToEvent(&github.RepositoryCommit{SHA: strPtr("abc123")})

	assert.Equal(t, "abc123", ev.ExternalID)
	assert.Empty(t, ev.Summary)
	assert.Empty(t, ev.AuthorName)
	assert.True(t, ev.Timestamp.IsZero(), "missing author date stays zero so ingestion rejects it")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "subject", firstLine("subject"))
	assert.Equal(t, "subject", firstLine("subject\nbody"))
	assert.Equal(t, "subject", firstLine("subject  \nbody"))
	assert.Empty(t, firstLine(""))
}
