package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RFC3339(t *testing.T) {
	got, err := Parse("2026-01-15T13:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 15, 13, 0, 0, 0, time.UTC), got)
}

func TestParse_Date(t *testing.T) {
	got, err := Parse("2026-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestParse_Duration(t *testing.T) {
	before := time.Now().Add(-90 * time.Minute)
	got, err := Parse("1h30m")
	require.NoError(t, err)
	after := time.Now().Add(-90 * time.Minute)

	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}

func TestParse_Invalid(t *testing.T) {
	for _, spec := range []string{"", "yesterday", "2026-13-40", "1 hour"} {
		_, err := Parse(spec)
		assert.Error(t, err, "spec %q", spec)
	}
}

func TestParseRange(t *testing.T) {
	since, until, err := ParseRange("2026-01-01", "2026-02-01")
	require.NoError(t, err)
	assert.True(t, since.Before(until))

	since, until, err = ParseRange("", "")
	require.NoError(t, err)
	assert.True(t, since.IsZero())
	assert.True(t, until.IsZero())

	_, _, err = ParseRange("2026-02-01", "2026-01-01")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "--since must be before --until")

	_, _, err = ParseRange("nope", "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --since")
}
