package datespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("calendar date is midnight UTC", func(t *testing.T) {
		got, err := Parse("2026-01-12")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("RFC3339 with milliseconds", func(t *testing.T) {
		got, err := Parse("2026-01-12T00:00:00.000Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("RFC3339 with offset is normalised to UTC", func(t *testing.T) {
		got, err := Parse("2026-01-12T02:00:00+02:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), got)
		assert.Equal(t, time.UTC, got.Location())
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := Parse("  ")
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := Parse("next tuesday")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid date specification")
	})
}

func TestParseRange(t *testing.T) {
	t.Run("both empty is unscheduled", func(t *testing.T) {
		start, end, err := ParseRange("", "")
		require.NoError(t, err)
		assert.Nil(t, start)
		assert.Nil(t, end)
	})

	t.Run("inverted range is tolerated", func(t *testing.T) {
		start, end, err := ParseRange("2026-03-01", "2026-02-01")
		require.NoError(t, err)
		require.NotNil(t, start)
		require.NotNil(t, end)
		assert.True(t, start.After(*end))
	})

	t.Run("reports which flag is invalid", func(t *testing.T) {
		_, _, err := ParseRange("2026-03-01", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--end")
	})
}

func TestParseSprintRange(t *testing.T) {
	tests := []struct {
		spec    string
		from    int
		to      int
		wantErr bool
	}{
		{spec: "201", from: 201, to: 201},
		{spec: "S-201", from: 201, to: 201},
		{spec: "201:203", from: 201, to: 203},
		{spec: "S-201:S-203", from: 201, to: 203},
		{spec: "203:201", wantErr: true},
		{spec: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			from, to, err := ParseSprintRange(tt.spec, "S-")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
		})
	}
}
