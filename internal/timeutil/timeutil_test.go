package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToStorage(t *testing.T) {
	cases := map[string]string{
		"2026-10-14T09:30:15.123Z":      "2026-10-14 09:30:15",
		"2026-10-14T11:30:15+02:00":     "2026-10-14 09:30:15",
		"2026-10-14T09:30:15":           "2026-10-14 09:30:15",
		"2026-10-14 09:30:15":           "2026-10-14 09:30:15",
		"  2026-10-14T09:30:15.999Z   ": "2026-10-14 09:30:15",
	}
	for in, want := range cases {
		got, err := ToStorage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestToStorageInReadsZonelessValuesInLocation(t *testing.T) {
	eest := time.FixedZone("EEST", 3*60*60)

	got, err := ToStorageIn("2026-10-14T12:30:15", eest)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14 09:30:15", got)

	got, err = ToStorageIn("2026-10-14T12:30:15Z", eest)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14 12:30:15", got)

	parsed, err := ParseIn("2026-10-14", eest)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 13, 21, 0, 0, 0, time.UTC), parsed)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("yesterday")
	assert.Error(t, err)
	_, err = Parse("")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	loc := time.FixedZone("EET", 2*60*60)
	in := time.Date(2026, 10, 14, 12, 0, 0, 500, loc)
	got := Normalize(in)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC), got)
}
