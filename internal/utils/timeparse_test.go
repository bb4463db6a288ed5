package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStoredUTC_OffsetlessEqualsExplicitZ(t *testing.T) {
	// A timestamp without offset information must be read as the same
	// instant as the explicit-UTC form, never as local time.
	withZ, err := ParseStoredUTC("2026-01-29T13:36:46Z")
	require.NoError(t, err)
	naked, err := ParseStoredUTC("2026-01-29T13:36:46")
	require.NoError(t, err)

	assert.True(t, withZ.Equal(naked))
}

func TestParseStoredUTC_Formats(t *testing.T) {
	want := time.Date(2026, 1, 29, 13, 36, 46, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
	}{
		{"rfc3339", "2026-01-29T13:36:46Z"},
		{"offset", "2026-01-29T15:36:46+02:00"},
		{"no_zone", "2026-01-29T13:36:46"},
		{"space_separated", "2026-01-29 13:36:46"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStoredUTC(tt.raw)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s, want %s", got, want)
		})
	}
}

func TestParseStoredUTC_FractionalSeconds(t *testing.T) {
	got, err := ParseStoredUTC("2026-01-29T13:36:46.32")
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, 320*int(time.Millisecond), got.Nanosecond())
}

func TestParseStoredUTC_Unsupported(t *testing.T) {
	_, err := ParseStoredUTC("not-a-timestamp")
	assert.Error(t, err)
}

func TestFormatStoredUTC_AlwaysExplicitUTC(t *testing.T) {
	loc := time.FixedZone("IST", 2*3600)
	local := time.Date(2026, 1, 29, 15, 36, 46, 0, loc)

	formatted := FormatStoredUTC(local)
	assert.Equal(t, "2026-01-29T13:36:46Z", formatted)

	roundTripped, err := ParseStoredUTC(formatted)
	require.NoError(t, err)
	assert.True(t, local.Equal(roundTripped))
}
