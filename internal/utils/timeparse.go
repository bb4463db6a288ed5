package utils

import (
	"fmt"
	"time"
)

// Layouts accepted for stored timestamps, tried in order. The offset-less
// forms are interpreted as UTC: the store keeps every instant in UTC and may
// return it without an explicit zone suffix.
var storedTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseStoredUTC parses a timestamp string as written by this service or by a
// legacy writer. A value lacking offset information is treated as UTC, never
// local time. Returns an error only when no supported layout matches.
func ParseStoredUTC(raw string) (time.Time, error) {
	for _, layout := range storedTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %q", raw)
}

// FormatStoredUTC renders an instant the way every stored timestamp must be
// written: explicit-UTC RFC3339.
func FormatStoredUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
