// Package timeutil converts between the ISO-8601 timestamps sent by clients
// and the second-precision UTC format the stores persist.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// StorageLayout is the datetime format written to the relational stores.
const StorageLayout = "2006-01-02 15:04:05"

var layouts = []string{
	time.RFC3339Nano,
	StorageLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02",
}

// Parse accepts ISO-8601 with or without zone and the storage layout.
// Values without a zone are read as UTC.
func Parse(value string) (time.Time, error) {
	return ParseIn(value, time.UTC)
}

// ParseIn is Parse with zoneless values read in loc.
func ParseIn(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return Normalize(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// Normalize reduces t to UTC at second precision.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Format renders t in StorageLayout.
func Format(t time.Time) string {
	return Normalize(t).Format(StorageLayout)
}

// ToStorage rewrites an ISO-8601 string into StorageLayout.
func ToStorage(iso string) (string, error) {
	return ToStorageIn(iso, time.UTC)
}

// ToStorageIn is ToStorage with zoneless values read in loc.
func ToStorageIn(iso string, loc *time.Location) (string, error) {
	t, err := ParseIn(iso, loc)
	if err != nil {
		return "", err
	}
	return Format(t), nil
}
