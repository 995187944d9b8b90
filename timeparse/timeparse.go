// Package timeparse parses the date and date-time strings accepted by the
// API's query parameters and request bodies. Callers send anything from a
// bare date to a full RFC 3339 timestamp, so parsing tries a fixed set of
// layouts in order.
package timeparse

import (
	"fmt"
	"time"
)

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse converts s into a time.Time, trying each supported layout in order.
// Layouts without an offset are interpreted in UTC.
func Parse(s string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date/time %q", s)
}
