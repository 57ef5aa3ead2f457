package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the wire format for dates, without a zone.
const TimestampLayout = "2006-01-02T15:04:05"

var inputLayouts = []string{
	TimestampLayout,
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// Timestamp is a time that marshals in TimestampLayout.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to whole seconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

// ParseTimestamp accepts TimestampLayout, RFC 3339, or a bare date.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimestampLayout))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
