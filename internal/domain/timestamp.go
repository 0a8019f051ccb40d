package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// timestampLayouts are tried in order when decoding a server timestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a server time that never fails to decode. Values in a known
// layout populate Time; anything else is kept verbatim in Raw with a zero
// Time, so one odd row cannot fail a whole list.
type Timestamp struct {
	time.Time
	Raw string
}

// ParseTimestamp parses s with the layouts the backend is known to emit.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}
		}
	}
	return Timestamp{Raw: s}
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Numbers and other shapes are kept as written.
		*t = Timestamp{Raw: string(b)}
		return nil
	}
	*t = ParseTimestamp(s)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	switch {
	case t.Raw != "":
		return json.Marshal(t.Raw)
	case t.IsZero():
		return []byte(`""`), nil
	default:
		return json.Marshal(t.Format(time.RFC3339Nano))
	}
}

// String renders the parsed time, or the raw value when it did not parse.
func (t Timestamp) String() string {
	if t.Raw != "" || t.IsZero() {
		return t.Raw
	}
	return t.Format(time.RFC3339)
}
