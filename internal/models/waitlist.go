package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// timestampLayouts are tried in order when decoding API timestamps.
//
// The API documents ISO 8601, but the reference backend serializes datetimes as RFC 1123 ("Wed, 01 Jan 2025 00:00:00 GMT")
// and naive database timestamps without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC1123,
	time.RFC1123Z,
}

// Timestamp is a [time.Time] that decodes the API's created_at formats and always holds UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, normalized to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// ParseTimestamp parses s with each supported layout. Zone-less values are read as UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalJSON implements [json.Unmarshaler]. null and "" decode to the zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements [json.Marshaler] using RFC 3339 in UTC.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// WaitlistEntry is one registrant as returned by GET /api/waitlist.
//
// Entries are owned by the API; the client never modifies them.
type WaitlistEntry struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"` // Empty when the registrant left it out
	BetaTester bool      `json:"betaTester"`
	Ambassador bool      `json:"ambassador"`
	CreatedAt  Timestamp `json:"createdAt"`
}

// wireEntry accepts both the camelCase contract and the snake_case columns the backend returns verbatim.
type wireEntry struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           *string    `json:"phone"`
	BetaTester      *bool      `json:"betaTester"`
	BetaTesterSnake *bool      `json:"beta_tester"`
	Ambassador      bool       `json:"ambassador"`
	CreatedAt       *Timestamp `json:"createdAt"`
	CreatedAtSnake  *Timestamp `json:"created_at"`
}

// UnmarshalJSON implements [json.Unmarshaler].
func (e *WaitlistEntry) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	entry := WaitlistEntry{
		ID:         w.ID,
		Name:       w.Name,
		Email:      w.Email,
		Ambassador: w.Ambassador,
	}
	if w.Phone != nil {
		entry.Phone = strings.TrimSpace(*w.Phone)
	}
	switch {
	case w.BetaTester != nil:
		entry.BetaTester = *w.BetaTester
	case w.BetaTesterSnake != nil:
		entry.BetaTester = *w.BetaTesterSnake
	}
	switch {
	case w.CreatedAt != nil:
		entry.CreatedAt = *w.CreatedAt
	case w.CreatedAtSnake != nil:
		entry.CreatedAt = *w.CreatedAtSnake
	}

	*e = entry
	return nil
}

// HasPhone reports whether the registrant supplied a phone number.
func (e WaitlistEntry) HasPhone() bool {
	return e.Phone != ""
}
