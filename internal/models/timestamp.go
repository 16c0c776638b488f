package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayout is fixed width so that stored dates sort lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	// maxEpochMillis is the widest instant a JavaScript Date can hold, 100 million
	// days either side of 1970.
	maxEpochMillis = 8.64e15
	// maxSafeInteger is the largest integer a float64 holds exactly.
	maxSafeInteger = 1<<53 - 1
)

var (
	errInvalidDate    = errors.New("value must be a valid date")
	errInvalidInteger = errors.New("value must be an integer")
)

// Timestamp is a point in time that decodes from an RFC 3339 string, a plain date or
// epoch milliseconds, and always encodes as UTC RFC 3339 with milliseconds.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t.UTC()}
}

// FormatTimestamp renders t the way it is stored in documents.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatTimestamp(t.Time))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] != '"' {
		ms, err := strconv.ParseFloat(string(b), 64)
		if err != nil || math.Abs(ms) > maxEpochMillis {
			return errInvalidDate
		}
		t.Time = time.UnixMilli(int64(ms)).UTC()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errInvalidDate
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseTimestamp parses epoch milliseconds, RFC 3339 or YYYY-MM-DD.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms > maxEpochMillis || ms < -maxEpochMillis {
			return time.Time{}, errInvalidDate
		}
		return time.UnixMilli(ms).UTC(), nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, errInvalidDate
}

// FlexInt is an integer that also accepts numeric strings such as "2".
type FlexInt int

// IntPtr returns a *FlexInt holding v.
func IntPtr(v int) *FlexInt {
	f := FlexInt(v)
	return &f
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if raw == "" || raw == "null" {
		return errInvalidInteger
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v != math.Trunc(v) || math.Abs(v) > maxSafeInteger {
		return errInvalidInteger
	}
	*f = FlexInt(v)
	return nil
}
