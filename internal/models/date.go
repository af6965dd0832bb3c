package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar day without a time of day. The zero Date is not a valid
// due date; use a nil *Date for "no date".
type Date struct {
	time.Time
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp, keeping only the
// date part of the latter.
func ParseDate(raw string) (Date, error) {
	value := strings.TrimSpace(raw)
	if parsed, err := time.Parse(DateLayout, value); err == nil {
		return DateOf(parsed), nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return DateOf(parsed), nil
	}
	return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Before reports whether d is an earlier day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
