package profile

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01"}

// Date is a calendar date decoded from "YYYY-MM-DD", "YYYY-MM" or RFC 3339.
// The zero Date means "not set".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}

	return fmt.Errorf("unsupported date %q", raw)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}

// Or returns d, or fallback when d is not set.
func (d Date) Or(fallback time.Time) time.Time {
	if d.IsZero() {
		return fallback
	}
	return d.Time
}
