package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidExpiry = errors.New("invalid expiry format, use YYYY-MM (e.g., 2025-12)")

const expiryLayout = "2006-01"

// Expiry is a year-month value. The zero value means "unset" and is only
// accepted on tombstoned records.
type Expiry struct {
	Year  int
	Month time.Month
}

// ParseExpiry parses a YYYY-MM string.
func ParseExpiry(s string) (Expiry, error) {
	t, err := time.Parse(expiryLayout, s)
	if err != nil {
		return Expiry{}, ErrInvalidExpiry
	}
	return Expiry{Year: t.Year(), Month: t.Month()}, nil
}

func (e Expiry) IsZero() bool {
	return e.Year == 0 && e.Month == 0
}

func (e Expiry) String() string {
	if e.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", e.Year, int(e.Month))
}

// Start returns the first instant of the expiry month in UTC.
func (e Expiry) Start() time.Time {
	return time.Date(e.Year, e.Month, 1, 0, 0, 0, 0, time.UTC)
}

// ExpiresWithin reports whether the batch is already expired or expires
// before now plus the given number of months.
func (e Expiry) ExpiresWithin(now time.Time, months int) bool {
	if e.IsZero() {
		return false
	}
	return e.Start().Before(now.AddDate(0, months, 0))
}

func (e Expiry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

func (e *Expiry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidExpiry
	}
	if s == "" {
		*e = Expiry{}
		return nil
	}
	parsed, err := ParseExpiry(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
