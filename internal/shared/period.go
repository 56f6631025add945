package shared

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// MonthKey identifies a settlement month as a YYYY-MM string.
type MonthKey string

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ErrInvalidMonthKey indicates a malformed YYYY-MM value.
var ErrInvalidMonthKey = errors.New("shared: invalid month key, expected YYYY-MM")

// ParseMonthKey validates the YYYY-MM format.
func ParseMonthKey(raw string) (MonthKey, error) {
	if !monthKeyPattern.MatchString(raw) {
		return "", ErrInvalidMonthKey
	}
	return MonthKey(raw), nil
}

// String returns the raw YYYY-MM value.
func (m MonthKey) String() string {
	return string(m)
}

// Valid reports whether the key matches YYYY-MM.
func (m MonthKey) Valid() bool {
	return monthKeyPattern.MatchString(string(m))
}

// Bounds returns the half-open calendar range [first of month, first of next month).
func (m MonthKey) Bounds() (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", string(m))
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidMonthKey
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Prev returns the key of the immediately preceding calendar month.
func (m MonthKey) Prev() (MonthKey, error) {
	start, err := time.Parse("2006-01", string(m))
	if err != nil {
		return "", ErrInvalidMonthKey
	}
	return MonthKey(start.AddDate(0, -1, 0).Format("2006-01")), nil
}

// MonthKeyFor builds the key covering the provided instant.
func MonthKeyFor(t time.Time) MonthKey {
	return MonthKey(t.Format("2006-01"))
}

// YearMonths expands a four-digit year into its twelve month keys.
func YearMonths(year int) ([]MonthKey, error) {
	if year < 1000 || year > 9999 {
		return nil, fmt.Errorf("shared: invalid year %d", year)
	}
	keys := make([]MonthKey, 0, 12)
	for month := 1; month <= 12; month++ {
		keys = append(keys, MonthKey(fmt.Sprintf("%04d-%02d", year, month)))
	}
	return keys, nil
}
