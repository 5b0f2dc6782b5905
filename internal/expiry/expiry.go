package expiry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LastDayOfMonth returns midnight of the last calendar day of month/year in loc (UTC when nil).
func LastDayOfMonth(year, month int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	// day 0 of the following month normalizes to the last day of this one
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, loc)
}

// DateOf truncates t to midnight of its calendar date in loc (UTC when nil).
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// InFuture reports whether month/year is a later calendar month than the one
// containing 'at' in loc. A card expiring in the current month is not.
func InFuture(year, month int, at time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	today := DateOf(at, loc)
	firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return firstDay.After(LastDayOfMonth(today.Year(), int(today.Month()), loc))
}

// ValidateMonth checks the month is in 1..12.
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("expiry month must be 1..12 (got %d)", month)
	}
	return nil
}

// FormatMMYYYY returns the bank wire expiry, e.g. "04/2030".
func FormatMMYYYY(month, year int) string {
	return fmt.Sprintf("%02d/%04d", month, year)
}

// ParseMMYYYY accepts "MM/YYYY" and returns month and year.
func ParseMMYYYY(in string) (month, year int, err error) {
	s := strings.TrimSpace(in)
	mm, yyyy, ok := strings.Cut(s, "/")
	if !ok || len(mm) != 2 || len(yyyy) != 4 {
		return 0, 0, fmt.Errorf("expiry must be MM/YYYY")
	}
	month, err = strconv.Atoi(mm)
	if err != nil {
		return 0, 0, fmt.Errorf("expiry month must be digits")
	}
	year, err = strconv.Atoi(yyyy)
	if err != nil {
		return 0, 0, fmt.Errorf("expiry year must be digits")
	}
	if err := ValidateMonth(month); err != nil {
		return 0, 0, err
	}
	return month, year, nil
}
