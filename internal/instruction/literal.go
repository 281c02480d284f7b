package instruction

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidAmount = errors.New("amount must be a positive integer")

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseAmount accepts an unsigned base-10 integer literal greater than zero.
func ParseAmount(lit string) (int64, error) {
	s := strings.TrimSpace(lit)
	if s == "" || !isDigits(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, lit)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, lit)
	}
	return n, nil
}

// Date is a calendar date without time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD naming a real proleptic Gregorian date.
func ParseDate(lit string) (Date, error) {
	s := strings.TrimSpace(lit)
	if len(s) != len(dateLayout) || s[4] != '-' || s[7] != '-' {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, lit)
	}
	ys, ms, ds := s[0:4], s[5:7], s[8:10]
	if !isDigits(ys) || !isDigits(ms) || !isDigits(ds) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, lit)
	}

	y, _ := strconv.Atoi(ys)
	m, _ := strconv.Atoi(ms)
	d, _ := strconv.Atoi(ds)
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, lit)
	}

	// time.Date normalizes overflowing days (Feb 30 -> Mar 2).
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	got := DateOf(t)
	want := Date{Year: y, Month: time.Month(m), Day: d}
	if got != want {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, lit)
	}
	return want, nil
}

// DateOf returns the UTC calendar date of t.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) After(o Date) bool {
	if d.Year != o.Year {
		return d.Year > o.Year
	}
	if d.Month != o.Month {
		return d.Month > o.Month
	}
	return d.Day > o.Day
}

// IsFuture reports whether d is strictly later than the UTC date of now.
func (d Date) IsFuture(now time.Time) bool { return d.After(DateOf(now)) }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
