// Package installment implements installment detection and monthly
// schedule synthesis over ledger transactions.
package installment

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date strings are day precision (2006-01-02) or month precision (2006-01).
const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// noonHour anchors every parsed date at 12:00 local time. Date arithmetic
// at midnight can land on a daylight-saving transition and come back on
// the wrong calendar day; no DST shift moves a clock more than 12 hours,
// so noon always stays inside the intended day.
const noonHour = 12

// ParseDate interprets a date-like value as a local calendar date anchored
// at noon. Accepted forms: "YYYY-MM-DD", "YYYY-MM", "YYYY", an integer or
// float epoch timestamp in milliseconds, or a time.Time. Anything else is
// a contract violation and returns an error.
func ParseDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case string:
		return parseDateString(v)
	case int64:
		return anchorNoon(time.UnixMilli(v).Local()), nil
	case int:
		return anchorNoon(time.UnixMilli(int64(v)).Local()), nil
	case float64:
		// JSON numbers decode as float64.
		return anchorNoon(time.UnixMilli(int64(v)).Local()), nil
	case time.Time:
		return anchorNoon(v), nil
	default:
		return time.Time{}, fmt.Errorf("cannot interpret %T as a date: %v", value, value)
	}
}

func parseDateString(s string) (time.Time, error) {
	parts := strings.Split(s, "-")

	atoi := func(p string) (int, error) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return n, nil
	}

	switch len(parts) {
	case 3:
		year, err := atoi(parts[0])
		if err != nil {
			return time.Time{}, err
		}
		month, err := atoi(parts[1])
		if err != nil {
			return time.Time{}, err
		}
		day, err := atoi(parts[2])
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(year, time.Month(month), day, noonHour, 0, 0, 0, time.Local), nil
	case 2:
		year, err := atoi(parts[0])
		if err != nil {
			return time.Time{}, err
		}
		month, err := atoi(parts[1])
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(year, time.Month(month), 1, noonHour, 0, 0, 0, time.Local), nil
	case 1:
		year, err := atoi(parts[0])
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(year, time.January, 1, noonHour, 0, 0, 0, time.Local), nil
	default:
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY, YYYY-MM or YYYY-MM-DD", s)
	}
}

func anchorNoon(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), noonHour, 0, 0, 0, time.Local)
}

// AddMonths adds n calendar months, clamping the day of month to the last
// valid day of the target month (Jan 31 + 1 month = Feb 29 in a leap
// year, not Mar 2 as time.AddDate would normalize it).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()

	// Floor-divide the zero-based month so negative offsets land in the
	// right year (Go's / truncates toward zero).
	total := int(month) - 1 + n
	yearOffset := total / 12
	rem := total % 12
	if rem < 0 {
		yearOffset--
		rem += 12
	}
	targetYear := year + yearOffset
	targetMonth := time.Month(rem + 1)

	if last := daysIn(targetYear, targetMonth); day > last {
		day = last
	}

	return time.Date(targetYear, targetMonth, day, noonHour, 0, 0, 0, time.Local)
}

// daysIn returns the number of days in a month. Day 0 of the following
// month normalizes to the last day of this one.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, noonHour, 0, 0, 0, time.Local).Day()
}

// FormatDay renders a date at day precision (YYYY-MM-DD).
func FormatDay(t time.Time) string {
	return t.Format(dayLayout)
}

// FormatMonth renders a date at month precision (YYYY-MM).
func FormatMonth(t time.Time) string {
	return t.Format(monthLayout)
}

// Today returns the current local date anchored at noon.
func Today() time.Time {
	return anchorNoon(time.Now())
}
