package team

import (
	"fmt"
	"strconv"
	"time"
)

// Window is a trailing period of months used to filter stats pages. AllTime (0)
// disables filtering.
type Window int

const AllTime Window = 0

const (
	daysPerMonth = 30
	dateLayout   = "2006-01-02"
)

// ParseWindow parses a non-negative month count.
func ParseWindow(s string) (Window, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid time window %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid time window %d: must be >= 0", n)
	}
	return Window(n), nil
}

// Range returns the [start, end] dates the window covers relative to now. ok is
// false for AllTime.
func (w Window) Range(now time.Time) (start, end time.Time, ok bool) {
	if w <= AllTime {
		return time.Time{}, time.Time{}, false
	}
	return now.AddDate(0, 0, -daysPerMonth*int(w)), now, true
}

// Query renders the window as the query string appended to stats URLs.
func (w Window) Query(now time.Time) string {
	start, end, ok := w.Range(now)
	if !ok {
		return "?startDate=all"
	}
	return fmt.Sprintf("?startDate=%s&endDate=%s", start.Format(dateLayout), end.Format(dateLayout))
}

func (w Window) String() string {
	return strconv.Itoa(int(w))
}
