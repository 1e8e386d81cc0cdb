// Package availability implements the stay availability decision engine:
// half-open stay intervals, the per-property availability index derived from
// approved booking groups, and the candidate request validator. The package
// is pure and dependency-free so the same rules back both the advisory
// availability endpoint and the authoritative create-time check.
package availability

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format for times of day.
	TimeLayout = "15:04"
	// DefaultCheckInTime is assumed when an approved stay carries no time.
	DefaultCheckInTime = "10:00"
)

// Interval is a half-open time interval [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// CombineDateTime builds an instant from a YYYY-MM-DD date and an HH:MM time
// of day. An empty tod falls back to DefaultCheckInTime.
func CombineDateTime(date, tod string) (time.Time, error) {
	if tod == "" {
		tod = DefaultCheckInTime
	}
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	t, err := time.Parse(TimeLayout, tod)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected HH:MM", tod)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

// NewStayInterval builds the interval of a stay from its check-in date,
// check-out date and shared check-in time. The check-in time applies to both
// ends: a guest vacates at the same time of day a new guest may arrive.
func NewStayInterval(checkInDate, checkOutDate, checkInTime string) (Interval, error) {
	start, err := CombineDateTime(checkInDate, checkInTime)
	if err != nil {
		return Interval{}, err
	}
	end, err := CombineDateTime(checkOutDate, checkInTime)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals intersect. Touching
// boundaries do not overlap, so a checkout at T and a check-in at T on the
// same day are a valid back-to-back turnover.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Nights returns the number of nights covered by the interval, rounding any
// partial day up. Non-positive spans yield 0; callers must treat 0 as invalid.
func (iv Interval) Nights() int {
	span := iv.End.Sub(iv.Start)
	if span <= 0 {
		return 0
	}
	nights := int(span / (24 * time.Hour))
	if span%(24*time.Hour) != 0 {
		nights++
	}
	return nights
}

// BlockedDays returns every calendar day the stay fully occupies: the
// check-in day through the day before checkout. The checkout day itself is
// only partially blocked (see Index.CutoffFor).
func (iv Interval) BlockedDays() []string {
	var days []string
	d := time.Date(iv.Start.Year(), iv.Start.Month(), iv.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(iv.End.Year(), iv.End.Month(), iv.End.Day(), 0, 0, 0, 0, time.UTC)
	for d.Before(end) {
		days = append(days, d.Format(DateLayout))
		d = d.AddDate(0, 0, 1)
	}
	return days
}
