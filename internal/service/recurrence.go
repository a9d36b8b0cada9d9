package service

import (
	"fmt"
	"time"

	"github.com/bulkwave/bulkwave-backend/internal/model"
)

// NextOccurrence advances a schedule by one recurrence interval. The base
// is the occurrence that just dispatched, not the wall clock, so a late
// tick does not drift the series.
//
// Monthly advancement clamps to the end of shorter months: Jan 31 plus one
// month lands on the last day of February.
func NextOccurrence(t time.Time, interval string) (time.Time, error) {
	switch interval {
	case model.IntervalDaily:
		return t.AddDate(0, 0, 1), nil
	case model.IntervalWeekly:
		return t.AddDate(0, 0, 7), nil
	case model.IntervalMonthly:
		next := t.AddDate(0, 1, 0)
		if next.Day() != t.Day() {
			// AddDate rolled past the target month's end; clamp to its last day.
			next = time.Date(t.Year(), t.Month()+2, 0,
				t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
		}
		return next, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized recurrence interval: %q", interval)
}
