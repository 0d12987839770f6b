package recurrence

import (
	"fmt"
	"sort"
	"time"

	"github.com/example/meeting-matcher/internal/availability"
	"github.com/example/meeting-matcher/internal/interval"
)

// Expander turns recurring weekly availability patterns into concrete UTC
// intervals for a bounded date window.
type Expander struct{}

// NewExpander constructs an Expander.
func NewExpander() *Expander {
	return &Expander{}
}

// Expand walks each calendar date in [windowStart, windowStart+windowDays) in
// the given timezone and materializes that date's declared HH:MM ranges as
// absolute UTC intervals.
//
// Each occurrence is built with the zone offset of its own calendar date, so
// daylight-saving transitions are handled per date: the wall-clock span is
// preserved and the UTC duration stretches or shrinks with the offset change.
// A start that falls in a spring-forward gap is normalized forward by the
// platform zone rules; occurrences that collapse to zero length under that
// normalization are dropped.
//
// Output is sorted ascending by start and non-overlapping by construction.
func (e *Expander) Expand(weekly availability.WeeklyAvailability, timezone string, windowStart time.Time, windowDays int) ([]interval.Interval, error) {
	loc, err := availability.ValidateTimezone(timezone)
	if err != nil {
		return nil, err
	}
	if windowDays <= 0 {
		return nil, fmt.Errorf("%w: window must cover at least one day", availability.ErrInvalidTimeRange)
	}

	base := windowStart.In(loc)
	year, month, day := base.Date()

	occurrences := make([]interval.Interval, 0)
	for offset := 0; offset < windowDays; offset++ {
		date := time.Date(year, month, day+offset, 0, 0, 0, 0, loc)
		for _, r := range weekly.RangesFor(date.Weekday()) {
			occ, err := materialize(date, r, loc)
			if err != nil {
				return nil, err
			}
			if occ.IsValid() {
				occurrences = append(occurrences, occ)
			}
		}
	}

	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].Start.Before(occurrences[j].Start)
	})
	return occurrences, nil
}

func materialize(date time.Time, r availability.TimeRange, loc *time.Location) (interval.Interval, error) {
	startMinutes, endMinutes, err := r.Minutes()
	if err != nil {
		return interval.Interval{}, err
	}

	year, month, day := date.Date()
	start := time.Date(year, month, day, startMinutes/60, startMinutes%60, 0, 0, loc)
	end := time.Date(year, month, day, endMinutes/60, endMinutes%60, 0, 0, loc)

	return interval.New(start.UTC(), end.UTC()), nil
}
