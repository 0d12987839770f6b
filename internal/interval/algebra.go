package interval

import (
	"sort"
	"time"
)

// Merge sorts the intervals and coalesces overlapping or adjacent entries.
// Invalid (zero or negative length) intervals are dropped. The input slice is
// not modified.
func Merge(intervals []Interval) []Interval {
	valid := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.IsValid() {
			valid = append(valid, iv)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].Start.Before(valid[j].Start) })

	merged := make([]Interval, 0, len(valid))
	current := valid[0]
	for _, iv := range valid[1:] {
		if iv.Start.After(current.End) {
			merged = append(merged, current)
			current = iv
			continue
		}
		if iv.End.After(current.End) {
			current.End = iv.End
		}
	}
	merged = append(merged, current)
	return merged
}

// Subtract removes every overlap between the free intervals and the busy
// intervals, preserving the gaps between busy periods. Busy intervals need not
// be sorted. Coincident boundaries (busy.End == free.Start) are not treated as
// overlap.
func Subtract(free, busy []Interval) []Interval {
	blocked := Merge(busy)
	result := make([]Interval, 0, len(free))

	for _, f := range free {
		if !f.IsValid() {
			continue
		}
		cursor := f.Start
		for _, b := range blocked {
			if !b.End.After(cursor) {
				continue
			}
			if !f.End.After(b.Start) {
				break
			}
			if b.Start.After(cursor) {
				end := b.Start
				if f.End.Before(end) {
					end = f.End
				}
				result = append(result, Interval{Start: cursor, End: end})
			}
			if b.End.After(cursor) {
				cursor = b.End
			}
			if !f.End.After(cursor) {
				break
			}
		}
		if f.End.After(cursor) {
			result = append(result, Interval{Start: cursor, End: f.End})
		}
	}

	return result
}

// IntersectAll computes the interval set common to every input list using a
// sweep over the merged boundary points. The result is empty whenever any
// input list is empty. Each list is merged first so nested or overlapping
// entries within one list cannot inflate the coverage count.
func IntersectAll(sets [][]Interval) []Interval {
	if len(sets) == 0 {
		return nil
	}

	type boundary struct {
		at    time.Time
		delta int
	}

	events := make([]boundary, 0)
	for _, set := range sets {
		merged := Merge(set)
		if len(merged) == 0 {
			return nil
		}
		for _, iv := range merged {
			events = append(events, boundary{at: iv.Start, delta: 1}, boundary{at: iv.End, delta: -1})
		}
	}

	// Closes sort before opens at the same instant so that half-open
	// intervals touching at a boundary never intersect.
	sort.Slice(events, func(i, j int) bool {
		if events[i].at.Equal(events[j].at) {
			return events[i].delta < events[j].delta
		}
		return events[i].at.Before(events[j].at)
	})

	want := len(sets)
	depth := 0
	var openAt time.Time
	result := make([]Interval, 0)

	for _, ev := range events {
		if ev.delta > 0 {
			depth++
			if depth == want {
				openAt = ev.at
			}
			continue
		}
		if depth == want && ev.at.After(openAt) {
			result = append(result, Interval{Start: openAt, End: ev.at})
		}
		depth--
	}

	return result
}

// FilterByMinDuration drops intervals shorter than minDuration and trims the
// remainder into bookable slots of exactly minDuration anchored at the
// interval start. Earliest start is the only ranking dimension at this layer.
func FilterByMinDuration(intervals []Interval, minDuration time.Duration) []Interval {
	if minDuration <= 0 {
		return nil
	}
	slots := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Duration() < minDuration {
			continue
		}
		slots = append(slots, Interval{Start: iv.Start, End: iv.Start.Add(minDuration)})
	}
	return slots
}

// FirstN returns the earliest n intervals in ascending start order. The input
// slice is not modified.
func FirstN(intervals []Interval, n int) []Interval {
	if n <= 0 || len(intervals) == 0 {
		return nil
	}
	ordered := make([]Interval, len(intervals))
	copy(ordered, intervals)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start.Before(ordered[j].Start) })
	if len(ordered) > n {
		ordered = ordered[:n]
	}
	return ordered
}
