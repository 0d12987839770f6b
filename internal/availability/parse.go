package availability

import (
	"fmt"
	"regexp"
	"time"
)

var timePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ParseClock converts an HH:MM wall-clock string to minutes since midnight.
func ParseClock(value string) (int, error) {
	if !timePattern.MatchString(value) {
		return 0, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidTimeRange, value)
	}
	var hour, minute int
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeRange, value)
	}
	return hour*60 + minute, nil
}

// Minutes returns the range endpoints as minutes since midnight.
func (r TimeRange) Minutes() (start, end int, err error) {
	start, err = ParseClock(r.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err = ParseClock(r.End)
	if err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, fmt.Errorf("%w: %s must be earlier than %s", ErrInvalidTimeRange, r.Start, r.End)
	}
	return start, end, nil
}

// ParseWeekly validates a caller supplied weekly payload and returns a
// normalized copy with all seven day keys present. Unknown day keys,
// malformed times, inverted ranges, unsorted days, and overlapping ranges
// within a day are rejected rather than coerced.
func ParseWeekly(payload map[string][]TimeRange) (WeeklyAvailability, error) {
	known := make(map[string]struct{}, len(DayKeys))
	for _, day := range DayKeys {
		known[day] = struct{}{}
	}
	for day := range payload {
		if _, ok := known[day]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDay, day)
		}
	}

	weekly := NewWeekly()
	for _, day := range DayKeys {
		ranges := payload[day]
		previousEnd := -1
		for _, r := range ranges {
			start, end, err := r.Minutes()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", day, err)
			}
			if start < previousEnd {
				return nil, fmt.Errorf("%w: %s ranges overlap or are out of order", ErrInvalidTimeRange, day)
			}
			previousEnd = end
		}
		copied := make([]TimeRange, len(ranges))
		copy(copied, ranges)
		weekly[day] = copied
	}
	return weekly, nil
}

// ValidateTimezone resolves the IANA timezone name, rejecting empty values.
func ValidateTimezone(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: timezone is required", ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}

// NewProfile validates the weekly payload and timezone and assembles a
// profile stamped with the provided save time.
func NewProfile(payload map[string][]TimeRange, timezone string, savedAt time.Time) (Profile, error) {
	if _, err := ValidateTimezone(timezone); err != nil {
		return Profile{}, err
	}
	weekly, err := ParseWeekly(payload)
	if err != nil {
		return Profile{}, err
	}
	saved := savedAt.UTC()
	return Profile{Weekly: weekly, Timezone: timezone, UpdatedAt: &saved}, nil
}
