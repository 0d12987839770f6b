package availability

import (
	"errors"
	"time"
)

// Day keys in the canonical order used by stored availability records.
const (
	DaySunday    = "sunday"
	DayMonday    = "monday"
	DayTuesday   = "tuesday"
	DayWednesday = "wednesday"
	DayThursday  = "thursday"
	DayFriday    = "friday"
	DaySaturday  = "saturday"
)

// DayKeys lists every day-of-week key. Weekly records always carry all seven.
var DayKeys = [7]string{
	DaySunday,
	DayMonday,
	DayTuesday,
	DayWednesday,
	DayThursday,
	DayFriday,
	DaySaturday,
}

var (
	// ErrInvalidTimeRange indicates a malformed or inverted HH:MM range.
	ErrInvalidTimeRange = errors.New("availability: invalid time range")
	// ErrInvalidTimezone indicates an empty or unresolvable IANA timezone.
	ErrInvalidTimezone = errors.New("availability: invalid timezone")
	// ErrUnknownDay indicates a day key outside the canonical seven.
	ErrUnknownDay = errors.New("availability: unknown day key")
)

// TimeRange is a local wall-clock range within a single day, expressed as
// HH:MM strings with Start strictly before End.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklyAvailability maps each day-of-week key to its ordered, non-overlapping
// time ranges. A well-formed value has all seven keys present, possibly with
// empty slices.
type WeeklyAvailability map[string][]TimeRange

// NewWeekly returns an empty weekly availability with all seven day keys.
func NewWeekly() WeeklyAvailability {
	weekly := make(WeeklyAvailability, len(DayKeys))
	for _, day := range DayKeys {
		weekly[day] = []TimeRange{}
	}
	return weekly
}

// Clone returns a deep copy of the weekly availability.
func (w WeeklyAvailability) Clone() WeeklyAvailability {
	if w == nil {
		return nil
	}
	out := make(WeeklyAvailability, len(w))
	for day, ranges := range w {
		copied := make([]TimeRange, len(ranges))
		copy(copied, ranges)
		out[day] = copied
	}
	return out
}

// IsEmpty reports whether no day declares any range.
func (w WeeklyAvailability) IsEmpty() bool {
	for _, ranges := range w {
		if len(ranges) > 0 {
			return false
		}
	}
	return true
}

// RangesFor returns the declared ranges for a Go weekday.
func (w WeeklyAvailability) RangesFor(day time.Weekday) []TimeRange {
	return w[DayKey(day)]
}

// DayKey maps a Go weekday to its stored day key.
func DayKey(day time.Weekday) string {
	return DayKeys[int(day)%7]
}

// Profile pairs a weekly availability pattern with the owner's IANA timezone.
// UpdatedAt is nil when the owner has never saved availability.
type Profile struct {
	Weekly    WeeklyAvailability
	Timezone  string
	UpdatedAt *time.Time
}

// HasAvailability reports whether the profile has ever been saved with at
// least one declared range.
func (p Profile) HasAvailability() bool {
	return p.UpdatedAt != nil && !p.Weekly.IsEmpty()
}
