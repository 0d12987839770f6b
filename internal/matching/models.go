package matching

import (
	"time"

	"github.com/example/meeting-matcher/internal/interval"
)

// DataQuality describes whether live busy data was incorporated for a
// participant.
type DataQuality string

const (
	// QualityVerified means live calendar data was fetched and subtracted.
	QualityVerified DataQuality = "verified"
	// QualityPartial means only part of the window could be verified.
	QualityPartial DataQuality = "partial"
	// QualityUnverified means the weekly pattern alone was used.
	QualityUnverified DataQuality = "unverified"
)

// Confidence ranks how much of a match relied on verified calendar data.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// MatchStatus is the terminal state of a matching request.
type MatchStatus string

const (
	StatusMatched    MatchStatus = "matched"
	StatusNoOverlap  MatchStatus = "no_overlap"
	StatusNeedsSetup MatchStatus = "needs_setup"
)

// Participant resolution status reasons.
const (
	ReasonNoLinkedAccount      = "no_linked_account"
	ReasonCalendarDisconnected = "calendar_disconnected"
	ReasonCalendarCheckFailed  = "calendar_check_failed"
	ReasonNoAvailability       = "no_availability"
)

// Available-now classification reason codes.
const (
	ReasonCodeNoLinkedAccount     = "no_linked_meaningful_account"
	ReasonCodeUserNotFound        = "user_not_found"
	ReasonCodeNoAvailability      = "no_availability"
	ReasonCodeDisconnected        = "google_calendar_disconnected"
	ReasonCodeCheckFailed         = "calendar_check_failed"
	ReasonCodeOutsideAvailability = "outside_availability"
	ReasonCodeCalendarBusy        = "calendar_busy"
)

// MatchRequest asks for a common free slot among the initiator and friends.
type MatchRequest struct {
	InitiatorID     string
	FriendIDs       []string
	DaysFromNow     int
	WindowDays      int
	DurationMinutes int
}

// SearchWindow reports the absolute bounds the match searched.
type SearchWindow struct {
	Start           time.Time
	End             time.Time
	DaysFromNow     int
	WindowDays      int
	DurationMinutes int
}

// ParticipantAvailability is the ephemeral per-participant result of one
// resolution: free intervals plus a quality flag. Lifetime is one request.
type ParticipantAvailability struct {
	ParticipantID string
	Free          []interval.Interval
	Quality       DataQuality
	StatusReason  string
}

// ParticipantStatus values reported back to the caller per participant.
const (
	ParticipantReady             = "ready"
	ParticipantMissingConnection = "missing_connection"
	ParticipantUserNotFound      = "user_not_found"
	ParticipantNoAvailability    = "no_availability"
	ParticipantNotFound          = "not_found"
)

// ParticipantReport is the caller-visible detail for one participant.
type ParticipantReport struct {
	ParticipantID   string
	DisplayName     string
	Status          string
	Detail          string
	Timezone        string
	CalendarChecked bool
}

// Recommendation is the top-ranked bookable slot.
type Recommendation struct {
	Interval   interval.Interval
	Confidence Confidence
}

// MatchResult is the structured outcome of FindMatch. Callers always receive
// one unless the input was malformed or the outer deadline was exceeded.
type MatchResult struct {
	Status         MatchStatus
	Window         SearchWindow
	Recommendation *Recommendation
	Alternatives   []interval.Interval
	Participants   []ParticipantReport
	Notes          []string
}

// Classification buckets for available-now entries.
type Classification string

const (
	ClassAvailable Classification = "available"
	ClassBusy      Classification = "busy"
	ClassUnknown   Classification = "unknown"
)

// AvailableNowEntry classifies one friend's state at the moment of the call.
type AvailableNowEntry struct {
	FriendID        string
	DisplayName     string
	Classification  Classification
	ReasonCode      string
	Detail          string
	Confidence      Confidence
	Timezone        string
	AvailableUntil  *time.Time
	BusyUntil       *time.Time
	NextAvailableAt *time.Time
}

// AvailableNowReport groups classified friends, computed fresh per call.
type AvailableNowReport struct {
	Available   []AvailableNowEntry
	Busy        []AvailableNowEntry
	Unknown     []AvailableNowEntry
	GeneratedAt time.Time
}

// Booking is the outcome of accepting a recommended slot.
type Booking struct {
	EventID  string
	JoinLink string
	Interval interval.Interval
}
