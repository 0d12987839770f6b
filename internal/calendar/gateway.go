package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/example/meeting-matcher/internal/interval"
)

var (
	// ErrNotLinked indicates the participant has no usable calendar
	// connection. Callers degrade to weekly-pattern data instead of failing.
	ErrNotLinked = errors.New("calendar: account not linked")
	// ErrTimeout indicates the provider did not answer within the deadline.
	ErrTimeout = errors.New("calendar: request timed out")
	// ErrUnavailable indicates a transient provider failure.
	ErrUnavailable = errors.New("calendar: provider unavailable")
)

// Attendee identifies a participant added to a created event.
type Attendee struct {
	Email       string
	DisplayName string
}

// EventRequest describes a one-shot calendar event to create on the
// organizer's primary calendar.
type EventRequest struct {
	OrganizerID     string
	Summary         string
	Description     string
	Window          interval.Interval
	Timezone        string
	Attendees       []Attendee
	RequestJoinLink bool
}

// Event is the provider's record of a created event.
type Event struct {
	ID       string
	JoinLink string
}

// Gateway is the boundary contract to an external calendar provider.
//
// FetchBusy must honor the context deadline and report an exceeded deadline
// as ErrTimeout rather than a silent empty result. ErrNotLinked and
// ErrUnavailable degrade data quality for the participant; they never abort a
// whole matching request.
type Gateway interface {
	FetchBusy(ctx context.Context, participantID string, window interval.Interval) ([]interval.Interval, error)
	CreateEvent(ctx context.Context, req EventRequest) (Event, error)
}

// Tokens is a stored OAuth token bundle for one user.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// Valid reports whether the access token can be used without a refresh.
func (t Tokens) Valid(now time.Time) bool {
	if t.AccessToken == "" {
		return false
	}
	if t.ExpiresAt == nil {
		return true
	}
	return now.Before(t.ExpiresAt.Add(-30 * time.Second))
}

// CredentialSource supplies and persists per-user provider tokens. The second
// return value is false when the user has never linked the provider.
type CredentialSource interface {
	GoogleTokens(ctx context.Context, userID string) (Tokens, bool, error)
	SaveGoogleTokens(ctx context.Context, userID string, tokens Tokens) error
}
