package matching

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/meeting-matcher/internal/availability"
	"github.com/example/meeting-matcher/internal/calendar"
	"github.com/example/meeting-matcher/internal/interval"
	"github.com/example/meeting-matcher/internal/recurrence"
)

// ParticipantContext carries everything needed to resolve one participant's
// availability: the account id used for calendar lookups plus the saved
// weekly pattern and timezone.
type ParticipantContext struct {
	ParticipantID string
	DisplayName   string
	Weekly        availability.WeeklyAvailability
	Timezone      string
}

// ResolveWindow positions the search window relative to "now".
type ResolveWindow struct {
	DaysFromNow int
	WindowDays  int
}

// Resolver assembles a participant's free intervals by expanding the weekly
// pattern and, when possible, subtracting live busy data from the calendar
// gateway. Gateway failures degrade data quality instead of propagating.
type Resolver struct {
	gateway  calendar.Gateway
	expander *recurrence.Expander
	timeout  time.Duration
	logger   *slog.Logger
}

// NewResolver wires a resolver with its gateway call timeout.
func NewResolver(gateway calendar.Gateway, timeout time.Duration, logger *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		gateway:  gateway,
		expander: recurrence.NewExpander(),
		timeout:  timeout,
		logger:   logger,
	}
}

// Resolve computes the participant's free intervals within the window that
// starts at local midnight of now+DaysFromNow in the participant's timezone.
// The returned interval is the probed window in UTC.
//
// The weekly expansion never blocks on the gateway. The gateway call carries
// its own timeout; NotLinked, Timeout, and transient provider failures all
// degrade to weekly-pattern-only data with the matching status reason.
func (r *Resolver) Resolve(ctx context.Context, pc ParticipantContext, now time.Time, win ResolveWindow) (ParticipantAvailability, interval.Interval, error) {
	result := ParticipantAvailability{ParticipantID: pc.ParticipantID, Quality: QualityUnverified}

	if pc.Weekly.IsEmpty() {
		result.StatusReason = ReasonNoAvailability
		return result, interval.Interval{}, nil
	}

	loc, err := availability.ValidateTimezone(pc.Timezone)
	if err != nil {
		return ParticipantAvailability{}, interval.Interval{}, err
	}

	localNow := now.In(loc)
	year, month, day := localNow.Date()
	windowStart := time.Date(year, month, day+win.DaysFromNow, 0, 0, 0, 0, loc)
	windowEnd := time.Date(year, month, day+win.DaysFromNow+win.WindowDays, 0, 0, 0, 0, loc)
	window := interval.New(windowStart.UTC(), windowEnd.UTC())

	expanded, err := r.expander.Expand(pc.Weekly, pc.Timezone, windowStart, win.WindowDays)
	if err != nil {
		return ParticipantAvailability{}, interval.Interval{}, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	busy, err := r.gateway.FetchBusy(fetchCtx, pc.ParticipantID, window)
	switch {
	case err == nil:
		result.Free = interval.Subtract(expanded, busy)
		result.Quality = QualityVerified
	case errors.Is(err, calendar.ErrNotLinked):
		result.Free = expanded
		result.StatusReason = ReasonCalendarDisconnected
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		// The caller cancelled the whole request; this is not degradation.
		return ParticipantAvailability{}, interval.Interval{}, ctx.Err()
	default:
		r.logger.WarnContext(ctx, "calendar check failed",
			"participant_id", pc.ParticipantID, "error", err)
		result.Free = expanded
		result.StatusReason = ReasonCalendarCheckFailed
	}

	return result, window, nil
}
