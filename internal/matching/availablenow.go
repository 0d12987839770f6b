package matching

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/meeting-matcher/internal/availability"
	"github.com/example/meeting-matcher/internal/calendar"
	"github.com/example/meeting-matcher/internal/interval"
	"github.com/example/meeting-matcher/internal/store"
)

// How far ahead the classifier searches for the next declared slot, and the
// cap on how much calendar is probed when verifying the current slot.
const (
	nextSlotSearchDays = 14
	busyProbeCap       = 4 * time.Hour
)

// AvailableNow classifies each of the user's friends as available, busy, or
// unknown at the moment of the call. Entries are computed fresh per call and
// never persisted; callers control the refresh cadence.
func (s *Service) AvailableNow(ctx context.Context, userID string) (AvailableNowReport, error) {
	if userID == "" {
		vErr := &ValidationError{}
		vErr.add("user_id", "user is required")
		return AvailableNowReport{}, vErr
	}

	now := s.now().UTC()
	friends, err := s.friends.ListFriends(ctx, userID)
	if err != nil {
		return AvailableNowReport{}, err
	}

	entries := make([]AvailableNowEntry, len(friends))
	semaphore := make(chan struct{}, s.maxInFlight)
	var wg sync.WaitGroup

	for i, friend := range friends {
		wg.Add(1)
		go func(i int, friend store.Friend) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				entries[i] = unknownEntry(friend, ReasonCodeCheckFailed, "The request was cancelled before this friend could be checked.")
				return
			}

			entries[i] = s.classifyFriend(ctx, friend, now)
		}(i, friend)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return AvailableNowReport{}, err
	}

	report := AvailableNowReport{
		Available:   []AvailableNowEntry{},
		Busy:        []AvailableNowEntry{},
		Unknown:     []AvailableNowEntry{},
		GeneratedAt: now,
	}
	for _, entry := range entries {
		switch entry.Classification {
		case ClassAvailable:
			report.Available = append(report.Available, entry)
		case ClassBusy:
			report.Busy = append(report.Busy, entry)
		default:
			report.Unknown = append(report.Unknown, entry)
		}
	}
	return report, nil
}

func unknownEntry(friend store.Friend, reasonCode, detail string) AvailableNowEntry {
	return AvailableNowEntry{
		FriendID:       friend.FriendID,
		DisplayName:    friend.DisplayName,
		Classification: ClassUnknown,
		ReasonCode:     reasonCode,
		Detail:         detail,
		Confidence:     ConfidenceLow,
	}
}

func (s *Service) classifyFriend(ctx context.Context, friend store.Friend, now time.Time) AvailableNowEntry {
	if !friend.Linked() {
		return unknownEntry(friend, ReasonCodeNoLinkedAccount,
			"This friend is a contact without a linked account.")
	}

	profile, err := s.profiles.GetProfile(ctx, friend.LinkedUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return unknownEntry(friend, ReasonCodeUserNotFound, "User record could not be located.")
		}
		s.logger.ErrorContext(ctx, "failed to load availability profile",
			"user_id", friend.LinkedUserID, "error", err)
		return unknownEntry(friend, ReasonCodeCheckFailed, "User record could not be loaded.")
	}
	if !profile.HasAvailability() {
		return unknownEntry(friend, ReasonCodeNoAvailability,
			"Friend has not configured weekly availability.")
	}

	timezone := profile.Timezone
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		// Stored profiles are validated at ingestion; tolerate legacy rows.
		loc = time.UTC
		timezone = "UTC"
	}

	entry := AvailableNowEntry{
		FriendID:       friend.FriendID,
		DisplayName:    friend.DisplayName,
		Classification: ClassUnknown,
		Confidence:     ConfidenceLow,
		Timezone:       timezone,
	}

	localNow := now.In(loc)
	year, month, day := localNow.Date()
	localMidnight := time.Date(year, month, day, 0, 0, 0, 0, loc)

	today, err := s.resolver.expander.Expand(profile.Weekly, timezone, localMidnight, 1)
	if err != nil {
		entry.ReasonCode = ReasonCodeCheckFailed
		entry.Detail = "Saved availability could not be evaluated."
		return entry
	}

	currentSlot := containing(today, now)
	if currentSlot == nil {
		entry.Classification = ClassBusy
		entry.ReasonCode = ReasonCodeOutsideAvailability
		entry.Detail = "Friend has no availability scheduled for the current time."
		entry.NextAvailableAt = s.nextDeclaredStart(profile, timezone, localMidnight, now)
		return entry
	}

	probeEnd := currentSlot.End
	if capped := now.Add(busyProbeCap); capped.Before(probeEnd) {
		probeEnd = capped
	}
	probe := interval.New(now.Add(-time.Minute), probeEnd)

	fetchCtx, cancel := context.WithTimeout(ctx, s.resolver.timeout)
	defer cancel()

	busy, err := s.gateway.FetchBusy(fetchCtx, friend.LinkedUserID, probe)
	if err != nil {
		until := currentSlot.End
		entry.AvailableUntil = &until
		if errors.Is(err, calendar.ErrNotLinked) {
			entry.ReasonCode = ReasonCodeDisconnected
			entry.Detail = "Friend has not connected their calendar."
		} else {
			s.logger.WarnContext(ctx, "calendar check failed",
				"user_id", friend.LinkedUserID, "error", err)
			entry.ReasonCode = ReasonCodeCheckFailed
			entry.Detail = "Failed to verify calendar availability."
		}
		return entry
	}

	free := interval.Subtract([]interval.Interval{*currentSlot}, busy)
	if freeNow := containing(free, now); freeNow != nil {
		entry.Classification = ClassAvailable
		entry.Confidence = ConfidenceHigh
		until := freeNow.End
		entry.AvailableUntil = &until
		entry.Detail = "Within saved availability and no calendar conflicts detected."
		return entry
	}

	entry.Classification = ClassBusy
	entry.ReasonCode = ReasonCodeCalendarBusy
	entry.Confidence = ConfidenceHigh
	entry.Detail = "Calendar indicates a busy event right now."
	if block := containing(interval.Merge(busy), now); block != nil {
		until := block.End
		entry.BusyUntil = &until
		if next := firstStartAfter(free, block.End.Add(-time.Nanosecond)); next != nil {
			entry.NextAvailableAt = next
		} else {
			entry.NextAvailableAt = s.nextDeclaredStart(profile, timezone, localMidnight, block.End)
		}
	}
	return entry
}

// containing returns the interval covering t, if any.
func containing(intervals []interval.Interval, t time.Time) *interval.Interval {
	for i := range intervals {
		if intervals[i].Contains(t) {
			return &intervals[i]
		}
	}
	return nil
}

// firstStartAfter returns the start of the earliest interval beginning after t.
func firstStartAfter(intervals []interval.Interval, t time.Time) *time.Time {
	for i := range intervals {
		if intervals[i].Start.After(t) {
			start := intervals[i].Start
			return &start
		}
	}
	return nil
}

// nextDeclaredStart finds the next declared slot start after the reference,
// scanning the weekly pattern up to nextSlotSearchDays ahead.
func (s *Service) nextDeclaredStart(profile availability.Profile, timezone string, localMidnight, after time.Time) *time.Time {
	expanded, err := s.resolver.expander.Expand(profile.Weekly, timezone, localMidnight, nextSlotSearchDays)
	if err != nil {
		return nil
	}
	return firstStartAfter(expanded, after)
}
