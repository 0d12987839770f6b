package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/meeting-matcher/internal/calendar"
	"github.com/example/meeting-matcher/internal/interval"
	"github.com/example/meeting-matcher/internal/store"
)

// BookingRequest accepts a recommended slot and turns it into a calendar
// event on the initiator's calendar.
type BookingRequest struct {
	InitiatorID string
	FriendID    string
	Slot        interval.Interval
	Summary     string
}

// ScheduleSlot creates a calendar event for the slot with both participants
// attached and a join link requested. The friend must be linked to an
// account; booking never falls back to pattern-only data.
func (s *Service) ScheduleSlot(ctx context.Context, req BookingRequest) (Booking, error) {
	if err := s.validateBookingRequest(req); err != nil {
		return Booking{}, err
	}

	initiator, err := s.users.GetUser(ctx, req.InitiatorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Booking{}, fmt.Errorf("initiator %q: %w", req.InitiatorID, ErrNotFound)
		}
		return Booking{}, err
	}

	friend, err := s.friends.GetFriend(ctx, req.InitiatorID, req.FriendID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Booking{}, fmt.Errorf("friend %q: %w", req.FriendID, ErrNotFound)
		}
		return Booking{}, err
	}
	if !friend.Linked() {
		vErr := &ValidationError{}
		vErr.add("friend_id", "friend has not linked their account and cannot be booked")
		return Booking{}, vErr
	}

	friendUser, err := s.users.GetUser(ctx, friend.LinkedUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Booking{}, fmt.Errorf("linked user %q: %w", friend.LinkedUserID, ErrNotFound)
		}
		return Booking{}, err
	}

	summary := req.Summary
	if summary == "" {
		summary = fmt.Sprintf("Meetup with %s", friend.DisplayName)
	}

	timezone := "UTC"
	if profile, err := s.profiles.GetProfile(ctx, req.InitiatorID); err == nil && profile.Timezone != "" {
		timezone = profile.Timezone
	}

	eventCtx, cancel := context.WithTimeout(ctx, s.resolver.timeout)
	defer cancel()

	event, err := s.gateway.CreateEvent(eventCtx, calendar.EventRequest{
		OrganizerID: req.InitiatorID,
		Summary:     summary,
		Description: fmt.Sprintf("Scheduled via availability match between %s and %s.", initiator.DisplayName, friend.DisplayName),
		Window:      req.Slot,
		Timezone:    timezone,
		Attendees: []calendar.Attendee{
			{Email: initiator.Email, DisplayName: initiator.DisplayName},
			{Email: friendUser.Email, DisplayName: friend.DisplayName},
		},
		RequestJoinLink: true,
	})
	if err != nil {
		return Booking{}, fmt.Errorf("create event: %w", err)
	}

	s.logger.InfoContext(ctx, "slot booked",
		"initiator_id", req.InitiatorID,
		"friend_id", req.FriendID,
		"event_id", event.ID,
		"start", req.Slot.Start,
		"end", req.Slot.End)

	return Booking{
		EventID:  event.ID,
		JoinLink: event.JoinLink,
		Interval: req.Slot,
	}, nil
}

func (s *Service) validateBookingRequest(req BookingRequest) error {
	vErr := &ValidationError{}

	if req.InitiatorID == "" {
		vErr.add("initiator_id", "initiator is required")
	}
	if req.FriendID == "" {
		vErr.add("friend_id", "friend is required")
	}
	if !req.Slot.IsValid() {
		vErr.add("slot", "end must be after start")
	} else if req.Slot.Start.Before(s.now().UTC()) {
		vErr.add("slot", "slot must not be in the past")
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
