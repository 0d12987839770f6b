package matching_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/meeting-matcher/internal/calendar"
	"github.com/example/meeting-matcher/internal/interval"
	"github.com/example/meeting-matcher/internal/matching"
	"github.com/example/meeting-matcher/internal/store/sqlite"
	"github.com/example/meeting-matcher/internal/testfixtures"
)

// seedLinkedPair stores two users with overlapping workweek availability and
// a friend edge from the first to the second.
func seedLinkedPair(t *testing.T, storage *sqlite.Store) (testfixtures.UserFixture, testfixtures.UserFixture, testfixtures.FriendFixture) {
	t.Helper()
	ctx := context.Background()

	owner := testfixtures.NewUserFixture()
	buddy := testfixtures.NewUserFixture()
	friend := testfixtures.NewFriendFixture(owner.ID, testfixtures.WithLinkedUser(buddy.ID))

	for _, user := range []testfixtures.UserFixture{owner, buddy} {
		if err := storage.CreateUser(ctx, user.Store()); err != nil {
			t.Fatalf("failed to create user %q: %v", user.ID, err)
		}
		profile := testfixtures.SavedProfile(testfixtures.Workweek("09:00", "17:00"), "UTC")
		if err := storage.SaveProfile(ctx, user.ID, profile); err != nil {
			t.Fatalf("failed to save profile for %q: %v", user.ID, err)
		}
	}
	if err := storage.AddFriend(ctx, friend.Store()); err != nil {
		t.Fatalf("failed to add friend: %v", err)
	}
	return owner, buddy, friend
}

func newStoreBackedService(t *testing.T, clock *testfixtures.Clock, gateway *testfixtures.Gateway) (*matching.Service, *sqlite.Store) {
	t.Helper()
	storage := testfixtures.NewSQLiteStore(t)
	svc := matching.NewService(storage, storage, storage, gateway, matching.ServiceConfig{
		Now:    clock.NowFunc(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return svc, storage
}

func TestFindMatch_AgainstStoredProfiles(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	gateway := testfixtures.NewGateway()
	svc, storage := newStoreBackedService(t, clock, gateway)
	owner, buddy, friend := seedLinkedPair(t, storage)

	// Buddy's calendar blocks the first hour of the shared pattern.
	gateway.SetBusy(buddy.ID, interval.New(
		time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC),
	))

	result, err := svc.FindMatch(context.Background(), matching.MatchRequest{
		InitiatorID:     owner.ID,
		FriendIDs:       []string{friend.FriendID},
		DaysFromNow:     0,
		WindowDays:      1,
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("FindMatch returned error: %v", err)
	}

	if result.Status != matching.StatusMatched {
		t.Fatalf("expected matched status, got %q", result.Status)
	}
	if result.Recommendation == nil {
		t.Fatal("expected a recommendation")
	}
	wantStart := time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)
	if !result.Recommendation.Interval.Start.Equal(wantStart) {
		t.Fatalf("expected recommendation at %v, got %v", wantStart, result.Recommendation.Interval.Start)
	}
	if result.Recommendation.Confidence != matching.ConfidenceHigh {
		t.Fatalf("expected high confidence, got %q", result.Recommendation.Confidence)
	}
	for _, participant := range result.Participants {
		if !participant.CalendarChecked {
			t.Fatalf("expected calendar checked for %q", participant.ParticipantID)
		}
	}
}

func TestAvailableNow_AgainstStoredProfiles(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Date(2025, time.June, 2, 10, 30, 0, 0, time.UTC))
	gateway := testfixtures.NewGateway()
	svc, storage := newStoreBackedService(t, clock, gateway)
	owner, buddy, friend := seedLinkedPair(t, storage)

	// The earlier meeting ended at 10:00; the friend is free again.
	gateway.SetBusy(buddy.ID, interval.New(
		time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC),
	))

	report, err := svc.AvailableNow(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("AvailableNow returned error: %v", err)
	}

	if len(report.Available) != 1 || len(report.Busy) != 0 || len(report.Unknown) != 0 {
		t.Fatalf("expected one available friend, got available=%d busy=%d unknown=%d",
			len(report.Available), len(report.Busy), len(report.Unknown))
	}
	entry := report.Available[0]
	if entry.FriendID != friend.FriendID {
		t.Fatalf("expected friend %q, got %q", friend.FriendID, entry.FriendID)
	}
	if entry.Confidence != matching.ConfidenceHigh {
		t.Fatalf("expected high confidence, got %q", entry.Confidence)
	}
	wantUntil := time.Date(2025, time.June, 2, 17, 0, 0, 0, time.UTC)
	if entry.AvailableUntil == nil || !entry.AvailableUntil.Equal(wantUntil) {
		t.Fatalf("expected available until %v, got %v", wantUntil, entry.AvailableUntil)
	}
}

func TestScheduleSlot_AgainstStoredUsers(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	gateway := testfixtures.NewGateway()
	svc, storage := newStoreBackedService(t, clock, gateway)
	owner, buddy, friend := seedLinkedPair(t, storage)

	gateway.SetEvent(calendar.Event{ID: "evt-42", JoinLink: "https://meet.example.com/evt-42"})

	slot := interval.New(
		time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 2, 11, 0, 0, 0, time.UTC),
	)
	booking, err := svc.ScheduleSlot(context.Background(), matching.BookingRequest{
		InitiatorID: owner.ID,
		FriendID:    friend.FriendID,
		Slot:        slot,
	})
	if err != nil {
		t.Fatalf("ScheduleSlot returned error: %v", err)
	}

	if booking.EventID != "evt-42" {
		t.Fatalf("expected event evt-42, got %q", booking.EventID)
	}
	if booking.JoinLink == "" {
		t.Fatal("expected a join link")
	}

	created := gateway.CreatedEvents()
	if len(created) != 1 {
		t.Fatalf("expected one created event, got %d", len(created))
	}
	request := created[0]
	if request.OrganizerID != owner.ID {
		t.Fatalf("expected organizer %q, got %q", owner.ID, request.OrganizerID)
	}
	if !request.RequestJoinLink {
		t.Fatal("expected a join link to be requested")
	}
	emails := map[string]bool{}
	for _, attendee := range request.Attendees {
		emails[attendee.Email] = true
	}
	if !emails[owner.Email] || !emails[buddy.Email] {
		t.Fatalf("expected both participants as attendees, got %v", request.Attendees)
	}
}
