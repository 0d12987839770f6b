package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/meeting-matcher/internal/availability"
	"github.com/example/meeting-matcher/internal/calendar"
	"github.com/example/meeting-matcher/internal/interval"
	"github.com/example/meeting-matcher/internal/store"
)

func singleEntry(t *testing.T, entries []AvailableNowEntry) AvailableNowEntry {
	t.Helper()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(entries))
	}
	return entries[0]
}

func TestService_AvailableNow_FriendAvailable(t *testing.T) {
	t.Parallel()

	users, friends, profiles := twoUserFixture(t, nil,
		map[string][]availability.TimeRange{
			availability.DayMonday: {{Start: "07:00", End: "12:00"}},
		})
	gateway := &gatewayStub{}
	svc := NewService(users, friends, profiles, gateway, ServiceConfig{Now: mondayMorning, Logger: testLogger()})

	report, err := svc.AvailableNow(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("AvailableNow returned error: %v", err)
	}

	entry := singleEntry(t, report.Available)
	if entry.FriendID != "friend-b" {
		t.Fatalf("expected friend-b, got %s", entry.FriendID)
	}
	if entry.Confidence != ConfidenceHigh {
		t.Fatalf("expected high confidence for a verified check, got %s", entry.Confidence)
	}
	wantUntil := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	if entry.AvailableUntil == nil || !entry.AvailableUntil.Equal(wantUntil) {
		t.Fatalf("expected available until %v, got %v", wantUntil, entry.AvailableUntil)
	}
	if !report.GeneratedAt.Equal(mondayMorning()) {
		t.Fatalf("expected report stamped at %v, got %v", mondayMorning(), report.GeneratedAt)
	}
}

func TestService_AvailableNow_CalendarBusy(t *testing.T) {
	t.Parallel()

	users, friends, profiles := twoUserFixture(t, nil,
		map[string][]availability.TimeRange{
			availability.DayMonday: {{Start: "07:00", End: "12:00"}},
		})
	gateway := &gatewayStub{busy: map[string][]interval.Interval{
		"user-b": {interval.New(
			time.Date(2025, 6, 2, 7, 30, 0, 0, time.UTC),
			time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		)},
	}}
	svc := NewService(users, friends, profiles, gateway, ServiceConfig{Now: mondayMorning, Logger: testLogger()})

	report, err := svc.AvailableNow(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("AvailableNow returned error: %v", err)
	}

	entry := singleEntry(t, report.Busy)
	if entry.ReasonCode != ReasonCodeCalendarBusy {
		t.Fatalf("expected calendar_busy, got %s", entry.ReasonCode)
	}
	wantBusyUntil := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	if entry.BusyUntil == nil || !entry.BusyUntil.Equal(wantBusyUntil) {
		t.Fatalf("expected busy until %v, got %v", wantBusyUntil, entry.BusyUntil)
	}
	if entry.NextAvailableAt == nil || !entry.NextAvailableAt.Equal(wantBusyUntil) {
		t.Fatalf("expected next availability when the event ends at %v, got %v", wantBusyUntil, entry.NextAvailableAt)
	}
	if entry.Confidence != ConfidenceHigh {
		t.Fatalf("expected high confidence for a verified busy block, got %s", entry.Confidence)
	}
}

func TestService_AvailableNow_OutsideDeclaredAvailability(t *testing.T) {
	t.Parallel()

	users, friends, profiles := twoUserFixture(t, nil,
		map[string][]availability.TimeRange{
			availability.DayMonday: {{Start: "14:00", End: "16:00"}},
		})
	gateway := &gatewayStub{}
	svc := NewService(users, friends, profiles, gateway, ServiceConfig{Now: mondayMorning, Logger: testLogger()})

	report, err := svc.AvailableNow(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("AvailableNow returned error: %v", err)
	}

	entry := singleEntry(t, report.Busy)
	if entry.ReasonCode != ReasonCodeOutsideAvailability {
		t.Fatalf("expected outside_availability, got %s", entry.ReasonCode)
	}
	wantNext := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	if entry.NextAvailableAt == nil || !entry.NextAvailableAt.Equal(wantNext) {
		t.Fatalf("expected next declared slot at %v, got %v", wantNext, entry.NextAvailableAt)
	}
	if got := gateway.fetchCount(); got != 0 {
		t.Fatalf("expected no busy probe outside declared availability, got %d", got)
	}
}

func TestService_AvailableNow_DisconnectedCalendar(t *testing.T) {
	t.Parallel()

	users, friends, profiles := twoUserFixture(t, nil,
		map[string][]availability.TimeRange{
			availability.DayMonday: {{Start: "07:00", End: "12:00"}},
		})
	gateway := &gatewayStub{errs: map[string]error{"user-b": calendar.ErrNotLinked}}
	svc := NewService(users, friends, profiles, gateway, ServiceConfig{Now: mondayMorning, Logger: testLogger()})

	report, err := svc.AvailableNow(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("AvailableNow returned error: %v", err)
	}

	entry := singleEntry(t, report.Unknown)
	if entry.ReasonCode != ReasonCodeDisconnected {
		t.Fatalf("expected google_calendar_disconnected, got %s", entry.ReasonCode)
	}
	wantUntil := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	if entry.AvailableUntil == nil || !entry.AvailableUntil.Equal(wantUntil) {
		t.Fatalf("expected pattern availability until %v, got %v", wantUntil, entry.AvailableUntil)
	}
	if entry.Confidence != ConfidenceLow {
		t.Fatalf("expected low confidence without live data, got %s", entry.Confidence)
	}
}

func TestService_AvailableNow_CheckFailure(t *testing.T) {
	t.Parallel()

	users, friends, profiles := twoUserFixture(t, nil,
		map[string][]availability.TimeRange{
			availability.DayMonday: {{Start: "07:00", End: "12:00"}},
		})
	gateway := &gatewayStub{errs: map[string]error{"user-b": calendar.ErrUnavailable}}
	svc := NewService(users, friends, profiles, gateway, ServiceConfig{Now: mondayMorning, Logger: testLogger()})

	report, err := svc.AvailableNow(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("AvailableNow returned error: %v", err)
	}

	entry := singleEntry(t, report.Unknown)
	if entry.ReasonCode != ReasonCodeCheckFailed {
		t.Fatalf("expected calendar_check_failed, got %s", entry.ReasonCode)
	}
}

func TestService_AvailableNow_ClassifiesDataGaps(t *testing.T) {
	t.Parallel()

	users := &userStoreStub{users: map[string]store.User{
		"user-a": {ID: "user-a", DisplayName: "Alice"},
	}}
	friends := &friendStoreStub{friends: map[string][]store.Friend{
		"user-a": {
			{FriendID: "friend-contact", OwnerID: "user-a", DisplayName: "Carol", FriendType: "contact"},
			{FriendID: "friend-gone", OwnerID: "user-a", DisplayName: "Dave", FriendType: "app_user", LinkedUserID: "user-gone"},
			{FriendID: "friend-empty", OwnerID: "user-a", DisplayName: "Erin", FriendType: "app_user", LinkedUserID: "user-empty"},
		},
	}}
	profiles := &profileStoreStub{profiles: map[string]availability.Profile{
		"user-empty": utcProfile(t, map[string][]availability.TimeRange{}),
	}}
	gateway := &gatewayStub{}
	svc := NewService(users, friends, profiles, gateway, ServiceConfig{Now: mondayMorning, Logger: testLogger()})

	report, err := svc.AvailableNow(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("AvailableNow returned error: %v", err)
	}

	if len(report.Unknown) != 3 {
		t.Fatalf("expected 3 unknown entries, got %d", len(report.Unknown))
	}

	want := map[string]string{
		"friend-contact": ReasonCodeNoLinkedAccount,
		"friend-gone":    ReasonCodeUserNotFound,
		"friend-empty":   ReasonCodeNoAvailability,
	}
	for _, entry := range report.Unknown {
		if want[entry.FriendID] != entry.ReasonCode {
			t.Fatalf("expected %s for %s, got %s", want[entry.FriendID], entry.FriendID, entry.ReasonCode)
		}
	}
	if got := gateway.fetchCount(); got != 0 {
		t.Fatalf("expected no gateway calls for data gaps, got %d", got)
	}
}

func TestService_AvailableNow_RequiresUser(t *testing.T) {
	t.Parallel()

	users, friends, profiles := twoUserFixture(t, nil, nil)
	svc := NewService(users, friends, profiles, &gatewayStub{}, ServiceConfig{Now: mondayMorning, Logger: testLogger()})

	_, err := svc.AvailableNow(context.Background(), "")

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
