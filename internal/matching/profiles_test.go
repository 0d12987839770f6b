package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/example/meeting-matcher/internal/availability"
	"github.com/example/meeting-matcher/internal/store"
)

func TestProfileService_Save_PersistsNormalizedProfile(t *testing.T) {
	t.Parallel()

	users := &userStoreStub{users: map[string]store.User{
		"user-a": {ID: "user-a", DisplayName: "Alice"},
	}}
	repo := &profileStoreStub{profiles: map[string]availability.Profile{}}
	svc := NewProfileService(users, repo, mondayMorning, testLogger())

	profile, err := svc.Save(context.Background(), "user-a", map[string][]availability.TimeRange{
		availability.DayMonday: {{Start: "09:00", End: "17:00"}},
	}, "America/New_York")
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if profile.UpdatedAt == nil || !profile.UpdatedAt.Equal(mondayMorning()) {
		t.Fatalf("expected UpdatedAt stamped at %v, got %v", mondayMorning(), profile.UpdatedAt)
	}
	if profile.Timezone != "America/New_York" {
		t.Fatalf("unexpected timezone %q", profile.Timezone)
	}
	if len(profile.Weekly) != len(availability.DayKeys) {
		t.Fatalf("expected all seven day keys, got %d", len(profile.Weekly))
	}

	saved, ok := repo.saved["user-a"]
	if !ok {
		t.Fatal("expected the profile to be persisted")
	}
	if got := saved.Weekly[availability.DayMonday]; len(got) != 1 || got[0].Start != "09:00" {
		t.Fatalf("unexpected persisted ranges: %+v", got)
	}
}

func TestProfileService_Save_RejectsMalformedInput(t *testing.T) {
	t.Parallel()

	users := &userStoreStub{users: map[string]store.User{
		"user-a": {ID: "user-a"},
	}}

	tests := []struct {
		name     string
		weekly   map[string][]availability.TimeRange
		timezone string
		field    string
	}{
		{
			name:     "unknown timezone",
			weekly:   map[string][]availability.TimeRange{},
			timezone: "Mars/Olympus",
			field:    "timezone",
		},
		{
			name: "unknown day key",
			weekly: map[string][]availability.TimeRange{
				"funday": {{Start: "09:00", End: "10:00"}},
			},
			timezone: "UTC",
			field:    "weekly_availability",
		},
		{
			name: "inverted range",
			weekly: map[string][]availability.TimeRange{
				availability.DayMonday: {{Start: "17:00", End: "09:00"}},
			},
			timezone: "UTC",
			field:    "weekly_availability",
		},
		{
			name: "overlapping ranges",
			weekly: map[string][]availability.TimeRange{
				availability.DayMonday: {
					{Start: "09:00", End: "12:00"},
					{Start: "11:00", End: "13:00"},
				},
			},
			timezone: "UTC",
			field:    "weekly_availability",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &profileStoreStub{profiles: map[string]availability.Profile{}}
			svc := NewProfileService(users, repo, mondayMorning, testLogger())

			_, err := svc.Save(context.Background(), "user-a", tc.weekly, tc.timezone)

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected %s validation error, got %v", tc.field, vErr.FieldErrors)
			}
			if len(repo.saved) != 0 {
				t.Fatal("expected nothing to be persisted for malformed input")
			}
		})
	}
}

func TestProfileService_Save_UnknownUser(t *testing.T) {
	t.Parallel()

	svc := NewProfileService(&userStoreStub{}, &profileStoreStub{}, mondayMorning, testLogger())

	_, err := svc.Save(context.Background(), "user-missing", map[string][]availability.TimeRange{}, "UTC")

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileService_Load_ReturnsStoredProfile(t *testing.T) {
	t.Parallel()

	repo := &profileStoreStub{profiles: map[string]availability.Profile{
		"user-a": utcProfile(t, map[string][]availability.TimeRange{
			availability.DayFriday: {{Start: "08:00", End: "12:00"}},
		}),
	}}
	svc := NewProfileService(&userStoreStub{}, repo, mondayMorning, testLogger())

	profile, err := svc.Load(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := profile.Weekly[availability.DayFriday]; len(got) != 1 || got[0].End != "12:00" {
		t.Fatalf("unexpected loaded ranges: %+v", got)
	}

	if _, err := svc.Load(context.Background(), "user-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}
