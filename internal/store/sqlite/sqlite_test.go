package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/meeting-matcher/internal/availability"
	"github.com/example/meeting-matcher/internal/calendar"
	"github.com/example/meeting-matcher/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "matcher.db")
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return s
}

func seedUser(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.CreateUser(context.Background(), store.User{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: "User " + id,
	})
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", id, err)
	}
}

func TestStore_UserRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	seedUser(t, s, "user-1")

	user, err := s.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "user-1@example.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}

	if _, err := s.GetUser(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_CreateUserDuplicate(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	seedUser(t, s, "user-1")

	err := s.CreateUser(context.Background(), store.User{ID: "user-1", Email: "user-1@example.com"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestStore_ProfileRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	seedUser(t, s, "user-1")

	ctx := context.Background()

	// A known user without a saved profile yields nil UpdatedAt.
	profile, err := s.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.UpdatedAt != nil {
		t.Fatalf("expected nil UpdatedAt before first save, got %v", profile.UpdatedAt)
	}

	saved := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	toSave, err := availability.NewProfile(map[string][]availability.TimeRange{
		availability.DayMonday: {{Start: "09:00", End: "17:00"}},
	}, "America/New_York", saved)
	if err != nil {
		t.Fatalf("failed to build profile: %v", err)
	}
	if err := s.SaveProfile(ctx, "user-1", toSave); err != nil {
		t.Fatalf("failed to save profile: %v", err)
	}

	profile, err = s.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Timezone != "America/New_York" {
		t.Fatalf("unexpected timezone %q", profile.Timezone)
	}
	if profile.UpdatedAt == nil || !profile.UpdatedAt.Equal(saved) {
		t.Fatalf("unexpected UpdatedAt %v", profile.UpdatedAt)
	}
	if got := len(profile.Weekly[availability.DayMonday]); got != 1 {
		t.Fatalf("expected 1 monday range, got %d", got)
	}

	if err := s.SaveProfile(ctx, "missing", toSave); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
	if _, err := s.GetProfile(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestStore_GoogleTokens(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	seedUser(t, s, "user-1")

	ctx := context.Background()

	_, linked, err := s.GoogleTokens(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if linked {
		t.Fatal("expected unlinked user")
	}

	expiry := time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)
	err = s.SaveGoogleTokens(ctx, "user-1", calendar.Tokens{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    &expiry,
	})
	if err != nil {
		t.Fatalf("failed to save tokens: %v", err)
	}

	tokens, linked, err := s.GoogleTokens(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !linked {
		t.Fatal("expected linked user")
	}
	if tokens.RefreshToken != "refresh" || tokens.ExpiresAt == nil || !tokens.ExpiresAt.Equal(expiry) {
		t.Fatalf("unexpected tokens %+v", tokens)
	}
}

func TestStore_Friends(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	seedUser(t, s, "user-1")

	ctx := context.Background()

	entries := []store.Friend{
		{OwnerID: "user-1", FriendID: "friend-1", DisplayName: "Dana", FriendType: "app_user", LinkedUserID: "user-2"},
		{OwnerID: "user-1", FriendID: "friend-2", DisplayName: "Imported", FriendType: "contact"},
	}
	for _, entry := range entries {
		if err := s.AddFriend(ctx, entry); err != nil {
			t.Fatalf("failed to add friend %s: %v", entry.FriendID, err)
		}
	}

	friends, err := s.ListFriends(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(friends) != 2 {
		t.Fatalf("expected 2 friends, got %d", len(friends))
	}

	linked, err := s.GetFriend(ctx, "user-1", "friend-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !linked.Linked() {
		t.Fatal("expected friend-1 to be linked")
	}

	contact, err := s.GetFriend(ctx, "user-1", "friend-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contact.Linked() {
		t.Fatal("expected friend-2 to be unlinked")
	}

	if _, err := s.GetFriend(ctx, "user-1", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
