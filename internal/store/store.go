// Package store defines the collaborator contracts the matching engine
// consumes: user and availability lookups, the friend directory, and stored
// calendar credentials. Implementations live in subpackages.
package store

import (
	"context"
	"errors"

	"github.com/example/meeting-matcher/internal/availability"
	"github.com/example/meeting-matcher/internal/calendar"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a record with the same key already exists.
	ErrDuplicate = errors.New("store: duplicate")
)

// User is a registered account known to the system.
type User struct {
	ID          string
	Email       string
	DisplayName string
}

// Friend is one entry in a user's friend list. LinkedUserID is empty for
// imported contacts that never linked an account; only linked app users can
// be matched or probed for live availability.
type Friend struct {
	FriendID     string
	OwnerID      string
	DisplayName  string
	FriendType   string
	LinkedUserID string
}

// Linked reports whether the friend is connected to a registered account.
func (f Friend) Linked() bool {
	return f.FriendType == "app_user" && f.LinkedUserID != ""
}

// Users exposes read access to registered accounts.
type Users interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// AvailabilityStore exposes read/write access to saved weekly availability.
// GetProfile returns ErrNotFound for an unknown user; a known user who never
// saved availability yields a profile with a nil UpdatedAt.
type AvailabilityStore interface {
	GetProfile(ctx context.Context, userID string) (availability.Profile, error)
	SaveProfile(ctx context.Context, userID string, profile availability.Profile) error
}

// FriendDirectory exposes a user's friend list.
type FriendDirectory interface {
	ListFriends(ctx context.Context, userID string) ([]Friend, error)
	GetFriend(ctx context.Context, userID, friendID string) (Friend, error)
}

// CredentialStore persists per-user calendar provider tokens. It satisfies
// calendar.CredentialSource.
type CredentialStore interface {
	GoogleTokens(ctx context.Context, userID string) (calendar.Tokens, bool, error)
	SaveGoogleTokens(ctx context.Context, userID string, tokens calendar.Tokens) error
}
