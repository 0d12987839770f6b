package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/meeting-matcher/internal/availability"
	"github.com/example/meeting-matcher/internal/store"
)

var (
	userCounter   uint64
	friendCounter uint64
)

var referenceTime = time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures:
// 08:00 UTC on a Monday.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record.
type UserFixture struct {
	ID          string
	Email       string
	DisplayName string
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := UserFixture{
		ID:          id,
		Email:       fmt.Sprintf("%s@example.com", id),
		DisplayName: fmt.Sprintf("User %03d", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserDisplayName overrides the generated display name.
func WithUserDisplayName(name string) UserOption {
	return func(f *UserFixture) {
		f.DisplayName = name
	}
}

// Store returns the fixture as a store.User value.
func (f UserFixture) Store() store.User {
	return store.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
	}
}

// ---------------------------- Friend fixtures ----------------------------

// FriendFixture represents a deterministic friend relationship.
type FriendFixture struct {
	FriendID     string
	OwnerID      string
	DisplayName  string
	FriendType   string
	LinkedUserID string
}

// FriendOption configures the generated friend fixture.
type FriendOption func(*FriendFixture)

// NewFriendFixture returns a deterministic linked friend fixture with optional
// overrides.
func NewFriendFixture(ownerID string, opts ...FriendOption) FriendFixture {
	idx := atomic.AddUint64(&friendCounter, 1)
	fixture := FriendFixture{
		FriendID:     fmt.Sprintf("friend-%03d", idx),
		OwnerID:      ownerID,
		DisplayName:  fmt.Sprintf("Friend %03d", idx),
		FriendType:   "app_user",
		LinkedUserID: fmt.Sprintf("linked-%03d", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithFriendID overrides the generated friend ID.
func WithFriendID(id string) FriendOption {
	return func(f *FriendFixture) {
		f.FriendID = id
	}
}

// WithFriendDisplayName overrides the generated display name.
func WithFriendDisplayName(name string) FriendOption {
	return func(f *FriendFixture) {
		f.DisplayName = name
	}
}

// WithLinkedUser links the friend to the given account.
func WithLinkedUser(userID string) FriendOption {
	return func(f *FriendFixture) {
		f.FriendType = "app_user"
		f.LinkedUserID = userID
	}
}

// AsContact turns the fixture into an unlinked contact entry.
func AsContact() FriendOption {
	return func(f *FriendFixture) {
		f.FriendType = "contact"
		f.LinkedUserID = ""
	}
}

// Store returns the fixture as a store.Friend value.
func (f FriendFixture) Store() store.Friend {
	return store.Friend{
		FriendID:     f.FriendID,
		OwnerID:      f.OwnerID,
		DisplayName:  f.DisplayName,
		FriendType:   f.FriendType,
		LinkedUserID: f.LinkedUserID,
	}
}

// --------------------------- Profile fixtures ----------------------------

// Workweek returns a weekly availability with the given range on every
// weekday, Monday through Friday.
func Workweek(start, end string) availability.WeeklyAvailability {
	weekly := availability.NewWeekly()
	span := availability.TimeRange{Start: start, End: end}
	for _, day := range []string{
		availability.DayMonday,
		availability.DayTuesday,
		availability.DayWednesday,
		availability.DayThursday,
		availability.DayFriday,
	} {
		weekly[day] = []availability.TimeRange{span}
	}
	return weekly
}

// SingleDay returns a weekly availability with one range on one day.
func SingleDay(day, start, end string) availability.WeeklyAvailability {
	weekly := availability.NewWeekly()
	weekly[day] = []availability.TimeRange{{Start: start, End: end}}
	return weekly
}

// SavedProfile returns a profile stamped at the reference time.
func SavedProfile(weekly availability.WeeklyAvailability, timezone string) availability.Profile {
	updated := referenceTime
	return availability.Profile{Weekly: weekly, Timezone: timezone, UpdatedAt: &updated}
}
