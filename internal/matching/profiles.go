package matching

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/meeting-matcher/internal/availability"
	"github.com/example/meeting-matcher/internal/store"
)

// ProfileRepository persists availability profiles for the profile service.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (availability.Profile, error)
	SaveProfile(ctx context.Context, userID string, profile availability.Profile) error
}

// ProfileService owns saving and loading weekly availability. Input is
// validated and normalized before it reaches storage so every stored profile
// is well formed.
type ProfileService struct {
	users  UserDirectory
	store  ProfileRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewProfileService wires the profile service.
func NewProfileService(users UserDirectory, repo ProfileRepository, now func() time.Time, logger *slog.Logger) *ProfileService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{users: users, store: repo, now: now, logger: logger}
}

// Save validates and stores the user's weekly availability, replacing any
// previous value and stamping the update time.
func (s *ProfileService) Save(ctx context.Context, userID string, weekly map[string][]availability.TimeRange, timezone string) (availability.Profile, error) {
	if userID == "" {
		vErr := &ValidationError{}
		vErr.add("user_id", "user is required")
		return availability.Profile{}, vErr
	}

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return availability.Profile{}, ErrNotFound
		}
		return availability.Profile{}, err
	}

	profile, err := availability.NewProfile(weekly, timezone, s.now())
	if err != nil {
		return availability.Profile{}, profileValidationError(err)
	}

	if err := s.store.SaveProfile(ctx, userID, profile); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return availability.Profile{}, ErrNotFound
		}
		return availability.Profile{}, err
	}

	s.logger.InfoContext(ctx, "availability saved",
		"user_id", userID, "timezone", profile.Timezone)
	return profile, nil
}

// Load returns the user's stored profile. A user who has never saved
// availability gets an empty profile with a nil UpdatedAt, not an error.
func (s *ProfileService) Load(ctx context.Context, userID string) (availability.Profile, error) {
	if userID == "" {
		vErr := &ValidationError{}
		vErr.add("user_id", "user is required")
		return availability.Profile{}, vErr
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return availability.Profile{}, ErrNotFound
		}
		return availability.Profile{}, err
	}
	return profile, nil
}

// profileValidationError maps domain validation sentinels onto field errors
// the transport layer can surface.
func profileValidationError(err error) error {
	vErr := &ValidationError{}
	switch {
	case errors.Is(err, availability.ErrInvalidTimezone):
		vErr.add("timezone", err.Error())
	case errors.Is(err, availability.ErrUnknownDay), errors.Is(err, availability.ErrInvalidTimeRange):
		vErr.add("weekly_availability", err.Error())
	default:
		return err
	}
	return vErr
}
