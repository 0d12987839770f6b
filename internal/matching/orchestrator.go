package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/meeting-matcher/internal/availability"
	"github.com/example/meeting-matcher/internal/calendar"
	"github.com/example/meeting-matcher/internal/interval"
	"github.com/example/meeting-matcher/internal/store"
)

// UserDirectory exposes account lookups consumed by the engine.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (store.User, error)
}

// FriendDirectory exposes a user's friend list.
type FriendDirectory interface {
	ListFriends(ctx context.Context, userID string) ([]store.Friend, error)
	GetFriend(ctx context.Context, userID, friendID string) (store.Friend, error)
}

// ProfileStore exposes saved weekly availability, read-only for the engine.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (availability.Profile, error)
}

// ServiceConfig tunes the matching service. Zero values fall back to
// defaults.
type ServiceConfig struct {
	GatewayTimeout   time.Duration
	MaxInFlight      int
	AlternativeCount int
	Now              func() time.Time
	NewID            func() string
	Logger           *slog.Logger
}

// Service implements the availability matching engine: slot finding,
// available-now classification, and slot booking. All state it assembles is
// recomputed per request; nothing is cached.
type Service struct {
	users            UserDirectory
	friends          FriendDirectory
	profiles         ProfileStore
	gateway          calendar.Gateway
	resolver         *Resolver
	maxInFlight      int
	alternativeCount int
	now              func() time.Time
	newID            func() string
	logger           *slog.Logger
}

// NewService wires the matching engine's collaborators.
func NewService(users UserDirectory, friends FriendDirectory, profiles ProfileStore, gateway calendar.Gateway, cfg ServiceConfig) *Service {
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 5 * time.Second
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 4
	}
	if cfg.AlternativeCount <= 0 {
		cfg.AlternativeCount = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return fmt.Sprintf("id-%d", time.Now().UnixNano()) }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		users:            users,
		friends:          friends,
		profiles:         profiles,
		gateway:          gateway,
		resolver:         NewResolver(gateway, cfg.GatewayTimeout, cfg.Logger),
		maxInFlight:      cfg.MaxInFlight,
		alternativeCount: cfg.AlternativeCount,
		now:              cfg.Now,
		newID:            cfg.NewID,
		logger:           cfg.Logger,
	}
}

// FindMatch finds the earliest common free slots for the initiator and the
// requested friends. Participants are resolved concurrently with bounded
// parallelism; any single participant's gateway failure degrades confidence
// rather than failing the request.
func (s *Service) FindMatch(ctx context.Context, req MatchRequest) (MatchResult, error) {
	if err := validateMatchRequest(req); err != nil {
		return MatchResult{}, err
	}

	now := s.now().UTC()
	result := MatchResult{
		Window: SearchWindow{
			DaysFromNow:     req.DaysFromNow,
			WindowDays:      req.WindowDays,
			DurationMinutes: req.DurationMinutes,
		},
		Notes: []string{},
	}

	contexts := make([]ParticipantContext, 0, len(req.FriendIDs)+1)

	ownerReport, ownerCtx := s.resolveOwnerContext(ctx, req.InitiatorID)
	result.Participants = append(result.Participants, ownerReport)
	if ownerCtx != nil {
		contexts = append(contexts, *ownerCtx)
	}

	for _, friendID := range req.FriendIDs {
		report, participantCtx := s.resolveFriendContext(ctx, req.InitiatorID, friendID)
		result.Participants = append(result.Participants, report)
		if participantCtx != nil {
			contexts = append(contexts, *participantCtx)
		}
	}

	// Intersection against a participant with no data is meaningless; stop
	// before any gateway call so the caller gets an actionable signal.
	if len(contexts) != len(req.FriendIDs)+1 {
		result.Status = StatusNeedsSetup
		result.Notes = append(result.Notes,
			"Every participant needs saved weekly availability before a match can be computed.")
		return result, nil
	}

	resolved, windows, err := s.resolveAll(ctx, contexts, ResolveWindow{
		DaysFromNow: req.DaysFromNow,
		WindowDays:  req.WindowDays,
	}, now)
	if err != nil {
		return MatchResult{}, err
	}

	for _, window := range windows {
		if result.Window.Start.IsZero() || window.Start.Before(result.Window.Start) {
			result.Window.Start = window.Start
		}
		if window.End.After(result.Window.End) {
			result.Window.End = window.End
		}
	}

	sets := make([][]interval.Interval, len(resolved))
	for i, pa := range resolved {
		sets[i] = pa.Free
		s.annotateReport(&result, contexts[i], pa)
	}

	common := interval.IntersectAll(sets)
	slots := interval.FilterByMinDuration(common, time.Duration(req.DurationMinutes)*time.Minute)
	ranked := interval.FirstN(slots, 1+s.alternativeCount)

	if len(ranked) == 0 {
		result.Status = StatusNoOverlap
		result.Notes = append(result.Notes,
			"No overlapping availability was found in the requested window. Try a wider window or ask friends to update their schedules.")
		return result, nil
	}

	result.Status = StatusMatched
	result.Recommendation = &Recommendation{
		Interval:   ranked[0],
		Confidence: deriveConfidence(resolved),
	}
	result.Alternatives = ranked[1:]
	return result, nil
}

// resolveAll fans the resolver out over every participant with bounded
// parallelism and waits for all of them: a join barrier, not a race. Each
// slot in the result slices is written by exactly one goroutine.
func (s *Service) resolveAll(ctx context.Context, contexts []ParticipantContext, win ResolveWindow, now time.Time) ([]ParticipantAvailability, []interval.Interval, error) {
	resolved := make([]ParticipantAvailability, len(contexts))
	windows := make([]interval.Interval, len(contexts))
	errs := make([]error, len(contexts))

	semaphore := make(chan struct{}, s.maxInFlight)
	var wg sync.WaitGroup

	for i, pc := range contexts {
		wg.Add(1)
		go func(i int, pc ParticipantContext) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}

			resolved[i], windows[i], errs[i] = s.resolver.Resolve(ctx, pc, now, win)
		}(i, pc)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}
	return resolved, windows, nil
}

func (s *Service) annotateReport(result *MatchResult, pc ParticipantContext, pa ParticipantAvailability) {
	for i := range result.Participants {
		if result.Participants[i].ParticipantID != pc.ParticipantID {
			continue
		}
		result.Participants[i].CalendarChecked = pa.Quality == QualityVerified
		switch pa.StatusReason {
		case ReasonCalendarDisconnected:
			result.Participants[i].Detail = "Using saved weekly availability only."
			result.Notes = append(result.Notes,
				fmt.Sprintf("%s has no connected calendar; the match relies on their weekly pattern.", pc.DisplayName))
		case ReasonCalendarCheckFailed:
			result.Participants[i].Detail = "Calendar could not be checked."
			result.Notes = append(result.Notes,
				fmt.Sprintf("%s's calendar could not be checked; the match relies on their weekly pattern.", pc.DisplayName))
		}
		return
	}
}

func (s *Service) resolveOwnerContext(ctx context.Context, userID string) (ParticipantReport, *ParticipantContext) {
	report := ParticipantReport{ParticipantID: userID, DisplayName: "You"}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		report.Status = ParticipantUserNotFound
		report.Detail = "Unable to load your profile."
		return report, nil
	}
	if user.DisplayName != "" {
		report.DisplayName = user.DisplayName
	}

	return s.contextFromProfile(ctx, report, userID)
}

func (s *Service) resolveFriendContext(ctx context.Context, ownerID, friendID string) (ParticipantReport, *ParticipantContext) {
	report := ParticipantReport{ParticipantID: friendID}

	friend, err := s.friends.GetFriend(ctx, ownerID, friendID)
	if err != nil {
		report.Status = ParticipantNotFound
		report.Detail = "Friend relationship not found."
		return report, nil
	}
	report.DisplayName = friend.DisplayName

	if !friend.Linked() {
		report.Status = ParticipantMissingConnection
		report.Detail = "Friend has not linked their account yet."
		return report, nil
	}
	report.ParticipantID = friend.LinkedUserID

	return s.contextFromProfile(ctx, report, friend.LinkedUserID)
}

func (s *Service) contextFromProfile(ctx context.Context, report ParticipantReport, userID string) (ParticipantReport, *ParticipantContext) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			report.Status = ParticipantUserNotFound
			report.Detail = "User record could not be located."
			return report, nil
		}
		s.logger.ErrorContext(ctx, "failed to load availability profile", "user_id", userID, "error", err)
		report.Status = ParticipantUserNotFound
		report.Detail = "User record could not be loaded."
		return report, nil
	}

	if !profile.HasAvailability() {
		report.Status = ParticipantNoAvailability
		report.Detail = "Weekly availability has not been configured."
		return report, nil
	}

	report.Status = ParticipantReady
	report.Timezone = profile.Timezone
	return report, &ParticipantContext{
		ParticipantID: userID,
		DisplayName:   report.DisplayName,
		Weekly:        profile.Weekly,
		Timezone:      profile.Timezone,
	}
}

// deriveConfidence ranks the match by the worst data quality present: high
// only when every participant was verified, low when none were.
func deriveConfidence(resolved []ParticipantAvailability) Confidence {
	verified := 0
	for _, pa := range resolved {
		if pa.Quality == QualityVerified {
			verified++
		}
	}
	switch verified {
	case len(resolved):
		return ConfidenceHigh
	case 0:
		return ConfidenceLow
	default:
		return ConfidenceMedium
	}
}

func validateMatchRequest(req MatchRequest) error {
	vErr := &ValidationError{}

	if req.InitiatorID == "" {
		vErr.add("initiator_id", "initiator is required")
	}
	if len(req.FriendIDs) == 0 {
		vErr.add("friend_ids", "at least one friend is required")
	}
	seen := make(map[string]struct{}, len(req.FriendIDs))
	for _, id := range req.FriendIDs {
		if id == "" {
			vErr.add("friend_ids", "friend ids must not be empty")
			continue
		}
		if id == req.InitiatorID {
			vErr.add("friend_ids", "initiator cannot be matched with themselves")
		}
		if _, ok := seen[id]; ok {
			vErr.add("friend_ids", "friend ids must not contain duplicates")
		}
		seen[id] = struct{}{}
	}
	if req.DaysFromNow < 0 {
		vErr.add("days_from_now", "must be zero or greater")
	}
	if req.WindowDays <= 0 {
		vErr.add("window_days", "must be positive")
	}
	if req.DurationMinutes <= 0 {
		vErr.add("duration_minutes", "must be positive")
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
