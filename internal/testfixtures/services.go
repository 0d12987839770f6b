package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/meeting-matcher/internal/calendar"
	"github.com/example/meeting-matcher/internal/matching"
)

// ServiceFactory assists tests with constructing matching services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults: the reference
// clock, an "id" prefixed generator, and a discarding logger.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Logger == nil {
		factory.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// MatchingServiceDeps captures dependencies for constructing a matching
// service. Config fields left at zero fall back to the service defaults.
type MatchingServiceDeps struct {
	Users    matching.UserDirectory
	Friends  matching.FriendDirectory
	Profiles matching.ProfileStore
	Gateway  calendar.Gateway
	Config   matching.ServiceConfig
}

// NewMatchingService builds a matching service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewMatchingService(deps MatchingServiceDeps) *matching.Service {
	cfg := deps.Config
	if cfg.Now == nil {
		cfg.Now = f.Clock.NowFunc()
	}
	if cfg.NewID == nil {
		cfg.NewID = f.IDGenerator.NextFunc()
	}
	if cfg.Logger == nil {
		cfg.Logger = f.Logger
	}
	return matching.NewService(deps.Users, deps.Friends, deps.Profiles, deps.Gateway, cfg)
}

// NewProfileService builds a profile service using the factory defaults.
func (f *ServiceFactory) NewProfileService(users matching.UserDirectory, repo matching.ProfileRepository) *matching.ProfileService {
	return matching.NewProfileService(users, repo, f.Clock.NowFunc(), f.Logger)
}
