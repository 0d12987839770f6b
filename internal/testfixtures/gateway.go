package testfixtures

import (
	"context"
	"sync"

	"github.com/example/meeting-matcher/internal/calendar"
	"github.com/example/meeting-matcher/internal/interval"
)

// Gateway is a scripted calendar.Gateway for tests. Busy intervals and errors
// are keyed by participant id; unscripted participants report no busy data.
type Gateway struct {
	mu      sync.Mutex
	busy    map[string][]interval.Interval
	errs    map[string]error
	fetches []string
	event   calendar.Event
	created []calendar.EventRequest
}

// NewGateway constructs an empty scripted gateway.
func NewGateway() *Gateway {
	return &Gateway{
		busy: make(map[string][]interval.Interval),
		errs: make(map[string]error),
	}
}

// SetBusy scripts the busy intervals returned for a participant.
func (g *Gateway) SetBusy(participantID string, busy ...interval.Interval) {
	g.mu.Lock()
	g.busy[participantID] = busy
	g.mu.Unlock()
}

// SetError scripts the error returned for a participant.
func (g *Gateway) SetError(participantID string, err error) {
	g.mu.Lock()
	g.errs[participantID] = err
	g.mu.Unlock()
}

// SetEvent scripts the event returned by CreateEvent.
func (g *Gateway) SetEvent(event calendar.Event) {
	g.mu.Lock()
	g.event = event
	g.mu.Unlock()
}

// FetchBusy returns the scripted busy intervals or error for the participant.
func (g *Gateway) FetchBusy(ctx context.Context, participantID string, window interval.Interval) ([]interval.Interval, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches = append(g.fetches, participantID)
	if err := g.errs[participantID]; err != nil {
		return nil, err
	}
	return append([]interval.Interval(nil), g.busy[participantID]...), nil
}

// CreateEvent records the request and returns the scripted event.
func (g *Gateway) CreateEvent(ctx context.Context, req calendar.EventRequest) (calendar.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, req)
	return g.event, nil
}

// Fetches returns the participant ids probed so far, in call order.
func (g *Gateway) Fetches() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.fetches...)
}

// CreatedEvents returns every recorded CreateEvent request.
func (g *Gateway) CreatedEvents() []calendar.EventRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]calendar.EventRequest(nil), g.created...)
}
