package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/meeting-matcher/internal/interval"
)

const (
	defaultAPIBaseURL = "https://www.googleapis.com/calendar/v3"
	defaultTokenURL   = "https://oauth2.googleapis.com/token"
)

// GoogleClient implements Gateway against the Google Calendar REST API using
// stored OAuth tokens, querying the primary calendar's free/busy state and
// creating events with an optional Meet join link.
type GoogleClient struct {
	httpClient   *http.Client
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	credentials  CredentialSource
	now          func() time.Time
	newID        func() string
	logger       *slog.Logger
}

// GoogleClientConfig wires dependencies for the Google calendar gateway.
type GoogleClientConfig struct {
	HTTPClient   *http.Client
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Credentials  CredentialSource
	Now          func() time.Time
	NewID        func() string
	Logger       *slog.Logger
}

// NewGoogleClient constructs a Google calendar gateway.
func NewGoogleClient(cfg GoogleClientConfig) (*GoogleClient, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("calendar: google client credentials are not configured")
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("calendar: credential source is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = func() string { return fmt.Sprintf("req-%d", time.Now().UnixNano()) }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleClient{
		httpClient:   client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		tokenURL:     tokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		credentials:  cfg.Credentials,
		now:          now,
		newID:        newID,
		logger:       logger,
	}, nil
}

type freeBusyRequest struct {
	TimeMin  string           `json:"timeMin"`
	TimeMax  string           `json:"timeMax"`
	TimeZone string           `json:"timeZone,omitempty"`
	Items    []freeBusyItem   `json:"items"`
}

type freeBusyItem struct {
	ID string `json:"id"`
}

type freeBusyResponse struct {
	Calendars map[string]struct {
		Busy []struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"busy"`
	} `json:"calendars"`
}

// FetchBusy queries the free/busy state of the participant's primary calendar
// within the window.
func (g *GoogleClient) FetchBusy(ctx context.Context, participantID string, window interval.Interval) ([]interval.Interval, error) {
	token, err := g.ensureAccessToken(ctx, participantID)
	if err != nil {
		return nil, err
	}

	body := freeBusyRequest{
		TimeMin: window.Start.UTC().Format(time.RFC3339),
		TimeMax: window.End.UTC().Format(time.RFC3339),
		Items:   []freeBusyItem{{ID: "primary"}},
	}

	var parsed freeBusyResponse
	if err := g.doJSON(ctx, http.MethodPost, g.baseURL+"/freeBusy", token, body, &parsed); err != nil {
		return nil, err
	}

	primary, ok := parsed.Calendars["primary"]
	if !ok {
		return nil, nil
	}

	busy := make([]interval.Interval, 0, len(primary.Busy))
	for _, period := range primary.Busy {
		start, startErr := time.Parse(time.RFC3339, period.Start)
		end, endErr := time.Parse(time.RFC3339, period.End)
		if startErr != nil || endErr != nil {
			g.logger.WarnContext(ctx, "skipping unparsable busy period", "start", period.Start, "end", period.End)
			continue
		}
		iv := interval.New(start.UTC(), end.UTC())
		if iv.IsValid() {
			busy = append(busy, iv)
		}
	}
	return busy, nil
}

type eventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type eventAttendee struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

type eventBody struct {
	Summary        string          `json:"summary"`
	Description    string          `json:"description,omitempty"`
	Start          eventDateTime   `json:"start"`
	End            eventDateTime   `json:"end"`
	Attendees      []eventAttendee `json:"attendees,omitempty"`
	ConferenceData *conferenceData `json:"conferenceData,omitempty"`
}

type conferenceData struct {
	CreateRequest conferenceCreateRequest `json:"createRequest"`
}

type conferenceCreateRequest struct {
	RequestID             string                `json:"requestId"`
	ConferenceSolutionKey conferenceSolutionKey `json:"conferenceSolutionKey"`
}

type conferenceSolutionKey struct {
	Type string `json:"type"`
}

type eventResponse struct {
	ID             string `json:"id"`
	HangoutLink    string `json:"hangoutLink"`
	ConferenceData *struct {
		EntryPoints []struct {
			EntryPointType string `json:"entryPointType"`
			URI            string `json:"uri"`
		} `json:"entryPoints"`
	} `json:"conferenceData"`
}

// CreateEvent inserts an event on the organizer's primary calendar.
func (g *GoogleClient) CreateEvent(ctx context.Context, req EventRequest) (Event, error) {
	token, err := g.ensureAccessToken(ctx, req.OrganizerID)
	if err != nil {
		return Event{}, err
	}

	body := eventBody{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       eventDateTime{DateTime: req.Window.Start.UTC().Format(time.RFC3339), TimeZone: req.Timezone},
		End:         eventDateTime{DateTime: req.Window.End.UTC().Format(time.RFC3339), TimeZone: req.Timezone},
	}
	for _, attendee := range req.Attendees {
		if attendee.Email == "" {
			continue
		}
		body.Attendees = append(body.Attendees, eventAttendee{Email: attendee.Email, DisplayName: attendee.DisplayName})
	}

	endpoint := g.baseURL + "/calendars/primary/events"
	if req.RequestJoinLink {
		body.ConferenceData = &conferenceData{
			CreateRequest: conferenceCreateRequest{
				RequestID:             g.newID(),
				ConferenceSolutionKey: conferenceSolutionKey{Type: "hangoutsMeet"},
			},
		}
		endpoint += "?conferenceDataVersion=1"
	}

	var parsed eventResponse
	if err := g.doJSON(ctx, http.MethodPost, endpoint, token, body, &parsed); err != nil {
		return Event{}, err
	}

	event := Event{ID: parsed.ID, JoinLink: parsed.HangoutLink}
	if event.JoinLink == "" && parsed.ConferenceData != nil {
		for _, entry := range parsed.ConferenceData.EntryPoints {
			if entry.EntryPointType == "video" {
				event.JoinLink = entry.URI
				break
			}
		}
	}
	return event, nil
}

// ensureAccessToken loads the stored tokens for the user and refreshes the
// access token when expired. Refreshed tokens are written back best effort.
func (g *GoogleClient) ensureAccessToken(ctx context.Context, userID string) (string, error) {
	tokens, linked, err := g.credentials.GoogleTokens(ctx, userID)
	if err != nil {
		return "", mapTransportError(err)
	}
	if !linked || tokens.RefreshToken == "" {
		return "", ErrNotLinked
	}
	if tokens.Valid(g.now()) {
		return tokens.AccessToken, nil
	}

	refreshed, err := g.refreshTokens(ctx, tokens)
	if err != nil {
		return "", err
	}
	if err := g.credentials.SaveGoogleTokens(ctx, userID, refreshed); err != nil {
		g.logger.WarnContext(ctx, "failed to persist refreshed tokens", "user_id", userID, "error", err)
	}
	return refreshed.AccessToken, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (g *GoogleClient) refreshTokens(ctx context.Context, tokens Tokens) (Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", tokens.RefreshToken)
	form.Set("client_id", g.clientID)
	form.Set("client_secret", g.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Tokens{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := g.httpClient.Do(req)
	if err != nil {
		return Tokens{}, mapTransportError(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return Tokens{}, fmt.Errorf("%w: token refresh returned %d: %s", ErrUnavailable, res.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return Tokens{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if parsed.AccessToken == "" {
		return Tokens{}, fmt.Errorf("%w: token refresh returned no access token", ErrUnavailable)
	}

	refreshed := Tokens{
		AccessToken:  parsed.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}
	if parsed.ExpiresIn > 0 {
		expiry := g.now().Add(time.Duration(parsed.ExpiresIn) * time.Second).UTC()
		refreshed.ExpiresAt = &expiry
	}
	return refreshed, nil
}

func (g *GoogleClient) doJSON(ctx context.Context, method, endpoint, token string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := g.httpClient.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnavailable, endpoint, res.StatusCode, strings.TrimSpace(string(payload)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func mapTransportError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
