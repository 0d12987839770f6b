package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/meeting-matcher/internal/availability"
	"github.com/example/meeting-matcher/internal/calendar"
	"github.com/example/meeting-matcher/internal/store"
)

// CreateUser inserts a registered account.
func (s *Store) CreateUser(ctx context.Context, user store.User) error {
	if user.ID == "" || user.Email == "" {
		return fmt.Errorf("sqlite: user id and email are required")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.DisplayName, now, now,
	)
	return mapError(err)
}

// GetUser loads a registered account by id.
func (s *Store) GetUser(ctx context.Context, id string) (store.User, error) {
	var user store.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Email, &user.DisplayName)
	if err != nil {
		return store.User{}, mapError(err)
	}
	return user, nil
}

type availabilityDocument struct {
	Timezone string                                 `json:"timezone"`
	Weekly   map[string][]availability.TimeRange `json:"weekly"`
}

// GetProfile loads the saved weekly availability for a user. A user who has
// never saved availability yields an empty profile with nil UpdatedAt.
func (s *Store) GetProfile(ctx context.Context, userID string) (availability.Profile, error) {
	var doc sql.NullString
	var updatedAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT availability_json, availability_updated_at FROM users WHERE id = ?`, userID,
	).Scan(&doc, &updatedAt)
	if err != nil {
		return availability.Profile{}, mapError(err)
	}

	if !doc.Valid {
		return availability.Profile{Weekly: availability.NewWeekly(), Timezone: "UTC"}, nil
	}

	var parsed availabilityDocument
	if err := json.Unmarshal([]byte(doc.String), &parsed); err != nil {
		return availability.Profile{}, fmt.Errorf("sqlite: corrupt availability document for %s: %w", userID, err)
	}
	weekly, err := availability.ParseWeekly(parsed.Weekly)
	if err != nil {
		return availability.Profile{}, fmt.Errorf("sqlite: corrupt availability document for %s: %w", userID, err)
	}

	profile := availability.Profile{Weekly: weekly, Timezone: parsed.Timezone}
	if updatedAt.Valid {
		stamp, err := time.Parse(time.RFC3339, updatedAt.String)
		if err != nil {
			return availability.Profile{}, fmt.Errorf("sqlite: corrupt availability timestamp for %s: %w", userID, err)
		}
		profile.UpdatedAt = &stamp
	}
	return profile, nil
}

// SaveProfile stores the validated weekly availability for a user.
func (s *Store) SaveProfile(ctx context.Context, userID string, profile availability.Profile) error {
	doc, err := json.Marshal(availabilityDocument{
		Timezone: profile.Timezone,
		Weekly:   profile.Weekly,
	})
	if err != nil {
		return fmt.Errorf("sqlite: failed to encode availability: %w", err)
	}

	updatedAt := time.Now().UTC()
	if profile.UpdatedAt != nil {
		updatedAt = profile.UpdatedAt.UTC()
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET availability_json = ?, availability_updated_at = ?, updated_at = ? WHERE id = ?`,
		string(doc), updatedAt.Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339), userID,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type tokenDocument struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at,omitempty"`
}

// GoogleTokens loads the stored provider tokens for a user. The second return
// value is false when the user never linked a calendar.
func (s *Store) GoogleTokens(ctx context.Context, userID string) (calendar.Tokens, bool, error) {
	var doc sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT google_tokens_json FROM users WHERE id = ?`, userID,
	).Scan(&doc)
	if err != nil {
		return calendar.Tokens{}, false, mapError(err)
	}
	if !doc.Valid || doc.String == "" {
		return calendar.Tokens{}, false, nil
	}

	var parsed tokenDocument
	if err := json.Unmarshal([]byte(doc.String), &parsed); err != nil {
		return calendar.Tokens{}, false, fmt.Errorf("sqlite: corrupt token document for %s: %w", userID, err)
	}

	tokens := calendar.Tokens{AccessToken: parsed.AccessToken, RefreshToken: parsed.RefreshToken}
	if parsed.ExpiresAt != "" {
		expiry, err := time.Parse(time.RFC3339, parsed.ExpiresAt)
		if err != nil {
			return calendar.Tokens{}, false, fmt.Errorf("sqlite: corrupt token expiry for %s: %w", userID, err)
		}
		tokens.ExpiresAt = &expiry
	}
	return tokens, true, nil
}

// SaveGoogleTokens stores refreshed provider tokens for a user.
func (s *Store) SaveGoogleTokens(ctx context.Context, userID string, tokens calendar.Tokens) error {
	doc := tokenDocument{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}
	if tokens.ExpiresAt != nil {
		doc.ExpiresAt = tokens.ExpiresAt.UTC().Format(time.RFC3339)
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("sqlite: failed to encode tokens: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET google_tokens_json = ?, updated_at = ? WHERE id = ?`,
		string(encoded), time.Now().UTC().Format(time.RFC3339), userID,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
