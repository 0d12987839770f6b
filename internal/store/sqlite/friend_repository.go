package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/meeting-matcher/internal/store"
)

// AddFriend inserts a friend entry for a user.
func (s *Store) AddFriend(ctx context.Context, friend store.Friend) error {
	if friend.OwnerID == "" || friend.FriendID == "" {
		return fmt.Errorf("sqlite: friend owner and id are required")
	}
	var linked sql.NullString
	if friend.LinkedUserID != "" {
		linked = sql.NullString{String: friend.LinkedUserID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO friends (owner_id, friend_id, display_name, friend_type, linked_user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		friend.OwnerID, friend.FriendID, friend.DisplayName, friend.FriendType, linked,
		time.Now().UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// ListFriends returns every friend entry owned by the user, newest first.
func (s *Store) ListFriends(ctx context.Context, userID string) ([]store.Friend, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT owner_id, friend_id, display_name, friend_type, linked_user_id
		 FROM friends WHERE owner_id = ? ORDER BY created_at DESC, friend_id`,
		userID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	friends := make([]store.Friend, 0)
	for rows.Next() {
		friend, err := scanFriend(rows)
		if err != nil {
			return nil, err
		}
		friends = append(friends, friend)
	}
	return friends, rows.Err()
}

// GetFriend loads one friend entry by owner and friend id.
func (s *Store) GetFriend(ctx context.Context, userID, friendID string) (store.Friend, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT owner_id, friend_id, display_name, friend_type, linked_user_id
		 FROM friends WHERE owner_id = ? AND friend_id = ?`,
		userID, friendID,
	)
	friend, err := scanFriend(row)
	if err != nil {
		return store.Friend{}, mapError(err)
	}
	return friend, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFriend(row rowScanner) (store.Friend, error) {
	var friend store.Friend
	var linked sql.NullString
	if err := row.Scan(&friend.OwnerID, &friend.FriendID, &friend.DisplayName, &friend.FriendType, &linked); err != nil {
		return store.Friend{}, err
	}
	if linked.Valid {
		friend.LinkedUserID = linked.String
	}
	return friend, nil
}
