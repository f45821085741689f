package storage

import (
	"fmt"
	"time"
)

// EnsureUser inserts a user row on first search and returns the
// current record. A fresh user has lastFetched at the epoch so the
// first search always qualifies as stale.
func (s *Store) EnsureUser(userID string) (*UserRecord, error) {
	epoch := time.Unix(0, 0).UTC()
	query := `INSERT OR IGNORE INTO users (user_id, fetching, last_fetched, created_at)
		VALUES (?, 0, ?, ?)`

	if _, err := s.db.Exec(query, userID, epoch, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to ensure user %s: %w", userID, err)
	}
	return s.GetUser(userID)
}

// GetUser retrieves a user's fetch state
func (s *Store) GetUser(userID string) (*UserRecord, error) {
	var user UserRecord
	query := `SELECT user_id, fetching, last_fetched, last_error, created_at
		FROM users WHERE user_id = ?`

	err := s.db.QueryRow(query, userID).Scan(
		&user.UserID, &user.Fetching, &user.LastFetched,
		&user.LastError, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	return &user, nil
}

// TryBeginFetch atomically flips the fetching flag from false to true
// when the last fetch is at least ttl old. The conditional update is
// the compare-and-swap gate: a return of false means another fetch
// holds the flag or the data is still fresh.
func (s *Store) TryBeginFetch(userID string, ttl time.Duration, now time.Time) (bool, error) {
	query := `UPDATE users SET fetching = 1
		WHERE user_id = ? AND fetching = 0 AND last_fetched <= ?`

	res, err := s.db.Exec(query, userID, now.Add(-ttl))
	if err != nil {
		return false, fmt.Errorf("failed to begin fetch for %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FinishFetch releases the fetch flag, stamps the fetch time and
// records the outcome. Called on every exit path of a fetch.
func (s *Store) FinishFetch(userID string, now time.Time, errMsg string) error {
	query := `UPDATE users SET fetching = 0, last_fetched = ?, last_error = ?
		WHERE user_id = ?`

	if _, err := s.db.Exec(query, now, errMsg, userID); err != nil {
		return fmt.Errorf("failed to finish fetch for %s: %w", userID, err)
	}
	return nil
}
