package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// ApplyVote records or toggles a user's vote on a puzzle and adjusts
// the puzzle's score in the same transaction. A first vote moves the
// count by ±1, a repeat vote in the same direction is a no-op, and a
// direction flip moves the count by ±2. Returns the resulting count.
func (s *Store) ApplyVote(puzzleID, userID string, up bool) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var votes int
	err = tx.QueryRow(`SELECT votes FROM puzzles WHERE puzzle_id = ?`, puzzleID).Scan(&votes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	var existingUp bool
	err = tx.QueryRow(`SELECT up FROM votes WHERE puzzle_id = ? AND user_id = ?`,
		puzzleID, userID).Scan(&existingUp)

	var delta int
	switch {
	case errors.Is(err, sql.ErrNoRows):
		delta = direction(up)
		if _, err := tx.Exec(`INSERT INTO votes (puzzle_id, user_id, up) VALUES (?, ?, ?)`,
			puzzleID, userID, up); err != nil {
			return 0, err
		}

	case err != nil:
		return 0, err

	case existingUp == up:
		// Idempotent repeat vote
		return votes, tx.Commit()

	default:
		// Flip removes the old contribution and applies the new one
		delta = 2 * direction(up)
		if _, err := tx.Exec(`UPDATE votes SET up = ? WHERE puzzle_id = ? AND user_id = ?`,
			up, puzzleID, userID); err != nil {
			return 0, err
		}
	}

	if _, err := tx.Exec(`UPDATE puzzles SET votes = votes + ? WHERE puzzle_id = ?`,
		delta, puzzleID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return votes + delta, nil
}

func direction(up bool) int {
	if up {
		return 1
	}
	return -1
}
