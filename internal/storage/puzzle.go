package storage

import (
	"database/sql"
	"errors"
)

const puzzleColumns = `puzzle_id, game_id, board_state, orientation, url,
	ply_number, move_label, move_source, move_destination, votes, created_at`

// InsertPuzzle stores a synthesized puzzle. Returns ErrAlreadyExists
// when the deterministic puzzle id is already present, which makes
// re-ingestion idempotent.
func (s *Store) InsertPuzzle(record PuzzleRecord) error {
	query := `INSERT INTO puzzles (` + puzzleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		record.PuzzleID, record.GameID, record.BoardState, record.Orientation,
		record.URL, record.PlyNumber, record.MoveLabel,
		record.MoveSource, record.MoveDestination, record.Votes, record.CreatedAt,
	)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

// GetPuzzle retrieves one puzzle by id
func (s *Store) GetPuzzle(puzzleID string) (*PuzzleRecord, error) {
	row := s.db.QueryRow(`SELECT `+puzzleColumns+` FROM puzzles WHERE puzzle_id = ?`, puzzleID)

	var p PuzzleRecord
	err := scanPuzzle(row.Scan, &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PuzzlesByUser lists puzzles synthesized from games the user played,
// newest first.
func (s *Store) PuzzlesByUser(userID string) ([]PuzzleRecord, error) {
	query := `SELECT p.puzzle_id, p.game_id, p.board_state, p.orientation, p.url,
			p.ply_number, p.move_label, p.move_source, p.move_destination, p.votes, p.created_at
		FROM puzzles p
		JOIN games g ON p.game_id = g.game_id
		WHERE g.white_user_id = ? OR g.black_user_id = ?
		ORDER BY g.created_at DESC, p.ply_number ASC`

	return s.queryPuzzles(query, userID, userID)
}

// CountPuzzlesByUser returns the total for the user's listing
func (s *Store) CountPuzzlesByUser(userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*)
		FROM puzzles p
		JOIN games g ON p.game_id = g.game_id
		WHERE g.white_user_id = ? OR g.black_user_id = ?`

	err := s.db.QueryRow(query, userID, userID).Scan(&count)
	return count, err
}

// TopPuzzles lists puzzles across all games ordered by vote count
func (s *Store) TopPuzzles(limit int) ([]PuzzleRecord, error) {
	query := `SELECT ` + puzzleColumns + ` FROM puzzles
		ORDER BY votes DESC, created_at DESC LIMIT ?`

	return s.queryPuzzles(query, limit)
}

func (s *Store) queryPuzzles(query string, args ...interface{}) ([]PuzzleRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var puzzles []PuzzleRecord
	for rows.Next() {
		var p PuzzleRecord
		if err := scanPuzzle(rows.Scan, &p); err != nil {
			return nil, err
		}
		puzzles = append(puzzles, p)
	}
	return puzzles, rows.Err()
}

func scanPuzzle(scan func(...interface{}) error, p *PuzzleRecord) error {
	return scan(
		&p.PuzzleID, &p.GameID, &p.BoardState, &p.Orientation, &p.URL,
		&p.PlyNumber, &p.MoveLabel, &p.MoveSource, &p.MoveDestination,
		&p.Votes, &p.CreatedAt,
	)
}
