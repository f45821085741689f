package storage

// InsertGame records a game in the processed set. Returns
// ErrAlreadyExists when the game id was already recorded, which only
// indicates a race with another ingestion of the same game.
func (s *Store) InsertGame(record GameRecord) error {
	query := `INSERT INTO games (game_id, white_user_id, black_user_id, created_at)
		VALUES (?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		record.GameID, record.WhiteUserID, record.BlackUserID, record.CreatedAt,
	)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

// HasGame reports whether a game id is in the processed set
func (s *Store) HasGame(gameID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM games WHERE game_id = ?`

	if err := s.db.QueryRow(query, gameID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// QueryGames retrieves processed games, optionally filtered by player
func (s *Store) QueryGames(playerID string) ([]GameRecord, error) {
	query := `SELECT game_id, white_user_id, black_user_id, created_at
		FROM games WHERE 1=1`

	var args []interface{}
	if playerID != "" && playerID != "*" {
		query += " AND (white_user_id = ? OR black_user_id = ?)"
		args = append(args, playerID, playerID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var g GameRecord
		if err := rows.Scan(&g.GameID, &g.WhiteUserID, &g.BlackUserID, &g.CreatedAt); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
