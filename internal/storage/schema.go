package storage

import "time"

// UserRecord tracks per-user fetch state. LastError carries the most
// recent provider failure so it can be surfaced on the next page.
type UserRecord struct {
	UserID      string    `db:"user_id"`
	Fetching    bool      `db:"fetching"`
	LastFetched time.Time `db:"last_fetched"`
	LastError   string    `db:"last_error"`
	CreatedAt   time.Time `db:"created_at"`
}

// GameRecord marks a game as processed and records who played it
type GameRecord struct {
	GameID      string    `db:"game_id"`
	WhiteUserID string    `db:"white_user_id"`
	BlackUserID string    `db:"black_user_id"`
	CreatedAt   time.Time `db:"created_at"`
}

// PuzzleRecord is a synthesized missed-tactic puzzle
type PuzzleRecord struct {
	PuzzleID        string    `db:"puzzle_id"`
	GameID          string    `db:"game_id"`
	BoardState      string    `db:"board_state"`
	Orientation     string    `db:"orientation"` // side to move, "white" or "black"
	URL             string    `db:"url"`
	PlyNumber       int       `db:"ply_number"`
	MoveLabel       string    `db:"move_label"`
	MoveSource      string    `db:"move_source"`
	MoveDestination string    `db:"move_destination"`
	Votes           int       `db:"votes"`
	CreatedAt       time.Time `db:"created_at"`
}

// VoteRecord is one user's vote on one puzzle
type VoteRecord struct {
	PuzzleID string `db:"puzzle_id"`
	UserID   string `db:"user_id"`
	Up       bool   `db:"up"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	fetching INTEGER NOT NULL DEFAULT 0,
	last_fetched DATETIME NOT NULL,
	last_error TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	white_user_id TEXT NOT NULL DEFAULT '',
	black_user_id TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_games_white_user ON games(white_user_id);
CREATE INDEX IF NOT EXISTS idx_games_black_user ON games(black_user_id);

CREATE TABLE IF NOT EXISTS puzzles (
	puzzle_id TEXT PRIMARY KEY,
	game_id TEXT NOT NULL,
	board_state TEXT NOT NULL,
	orientation TEXT NOT NULL CHECK(orientation IN ('white', 'black')),
	url TEXT NOT NULL,
	ply_number INTEGER NOT NULL,
	move_label TEXT NOT NULL,
	move_source TEXT NOT NULL,
	move_destination TEXT NOT NULL,
	votes INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (game_id) REFERENCES games(game_id)
);

CREATE INDEX IF NOT EXISTS idx_puzzles_game_id ON puzzles(game_id);
CREATE INDEX IF NOT EXISTS idx_puzzles_votes ON puzzles(votes);

CREATE TABLE IF NOT EXISTS votes (
	puzzle_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	up INTEGER NOT NULL,
	PRIMARY KEY (puzzle_id, user_id),
	FOREIGN KEY (puzzle_id) REFERENCES puzzles(puzzle_id)
);
`
