package core

// VoteRequest is the body of POST /api/v1/puzzles/:puzzleId/vote
type VoteRequest struct {
	UserID string `json:"userId" validate:"required,min=2,max=64"`
	Up     *bool  `json:"up" validate:"required"`
}

// VoteResponse reports the puzzle score after a vote was applied
type VoteResponse struct {
	PuzzleID string `json:"puzzleId"`
	Votes    int    `json:"votes"`
}

// PuzzleView is the outbound representation of a stored puzzle.
// BoardStateSafe carries the board state with spaces substituted so
// the value survives being embedded in a URL path or fragment.
type PuzzleView struct {
	ID              string `json:"id"`
	GameID          string `json:"gameId"`
	BoardState      string `json:"boardState"`
	BoardStateSafe  string `json:"boardStateSafe"`
	SideToMove      string `json:"sideToMove"`
	URL             string `json:"url"`
	Ply             int    `json:"ply"`
	MoveLabel       string `json:"moveLabel"`
	MoveSource      string `json:"moveSource"`
	MoveDestination string `json:"moveDestination"`
	Votes           int    `json:"votes"`
}

// PuzzleListResponse is returned by the search endpoint. While a
// background fetch is in flight Fetching is true and Puzzles holds
// whatever was already synthesized for the user.
type PuzzleListResponse struct {
	Fetching bool         `json:"fetching"`
	Message  string       `json:"message,omitempty"`
	Puzzles  []PuzzleView `json:"puzzles"`
	Total    int          `json:"total"`
}
