// Package rules exposes the chess-legality capability consumed by the
// replayer. An Engine instance is constructed explicitly and passed by
// reference into whatever needs it; there is no package-level state.
package rules

import "puzzlefish/internal/core"

// Position is an immutable board state owned by the engine that
// produced it.
type Position interface {
	// FEN serializes the position.
	FEN() string
	// SideToMove returns the color whose turn it is.
	SideToMove() core.Color
}

// Move carries the source and destination square labels of a move
// that was just applied, e.g. "e2" -> "e4".
type Move struct {
	From string
	To   string
}

// Engine applies moves in standard algebraic notation to positions.
type Engine interface {
	// InitialPosition returns the standard starting position.
	InitialPosition() Position
	// Apply plays one SAN token, returning the resulting position and
	// the coordinates of the move just played. Illegal or unparseable
	// tokens return an error and leave the input position untouched.
	Apply(pos Position, san string) (Position, Move, error)
}
