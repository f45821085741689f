package rules

import (
	"fmt"

	"github.com/notnil/chess"

	"puzzlefish/internal/core"
)

// StandardEngine implements Engine on top of the notnil/chess move
// generator. It holds only immutable configuration and is safe for
// concurrent use.
type StandardEngine struct {
	notation chess.Notation
}

// NewStandardEngine returns a rules engine for standard chess with
// SAN move input.
func NewStandardEngine() *StandardEngine {
	return &StandardEngine{notation: chess.AlgebraicNotation{}}
}

type standardPosition struct {
	pos *chess.Position
}

func (p standardPosition) FEN() string {
	return p.pos.String()
}

func (p standardPosition) SideToMove() core.Color {
	if p.pos.Turn() == chess.White {
		return core.ColorWhite
	}
	return core.ColorBlack
}

func (e *StandardEngine) InitialPosition() Position {
	return standardPosition{pos: chess.StartingPosition()}
}

func (e *StandardEngine) Apply(pos Position, san string) (Position, Move, error) {
	sp, ok := pos.(standardPosition)
	if !ok {
		return nil, Move{}, fmt.Errorf("position was not produced by this engine")
	}

	mv, err := e.notation.Decode(sp.pos, san)
	if err != nil {
		return nil, Move{}, fmt.Errorf("illegal move %q: %w", san, err)
	}

	next := sp.pos.Update(mv)
	return standardPosition{pos: next}, Move{From: mv.S1().String(), To: mv.S2().String()}, nil
}
