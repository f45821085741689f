// Package replay reconstructs the board state at arbitrary plies of a
// played game. Each position depends on the full move history, so
// replay always walks sequentially from the starting position.
package replay

import (
	"fmt"

	"puzzlefish/internal/core"
	"puzzlefish/internal/rules"
)

// PlyState captures the board immediately after one ply was played.
type PlyState struct {
	Ply        int
	SAN        string     // the move token just played
	BoardState string     // serialized position after the move
	SideToMove core.Color // side to move next
	Move       rules.Move // coordinates of the move just played
}

// Replayer replays SAN move lists against a rules engine.
type Replayer struct {
	engine rules.Engine
}

// New returns a replayer bound to the given rules engine.
func New(engine rules.Engine) *Replayer {
	return &Replayer{engine: engine}
}

// Walk replays moves[0..lastPly] from the starting position, invoking
// fn after every ply. An illegal or unparseable token aborts the walk
// with an error; states already delivered to fn stand, no partial
// state past the failure is surfaced. A non-nil error from fn also
// stops the walk.
func (r *Replayer) Walk(moves []string, lastPly int, fn func(PlyState) error) error {
	if lastPly >= len(moves) {
		return fmt.Errorf("ply %d out of range for %d moves", lastPly, len(moves))
	}

	pos := r.engine.InitialPosition()
	for ply := 0; ply <= lastPly; ply++ {
		next, mv, err := r.engine.Apply(pos, moves[ply])
		if err != nil {
			return fmt.Errorf("replay aborted at ply %d: %w", ply, err)
		}
		pos = next

		state := PlyState{
			Ply:        ply,
			SAN:        moves[ply],
			BoardState: pos.FEN(),
			SideToMove: pos.SideToMove(),
			Move:       mv,
		}
		if err := fn(state); err != nil {
			return err
		}
	}
	return nil
}

// Replay returns the state after each requested ply.
func (r *Replayer) Replay(moves []string, plies []int) (map[int]PlyState, error) {
	want := make(map[int]bool, len(plies))
	lastPly := -1
	for _, p := range plies {
		if p < 0 || p >= len(moves) {
			return nil, fmt.Errorf("ply %d out of range for %d moves", p, len(moves))
		}
		want[p] = true
		if p > lastPly {
			lastPly = p
		}
	}
	if lastPly < 0 {
		return map[int]PlyState{}, nil
	}

	states := make(map[int]PlyState, len(want))
	err := r.Walk(moves, lastPly, func(st PlyState) error {
		if want[st.Ply] {
			states[st.Ply] = st
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return states, nil
}
