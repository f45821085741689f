package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"puzzlefish/internal/core"
	"puzzlefish/internal/eval"
	"puzzlefish/internal/provider"
	"puzzlefish/internal/replay"
	"puzzlefish/internal/storage"
)

// Config carries the pipeline tunables.
type Config struct {
	// FetchTTL is how long a user's fetched games stay fresh.
	FetchTTL time.Duration
	// FetchTimeout bounds one provider call plus synthesis.
	FetchTimeout time.Duration
	// LinkBase is the deep-link prefix for puzzle URLs.
	LinkBase string
	// BlunderThreshold and WinningClamp feed the detector.
	BlunderThreshold int
	WinningClamp     int
	// OwnColorOnly restricts puzzles to plies where the searched user
	// is the side to move, i.e. their own missed tactics.
	OwnColorOnly bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		FetchTTL:         time.Hour,
		FetchTimeout:     2 * time.Minute,
		LinkBase:         "https://lichess.org",
		BlunderThreshold: eval.DefaultBlunderThreshold,
		WinningClamp:     eval.DefaultWinningClamp,
	}
}

// Synthesizer turns engine-annotated games into persisted puzzles.
type Synthesizer struct {
	store        PuzzleStore
	replayer     *replay.Replayer
	detector     eval.Detector
	linkBase     string
	ownColorOnly bool
}

// NewSynthesizer wires the detector and replayer to the store.
func NewSynthesizer(store PuzzleStore, replayer *replay.Replayer, cfg Config) *Synthesizer {
	detector := eval.NewDetector()
	if cfg.BlunderThreshold > 0 {
		detector.BlunderThreshold = cfg.BlunderThreshold
	}
	if cfg.WinningClamp > 0 {
		detector.WinningClamp = cfg.WinningClamp
	}
	return &Synthesizer{
		store:        store,
		replayer:     replayer,
		detector:     detector,
		linkBase:     cfg.LinkBase,
		ownColorOnly: cfg.OwnColorOnly,
	}
}

// Process runs detection, replay and persistence over a batch of
// games fetched for the searched user. A failure inside one game is
// logged and does not abort the rest of the batch. Returns the number
// of puzzles created.
func (sy *Synthesizer) Process(games []provider.Game, userID string) int {
	created := 0
	for _, g := range games {
		n, err := sy.processGame(g, userID)
		created += n
		if err != nil {
			log.Printf("Synthesize: game %s abandoned after %d puzzle(s): %v", g.ID, n, err)
		}
	}
	return created
}

// processGame handles one game. Puzzles committed before a replay
// failure stand; the error only abandons further plies of this game.
func (sy *Synthesizer) processGame(g provider.Game, userID string) (int, error) {
	// Unanalyzed games carry no evaluations to scan.
	if len(g.Analysis) == 0 {
		return 0, nil
	}

	seen, err := sy.store.HasGame(g.ID)
	if err != nil {
		return 0, err
	}
	if seen {
		return 0, nil
	}

	// Record the game as processed regardless of how many puzzles it
	// yields, so it is never re-analyzed.
	record := storage.GameRecord{
		GameID:      g.ID,
		WhiteUserID: g.PlayerID(core.ColorWhite),
		BlackUserID: g.PlayerID(core.ColorBlack),
		CreatedAt:   time.UnixMilli(g.CreatedAt).UTC(),
	}
	switch err := sy.store.InsertGame(record); {
	case errors.Is(err, storage.ErrAlreadyExists):
		// Lost a race with a concurrent ingestion of the same game.
		log.Printf("Synthesize: game %s already recorded, skipping", g.ID)
		return 0, nil
	case err != nil:
		return 0, err
	}

	flagged := sy.detector.Flag(normalizedEvals(g.Analysis))
	if len(flagged) == 0 {
		return 0, nil
	}

	moves := g.MoveList()
	anchors := make(map[int]bool, len(flagged))
	lastPly := -1
	for _, i := range flagged {
		ply := eval.AnchorPly(i)
		// The evaluation sequence may trail the move list by one ply.
		if ply >= len(moves) {
			continue
		}
		anchors[ply] = true
		if ply > lastPly {
			lastPly = ply
		}
	}
	if lastPly < 0 {
		return 0, nil
	}

	searchedColor, _ := g.UserColor(userID)

	created := 0
	err = sy.replayer.Walk(moves, lastPly, func(st replay.PlyState) error {
		if !anchors[st.Ply] {
			return nil
		}
		if sy.ownColorOnly && st.SideToMove != searchedColor {
			return nil
		}

		switch err := sy.store.InsertPuzzle(sy.buildPuzzle(g, st)); {
		case errors.Is(err, storage.ErrAlreadyExists):
			// Benign: another ingestion got here first.
			return nil
		case err != nil:
			return err
		}
		created++
		return nil
	})
	return created, err
}

func (sy *Synthesizer) buildPuzzle(g provider.Game, st replay.PlyState) storage.PuzzleRecord {
	orientation := st.SideToMove
	return storage.PuzzleRecord{
		PuzzleID:        PuzzleID(g.ID, st.Ply),
		GameID:          g.ID,
		BoardState:      st.BoardState,
		Orientation:     orientation.String(),
		URL:             fmt.Sprintf("%s/%s/%s#%d", sy.linkBase, g.ID, orientation, st.Ply+1),
		PlyNumber:       st.Ply,
		MoveLabel:       MoveLabel(st.Ply, st.SAN),
		MoveSource:      st.Move.From,
		MoveDestination: st.Move.To,
		Votes:           0,
		CreatedAt:       time.Now().UTC(),
	}
}

// PuzzleID derives the stable puzzle identifier for a game and ply.
func PuzzleID(gameID string, ply int) string {
	return fmt.Sprintf("%s_%d", gameID, ply)
}

// MoveLabel renders the anchor move the way game viewers print it,
// with an ellipsis marker when the second side of the pair moved.
func MoveLabel(ply int, san string) string {
	number := ply/2 + 1
	if ply%2 == 1 {
		return fmt.Sprintf("%d... %s", number, san)
	}
	return fmt.Sprintf("%d. %s", number, san)
}

// normalizedEvals maps provider analysis entries onto the common
// centipawn scale, collapsing mate indicators.
func normalizedEvals(analysis []provider.EvalEntry) []int {
	values := make([]int, len(analysis))
	for i, entry := range analysis {
		switch {
		case entry.Mate != nil:
			values[i] = eval.NormalizeMate(*entry.Mate)
		case entry.Eval != nil:
			values[i] = *entry.Eval
		}
	}
	return values
}
