package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"puzzlefish/internal/core"
	"puzzlefish/internal/provider"
	"puzzlefish/internal/rules"
	"puzzlefish/internal/storage"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// Ensure mocks implement the interfaces
var (
	_ PuzzleStore  = (*mockStore)(nil)
	_ GameSource   = (*mockSource)(nil)
	_ rules.Engine = (*fakeEngine)(nil)
)

// mockStore implements PuzzleStore over maps.
type mockStore struct {
	mu      sync.Mutex
	users   map[string]*storage.UserRecord
	games   map[string]storage.GameRecord
	puzzles map[string]storage.PuzzleRecord

	insertGameErr   error
	insertPuzzleErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:   make(map[string]*storage.UserRecord),
		games:   make(map[string]storage.GameRecord),
		puzzles: make(map[string]storage.PuzzleRecord),
	}
}

func (m *mockStore) EnsureUser(userID string) (*storage.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		copied := *u
		return &copied, nil
	}
	u := &storage.UserRecord{
		UserID:      userID,
		LastFetched: time.Unix(0, 0).UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	m.users[userID] = u
	copied := *u
	return &copied, nil
}

func (m *mockStore) TryBeginFetch(userID string, ttl time.Duration, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return false, errors.New("user not found")
	}
	if u.Fetching || now.Sub(u.LastFetched) < ttl {
		return false, nil
	}
	u.Fetching = true
	return true, nil
}

func (m *mockStore) FinishFetch(userID string, now time.Time, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.Fetching = false
	u.LastFetched = now
	u.LastError = errMsg
	return nil
}

func (m *mockStore) HasGame(gameID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.games[gameID]
	return ok, nil
}

func (m *mockStore) InsertGame(record storage.GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertGameErr != nil {
		return m.insertGameErr
	}
	if _, ok := m.games[record.GameID]; ok {
		return storage.ErrAlreadyExists
	}
	m.games[record.GameID] = record
	return nil
}

func (m *mockStore) InsertPuzzle(record storage.PuzzleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertPuzzleErr != nil {
		return m.insertPuzzleErr
	}
	if _, ok := m.puzzles[record.PuzzleID]; ok {
		return storage.ErrAlreadyExists
	}
	m.puzzles[record.PuzzleID] = record
	return nil
}

func (m *mockStore) PuzzlesByUser(userID string) ([]storage.PuzzleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.PuzzleRecord
	for _, p := range m.puzzles {
		g, ok := m.games[p.GameID]
		if ok && (g.WhiteUserID == userID || g.BlackUserID == userID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockStore) CountPuzzlesByUser(userID string) (int, error) {
	puzzles, err := m.PuzzlesByUser(userID)
	return len(puzzles), err
}

func (m *mockStore) TopPuzzles(limit int) ([]storage.PuzzleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.PuzzleRecord
	for _, p := range m.puzzles {
		if len(out) == limit {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockStore) ApplyVote(puzzleID, userID string, up bool) (int, error) {
	return 0, errors.New("not implemented")
}

func (m *mockStore) user(userID string) storage.UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[userID]
}

func (m *mockStore) puzzleIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.puzzles {
		ids = append(ids, id)
	}
	return ids
}

// mockSource implements GameSource with a scripted response. When
// release is non-nil the call blocks until the channel is closed.
type mockSource struct {
	mu      sync.Mutex
	games   []provider.Game
	err     error
	release chan struct{}
	calls   int
}

func (m *mockSource) RecentGames(ctx context.Context, userID string) ([]provider.Game, error) {
	m.mu.Lock()
	m.calls++
	release := m.release
	m.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.games, nil
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeEngine is a deterministic ruleset for replay: the board state
// is the concatenated move history and tokens named "illegal" fail.
type fakeEngine struct{}

type fakePosition struct {
	history []string
}

func (p fakePosition) FEN() string {
	return "pos:" + strings.Join(p.history, ",")
}

func (p fakePosition) SideToMove() core.Color {
	if len(p.history)%2 == 0 {
		return core.ColorWhite
	}
	return core.ColorBlack
}

func (e *fakeEngine) InitialPosition() rules.Position {
	return fakePosition{}
}

func (e *fakeEngine) Apply(pos rules.Position, san string) (rules.Position, rules.Move, error) {
	if san == "illegal" {
		return nil, rules.Move{}, errors.New("unparseable token")
	}
	fp := pos.(fakePosition)
	history := append(append([]string{}, fp.history...), san)
	return fakePosition{history: history}, rules.Move{From: san + "-from", To: san + "-to"}, nil
}

// analyzedGame builds a provider game with the given evals, one move
// per eval plus one trailing move.
func analyzedGame(id, white, black string, evals []int, moves string) provider.Game {
	entries := make([]provider.EvalEntry, len(evals))
	for i := range evals {
		v := evals[i]
		entries[i] = provider.EvalEntry{Eval: &v}
	}
	return provider.Game{
		ID:        id,
		Speed:     "blitz",
		CreatedAt: 1700000000000,
		Moves:     moves,
		Players: map[string]provider.Player{
			"white": {User: &provider.PlayerUser{ID: white, Name: white}},
			"black": {User: &provider.PlayerUser{ID: black, Name: black}},
		},
		Analysis: entries,
	}
}
