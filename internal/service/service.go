// FILE: internal/service/service.go
package service

import (
	"context"
	"time"

	"puzzlefish/internal/provider"
	"puzzlefish/internal/replay"
	"puzzlefish/internal/storage"
)

// PuzzleStore is the persistence boundary for user, game, puzzle and
// vote records. *storage.Store is the production implementation.
type PuzzleStore interface {
	EnsureUser(userID string) (*storage.UserRecord, error)
	TryBeginFetch(userID string, ttl time.Duration, now time.Time) (bool, error)
	FinishFetch(userID string, now time.Time, errMsg string) error
	HasGame(gameID string) (bool, error)
	InsertGame(record storage.GameRecord) error
	InsertPuzzle(record storage.PuzzleRecord) error
	PuzzlesByUser(userID string) ([]storage.PuzzleRecord, error)
	CountPuzzlesByUser(userID string) (int, error)
	TopPuzzles(limit int) ([]storage.PuzzleRecord, error)
	ApplyVote(puzzleID, userID string, up bool) (int, error)
}

var _ PuzzleStore = (*storage.Store)(nil)

// GameSource fetches a user's recent analyzed games from the external
// provider.
type GameSource interface {
	RecentGames(ctx context.Context, userID string) ([]provider.Game, error)
}

var _ GameSource = (*provider.Client)(nil)

// Service ties the fetch coordinator, synthesizer and store together
// behind the API surface.
type Service struct {
	store       PuzzleStore
	coordinator *Coordinator
	health      func() bool // nil when the store has no health probe
}

// New creates the service. The replayer carries the rules-engine
// capability; everything else is configured through cfg.
func New(store PuzzleStore, source GameSource, replayer *replay.Replayer, cfg Config) *Service {
	synth := NewSynthesizer(store, replayer, cfg)
	svc := &Service{
		store:       store,
		coordinator: NewCoordinator(store, source, synth, cfg),
	}
	if probe, ok := store.(interface{ IsHealthy() bool }); ok {
		svc.health = probe.IsHealthy
	}
	return svc
}

// Search runs the per-user fetch state machine and returns either a
// "fetching" placeholder or the user's stored puzzles.
func (s *Service) Search(userID string) (*SearchResult, error) {
	return s.coordinator.Search(userID)
}

// Vote applies or toggles a vote and returns the resulting count.
func (s *Service) Vote(puzzleID, userID string, up bool) (int, error) {
	return s.store.ApplyVote(puzzleID, userID, up)
}

// TopPuzzles lists the highest-scored puzzles across all users.
func (s *Service) TopPuzzles(limit int) ([]storage.PuzzleRecord, error) {
	return s.store.TopPuzzles(limit)
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.health == nil {
		return "unknown"
	}
	if s.health() {
		return "ok"
	}
	return "degraded"
}

// Shutdown waits for in-flight background fetches to finish, up to
// the given timeout.
func (s *Service) Shutdown(timeout time.Duration) error {
	return s.coordinator.Shutdown(timeout)
}
