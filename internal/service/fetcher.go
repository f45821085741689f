package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"puzzlefish/internal/storage"
)

// FetchingMessage is returned while background work is in flight.
const FetchingMessage = "Analyzing your recent games, check back shortly."

// SearchResult is the outcome of one search request.
type SearchResult struct {
	Fetching bool
	Message  string
	Puzzles  []storage.PuzzleRecord
	Total    int
}

// Coordinator gates per-user background fetch-and-synthesize work.
// The persisted fetching flag is flipped with a conditional update
// (compare-and-swap) so concurrent requests cannot both start work; a
// process-local singleflight group additionally collapses
// same-instant requests before they reach the store.
type Coordinator struct {
	store        PuzzleStore
	source       GameSource
	synth        *Synthesizer
	ttl          time.Duration
	fetchTimeout time.Duration
	group        singleflight.Group
	wg           sync.WaitGroup
}

// NewCoordinator wires the fetch state machine.
func NewCoordinator(store PuzzleStore, source GameSource, synth *Synthesizer, cfg Config) *Coordinator {
	return &Coordinator{
		store:        store,
		source:       source,
		synth:        synth,
		ttl:          cfg.FetchTTL,
		fetchTimeout: cfg.FetchTimeout,
	}
}

// Search implements the per-user state machine: trigger a background
// fetch when idle and stale, report "fetching" while work is in
// flight, otherwise serve the stored puzzles. The request never
// blocks on the background work.
func (c *Coordinator) Search(userID string) (*SearchResult, error) {
	user, err := c.store.EnsureUser(userID)
	if err != nil {
		return nil, fmt.Errorf("load user state: %w", err)
	}

	if user.Fetching {
		return &SearchResult{Fetching: true, Message: FetchingMessage}, nil
	}

	now := time.Now().UTC()
	if now.Sub(user.LastFetched) >= c.ttl {
		started, err := c.tryStart(userID, now)
		if err != nil {
			return nil, err
		}
		if started {
			return &SearchResult{Fetching: true, Message: FetchingMessage}, nil
		}
		// Lost the CAS: someone else is fetching right now.
		return &SearchResult{Fetching: true, Message: FetchingMessage}, nil
	}

	puzzles, err := c.store.PuzzlesByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list puzzles: %w", err)
	}
	total, err := c.store.CountPuzzlesByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("count puzzles: %w", err)
	}

	return &SearchResult{
		Message: user.LastError,
		Puzzles: puzzles,
		Total:   total,
	}, nil
}

// tryStart attempts the idle->fetching transition and spawns the
// background task when it wins.
func (c *Coordinator) tryStart(userID string, now time.Time) (bool, error) {
	started, err, _ := c.group.Do(userID, func() (interface{}, error) {
		ok, err := c.store.TryBeginFetch(userID, c.ttl, now)
		if err != nil || !ok {
			return false, err
		}
		c.wg.Add(1)
		go c.runFetch(userID)
		return true, nil
	})
	if err != nil {
		return false, fmt.Errorf("begin fetch: %w", err)
	}
	return started.(bool), nil
}

// runFetch performs the provider call and synthesis on its own
// goroutine. The fetch flag is released on every exit path.
func (c *Coordinator) runFetch(userID string) {
	defer c.wg.Done()

	job := uuid.NewString()[:8]
	log.Printf("Fetch %s: started for user %s", job, userID)

	fetchErr := ""
	defer func() {
		if err := c.store.FinishFetch(userID, time.Now().UTC(), fetchErr); err != nil {
			log.Printf("Fetch %s: failed to release fetch flag for %s: %v", job, userID, err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	games, err := c.source.RecentGames(ctx, userID)
	if err != nil {
		fetchErr = "Could not reach the game provider, showing previously found puzzles."
		log.Printf("Fetch %s: provider error for %s: %v", job, userID, err)
		return
	}

	created := c.synth.Process(games, userID)
	log.Printf("Fetch %s: %d game(s) fetched, %d puzzle(s) created for %s",
		job, len(games), created, userID)
}

// Shutdown waits for in-flight background fetches up to timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("background fetches still running after %s", timeout)
	}
}
