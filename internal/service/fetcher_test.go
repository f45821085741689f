package service

import (
	"errors"
	"testing"
	"time"

	"puzzlefish/internal/provider"
)

func newTestCoordinator(store PuzzleStore, source GameSource, cfg Config) *Coordinator {
	if cfg.FetchTTL == 0 {
		cfg.FetchTTL = time.Hour
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if cfg.LinkBase == "" {
		cfg.LinkBase = "https://example.org"
	}
	return NewCoordinator(store, source, newTestSynthesizer(store, cfg), cfg)
}

func TestSearchTriggersFetchAndServesResults(t *testing.T) {
	store := newMockStore()
	source := &mockSource{
		games: []provider.Game{
			analyzedGame("game1", "alice", "bob",
				[]int{10, 20, 400, -200, 450}, "e4 e5 Nf3 Nc6 Bb5"),
		},
	}
	c := newTestCoordinator(store, source, Config{})

	// First search: stale user, background fetch starts.
	res, err := c.Search("alice")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !res.Fetching {
		t.Fatal("first search should report fetching")
	}

	if err := c.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	user := store.user("alice")
	if user.Fetching {
		t.Error("fetch flag not released after completion")
	}
	if user.LastFetched.Unix() <= 0 {
		t.Error("lastFetched not stamped")
	}

	// Second search: fresh user, stored puzzles served directly.
	res, err = c.Search("alice")
	if err != nil {
		t.Fatalf("second Search failed: %v", err)
	}
	if res.Fetching {
		t.Error("second search should not report fetching")
	}
	if res.Total != 1 || len(res.Puzzles) != 1 {
		t.Fatalf("expected 1 puzzle, got total=%d len=%d", res.Total, len(res.Puzzles))
	}
	if source.callCount() != 1 {
		t.Errorf("provider called %d times, want 1", source.callCount())
	}
}

func TestSearchIsSingleFlight(t *testing.T) {
	store := newMockStore()
	source := &mockSource{release: make(chan struct{})}
	c := newTestCoordinator(store, source, Config{})

	res, err := c.Search("alice")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !res.Fetching {
		t.Fatal("first search should report fetching")
	}

	// While the provider call is blocked, further searches must not
	// start new work.
	for i := 0; i < 3; i++ {
		res, err = c.Search("alice")
		if err != nil {
			t.Fatalf("Search %d failed: %v", i, err)
		}
		if !res.Fetching {
			t.Fatalf("search %d should report fetching", i)
		}
	}

	close(source.release)
	if err := c.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if source.callCount() != 1 {
		t.Errorf("provider called %d times, want 1", source.callCount())
	}
	if store.user("alice").Fetching {
		t.Error("fetch flag not released")
	}
}

func TestFetchReleasesFlagOnProviderError(t *testing.T) {
	store := newMockStore()
	source := &mockSource{err: errors.New("connection refused")}
	c := newTestCoordinator(store, source, Config{})

	if _, err := c.Search("alice"); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if err := c.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	user := store.user("alice")
	if user.Fetching {
		t.Error("fetch flag not released after provider error")
	}
	if user.LastError == "" {
		t.Error("provider failure not recorded for the next page")
	}

	// The next page carries the error message with whatever exists.
	res, err := c.Search("alice")
	if err != nil {
		t.Fatalf("follow-up Search failed: %v", err)
	}
	if res.Fetching {
		t.Error("follow-up search should not report fetching")
	}
	if res.Message == "" {
		t.Error("follow-up search should surface the provider error")
	}
}

func TestSearchFreshUserSkipsProvider(t *testing.T) {
	store := newMockStore()
	source := &mockSource{}
	c := newTestCoordinator(store, source, Config{})

	// Mark the user as freshly fetched.
	if _, err := store.EnsureUser("alice"); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if err := store.FinishFetch("alice", time.Now().UTC(), ""); err != nil {
		t.Fatalf("FinishFetch failed: %v", err)
	}

	res, err := c.Search("alice")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res.Fetching {
		t.Error("fresh user should not trigger a fetch")
	}
	if source.callCount() != 0 {
		t.Errorf("provider called %d times, want 0", source.callCount())
	}
}

func TestSearchReportsFetchingWhileFlagHeld(t *testing.T) {
	store := newMockStore()
	c := newTestCoordinator(store, &mockSource{}, Config{})

	if _, err := store.EnsureUser("alice"); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if ok, err := store.TryBeginFetch("alice", time.Hour, time.Now().UTC()); err != nil || !ok {
		t.Fatalf("TryBeginFetch = %v, %v", ok, err)
	}

	res, err := c.Search("alice")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !res.Fetching {
		t.Error("search should report fetching while the flag is held")
	}
}
