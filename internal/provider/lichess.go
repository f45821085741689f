// Package provider fetches played, engine-annotated games from a
// lichess-style game export API. The export endpoint streams one JSON
// game record per line (NDJSON).
package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"puzzlefish/internal/core"
)

const (
	// DefaultBaseURL is the public lichess API host.
	DefaultBaseURL = "https://lichess.org"

	// DefaultMaxGames bounds one export request.
	DefaultMaxGames = 20

	// maxRecordBytes is the scanner line limit; analyzed games carry a
	// per-ply evaluation list and can be large.
	maxRecordBytes = 1 << 20
)

// Game is one record of the export payload.
type Game struct {
	ID        string            `json:"id"`
	Speed     string            `json:"speed"`
	CreatedAt int64             `json:"createdAt"` // epoch milliseconds
	Moves     string            `json:"moves"`     // space-separated SAN tokens
	Players   map[string]Player `json:"players"`   // keyed by "white"/"black"
	Analysis  []EvalEntry       `json:"analysis,omitempty"`
}

// Player is one side of a game record.
type Player struct {
	User   *PlayerUser `json:"user"`
	Rating int         `json:"rating"`
}

// PlayerUser identifies the account behind a player entry.
type PlayerUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EvalEntry is one per-ply evaluation: either a centipawn value or a
// mate-distance indicator.
type EvalEntry struct {
	Eval *int `json:"eval,omitempty"`
	Mate *int `json:"mate,omitempty"`
}

// MoveList splits the space-separated move tokens.
func (g Game) MoveList() []string {
	return strings.Fields(g.Moves)
}

// PlayerID returns the user id playing the given color, or "" when
// the side is anonymous.
func (g Game) PlayerID(color core.Color) string {
	p, ok := g.Players[string(color)]
	if !ok || p.User == nil {
		return ""
	}
	return p.User.ID
}

// UserColor reports which color the given user played.
func (g Game) UserColor(userID string) (core.Color, bool) {
	switch userID {
	case "":
		return "", false
	case g.PlayerID(core.ColorWhite):
		return core.ColorWhite, true
	case g.PlayerID(core.ColorBlack):
		return core.ColorBlack, true
	}
	return "", false
}

// Client talks to the game export API.
type Client struct {
	baseURL    string
	token      string
	maxGames   int
	httpClient *http.Client
}

// New creates an export client. The token is optional; authenticated
// requests get higher rate limits from the provider.
func New(baseURL, token string, maxGames int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if maxGames <= 0 {
		maxGames = DefaultMaxGames
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// Per-request deadlines come from the caller's context; the
		// client timeout is a backstop only.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		maxGames:   maxGames,
	}
}

// RecentGames fetches the user's latest games with engine analysis
// attached where available. The call is bounded by ctx.
func (c *Client) RecentGames(ctx context.Context, userID string) ([]Game, error) {
	endpoint := fmt.Sprintf("%s/api/games/user/%s?max=%d&moves=true&evals=true",
		c.baseURL, url.PathEscape(userID), c.maxGames)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build export request: %w", err)
	}
	req.Header.Set("Accept", "application/x-ndjson")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("game export request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("game export returned status %d", resp.StatusCode)
	}

	games, err := DecodeGames(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode game export: %w", err)
	}
	return games, nil
}

// DecodeGames parses an NDJSON stream of game records.
func DecodeGames(r io.Reader) ([]Game, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)

	var games []Game
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var g Game
		if err := json.Unmarshal([]byte(line), &g); err != nil {
			return nil, fmt.Errorf("malformed game record: %w", err)
		}
		games = append(games, g)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read game export stream: %w", err)
	}
	return games, nil
}
