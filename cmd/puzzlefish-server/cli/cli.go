// FILE: cmd/puzzlefish-server/cli/cli.go
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"puzzlefish/internal/storage"
)

// Run is the entry point for the CLI mini-app
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, games, puzzles")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "delete":
		return runDelete(args[1:])
	case "games":
		return runGames(args[1:])
	case "puzzles":
		return runPuzzles(args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		return fmt.Errorf("database path required")
	}

	store, err := storage.NewStore(*path, false)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Printf("Database initialized at: %s\n", *path)
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		return fmt.Errorf("database path required")
	}

	store, err := storage.NewStore(*path, false)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Printf("Database deleted: %s\n", *path)
	return nil
}

func runGames(args []string) error {
	fs := flag.NewFlagSet("games", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	playerID := fs.String("playerId", "", "Player ID to filter (optional, * for all)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		return fmt.Errorf("database path required")
	}

	store, err := storage.NewStore(*path, false)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	games, err := store.QueryGames(*playerID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(games) == 0 {
		fmt.Println("No games found")
		return nil
	}

	// Print results in tabular format
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tWhite\tBlack\tProcessed")
	fmt.Fprintln(w, strings.Repeat("-", 72))

	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			g.GameID,
			g.WhiteUserID,
			g.BlackUserID,
			g.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Printf("\nFound %d game(s)\n", len(games))
	return nil
}

func runPuzzles(args []string) error {
	fs := flag.NewFlagSet("puzzles", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	playerID := fs.String("playerId", "", "Player ID to filter (optional, top puzzles when empty)")
	limit := fs.Int("limit", 50, "Maximum puzzles to list when no player filter is given")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		return fmt.Errorf("database path required")
	}

	store, err := storage.NewStore(*path, false)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	var puzzles []storage.PuzzleRecord
	if *playerID != "" && *playerID != "*" {
		puzzles, err = store.PuzzlesByUser(*playerID)
	} else {
		puzzles, err = store.TopPuzzles(*limit)
	}
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(puzzles) == 0 {
		fmt.Println("No puzzles found")
		return nil
	}

	// Print results in tabular format
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Puzzle ID\tMove\tSide\tVotes\tURL")
	fmt.Fprintln(w, strings.Repeat("-", 88))

	for _, p := range puzzles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			p.PuzzleID,
			p.MoveLabel,
			p.Orientation,
			p.Votes,
			p.URL,
		)
	}
	w.Flush()

	fmt.Printf("\nFound %d puzzle(s)\n", len(puzzles))
	return nil
}
