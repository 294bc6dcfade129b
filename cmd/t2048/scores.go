package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-2048/internal/registry"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

var scoresCmd = &cobra.Command{
	Use:   "scores [variant]",
	Short: "Show finished games",
	Long: `Display the top 10 finished games for a board, or a summary of every
board when none is given.

Examples:
  t2048 scores
  t2048 scores 2048
  t2048 scores 2048_5x5 --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScores,
}

var flagAllScores bool

func init() {
	scoresCmd.Flags().BoolVar(&flagAllScores, "all", false, "List every finished game instead of the top 10")
}

var errNoScores = errors.New("score history is unavailable")

func runScores(_ *cobra.Command, args []string) error {
	st := openStores()
	defer st.Close()
	if st.scores == nil {
		return errNoScores
	}

	if len(args) == 0 {
		return printAllStats(st.scores)
	}

	gameID := args[0]
	if !registry.Exists(gameID) {
		return fmt.Errorf("unknown board %q, run 't2048 list' to see available boards", gameID)
	}

	var scores []storage.ScoreEntry
	var err error
	if flagAllScores {
		scores, err = st.scores.AllScores(gameID)
	} else {
		scores, err = st.scores.TopScores(gameID, 10)
	}
	if err != nil {
		return err
	}

	fmt.Printf("High Scores - %s\n", gameID)
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Printf("Play 't2048 play %s' to set the first high score!\n", gameID)
		return nil
	}

	fmt.Printf("  %-4s  %-10s  %-8s  %s\n", "Rank", "Score", "Max Tile", "Date")
	fmt.Printf("  %-4s  %-10s  %-8s  %s\n", "----", "-----", "--------", "----")

	for i, entry := range scores {
		dateStr := entry.CreatedAt.Format("2006-01-02 15:04")
		fmt.Printf("  %-4d  %-10d  %-8d  %s\n", i+1, entry.Score, entry.MaxTile, dateStr)
	}

	if stats, err := st.scores.GetGameStats(gameID); err == nil {
		fmt.Println()
		fmt.Printf("Games: %d  Best: %d  Best tile: %d  Average: %.0f\n",
			stats.GamesCount, stats.HighScore, stats.BestTile, stats.AvgScore)
	}
	return nil
}

func printAllStats(store *storage.Store) error {
	all, err := store.GetAllGamesStats()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("No scores recorded yet.")
		return nil
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("  %-10s  %-6s  %-8s  %-8s  %s\n", "Board", "Games", "Best", "Tile", "Last played")
	fmt.Printf("  %-10s  %-6s  %-8s  %-8s  %s\n", "-----", "-----", "----", "----", "-----------")
	for _, id := range ids {
		s := all[id]
		fmt.Printf("  %-10s  %-6d  %-8d  %-8d  %s\n",
			id, s.GamesCount, s.HighScore, s.BestTile, s.LastPlayed.Format("2006-01-02 15:04"))
	}
	return nil
}
