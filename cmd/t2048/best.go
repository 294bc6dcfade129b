package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-2048/internal/storage"
)

var bestCmd = &cobra.Command{
	Use:   "best",
	Short: "Show the best score",
	Long: `Print the best score of the configured storage backend. With the
SQLite backend the saved games are listed too.`,
	Args: cobra.NoArgs,
	RunE: runBest,
}

func runBest(_ *cobra.Command, _ []string) error {
	st := openStores()
	defer st.Close()

	best, err := st.backend.BestScore()
	if err != nil {
		return err
	}
	fmt.Printf("Best: %d\n", best)

	db, ok := st.backend.(*storage.Store)
	if !ok {
		return nil
	}
	slots, err := db.Slots()
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println("Saved games:")
	for _, s := range slots {
		fmt.Printf("  %-24s  %dx%d  score %-8d  %s\n",
			s.Slot, s.Size, s.Size, s.Score, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
