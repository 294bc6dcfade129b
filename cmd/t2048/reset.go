package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/registry"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

var (
	flagResetScores bool
	flagResetBest   bool
)

var resetCmd = &cobra.Command{
	Use:   "reset [variant]",
	Short: "Discard saved games",
	Long: `Discard the locally saved game of one board, or of every board when
none is given.

Examples:
  t2048 reset
  t2048 reset 2048_5x5
  t2048 reset 2048 --scores
  t2048 reset --best`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&flagResetScores, "scores", false, "Also delete the score history")
	resetCmd.Flags().BoolVar(&flagResetBest, "best", false, "Also forget the best score (SQLite backend only)")
}

func runReset(_ *cobra.Command, args []string) error {
	var ids []string
	if len(args) > 0 {
		if !registry.Exists(args[0]) {
			return fmt.Errorf("unknown board %q, run 't2048 list' to see available boards", args[0])
		}
		ids = []string{args[0]}
	} else {
		for _, v := range config.Variants() {
			ids = append(ids, v.ID)
		}
	}

	st := openStores()
	defer st.Close()

	for _, id := range ids {
		if err := st.backend.ClearState(localSlot(id)); err != nil {
			return err
		}
		fmt.Printf("Discarded saved game for %s\n", id)

		if flagResetScores {
			if st.scores == nil {
				return errNoScores
			}
			if err := st.scores.ClearScores(id); err != nil {
				return err
			}
			fmt.Printf("Deleted score history for %s\n", id)
		}
	}

	if flagResetBest {
		db, ok := st.backend.(*storage.Store)
		if !ok {
			return fmt.Errorf("--best needs the sqlite backend, not %q", app.cfg.Storage.Backend)
		}
		if err := db.ResetBestScore(); err != nil {
			return err
		}
		fmt.Println("Best score reset")
	}
	return nil
}
