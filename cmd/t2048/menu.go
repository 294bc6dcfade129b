package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-2048/internal/platform/tui"
	"github.com/vovakirdan/tui-2048/internal/registry"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Pick a board from an interactive menu",
	Long: `Start in interactive menu mode.

Use arrow keys or j/k to navigate, Enter to select a board.
Leaving a game with Esc returns to the menu.

Controls:
  Up/Down/j/k  - Navigate menu
  Enter/Space  - Select board
  Tab          - Scoreboard
  Q            - Quit

Examples:
  t2048 menu
  t2048 menu --fps 60
  t2048 menu --db ./t2048.db`,
	RunE: runMenu,
}

func runMenu(_ *cobra.Command, _ []string) error {
	st := openStores()
	defer st.Close()
	st.useForLocalGames()

	cfg := runtimeConfig()

	for {
		menuResult, err := tui.RunMenu(st.scoreStore(), cfg)
		if err != nil {
			return err
		}
		cfg = menuResult.Config

		if menuResult.Quit {
			return nil
		}

		if menuResult.WantsScoreboard {
			goBack, sbErr := tui.RunScoreboard(st.scoreStore(), cfg.ScreenW, cfg.ScreenH)
			if sbErr != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", sbErr)
			}
			if goBack {
				continue
			}
			return nil
		}

		if menuResult.GameID == "" {
			return nil
		}

		game, err := registry.Create(menuResult.GameID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating game: %v\n", err)
			continue
		}

		if flagSeed == 0 {
			cfg.Seed = time.Now().UnixNano()
		}

		app.logger.Info("starting game", "game", menuResult.GameID)
		if err := tui.Run(game, st.scoreStore(), cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error running game: %v\n", err)
		}
	}
}
