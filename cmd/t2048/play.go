package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-2048/internal/platform/tui"
	"github.com/vovakirdan/tui-2048/internal/registry"
)

var flagRestart bool

var playCmd = &cobra.Command{
	Use:   "play [variant]",
	Short: "Play a board",
	Long: `Start playing the given board variant (default: 2048).

The game in progress is saved after every move and resumed next time.

Controls:
  Arrows/WASD/hjkl  - Slide tiles
  C                 - Keep playing after reaching 2048
  P/Space           - Pause
  R                 - Restart
  Esc/Q/Ctrl+C      - Quit

Examples:
  t2048 play
  t2048 play 2048_5x5
  t2048 play --restart
  t2048 play --rules ./my-rules.yaml --seed 42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&flagRestart, "restart", false, "Discard the saved game and start a new one")
}

func runPlay(cmd *cobra.Command, args []string) error {
	gameID := variantOrDefault(args)
	if !registry.Exists(gameID) {
		return fmt.Errorf("unknown board %q, run 't2048 list' to see available boards", gameID)
	}

	st := openStores()
	defer st.Close()
	st.useForLocalGames()

	if flagRestart {
		if err := st.backend.ClearState(localSlot(gameID)); err != nil {
			app.logger.Warn("could not discard saved game", "err", err)
		}
	}

	game, err := registry.Create(gameID)
	if err != nil {
		return err
	}

	app.logger.Info("starting game", "game", gameID)
	if err := tui.Run(game, st.scoreStore(), runtimeConfig()); err != nil {
		return fmt.Errorf("running game: %w", err)
	}
	return nil
}
