// t2048 plays 2048 in the terminal, over SSH, over WebSocket, and as an MCP
// tool server.
//
// Usage:
//
//	t2048 list                - List board variants
//	t2048 play [variant]      - Play a board (resumes the saved game)
//	t2048 menu                - Pick boards interactively
//	t2048 serve               - Start the SSH and/or WebSocket servers
//	t2048 mcp                 - Serve MCP tools on stdio
//	t2048 scores [variant]    - Show finished games
//	t2048 best                - Show the best score
//	t2048 reset [variant]     - Discard saved games
//	t2048 rules               - Print the game rules in effect
//
// Global flags:
//
//	--config <path>  - Application settings (YAML, T2048_* env vars override)
//	--rules <path>   - Game rules (YAML)
//	--fps <rate>     - Set tick rate (default: 30)
//	--seed <value>   - Set RNG seed for reproducible boards
//	--db <path>      - Set database path (default: ~/.t2048/t2048.db)
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-2048/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagRules    string
	flagFPS      int
	flagSeed     int64
	flagDBPath   string
	flagLogFile  string
	flagLogLevel string
)

// app holds what every command needs once flags are parsed.
var app struct {
	cfg    *config.AppConfig
	rules  config.T2048Config
	logger *log.Logger
	// logClose closes the log file of interactive commands.
	logClose func()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "t2048",
	Short: "2048 - slide and merge tiles in your terminal",
	Long: `2048 is the sliding tile game. Merge equal tiles to reach 2048.

Available commands:
  list     - Show all board variants
  play     - Play a board directly
  menu     - Interactive board picker with scoreboard
  serve    - Start the SSH and WebSocket servers
  mcp      - Serve the game as MCP tools on stdio
  scores   - View finished games
  best     - Show the best score
  reset    - Discard saved games
  rules    - Print the game rules in effect

Examples:
  t2048 play
  t2048 play 2048_5x5 --seed 42
  t2048 menu
  t2048 serve --ssh :2222 --http :8080
  t2048 scores 2048`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if app.logClose != nil {
			app.logClose()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to application settings YAML")
	rootCmd.PersistentFlags().StringVar(&flagRules, "rules", "", "Path to custom game rules YAML")
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 30, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the SQLite database (overrides settings)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Log file for interactive commands (default: no logging)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides settings)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(bestCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(rulesCmd)
}

// setup loads .env, settings and rules, and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	app.cfg = cfg

	rules, err := config.LoadT2048(flagRules)
	if err != nil {
		return err
	}
	app.rules = rules

	var out io.Writer = os.Stderr
	if interactive(cmd) {
		out = io.Discard
		if flagLogFile != "" {
			path, err := config.ExpandHome(flagLogFile)
			if err != nil {
				return err
			}
			f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				return fmt.Errorf("cannot open log file: %w", err)
			}
			out = f
			app.logClose = func() { f.Close() }
		}
	}

	logger, err := newLogger(out, cfg.LogLevel)
	if err != nil {
		return err
	}
	app.logger = logger
	return nil
}

// interactive reports whether cmd owns the terminal, so logs must not be
// written to it.
func interactive(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "play", "menu":
		return true
	}
	return false
}

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "t2048",
		Level:           lvl,
	})
	return logger, nil
}
