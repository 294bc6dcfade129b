package main

import (
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-2048/internal/games/t2048"
	"github.com/vovakirdan/tui-2048/internal/transport/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the game as MCP tools on stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout so an AI assistant
can play 2048.

Tools: new_game, game_state, move, keep_playing, restart.
Each takes an optional session_id; games are saved per session.

Logs go to stderr so they never mix with the protocol stream.

Example client configuration:
  {"command": "t2048", "args": ["mcp"]}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(_ *cobra.Command, _ []string) error {
	st := openStores()
	defer st.Close()

	server := mcp.NewServer(st.backend, t2048.RulesFromConfig(app.rules), app.logger)
	app.logger.Info("serving MCP on stdio")
	return server.ServeStdio()
}
