// Package mcp exposes 2048 to AI agents over the Model Context Protocol.
//
// Tools:
//   - new_game: deal a fresh board in a session
//   - game_state: show the board, score and status
//   - move: slide the tiles (up/right/down/left or 0..3)
//   - keep_playing: continue after reaching the winning tile
//   - restart: clear the saved game and start over
//
// Every tool takes an optional session_id. Without it, tools act on the
// "default" session. Sessions are saved in the storage backend under
// "mcp:<session_id>", so an agent can pick up a game in a later process.
//
// Usage:
//
//	srv := mcp.NewServer(backend, rules, logger)
//	srv.ServeStdio()
package mcp
