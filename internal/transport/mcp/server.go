package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vovakirdan/tui-2048/internal/games/t2048"
	"github.com/vovakirdan/tui-2048/internal/session"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

const (
	// SlotPrefix namespaces MCP games in the shared backend.
	SlotPrefix = "mcp:"

	defaultSession = "default"
	version        = "1.0.0"
)

// Server is an MCP server whose tools play 2048.
type Server struct {
	backend  storage.Backend
	rules    t2048.Rules
	logger   *log.Logger
	sessions *session.Registry

	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers its tools.
func NewServer(backend storage.Backend, rules t2048.Rules, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		backend:  backend,
		rules:    rules,
		logger:   logger,
		sessions: session.NewRegistry(),
	}

	s.mcpServer = server.NewMCPServer(
		"tui-2048",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`2048 - MCP Interface

Slide numbered tiles on a square board. Equal tiles that collide merge into
one tile worth their sum, and the merged value is added to your score. After
every move that changes the board a new 2 (sometimes a 4) appears. Reach the
winning tile to win; the game is over when no move can change the board.

AVAILABLE TOOLS:
- new_game: Deal a fresh board
- game_state: Show the board and score
- move: Slide tiles up, right, down or left (or 0..3)
- keep_playing: Continue after winning
- restart: Clear the saved game and start over

All tools accept an optional session_id; the default session is "default".`),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying server, for callers that pick their own
// transport.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// Sessions exposes the live session registry.
func (s *Server) Sessions() *session.Registry { return s.sessions }

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	defer s.sessions.CloseAll()
	s.logger.Info("mcp server listening on stdio")
	return server.ServeStdio(s.mcpServer)
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID (optional, defaults to \"default\")",
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Deal a fresh board in the session, discarding the current game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
		},
	}, s.handleNewGame)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, score and status",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
		},
	}, s.handleGameState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide all tiles in one direction",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "up, right, down, left, or the codes 0, 1, 2, 3",
				},
			},
			Required: []string{"direction"},
		},
	}, s.handleMove)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "keep_playing",
		Description: "Continue playing after the winning tile was reached",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
		},
	}, s.handleKeepPlaying)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "restart",
		Description: "Clear the saved game and start over",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
		},
	}, s.handleRestart)
}

func (s *Server) factory(id session.ID) (*t2048.Manager, error) {
	slot := storage.SlotOf(s.backend, SlotPrefix+string(id))
	return t2048.NewManager(slot,
		t2048.WithRules(s.rules),
		t2048.WithLogger(s.logger.With("session", string(id))),
	), nil
}

func (s *Server) session(request mcp.CallToolRequest) (*session.Session, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	id, _ := args["session_id"].(string)
	id = strings.TrimSpace(id)
	if id == "" {
		id = defaultSession
	}
	return s.sessions.Ensure(session.ID(id), s.factory)
}

// Tool handlers

func (s *Server) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	u, _ := sess.Do(func(m *t2048.Manager) error {
		m.NewGame()
		return nil
	})
	s.logger.Info("new game", "session", string(sess.ID()))
	return mcp.NewToolResultText("New game started.\n\n" + formatUpdate(sess.ID(), u)), nil
}

func (s *Server) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatUpdate(sess.ID(), sess.Snapshot())), nil
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	dir, err := directionArg(args["direction"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess, err := s.session(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var (
		res        t2048.MoveResult
		terminated bool
	)
	u, err := sess.Do(func(m *t2048.Manager) error {
		terminated = m.IsTerminated()
		var err error
		res, err = m.PlayTurn(dir)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMove(dir, res, terminated) + "\n\n" + formatUpdate(sess.ID(), u)), nil
}

func (s *Server) handleKeepPlaying(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	u, err := sess.Do(func(m *t2048.Manager) error {
		if !m.Won() {
			return errors.New("the winning tile has not been reached yet")
		}
		m.KeepPlaying()
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Playing on.\n\n" + formatUpdate(sess.ID(), u)), nil
}

func (s *Server) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	u, _ := sess.Do(func(m *t2048.Manager) error {
		m.Restart()
		return nil
	})
	s.logger.Info("game restarted", "session", string(sess.ID()))
	return mcp.NewToolResultText("Game restarted.\n\n" + formatUpdate(sess.ID(), u)), nil
}

// directionArg accepts a direction name, a numeric string, or a JSON number.
func directionArg(v interface{}) (t2048.Direction, error) {
	switch d := v.(type) {
	case string:
		return t2048.ParseDirection(d)
	case float64:
		if d != float64(int(d)) {
			return 0, fmt.Errorf("%w: %v", t2048.ErrInvalidDirection, d)
		}
		return t2048.ParseDirection(strconv.Itoa(int(d)))
	case nil:
		return 0, errors.New("direction is required")
	default:
		return 0, fmt.Errorf("%w: %v", t2048.ErrInvalidDirection, d)
	}
}
