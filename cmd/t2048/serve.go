package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-2048/internal/games/t2048"
	"github.com/vovakirdan/tui-2048/internal/platform/tui"
	"github.com/vovakirdan/tui-2048/internal/transport/websocket"
)

var (
	flagSSHAddr  string
	flagHTTPAddr string
	flagHostKey  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SSH and WebSocket servers",
	Long: `Start the multiplayer servers. Every player gets their own game.

With no flags both servers start on their configured addresses. Passing
only --ssh or only --http starts just that server.

SSH: each connection gets a board picker, the game, and the scoreboard.
Games are saved per user and board.

HTTP:
  GET /ws/game?session=<id>  - WebSocket game (one connection per session)
  GET /api/best         - Best score
  GET /api/sessions     - Live sessions
  GET /healthz          - Health check

Examples:
  t2048 serve
  t2048 serve --ssh :2222
  t2048 serve --http :8080
  t2048 serve --ssh :2222 --http :8080 --host-key ./host_key`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP/WebSocket server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to SSH host key (auto-generated if not specified)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	sshOn := cmd.Flags().Changed("ssh")
	httpOn := cmd.Flags().Changed("http")
	if !sshOn && !httpOn {
		sshOn, httpOn = true, true
	}

	sshCfg := app.cfg.SSH
	if flagSSHAddr != "" {
		sshCfg.Address = flagSSHAddr
	}
	if flagHostKey != "" {
		sshCfg.HostKey = flagHostKey
	}
	httpAddr := app.cfg.HTTP.Address
	if flagHTTPAddr != "" {
		httpAddr = flagHTTPAddr
	}

	st := openStores()
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	running := 0

	if sshOn {
		server, err := tui.NewSSHServer(sshCfg, st.backend, st.scoreStore(), flagFPS, app.logger)
		if err != nil {
			return fmt.Errorf("creating SSH server: %w", err)
		}
		running++
		go func() { errCh <- server.ListenAndServe(ctx) }()
		fmt.Printf("SSH:  ssh localhost -p %s\n", portOf(sshCfg.Address))
	}

	if httpOn {
		server := websocket.NewServer(st.backend, t2048.RulesFromConfig(app.rules), app.logger)
		running++
		go func() { errCh <- server.ListenAndServe(ctx, httpAddr) }()
		fmt.Printf("HTTP: ws://localhost:%s/ws/game?session=<id>\n", portOf(httpAddr))
	}

	fmt.Println("Press Ctrl+C to stop")

	// The first failure stops the other server too.
	var errs []error
	for ; running > 0; running-- {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
			stop()
		}
	}
	return errors.Join(errs...)
}

// portOf returns the port part of a listen address like ":2222".
func portOf(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}
