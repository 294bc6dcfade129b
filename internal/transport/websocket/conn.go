package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-2048/internal/games/t2048"
	"github.com/vovakirdan/tui-2048/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	errInvalidMove = "Invalid move"
)

// Client actions.
const (
	ActionRestart     = "restart"
	ActionKeepPlaying = "keepPlaying"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClientMessage is a move or an action sent by the client.
type ClientMessage struct {
	Direction *int   `json:"direction,omitempty"`
	Action    string `json:"action,omitempty"`
}

// StateMessage carries the game after each accepted message.
type StateMessage struct {
	Event      string          `json:"event"`
	SessionID  string          `json:"sessionId"`
	State      t2048.GameState `json:"state"`
	BestScore  int             `json:"bestScore"`
	Terminated bool            `json:"terminated"`
}

// ErrorMessage reports a message the server could not apply.
type ErrorMessage struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

// client is one WebSocket connection bound to one session.
type client struct {
	conn   *websocket.Conn
	sess   *session.Session
	logger *log.Logger

	send      chan []byte
	closing   chan struct{}
	closeOnce sync.Once
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	id := session.ID(r.URL.Query().Get("session"))
	if id == "" {
		id = session.NewID()
	}

	sess, err := s.sessions.Acquire(id, s.factory)
	if errors.Is(err, session.ErrSessionBusy) {
		respondError(w, http.StatusConflict, "session already connected")
		return
	}
	if err != nil {
		s.logger.Error("session setup failed", "session", id, "err", err)
		respondError(w, http.StatusInternalServerError, "session setup failed")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.sessions.Release(id)
		s.logger.Warn("websocket upgrade failed", "session", id, "err", err)
		return
	}

	c := &client{
		conn:    conn,
		sess:    sess,
		logger:  s.logger.With("session", string(id)),
		send:    make(chan []byte, 16),
		closing: make(chan struct{}),
	}
	c.logger.Info("client connected", "remote", r.RemoteAddr)

	sess.Refresh()
	go c.writePump()
	go func() {
		c.readPump()
		s.sessions.Release(id)
		c.logger.Info("client disconnected")
	}()
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.closing) })
}

// readPump applies client messages until the connection drops or the game
// ends.
func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read failed", "err", err)
			}
			return
		}

		if over := c.handle(data); over {
			c.logger.Info("game over, closing connection")
			return
		}
	}
}

// handle applies one message and reports whether the game is now over.
func (c *client) handle(data []byte) (over bool) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError()
		return false
	}

	switch {
	case msg.Direction != nil:
		dir := t2048.Direction(*msg.Direction)
		if !dir.Valid() || msg.Action != "" {
			c.sendError()
			return false
		}
		u, err := c.sess.Do(func(m *t2048.Manager) error {
			_, err := m.PlayTurn(dir)
			return err
		})
		if err != nil {
			c.logger.Error("move failed", "err", err)
			return false
		}
		return u.State.Over

	case msg.Action == ActionRestart:
		_, _ = c.sess.Do(func(m *t2048.Manager) error {
			m.Restart()
			return nil
		})

	case msg.Action == ActionKeepPlaying:
		_, _ = c.sess.Do(func(m *t2048.Manager) error {
			m.KeepPlaying()
			return nil
		})

	default:
		c.sendError()
	}
	return false
}

func (c *client) sendError() {
	data, _ := json.Marshal(ErrorMessage{Event: "error", Error: errInvalidMove})
	select {
	case c.send <- data:
	case <-c.closing:
	}
}

// writePump forwards state updates and errors to the connection. When the
// connection is closing, queued messages are flushed before the close frame.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case u := <-c.sess.Updates():
			if err := c.writeUpdate(u); err != nil {
				return
			}

		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.closing:
			c.shutdown(websocket.CloseNormalClosure, "")
			return

		case <-c.sess.Done():
			select {
			case <-c.closing:
				c.shutdown(websocket.CloseNormalClosure, "")
			default:
				c.shutdown(websocket.CloseGoingAway, "session closed")
			}
			return

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// shutdown flushes queued messages and sends a close frame.
func (c *client) shutdown(code int, reason string) {
	c.flush()
	_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}

func (c *client) flush() {
	for {
		select {
		case u := <-c.sess.Updates():
			if c.writeUpdate(u) != nil {
				return
			}
		case data := <-c.send:
			if c.write(websocket.TextMessage, data) != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *client) writeUpdate(u session.Update) error {
	data, err := json.Marshal(StateMessage{
		Event:      "state",
		SessionID:  string(c.sess.ID()),
		State:      u.State,
		BestScore:  u.BestScore,
		Terminated: u.Terminated,
	})
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, data)
}

func (c *client) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}
