// Package websocket serves 2048 over HTTP and WebSocket.
//
// Routes:
//
//	GET /ws/game?session=<id>  play one game over a WebSocket
//	GET /api/best              best score as {"bestScore": n}
//	GET /api/sessions          live sessions and when they opened
//	GET /healthz               liveness check
//
// Message protocol:
//
// Clients send either a move or an action:
//
//	{"direction": 0}            0 up, 1 right, 2 down, 3 left
//	{"action": "restart"}
//	{"action": "keepPlaying"}
//
// The server answers every accepted message with the new state:
//
//	{"event": "state", "sessionId": "...", "state": {...}, "bestScore": n, "terminated": false}
//
// and anything it cannot apply with:
//
//	{"event": "error", "error": "Invalid move"}
//
// The initial state is sent as soon as the connection opens. After a move
// that ends the game the server sends the final state and closes the
// connection. A session ID can be held by one connection at a time; a
// second connection for the same ID is refused with 409 Conflict. Games are
// saved under the slot "ws:<id>", so reconnecting resumes the board.
package websocket
