package surface

import (
	"time"

	"github.com/andresmejia3/facebridge/internal/types"
	"github.com/gorilla/websocket"
)

const closeGrace = time.Second

// WebSocketTransport carries envelopes as JSON text frames.
type WebSocketTransport struct {
	conn *websocket.Conn
}

// NewWebSocketTransport wraps an upgraded (or dialed) connection.
func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	return &WebSocketTransport{conn: conn}
}

func (t *WebSocketTransport) Send(msg types.Message) error {
	return t.conn.WriteJSON(msg)
}

func (t *WebSocketTransport) Receive() (types.Message, error) {
	var msg types.Message
	err := t.conn.ReadJSON(&msg)
	return msg, err
}

// Close sends a normal close frame (best effort) and drops the connection.
func (t *WebSocketTransport) Close() error {
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
		time.Now().Add(closeGrace))
	return t.conn.Close()
}
