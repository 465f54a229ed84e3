package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Connection is the part of *websocket.Conn a Client uses. Tests substitute
// an in-memory implementation.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// ConnectionWrapper adapts *websocket.Conn to Connection.
type ConnectionWrapper struct {
	conn *websocket.Conn
}

// NewConnectionWrapper wraps conn.
func NewConnectionWrapper(conn *websocket.Conn) *ConnectionWrapper {
	return &ConnectionWrapper{conn: conn}
}

func (w *ConnectionWrapper) WriteMessage(messageType int, data []byte) error {
	return w.conn.WriteMessage(messageType, data)
}

func (w *ConnectionWrapper) ReadMessage() (int, []byte, error) {
	return w.conn.ReadMessage()
}

func (w *ConnectionWrapper) Close() error {
	return w.conn.Close()
}

func (w *ConnectionWrapper) SetReadDeadline(t time.Time) error {
	return w.conn.SetReadDeadline(t)
}

func (w *ConnectionWrapper) SetWriteDeadline(t time.Time) error {
	return w.conn.SetWriteDeadline(t)
}

func (w *ConnectionWrapper) SetReadLimit(limit int64) {
	w.conn.SetReadLimit(limit)
}

func (w *ConnectionWrapper) SetPongHandler(h func(string) error) {
	w.conn.SetPongHandler(h)
}

func (w *ConnectionWrapper) RemoteAddr() string {
	return w.conn.RemoteAddr().String()
}
