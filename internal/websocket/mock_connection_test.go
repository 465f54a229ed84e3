package websocket

import (
	"errors"
	"sync"
	"time"
)

type mockMessage struct {
	Type int
	Data []byte
	Err  error
}

// mockConnection is an in-memory Connection. ReadMessage replays reads and
// then fails, which ends ReadPump.
type mockConnection struct {
	mu sync.Mutex

	reads     []mockMessage
	readIndex int
	written   []mockMessage
	closed    bool
	readLimit int64
	pong      func(string) error
}

func newMockConnection(payloads ...string) *mockConnection {
	m := &mockConnection{}
	for _, p := range payloads {
		m.reads = append(m.reads, mockMessage{Type: 1, Data: []byte(p)})
	}
	return m
}

func (m *mockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("connection closed")
	}
	m.written = append(m.written, mockMessage{Type: messageType, Data: data})
	return nil
}

func (m *mockConnection) ReadMessage() (int, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, nil, errors.New("connection closed")
	}
	if m.readIndex < len(m.reads) {
		msg := m.reads[m.readIndex]
		m.readIndex++
		return msg.Type, msg.Data, msg.Err
	}
	return 0, nil, errors.New("no more messages")
}

func (m *mockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConnection) SetReadDeadline(time.Time) error  { return nil }
func (m *mockConnection) SetWriteDeadline(time.Time) error { return nil }

func (m *mockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readLimit = limit
}

func (m *mockConnection) SetPongHandler(h func(string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pong = h
}

func (m *mockConnection) RemoteAddr() string { return "127.0.0.1:50000" }

func (m *mockConnection) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
