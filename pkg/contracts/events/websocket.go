// Package events defines the messages exchanged with the dashboard over
// WebSocket.
package events

import (
	"time"

	"carviz/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Client requests. Each one is answered by exactly one message carrying
	// the same ID.
	MessageTypeView      MessageType = "view"
	MessageTypeOptions   MessageType = "options"
	MessageTypeHeartbeat MessageType = "heartbeat"

	// Server notifications
	MessageTypeConnection MessageType = "connection"
	MessageTypeCatalog    MessageType = "catalog"
	MessageTypeError      MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage is an outbound message.
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// Request is an inbound message. Filter and Chart are read for "view";
// "options" only reads Filter.
type Request struct {
	ID     string             `json:"id,omitempty"`
	Type   MessageType        `json:"type"`
	Filter domain.FilterSpec  `json:"filter"`
	Chart  domain.ChartConfig `json:"chart"`
}

// ConnectionData greets a newly registered session.
type ConnectionData struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

// CatalogData announces that the dataset was re-read from disk.
type CatalogData struct {
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}

// ErrorData describes a request that could not be answered.
type ErrorData struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Retry   bool        `json:"retry"`
}

// HeartbeatData answers a heartbeat.
type HeartbeatData struct {
	Clients int `json:"clients"`
}

// NewMessage stamps an outbound message.
func NewMessage(id string, typ MessageType, traceID string, data interface{}) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{
			ID:        id,
			Type:      typ,
			Timestamp: time.Now().UTC(),
			TraceID:   traceID,
		},
		Data: data,
	}
}
