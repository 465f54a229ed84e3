package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"carviz/internal/catalog"
	apierrors "carviz/internal/errors"
	"carviz/internal/infrastructure"
	"carviz/internal/services"
	"carviz/pkg/contracts/domain"
	"carviz/pkg/contracts/events"
)

// Source labels WebSocket interactions in metrics and traces.
const Source = "ws"

// Evaluator answers dashboard requests. *services.DashboardService satisfies it.
type Evaluator interface {
	View(ctx context.Context, source string, req services.ViewRequest) (*services.DashboardView, error)
	Options(ctx context.Context, spec domain.FilterSpec) (*services.DashboardOptions, error)
}

// Validator checks a decoded request before it is evaluated.
type Validator interface {
	ValidateStruct(v interface{}) error
}

// Client is one dashboard session: a connection plus the goroutines that
// serve it. Requests are evaluated in arrival order, one at a time.
type Client struct {
	hub       *Hub
	conn      Connection
	evaluator Evaluator
	validator Validator
	settings  Settings

	// Buffered channel of outbound messages, closed by the hub on unregister
	send chan []byte
	// Closed when WritePump exits
	done chan struct{}

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger
}

// NewClient creates a Client for conn. validator may be nil.
func NewClient(hub *Hub, conn Connection, evaluator Evaluator, validator Validator, settings Settings, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	settings = settings.withDefaults()

	id := uuid.New().String()
	if traceID == "" {
		traceID = id
	}
	logger = logger.With(
		slog.String("component", "websocket.client"),
		slog.String("client_id", id),
	)

	return &Client{
		hub:         hub,
		conn:        conn,
		evaluator:   evaluator,
		validator:   validator,
		settings:    settings,
		send:        make(chan []byte, settings.SendBuffer),
		done:        make(chan struct{}),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger:      logger,
	}
}

// ID returns the session identifier.
func (c *Client) ID() string {
	return c.id
}

// ReadPump reads requests until the connection fails or ctx ends, answering
// each before reading the next.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	ctx = infrastructure.WithTraceID(ctx, c.traceID)

	c.conn.SetReadLimit(c.settings.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))
		return nil
	})

	greeting := events.NewMessage("", events.MessageTypeConnection, c.traceID, events.ConnectionData{
		Status:   "connected",
		ClientID: c.id,
		Message:  "Connected to carviz",
	})
	if !c.queue(greeting) {
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}

		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.WarnContext(ctx, "WebSocket read error", slog.String("error", err.Error()))
			}
			return
		}

		reply := c.handle(ctx, message)
		if !c.queue(reply) {
			return
		}
	}
}

// handle evaluates one request and returns the reply to send.
func (c *Client) handle(ctx context.Context, message []byte) events.WebSocketMessage {
	var req events.Request
	if err := json.Unmarshal(message, &req); err != nil {
		return c.errorMessage("", apierrors.InvalidRequestWithError(err))
	}

	start := time.Now()
	c.logger.DebugContext(ctx, "request received",
		slog.String("request_id", req.ID),
		slog.String("type", string(req.Type)))

	switch req.Type {
	case events.MessageTypeView, "":
		view := services.ViewRequest{Filter: req.Filter, Chart: req.Chart.WithDefaults()}
		if err := c.validate(view); err != nil {
			return c.errorMessage(req.ID, err)
		}
		result, err := c.evaluator.View(ctx, Source, view)
		if err != nil {
			return c.errorMessage(req.ID, err)
		}
		c.logger.DebugContext(ctx, "view sent",
			slog.String("request_id", req.ID),
			slog.Int("rows", result.Count),
			slog.Duration("duration", time.Since(start)))
		return events.NewMessage(req.ID, events.MessageTypeView, c.traceID, result)

	case events.MessageTypeOptions:
		if err := c.validate(req.Filter); err != nil {
			return c.errorMessage(req.ID, err)
		}
		result, err := c.evaluator.Options(ctx, req.Filter)
		if err != nil {
			return c.errorMessage(req.ID, err)
		}
		return events.NewMessage(req.ID, events.MessageTypeOptions, c.traceID, result)

	case events.MessageTypeHeartbeat:
		return events.NewMessage(req.ID, events.MessageTypeHeartbeat, c.traceID,
			events.HeartbeatData{Clients: c.hub.ClientCount()})

	default:
		return c.errorMessage(req.ID, apierrors.ErrValidation("type", fmt.Sprintf("unknown message type %q", req.Type)))
	}
}

func (c *Client) validate(v interface{}) error {
	if c.validator == nil {
		return nil
	}
	return c.validator.ValidateStruct(v)
}

// errorMessage maps err to the same codes the HTTP API uses.
func (c *Client) errorMessage(id string, err error) events.WebSocketMessage {
	data := events.ErrorData{Code: apierrors.CodeInternal, Message: "Internal server error"}

	var apiErr *apierrors.APIError
	switch {
	case errors.As(err, &apiErr):
		data.Code = apiErr.ErrorCode
		data.Message = apiErr.Message
		data.Details = apiErr.Details
	case catalog.IsLoadError(err):
		data.Code = apierrors.CodeDatasetUnavailable
		data.Message = err.Error()
		data.Retry = true
	case services.IsValidationError(err):
		data.Code = apierrors.CodeValidationFailed
		data.Message = err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		data.Code = apierrors.CodeServiceUnavailable
		data.Message = "Request cancelled"
		data.Retry = true
	default:
		c.logger.Error("request failed", slog.String("request_id", id), slog.String("error", err.Error()))
	}

	return events.NewMessage(id, events.MessageTypeError, c.traceID, data)
}

// queue hands msg to WritePump. It reports false once the session is over.
func (c *Client) queue(msg events.WebSocketMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to encode message", slog.String("error", err.Error()))
		return true
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	}
}

// WritePump writes queued messages and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.settings.PingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("write failed", slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
