package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"carviz/internal/infrastructure"
)

// Handler upgrades /ws requests into dashboard sessions.
type Handler struct {
	hub       *Hub
	evaluator Evaluator
	validator Validator
	settings  Settings
	upgrader  websocket.Upgrader
	logger    *slog.Logger
}

// NewHandler creates the upgrade handler. An empty allowedOrigins list
// accepts only requests without an Origin header or from the same host.
func NewHandler(hub *Hub, evaluator Evaluator, validator Validator, settings Settings, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "websocket.handler")
	settings = settings.withDefaults()

	h := &Handler{
		hub:       hub,
		evaluator: evaluator,
		validator: validator,
		settings:  settings,
		logger:    logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  settings.ReadBufferSize,
		WriteBufferSize: settings.WriteBufferSize,
		CheckOrigin:     checkOrigin(allowedOrigins, logger),
	}
	return h
}

// ServeHTTP upgrades the connection and serves the session until it closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.WarnContext(ctx, "WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := NewClient(h.hub, NewConnectionWrapper(conn), h.evaluator, h.validator, h.settings,
		infrastructure.GetTraceID(ctx), h.logger)
	if !h.hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump(ctx)
}

func checkOrigin(allowed []string, logger *slog.Logger) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(origin, a) {
				return true
			}
		}
		// Same host, any scheme.
		if i := strings.Index(origin, "://"); i >= 0 && strings.EqualFold(origin[i+3:], r.Host) {
			return true
		}
		logger.WarnContext(r.Context(), "WebSocket origin rejected", slog.String("origin", origin))
		return false
	}
}
