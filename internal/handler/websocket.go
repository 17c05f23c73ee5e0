package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todoapp/internal/model"
)

// WebSocket configuration constants.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendQueueSize  = 16
)

// wsClient is one connected WebSocket subscriber.
type wsClient struct {
	conn   *websocket.Conn
	send   chan model.TodoEvent
	cancel context.CancelFunc
}

// EventHub upgrades WebSocket connections and fans todo events out to
// every connected client.
type EventHub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger
	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
}

// NewEventHub creates a new EventHub instance.
func NewEventHub(logger *zap.Logger) *EventHub {
	return &EventHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// RegisterRoutes registers the WebSocket routes with the router.
func (h *EventHub) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.HandleWebSocket).Methods(http.MethodGet)
}

// Broadcast queues an event for delivery to all connected clients. Clients
// whose send queue is full skip the event rather than blocking mutations.
func (h *EventHub) Broadcast(event model.TodoEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- event:
		default:
			h.logger.Debug("dropping event for slow websocket client",
				zap.String("type", event.Type),
				zap.String("remote_addr", client.conn.RemoteAddr().String()),
			)
		}
	}
}

// HandleWebSocket handles WebSocket connection requests.
//
//nolint:contextcheck // intentional: WebSocket connections outlive the HTTP request context
func (h *EventHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	// Use background context instead of request context because the HTTP
	// request context gets canceled when the handler returns, but WebSocket
	// connections need to persist beyond the initial upgrade.
	ctx, cancel := context.WithCancel(context.Background())

	client := &wsClient{
		conn:   conn,
		send:   make(chan model.TodoEvent, sendQueueSize),
		cancel: cancel,
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("websocket client connected", zap.String("remote_addr", conn.RemoteAddr().String()))

	go h.writePump(ctx, client)
	go h.readPump(ctx, client)
}

// readPump consumes incoming messages from the connection. The feed is
// one-way; client messages are discarded, but the read loop is required to
// process pong control frames and detect disconnects.
func (h *EventHub) readPump(ctx context.Context, client *wsClient) {
	defer func() {
		client.cancel()
		h.removeClient(client)
		if err := client.conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
	}()

	client.conn.SetReadLimit(maxMessageSize)
	if err := client.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Error("failed to set read deadline", zap.Error(err))
		return
	}

	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if _, _, err := client.conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Warn("websocket read error", zap.Error(err))
				}
				return
			}
		}
	}
}

// writePump delivers queued todo events and keepalive pings to the client.
func (h *EventHub) writePump(ctx context.Context, client *wsClient) {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.sendCloseMessage(client.conn)
			return
		case event := <-client.send:
			if err := h.sendEvent(client.conn, event); err != nil {
				h.logger.Debug("failed to send event", zap.Error(err))
				return
			}
		case <-pingTicker.C:
			if err := h.sendPing(client.conn); err != nil {
				h.logger.Debug("failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// sendEvent writes one event to the connection.
func (h *EventHub) sendEvent(conn *websocket.Conn, event model.TodoEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}

// sendPing sends a ping message to the connection.
func (h *EventHub) sendPing(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// sendCloseMessage sends a close message to the connection.
func (h *EventHub) sendCloseMessage(conn *websocket.Conn) {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		h.logger.Debug("failed to set write deadline for close", zap.Error(err))
		return
	}

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down")
	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		h.logger.Debug("failed to send close message", zap.Error(err))
	}
}

// removeClient removes a client from the hub.
func (h *EventHub) removeClient(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[client]; exists {
		delete(h.clients, client)
		h.logger.Info("websocket client disconnected",
			zap.String("remote_addr", client.conn.RemoteAddr().String()))
	}
}

// CloseAllConnections closes all active WebSocket connections.
func (h *EventHub) CloseAllConnections() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	// Cancel all contexts first, which triggers each writePump to send a
	// close message before the connection is torn down.
	for _, client := range clients {
		client.cancel()
	}

	time.Sleep(100 * time.Millisecond)

	h.mu.Lock()
	for client := range h.clients {
		if err := client.conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
		delete(h.clients, client)
	}
	h.mu.Unlock()

	h.logger.Info("all websocket connections closed")
}
