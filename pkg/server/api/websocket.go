package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/logging"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/oracle"
)

// WebSocketServer streams accepted prices to connected clients.
type WebSocketServer struct {
	symbol   string
	logger   *logging.Logger
	upgrader websocket.Upgrader

	// Client management
	mu      sync.RWMutex
	clients map[*WebSocketClient]bool
}

// WebSocketClient represents a connected WebSocket client.
type WebSocketClient struct {
	conn       *websocket.Conn
	send       chan []byte
	server     *WebSocketServer
	subscribed bool
	mu         sync.RWMutex
}

// WebSocketMessage represents a client message.
type WebSocketMessage struct {
	Type    string   `json:"type"`    // "subscribe", "unsubscribe", "ping"
	Symbols []string `json:"symbols"` // empty or "*" means every symbol
}

// PriceUpdateMessage is sent to clients.
type PriceUpdateMessage struct {
	Type      string      `json:"type"`      // "price_update"
	Timestamp string      `json:"timestamp"` // ISO 8601 timestamp
	Prices    []PriceData `json:"prices"`
}

// PriceData represents a single price point.
type PriceData struct {
	Symbol      string `json:"symbol"`
	Price       string `json:"price"`
	Source      string `json:"source,omitempty"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// NewWebSocketServer creates a stream for symbol.
func NewWebSocketServer(symbol string, logger *logging.Logger) *WebSocketServer {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &WebSocketServer{
		symbol: symbol,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				// Allow all origins (configure CORS as needed)
				return true
			},
		},
		clients: make(map[*WebSocketClient]bool),
	}
}

// Run broadcasts every observation from updates until ctx is done, then
// disconnects all clients.
func (s *WebSocketServer) Run(ctx context.Context, updates <-chan oracle.PriceObservation) {
	defer s.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case obs, ok := <-updates:
			if !ok {
				return
			}
			s.Broadcast(obs)
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *WebSocketServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP upgrades the request and registers the client.
func (s *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := &WebSocketClient{
		conn:       conn,
		send:       make(chan []byte, 256),
		server:     s,
		subscribed: true, // Subscribe by default
	}

	s.registerClient(client)

	// Start client goroutines
	go client.writePump()
	go client.readPump()

	s.logger.Info("New WebSocket client connected", "remote", conn.RemoteAddr().String())
}

// registerClient adds a client to the server.
func (s *WebSocketServer) registerClient(client *WebSocketClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

// unregisterClient removes a client from the server.
func (s *WebSocketServer) unregisterClient(client *WebSocketClient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
	}
}

func (s *WebSocketServer) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		delete(s.clients, client)
		close(client.send)
	}
}

// Broadcast sends obs to all subscribed clients.
func (s *WebSocketServer) Broadcast(obs oracle.PriceObservation) {
	message := PriceUpdateMessage{
		Type:      "price_update",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Prices: []PriceData{{
			Symbol:      s.symbol,
			Price:       formatPrice(obs.Price),
			Source:      obs.Source,
			TimestampMs: obs.TimestampMs,
		}},
	}

	data, err := json.Marshal(message)
	if err != nil {
		s.logger.Error("Failed to marshal price update", "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for client := range s.clients {
		if client.shouldReceive() {
			select {
			case client.send <- data:
			default:
				s.logger.Warn("Client send buffer full, skipping update")
			}
		}
	}
}

// writePump sends messages to the WebSocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.server.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads messages from the WebSocket connection.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.server.unregisterClient(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// handleMessage processes client messages.
func (c *WebSocketClient) handleMessage(data []byte) {
	var msg WebSocketMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.server.logger.Warn("Invalid client message", "error", err)
		return
	}

	switch msg.Type {
	case "subscribe":
		c.setSubscribed(msg.Symbols, true)
	case "unsubscribe":
		c.setSubscribed(msg.Symbols, false)
	case "ping":
		c.sendPong()
	default:
		c.server.logger.Warn("Unknown message type", "type", msg.Type)
	}
}

// setSubscribed applies a subscription change if it names this stream's
// symbol, or no symbol at all.
func (c *WebSocketClient) setSubscribed(symbols []string, on bool) {
	matches := len(symbols) == 0
	for _, symbol := range symbols {
		if symbol == "*" || symbol == c.server.symbol {
			matches = true
		}
	}
	if !matches {
		return
	}

	c.mu.Lock()
	c.subscribed = on
	c.mu.Unlock()

	c.server.logger.Debug("Client subscription changed", "symbols", symbols, "subscribed", on)
}

func (c *WebSocketClient) shouldReceive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscribed
}

// sendPong sends a pong response.
func (c *WebSocketClient) sendPong() {
	pong := map[string]string{"type": "pong"}
	data, _ := json.Marshal(pong)

	c.server.mu.RLock()
	defer c.server.mu.RUnlock()
	if _, ok := c.server.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
