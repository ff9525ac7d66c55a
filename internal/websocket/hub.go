package websocket

import (
	"net/http"
	"sync"

	"reportflow/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a single connected WebSocket client
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
}

type targetedMessage struct {
	userIDs map[string]bool
	payload []byte
}

// Hub maintains the set of active clients and pushes workflow events to them,
// either broadcast to everyone or targeted at specific user ids.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan []byte
	targeted   chan targetedMessage
	register   chan *Client
	unregister chan *Client
	logger     *zap.Logger
	mu         sync.Mutex
}

// NewHub initializes a new WS Hub instance
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		Broadcast:  make(chan []byte),
		targeted:   make(chan targetedMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// BroadcastTo queues a message for the given user ids only. Non-blocking:
// if the targeted queue is full the push is dropped (the in-app notification
// row still exists).
func (h *Hub) BroadcastTo(userIDs []string, message []byte) {
	set := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		set[id] = true
	}
	select {
	case h.targeted <- targetedMessage{userIDs: set, payload: message}:
	default:
		h.logger.Warn("targeted push queue full, dropping message")
	}
}

// Run starts the core dispatch loop for WebSocket events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("websocket client connected", zap.String("user_id", client.UserID))
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Debug("websocket client disconnected", zap.String("user_id", client.UserID))
			}
			h.mu.Unlock()
		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				h.deliver(client, message)
			}
			h.mu.Unlock()
		case msg := <-h.targeted:
			h.mu.Lock()
			for client := range h.clients {
				if msg.userIDs[client.UserID] {
					h.deliver(client, msg.payload)
				}
			}
			h.mu.Unlock()
		}
	}
}

// deliver assumes h.mu is held. A client with a full send buffer is dropped.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		close(client.Send)
		delete(h.clients, client)
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		// Fast track writing queued messages
		n := len(c.Send)
		for i := 0; i < n; i++ {
			_, _ = w.Write([]byte{'\n'})
			_, _ = w.Write(<-c.Send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		_ = c.Conn.Close()
	}()
	for {
		// Just reading to keep connection alive or handle client messages if necessary
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("websocket read error", zap.Error(err))
			}
			break
		}
	}
}

// ServeWs handles websocket requests from the peer
func ServeWs(hub *Hub, c *gin.Context, secret []byte) {
	// 1. Authenticate via token query param
	tokenString := c.Query("token")
	if tokenString == "" {
		hub.logger.Warn("websocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})

	if err != nil || !token.Valid {
		hub.logger.Warn("websocket connection rejected: invalid token", zap.Error(err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		hub.logger.Warn("websocket connection rejected: invalid claims")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	role, _ := claims["role"].(string)
	if !model.ValidRole(role) {
		hub.logger.Warn("websocket connection rejected: inadequate permissions")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	userID, _ := claims["sub"].(string)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256), UserID: userID}
	client.Hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}
