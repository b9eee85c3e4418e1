package chathub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"devmatch/backend/internal/config"
	"devmatch/backend/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// A send frame carries at most MaxChatMessageRunes runes of up to 4 bytes each.
	maxMessageSize = config.MaxChatMessageRunes*4 + 512
	sendBuffer     = 256
)

// FrameHandler executes frames read from a session.
type FrameHandler interface {
	HandleFrame(ctx context.Context, client Client, frame models.ClientFrame)
}

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	UserID  string
	Conn    *websocket.Conn
	Hub     *ManagerService
	Handler FrameHandler
	Send    chan models.ServerFrame
	Logger  *zap.Logger

	mu        sync.RWMutex
	roomID    string
	closeOnce sync.Once
}

// NewWebSocketClient Constructor
func NewWebSocketClient(userID string, conn *websocket.Conn, hub *ManagerService, handler FrameHandler, logger *zap.Logger) *WebSocketClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketClient{
		UserID:  userID,
		Conn:    conn,
		Hub:     hub,
		Handler: handler,
		Send:    make(chan models.ServerFrame, sendBuffer),
		Logger:  logger,
	}
}

func (c *WebSocketClient) GetUserID() string { return c.UserID }

func (c *WebSocketClient) GetRoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

func (c *WebSocketClient) SetRoomID(id string) {
	c.mu.Lock()
	c.roomID = id
	c.mu.Unlock()
}

func (c *WebSocketClient) GetSendChannel() chan<- models.ServerFrame { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes Send, which stops writePump and the connection with it.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Logger.Warn("websocket read failed", zap.String("user_id", c.UserID), zap.Error(err))
			}
			return
		}

		var frame models.ClientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.Hub.Deliver(c, models.ServerFrame{Type: models.FrameError, Code: "invalid_frame"})
			continue
		}

		c.Handler.HandleFrame(context.Background(), c, frame)
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(frame); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
