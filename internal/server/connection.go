package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	id          string
	conn        *websocket.Conn
	send        chan *Message
	playerName  string
	roomCode    string
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex
	closeOnce   sync.Once
	roomService *RoomService
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, roomService *RoomService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()

	return &Connection{
		id:          id,
		conn:        conn,
		send:        make(chan *Message, 256),
		logger:      logger.WithPrefix("conn").With("id", id[:8]),
		ctx:         ctx,
		cancel:      cancel,
		roomService: roomService,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed during shutdown.
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with a player name
func (c *Connection) SetPlayer(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerName = name
}

// GetPlayer returns the associated player name
func (c *Connection) GetPlayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerName
}

// SetRoom associates this connection with a room code
func (c *Connection) SetRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
}

// GetRoom returns the associated room code
func (c *Connection) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.GetPlayer())

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse auth data")
			return
		}
		c.handleAuth(data)

	case MessageTypeCreateRoom:
		c.handleCreateRoom()

	case MessageTypeJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join room data")
			return
		}
		c.handleJoinRoom(data)

	case MessageTypeLeaveRoom:
		c.handleLeaveRoom()

	case MessageTypeStartGame:
		var data StartGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse start game data")
			return
		}
		c.handleStartGame(data)

	case MessageTypePlayerAction:
		var data PlayerActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse player action data")
			return
		}
		c.handlePlayerAction(data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

// requirePlayer returns the connection's player name, sending a directed
// error when the client never authenticated.
func (c *Connection) requirePlayer() (string, bool) {
	name := c.GetPlayer()
	if name == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return "", false
	}
	return name, true
}

func (c *Connection) handleAuth(data AuthData) {
	c.logger.Info("Auth request", "playerName", data.PlayerName)

	// Identity provisioning is external; the server trusts the declared
	// name and deduplicates it against room members on join.
	if data.PlayerName == "" {
		c.sendError("invalid_auth", "Player name required")
		return
	}

	c.SetPlayer(data.PlayerName)

	response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
		Success:  true,
		PlayerID: data.PlayerName,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleCreateRoom() {
	name, ok := c.requirePlayer()
	if !ok {
		return
	}
	c.logger.Info("Create room request", "player", name)
	c.roomService.CreateRoom(c)
}

func (c *Connection) handleJoinRoom(data JoinRoomData) {
	name, ok := c.requirePlayer()
	if !ok {
		return
	}
	c.logger.Info("Join room request", "player", name, "code", data.Code)
	c.roomService.JoinRoom(c, data.Code)
}

func (c *Connection) handleLeaveRoom() {
	name, ok := c.requirePlayer()
	if !ok {
		return
	}
	c.logger.Info("Leave room request", "player", name, "room", c.GetRoom())
	c.roomService.LeaveRoom(c)
}

func (c *Connection) handleStartGame(data StartGameData) {
	name, ok := c.requirePlayer()
	if !ok {
		return
	}
	c.logger.Info("Start game request", "player", name, "gameType", data.GameType)
	c.roomService.StartGame(c, data.GameType)
}

func (c *Connection) handlePlayerAction(data PlayerActionData) {
	name, ok := c.requirePlayer()
	if !ok {
		return
	}
	c.logger.Debug("Player action", "player", name, "move", data.Move, "card", data.Card)
	c.roomService.PlayerAction(c, data)
}
