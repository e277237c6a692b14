package server

import (
	"encoding/json"
	"time"

	"github.com/hexagrid/parlour/internal/room"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	PlayerName string `json:"playerName"`
}

type JoinRoomData struct {
	Code string `json:"code"`
}

type StartGameData struct {
	GameType string `json:"game_type"`
}

// PlayerActionData carries either a PickPass move or a BidWiser card.
type PlayerActionData struct {
	Move string `json:"move,omitempty"`
	Card int    `json:"card,omitempty"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RoomJoinedData is directed to the joining connection only; YourName is the
// possibly-deduplicated name the server assigned.
type RoomJoinedData struct {
	Code     string   `json:"code"`
	Players  []string `json:"players"`
	Host     string   `json:"host"`
	YourName string   `json:"your_name"`
}

// RoomUpdateData is the membership snapshot broadcast to the room.
type RoomUpdateData struct {
	Room room.Info `json:"room"`
}

// GameStateData wraps an engine snapshot tagged with the active variant.
type GameStateData struct {
	GameType string `json:"game_type"`
	State    any    `json:"state"`
}
