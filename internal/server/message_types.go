package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
// These are used for client-server communication protocol
const (
	// Client to server messages
	MessageTypeAuth         MessageType = "auth"
	MessageTypeCreateRoom   MessageType = "create_room"
	MessageTypeJoinRoom     MessageType = "join_room"
	MessageTypeLeaveRoom    MessageType = "leave_room"
	MessageTypeStartGame    MessageType = "start_game"
	MessageTypePlayerAction MessageType = "player_action"

	// Server to client messages
	MessageTypeAuthResponse MessageType = "auth_response"
	MessageTypeRoomJoined   MessageType = "room_joined"
	MessageTypeRoomUpdate   MessageType = "room_update"
	MessageTypeGameStarted  MessageType = "game_started"
	MessageTypeUpdateGame   MessageType = "update_game"
	MessageTypeError        MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
