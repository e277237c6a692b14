package server

import (
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/hexagrid/parlour/internal/game"
	"github.com/hexagrid/parlour/internal/randutil"
	"github.com/hexagrid/parlour/internal/room"
)

// RoomService bridges connections to the room registry and the turn
// orchestrator, and fans engine snapshots back out to the room's
// connections.
type RoomService struct {
	registry *room.Registry
	orch     *room.Orchestrator
	server   *Server
	cfg      GameSettings
	logger   *log.Logger
	seed     func() int64
}

// NewRoomService creates a room service wired to the given server.
func NewRoomService(server *Server, cfg GameSettings, clock quartz.Clock, logger *log.Logger) *RoomService {
	rs := &RoomService{
		server: server,
		cfg:    cfg,
		logger: logger.WithPrefix("room-service"),
		seed:   randutil.Seed,
	}
	rs.registry = room.NewRegistry(randutil.New(randutil.Seed()), cfg.RoomCodeLength, logger)
	rs.orch = room.NewOrchestrator(clock, cfg.BotDelay(), rs, logger)

	return rs
}

// Registry exposes the room registry.
func (rs *RoomService) Registry() *room.Registry {
	return rs.registry
}

// GameState implements room.Broadcaster: every snapshot the orchestrator
// produces is broadcast to the room tagged with the active variant.
func (rs *RoomService) GameState(r *room.Room, state any) {
	rs.broadcastState(r, MessageTypeUpdateGame, state)
}

func (rs *RoomService) broadcastState(r *room.Room, msgType MessageType, state any) {
	msg, err := NewMessage(msgType, GameStateData{
		GameType: r.Variant().String(),
		State:    state,
	})
	if err != nil {
		rs.logger.Error("Failed to create game state message", "error", err)
		return
	}
	rs.server.BroadcastToRoom(r.Code(), msg)
}

func (rs *RoomService) broadcastRoomUpdate(r *room.Room) {
	msg, err := NewMessage(MessageTypeRoomUpdate, RoomUpdateData{Room: r.Info()})
	if err != nil {
		rs.logger.Error("Failed to create room update message", "error", err)
		return
	}
	rs.server.BroadcastToRoom(r.Code(), msg)
}

func (rs *RoomService) sendRoomJoined(c *Connection, r *room.Room, yourName string) {
	msg, err := NewMessage(MessageTypeRoomJoined, RoomJoinedData{
		Code:     r.Code(),
		Players:  r.Players(),
		Host:     r.Host(),
		YourName: yourName,
	})
	if err != nil {
		rs.logger.Error("Failed to create room joined message", "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

// CreateRoom makes a new room with the connection's player as host.
func (rs *RoomService) CreateRoom(c *Connection) {
	name := c.GetPlayer()
	r := rs.registry.Create(name)
	c.SetRoom(r.Code())

	rs.sendRoomJoined(c, r, name)
}

// JoinRoom adds the connection's player to an existing lobby, deduplicating
// the name against current members. Failures go back as directed errors.
func (rs *RoomService) JoinRoom(c *Connection, code string) {
	r, assigned, err := rs.registry.Join(code, c.GetPlayer())
	switch err {
	case nil:
	case room.ErrInvalidCode:
		c.sendError("invalid_code", "Invalid room code")
		return
	case room.ErrAlreadyStarted:
		c.sendError("already_started", "Game already started")
		return
	default:
		c.sendError("join_failed", err.Error())
		return
	}

	// The deduplicated name is this connection's identity from here on.
	c.SetPlayer(assigned)
	c.SetRoom(code)

	rs.broadcastRoomUpdate(r)
	rs.sendRoomJoined(c, r, assigned)
}

// LeaveRoom drops the connection's player from their room. The room is
// discarded when the host leaves or nobody remains.
func (rs *RoomService) LeaveRoom(c *Connection) {
	code := c.GetRoom()
	if code == "" {
		return
	}
	c.SetRoom("")

	r := rs.registry.Get(code)
	if r == nil {
		return
	}

	if rs.registry.Leave(code, c.GetPlayer()) {
		return // room discarded
	}
	rs.broadcastRoomUpdate(r)
}

// StartGame instantiates the requested engine over the room's members. A
// non-host caller is silently ignored.
func (rs *RoomService) StartGame(c *Connection, gameType string) {
	r := rs.registry.Get(c.GetRoom())
	if r == nil {
		c.sendError("invalid_code", "Not in a room")
		return
	}

	variant := game.Variant(gameType)
	if variant != game.VariantPickPass && variant != game.VariantBidWiser {
		c.sendError("invalid_game_type", "Unknown game type: "+gameType)
		return
	}

	started := r.Start(c.GetPlayer(), variant, room.StartConfig{
		PickPass: rs.cfg.PickPassConfig(),
		RNG:      randutil.New(rs.seed()),
		Logger:   rs.logger,
	})
	if !started {
		return
	}

	rs.broadcastState(r, MessageTypeGameStarted, r.EngineState())

	// PickPass may open on a bot's seat.
	rs.orch.StartCascade(r)
}

// PlayerAction routes an action to the room's active engine.
func (rs *RoomService) PlayerAction(c *Connection, data PlayerActionData) {
	r := rs.registry.Get(c.GetRoom())
	if r == nil {
		c.sendError("invalid_code", "Not in a room")
		return
	}
	if r.Status() != room.StatusPlaying {
		c.sendError("no_active_game", "No game in progress")
		return
	}

	rs.orch.Dispatch(r, c.GetPlayer(), game.Action{Move: data.Move, Card: data.Card})
}
