// Package room owns the room lifecycle: the registry of live rooms, the
// lobby membership rules and the turn orchestrator that drives a room's
// active engine across human and bot moves.
package room

import (
	"context"
	rand "math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/hexagrid/parlour/internal/bidwiser"
	"github.com/hexagrid/parlour/internal/game"
	"github.com/hexagrid/parlour/internal/pickpass"
)

// Status is a room's lifecycle phase.
type Status string

const (
	StatusLobby    Status = "lobby"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Info is the membership snapshot broadcast on every lobby change.
type Info struct {
	Code     string       `json:"code"`
	Host     string       `json:"host"`
	Players  []string     `json:"players"`
	Status   Status       `json:"status"`
	GameType game.Variant `json:"game_type,omitempty"`
}

// Room is one game session: a code, an ordered member list (host first) and
// at most one active engine. The mutex guarantees at most one in-flight
// mutation; the context is cancelled when the room is removed so any bot
// cascade in flight stops instead of acting on a discarded engine.
type Room struct {
	mu        sync.Mutex
	code      string
	host      string
	players   []string
	status    Status
	variant   game.Variant
	engine    game.Engine
	cascading bool

	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger
}

func newRoom(code, host string, logger *log.Logger) *Room {
	ctx, cancel := context.WithCancel(context.Background())
	return &Room{
		code:    code,
		host:    host,
		players: []string{host},
		status:  StatusLobby,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.WithPrefix("room").With("code", code),
	}
}

// Code returns the room code.
func (r *Room) Code() string {
	return r.code
}

// Host returns the host identity.
func (r *Room) Host() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

// Status returns the current lifecycle phase.
func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Players returns a copy of the member list, host first.
func (r *Room) Players() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.players...)
}

// Variant returns the active game variant, empty while in the lobby.
func (r *Room) Variant() game.Variant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.variant
}

// Info returns the membership snapshot.
func (r *Room) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Info{
		Code:     r.code,
		Host:     r.host,
		Players:  append([]string{}, r.players...),
		Status:   r.status,
		GameType: r.variant,
	}
}

// join adds a member, deduplicating the name with " #2", " #3", ... against
// the current member list, and returns the assigned name. The lobby check
// happens here, under the room lock, so a concurrent Start cannot slip a
// member into a game that is already running.
func (r *Room) join(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusLobby {
		return "", ErrAlreadyStarted
	}

	assigned := dedupeName(name, r.players)
	r.players = append(r.players, assigned)
	r.logger.Debug("player joined", "name", assigned, "members", len(r.players))
	return assigned, nil
}

// StartConfig carries everything engine construction needs.
type StartConfig struct {
	PickPass pickpass.Config
	RNG      *rand.Rand
	Logger   *log.Logger
}

// Start instantiates the chosen engine over the current members and flips
// the room to playing. Only the host may start and only from the lobby; any
// other caller is silently ignored. Returns whether the game started.
func (r *Room) Start(identity string, variant game.Variant, cfg StartConfig) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if identity != r.host || r.status != StatusLobby {
		return false
	}

	switch variant {
	case game.VariantPickPass:
		r.engine = pickpass.New(r.players, cfg.PickPass, cfg.RNG, cfg.Logger)
	case game.VariantBidWiser:
		r.engine = bidwiser.New(r.players, cfg.RNG, cfg.Logger)
	default:
		return false
	}

	r.variant = variant
	r.status = StatusPlaying
	r.logger.Info("game started", "variant", variant, "players", len(r.players))
	return true
}

// EngineState returns the active engine's snapshot, or nil if no game is
// running.
func (r *Room) EngineState() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engine == nil {
		return nil
	}
	return r.engine.State()
}

// BotTurn reports whether the active engine is waiting on a bot move.
func (r *Room) BotTurn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine != nil && r.status == StatusPlaying && r.engine.BotTurn()
}

// leave removes a member and reports whether the room should be discarded
// (host gone or room empty).
func (r *Room) leave(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, n := range r.players {
		if n == name {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	r.logger.Debug("player left", "name", name, "members", len(r.players))
	return name == r.host || len(r.players) == 0
}

func dedupeName(name string, existing []string) string {
	assigned := name
	counter := 2
	for contains(existing, assigned) {
		assigned = nameWithSuffix(name, counter)
		counter++
	}
	return assigned
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
