package room

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	// ErrInvalidCode is returned when no live room has the given code.
	ErrInvalidCode = errors.New("invalid room code")

	// ErrAlreadyStarted is returned when joining a room that left the lobby.
	ErrAlreadyStarted = errors.New("game already started")
)

// RandSource is the randomness needed for code generation, injectable for
// deterministic tests.
type RandSource interface {
	IntN(n int) int
}

// Registry owns the map of live rooms. It is created at process start and
// entries are removed on reset or abandonment; rooms do not survive the
// process.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	rand    RandSource
	codeLen int
	logger  *log.Logger
}

// NewRegistry creates an empty registry generating codes of the given length.
func NewRegistry(rand RandSource, codeLen int, logger *log.Logger) *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		rand:    rand,
		codeLen: codeLen,
		logger:  logger.WithPrefix("registry"),
	}
}

// Create makes a new room with the given identity as sole member and host.
func (reg *Registry) Create(host string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := reg.generateCode()
	room := newRoom(code, host, reg.logger)
	reg.rooms[code] = room

	reg.logger.Info("room created", "code", code, "host", host, "rooms", len(reg.rooms))
	return room
}

// Get returns the room with the given code, or nil.
func (reg *Registry) Get(code string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[code]
}

// Join adds the identity to the room with the given code, deduplicating the
// name against current members. Returns the room and the assigned name;
// ErrAlreadyStarted when the room has left the lobby.
func (reg *Registry) Join(code, name string) (*Room, string, error) {
	reg.mu.RLock()
	room := reg.rooms[code]
	reg.mu.RUnlock()

	if room == nil {
		return nil, "", ErrInvalidCode
	}

	assigned, err := room.join(name)
	if err != nil {
		return nil, "", err
	}
	return room, assigned, nil
}

// Leave removes the identity from the room's member list. The room is
// discarded when the host leaves or nobody remains; returns whether the room
// was discarded.
func (reg *Registry) Leave(code, name string) bool {
	reg.mu.RLock()
	room := reg.rooms[code]
	reg.mu.RUnlock()

	if room == nil {
		return false
	}
	if room.leave(name) {
		reg.Remove(code)
		return true
	}
	return false
}

// Remove discards a room and cancels its context so any in-flight bot
// cascade observes the shutdown.
func (reg *Registry) Remove(code string) {
	reg.mu.Lock()
	room := reg.rooms[code]
	delete(reg.rooms, code)
	reg.mu.Unlock()

	if room != nil {
		room.cancel()
		reg.logger.Info("room removed", "code", code)
	}
}

// Count returns the number of live rooms.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// generateCode draws fixed-length numeric codes until one is unique among
// live rooms. Caller holds the registry write lock.
func (reg *Registry) generateCode() string {
	for {
		digits := make([]byte, reg.codeLen)
		for i := range digits {
			digits[i] = byte('0' + reg.rand.IntN(10))
		}
		code := string(digits)
		if _, taken := reg.rooms[code]; !taken {
			return code
		}
	}
}

func nameWithSuffix(name string, counter int) string {
	return fmt.Sprintf("%s #%d", name, counter)
}
