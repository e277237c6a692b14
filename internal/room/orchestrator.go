package room

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/hexagrid/parlour/internal/game"
)

// Broadcaster receives every state snapshot the orchestrator produces. The
// transport layer implements it by fanning the snapshot out to the room's
// connections. GameState is called with the room lock held so that emission
// order always matches transition order; implementations must only enqueue
// and never block on delivery.
type Broadcaster interface {
	GameState(r *Room, state any)
}

// Orchestrator bridges action events to engine transitions and drives
// unattended bot turns. Each room's engine is mutated under that room's lock
// only; the presentation delay between autonomous moves runs outside the
// lock on the injected clock so unrelated rooms keep processing.
type Orchestrator struct {
	clock       quartz.Clock
	delay       time.Duration
	broadcaster Broadcaster
	logger      *log.Logger
}

// NewOrchestrator creates an orchestrator emitting snapshots to b with the
// given presentation delay between bot moves.
func NewOrchestrator(clock quartz.Clock, delay time.Duration, b Broadcaster, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		clock:       clock,
		delay:       delay,
		broadcaster: b,
		logger:      logger.WithPrefix("orchestrator"),
	}
}

// Dispatch applies one externally triggered action to the room's engine and
// emits the resulting snapshot before releasing the room lock, so two racing
// events on one room can never deliver their snapshots out of order. The
// engine itself validates turn ownership; a mismatched identity produces an
// unchanged snapshot, which is still emitted. If the engine then waits on a
// bot, the cascade is started.
func (o *Orchestrator) Dispatch(r *Room, identity string, action game.Action) {
	r.mu.Lock()
	if r.engine == nil || r.status != StatusPlaying {
		r.mu.Unlock()
		return
	}

	state := r.engine.Apply(identity, action)
	if r.engine.Over() {
		r.status = StatusFinished
	}
	botTurn := r.status == StatusPlaying && r.engine.BotTurn()

	// The snapshot is a deep copy and the broadcaster only enqueues, so
	// emitting under the lock is safe and keeps emissions ordered.
	o.broadcaster.GameState(r, state)
	r.mu.Unlock()

	if botTurn {
		o.StartCascade(r)
	}
}

// StartCascade launches the bot-turn loop for the room unless one is already
// running. Safe to call speculatively; it is a no-op when the current actor
// is human or the game is over.
func (o *Orchestrator) StartCascade(r *Room) {
	r.mu.Lock()
	if r.cascading || r.engine == nil || r.status != StatusPlaying || !r.engine.BotTurn() {
		r.mu.Unlock()
		return
	}
	r.cascading = true
	r.mu.Unlock()

	go o.runCascade(r)
}

// runCascade alternates a presentation delay with one autonomous bot move
// until the engine is terminal, a human must act, or the room is discarded.
// Cancellation is checked at every yield point so a removed room never
// receives further moves or broadcasts.
func (o *Orchestrator) runCascade(r *Room) {
	defer func() {
		r.mu.Lock()
		r.cascading = false
		r.mu.Unlock()
	}()

	for {
		fired := make(chan struct{})
		timer := o.clock.AfterFunc(o.delay, func() {
			close(fired)
		})

		select {
		case <-r.ctx.Done():
			timer.Stop()
			o.logger.Debug("cascade cancelled", "room", r.code)
			return
		case <-fired:
		}

		r.mu.Lock()
		if r.ctx.Err() != nil || r.engine == nil || r.status != StatusPlaying || !r.engine.BotTurn() {
			r.mu.Unlock()
			return
		}

		action := r.engine.BotAction()
		state := r.engine.Apply("", action)
		if r.engine.Over() {
			r.status = StatusFinished
		}
		more := r.status == StatusPlaying && r.engine.BotTurn()
		o.broadcaster.GameState(r, state)
		r.mu.Unlock()

		if !more {
			return
		}
	}
}
