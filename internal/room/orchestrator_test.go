package room

import (
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexagrid/parlour/internal/bidwiser"
	"github.com/hexagrid/parlour/internal/game"
	"github.com/hexagrid/parlour/internal/pickpass"
)

// captureBroadcaster records every snapshot the orchestrator emits.
type captureBroadcaster struct {
	mu     sync.Mutex
	states []any
}

func (c *captureBroadcaster) GameState(_ *Room, state any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = append(c.states, state)
}

func (c *captureBroadcaster) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.states)
}

func (c *captureBroadcaster) last() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.states) == 0 {
		return nil
	}
	return c.states[len(c.states)-1]
}

// slowFirstBroadcaster stalls its first delivery so a later, faster emission
// would overtake it if emissions were not serialised per room.
type slowFirstBroadcaster struct {
	captureBroadcaster
	once sync.Once
}

func (s *slowFirstBroadcaster) GameState(r *Room, state any) {
	s.once.Do(func() { time.Sleep(100 * time.Millisecond) })
	s.captureBroadcaster.GameState(r, state)
}

func isCascading(r *Room) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cascading
}

func TestDispatchIgnoresRoomWithoutGame(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(20)
	r := reg.Create("Ankit")
	bc := &captureBroadcaster{}
	o := NewOrchestrator(quartz.NewReal(), time.Millisecond, bc, testLogger())

	o.Dispatch(r, "Ankit", game.Action{Move: game.MoveTake})

	assert.Zero(t, bc.count())
	assert.Equal(t, StatusLobby, r.Status())
}

func TestDispatchAppliesActionAndBroadcasts(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(21)
	r := reg.Create("Ankit")
	reg.Join(r.Code(), "John")
	require.True(t, r.Start("Ankit", game.VariantBidWiser, testStartConfig(21)))

	bc := &captureBroadcaster{}
	o := NewOrchestrator(quartz.NewReal(), time.Millisecond, bc, testLogger())

	st := r.EngineState().(bidwiser.State)
	o.Dispatch(r, "Ankit", game.Action{Card: st.P1.Hand[0]})

	require.Equal(t, 1, bc.count())
	emitted := bc.last().(bidwiser.State)
	assert.True(t, emitted.P1.HasMoved, "pending move committed, round not yet resolved")
	assert.Len(t, emitted.P1.Hand, 13)
	assert.Equal(t, StatusPlaying, r.Status())
}

func TestDispatchFinishesBidWiserGame(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(22)
	r := reg.Create("Ankit")
	reg.Join(r.Code(), "John")
	require.True(t, r.Start("Ankit", game.VariantBidWiser, testStartConfig(22)))

	bc := &captureBroadcaster{}
	o := NewOrchestrator(quartz.NewReal(), time.Millisecond, bc, testLogger())

	for round := 0; round < 13; round++ {
		st := r.EngineState().(bidwiser.State)
		o.Dispatch(r, "Ankit", game.Action{Card: highest(st.P1.Hand)})
		st = r.EngineState().(bidwiser.State)
		o.Dispatch(r, "John", game.Action{Card: highest(st.P2.Hand)})
	}

	assert.Equal(t, StatusFinished, r.Status())
	final := bc.last().(bidwiser.State)
	assert.True(t, final.GameOver)
	assert.Equal(t, 26, bc.count())

	// Finished rooms drop further actions without emitting.
	o.Dispatch(r, "Ankit", game.Action{Card: 1})
	assert.Equal(t, 26, bc.count())
}

func TestConcurrentDispatchesEmitInOrder(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(26)
	r := reg.Create("Ankit")
	reg.Join(r.Code(), "John")
	require.True(t, r.Start("Ankit", game.VariantBidWiser, testStartConfig(26)))

	bc := &slowFirstBroadcaster{}
	o := NewOrchestrator(quartz.NewReal(), time.Millisecond, bc, testLogger())

	// Both moves race; whichever lands second resolves the round. The stalled
	// first delivery must not overtake the resolved snapshot.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		o.Dispatch(r, "Ankit", game.Action{Card: 7})
	}()
	go func() {
		defer wg.Done()
		o.Dispatch(r, "John", game.Action{Card: 5})
	}()
	wg.Wait()

	require.Equal(t, 2, bc.count())
	first := bc.states[0].(bidwiser.State)
	last := bc.last().(bidwiser.State)
	assert.Empty(t, first.History, "first emission carries the pending move only")
	require.Len(t, last.History, 1, "latest emission must be the resolved round")
}

func TestCascadeDrivesBotsToCompletion(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(23)
	r := reg.Create("Ankit")
	require.True(t, r.Start("Ankit", game.VariantPickPass, testStartConfig(23)))

	bc := &captureBroadcaster{}
	o := NewOrchestrator(quartz.NewReal(), time.Millisecond, bc, testLogger())

	// The starting seat is random; the cascade handles a bot opener.
	o.StartCascade(r)

	for steps := 0; r.Status() == StatusPlaying; steps++ {
		require.Less(t, steps, 1000, "game must terminate")

		require.Eventually(t, func() bool {
			return !r.BotTurn() && !isCascading(r)
		}, 5*time.Second, time.Millisecond, "cascade must hand back to the human or finish")

		if r.Status() != StatusPlaying {
			break
		}
		o.Dispatch(r, "Ankit", game.Action{Move: game.MovePass})
	}

	assert.Equal(t, StatusFinished, r.Status())
	final := r.EngineState().(pickpass.State)
	assert.True(t, final.GameOver)
	assert.Len(t, final.Leaderboard, 5)
	assert.Positive(t, bc.count())
}

func TestCascadeStopsWhenRoomRemoved(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(24)
	r := reg.Create("Ankit")
	require.True(t, r.Start("Ankit", game.VariantPickPass, testStartConfig(24)))

	bc := &captureBroadcaster{}
	// A delay far beyond the test's lifetime: the cascade must die waiting.
	o := NewOrchestrator(quartz.NewReal(), time.Hour, bc, testLogger())

	if !r.BotTurn() {
		o.Dispatch(r, "Ankit", game.Action{Move: game.MovePass})
	} else {
		o.StartCascade(r)
	}
	require.True(t, r.BotTurn())
	require.True(t, isCascading(r))

	emitted := bc.count()
	reg.Remove(r.Code())

	require.Eventually(t, func() bool {
		return !isCascading(r)
	}, 5*time.Second, time.Millisecond, "cascade must observe the cancelled context")

	assert.Equal(t, emitted, bc.count(), "no broadcast after removal")
}

func TestStartCascadeIsIdempotent(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(25)
	r := reg.Create("Ankit")
	require.True(t, r.Start("Ankit", game.VariantPickPass, testStartConfig(25)))

	bc := &captureBroadcaster{}
	o := NewOrchestrator(quartz.NewReal(), time.Hour, bc, testLogger())

	if !r.BotTurn() {
		o.Dispatch(r, "Ankit", game.Action{Move: game.MovePass})
	}
	o.StartCascade(r)
	o.StartCascade(r)
	o.StartCascade(r)

	assert.True(t, isCascading(r))
	reg.Remove(r.Code())
}

func highest(hand []int) int {
	best := hand[0]
	for _, c := range hand {
		if c > best {
			best = c
		}
	}
	return best
}
