package pickpass

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexagrid/parlour/internal/game"
	"github.com/hexagrid/parlour/internal/randutil"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestEngine(humans []string, seed int64) *Engine {
	return New(humans, DefaultConfig(), randutil.New(seed), testLogger())
}

// totalChips sums every player's stack plus the pot.
func totalChips(e *Engine) int {
	total := e.pot
	for _, p := range e.players {
		total += p.Chips
	}
	return total
}

func TestNewDealsExpectedTable(t *testing.T) {
	t.Parallel()

	e := newTestEngine([]string{"Ankit"}, 1)
	state := e.Snapshot()

	require.Len(t, state.Players, 5)
	assert.True(t, state.Players[0].Human)
	assert.Equal(t, "Ankit", state.Players[0].Name)
	for _, p := range state.Players[1:] {
		assert.False(t, p.Human)
		assert.Equal(t, 11, p.Chips)
	}

	// 33 cards, 9 removed, 1 flipped.
	assert.Equal(t, 23, state.DeckCount)
	assert.GreaterOrEqual(t, state.CurrentCard, 3)
	assert.LessOrEqual(t, state.CurrentCard, 35)
	assert.Zero(t, state.Pot)
	assert.False(t, state.GameOver)
	assert.Empty(t, state.Leaderboard)
}

func TestPassMovesOneChipToPot(t *testing.T) {
	t.Parallel()

	e := newTestEngine([]string{"Ankit"}, 2)
	before := totalChips(e)
	actor := e.players[e.current]
	chips := actor.Chips

	state := e.apply(game.MovePass)

	assert.Equal(t, chips-1, actor.Chips)
	assert.Equal(t, 1, state.Pot)
	assert.Equal(t, before, totalChips(e), "chips are conserved across pass")
}

func TestTakeAwardsCardAndPot(t *testing.T) {
	t.Parallel()

	e := newTestEngine([]string{"Ankit"}, 3)
	e.pot = 4
	actor := e.players[e.current]
	chips := actor.Chips
	card := e.currentCard

	state := e.apply(game.MoveTake)

	assert.Contains(t, actor.Cards, card)
	assert.Equal(t, chips+4, actor.Chips)
	assert.Zero(t, state.Pot)
	assert.Equal(t, 22, state.DeckCount, "next card flipped")
}

func TestPassWithZeroChipsForcesTake(t *testing.T) {
	t.Parallel()

	e := newTestEngine([]string{"Ankit"}, 4)
	actor := e.players[e.current]
	actor.Chips = 0
	card := e.currentCard

	e.apply(game.MovePass)

	assert.Contains(t, actor.Cards, card, "pass degraded to a forced take")
	assert.GreaterOrEqual(t, actor.Chips, 0, "chips never go negative")
}

func TestApplyRejectsWrongIdentity(t *testing.T) {
	t.Parallel()

	e := newTestEngine([]string{"Ankit", "John"}, 5)
	before := e.Snapshot()

	for _, impostor := range []string{"Sarah", "nobody", before.Players[(before.CurrentPlayer+1)%5].Name} {
		state := e.Apply(impostor, game.Action{Move: game.MoveTake})
		assert.Equal(t, before, state, "action by %q must be a silent no-op", impostor)
	}
}

func TestTakeOnEmptyDeckEndsGame(t *testing.T) {
	t.Parallel()

	e := newTestEngine([]string{"Ankit"}, 6)

	// Drain the deck with takes from whoever is current.
	for !e.over {
		e.Apply(e.players[e.current].Name, game.Action{Move: game.MoveTake})
	}

	state := e.Snapshot()
	assert.True(t, state.GameOver)
	assert.Zero(t, state.DeckCount)
	require.Len(t, state.Leaderboard, 5)
	for i := 1; i < len(state.Leaderboard); i++ {
		assert.LessOrEqual(t, state.Leaderboard[i-1].FinalScore, state.Leaderboard[i].FinalScore,
			"leaderboard sorted ascending by final score")
	}
	for _, row := range state.Leaderboard {
		assert.Equal(t, row.CardTotal-row.Chips, row.FinalScore)
	}

	// The leaderboard is frozen; further actions change nothing.
	after := e.Apply(e.players[e.current].Name, game.Action{Move: game.MoveTake})
	assert.Equal(t, state, after)
}

func TestLeaderboardComputedExactlyOnce(t *testing.T) {
	t.Parallel()

	e := newTestEngine([]string{"Ankit"}, 7)
	transitions := 0
	for !e.over {
		wasOver := e.over
		e.Apply(e.players[e.current].Name, game.Action{Move: game.MoveTake})
		if !wasOver && e.over {
			transitions++
		}
	}
	assert.Equal(t, 1, transitions)
}

func TestFullGameHumanAlwaysPasses(t *testing.T) {
	t.Parallel()

	e := newTestEngine([]string{"Ankit"}, 8)

	for steps := 0; !e.over; steps++ {
		require.Less(t, steps, 100_000, "game must terminate")

		current := e.players[e.current]
		if current.Human {
			// Passing with zero chips degrades to a forced take.
			e.Apply(current.Name, game.Action{Move: game.MovePass})
		} else {
			e.Apply("", e.BotAction())
		}
	}

	state := e.Snapshot()
	assert.True(t, state.GameOver)
	require.Len(t, state.Leaderboard, 5)
	assert.Zero(t, state.DeckCount)

	// Every dealt card ended up in exactly one pile.
	dealt := 0
	for _, p := range state.Players {
		dealt += len(p.Cards)
	}
	assert.Equal(t, 24, dealt)
}
