// Package bidwiser implements the sealed-bid prize auction: thirteen prize
// ranks are revealed one at a time and both participants secretly commit a
// card from their 1-13 hand, higher card taking the prize pot. Tied rounds
// carry the pot forward; a tie on the final round splits it.
package bidwiser

import (
	"fmt"
	rand "math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/hexagrid/parlour/internal/game"
	"github.com/hexagrid/parlour/internal/scoring"
)

const handSize = 13

// BotName is the display name for the built-in opponent.
const BotName = "DeepGoof (Bot)"

// Side is a participant's public snapshot.
type Side struct {
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Hand      []int   `json:"hand"`
	HandCount int     `json:"hand_count"`
	HasMoved  bool    `json:"has_moved"`
	Bot       bool    `json:"is_bot"`
}

// Round is one resolved round in the append-only history.
type Round struct {
	Prize  int    `json:"prize"`
	P1Card int    `json:"p1_card"`
	P2Card int    `json:"p2_card"`
	Result string `json:"result"`
}

// State is the full snapshot broadcast to clients.
type State struct {
	CurrentPrize int     `json:"current_prize"`
	CarryOver    int     `json:"carry_over"`
	TotalPot     int     `json:"total_pot"`
	P1           Side    `json:"p1"`
	P2           Side    `json:"p2"`
	History      []Round `json:"history"`
	GameOver     bool    `json:"game_over"`
}

type participant struct {
	name  string
	hand  []int
	score float64
	move  int
	moved bool
}

// Engine is the prize-auction state machine. Not safe for concurrent use;
// the room layer serialises all mutations.
type Engine struct {
	prizes       []int
	currentPrize int
	carryOver    int
	p1           participant
	p2           participant
	p2Bot        bool
	bot          *SmartBot
	history      []Round
	over         bool
	logger       *log.Logger
}

// New shuffles the prize queue and deals both hands. With a single name the
// second seat is taken by the SmartBot; with two names both are human.
func New(names []string, rng *rand.Rand, logger *log.Logger) *Engine {
	e := &Engine{
		logger: logger.WithPrefix("bidwiser"),
	}

	e.prizes = fullHand()
	rng.Shuffle(len(e.prizes), func(i, j int) {
		e.prizes[i], e.prizes[j] = e.prizes[j], e.prizes[i]
	})

	e.p1 = participant{name: names[0], hand: fullHand()}
	if len(names) > 1 {
		e.p2 = participant{name: names[1], hand: fullHand()}
	} else {
		e.p2 = participant{name: BotName, hand: fullHand()}
		e.p2Bot = true
		e.bot = NewSmartBot(rng, logger)
	}

	e.currentPrize = e.prizes[0]
	e.prizes = e.prizes[1:]

	e.logger.Debug("dealt new game", "p1", e.p1.name, "p2", e.p2.name, "bot", e.p2Bot)

	return e
}

func fullHand() []int {
	hand := make([]int, handSize)
	for i := range hand {
		hand[i] = i + 1
	}
	return hand
}

// Variant implements game.Engine.
func (e *Engine) Variant() game.Variant {
	return game.VariantBidWiser
}

// Over implements game.Engine.
func (e *Engine) Over() bool {
	return e.over
}

// BotTurn implements game.Engine. The bot reacts synchronously inside Apply,
// so there is never a separate bot turn to drive.
func (e *Engine) BotTurn() bool {
	return false
}

// BotAction implements game.Engine.
func (e *Engine) BotAction() game.Action {
	return game.Action{}
}

// State implements game.Engine.
func (e *Engine) State() any {
	return e.Snapshot()
}

// Snapshot returns a deep copy of the current game state.
func (e *Engine) Snapshot() State {
	return State{
		CurrentPrize: e.currentPrize,
		CarryOver:    e.carryOver,
		TotalPot:     e.currentPrize + e.carryOver,
		P1:           e.p1.snapshot(false),
		P2:           e.p2.snapshot(e.p2Bot),
		History:      append([]Round{}, e.history...),
		GameOver:     e.over,
	}
}

func (p *participant) snapshot(bot bool) Side {
	return Side{
		Name:      p.name,
		Score:     p.score,
		Hand:      append([]int{}, p.hand...),
		HandCount: len(p.hand),
		HasMoved:  p.moved,
		Bot:       bot,
	}
}

// Apply implements game.Engine. The move is recorded only if the card is in
// the mover's hand and their pending slot is still unset. When the second
// seat is the bot and the first participant has committed, the bot's reply is
// computed in the same call; once both moves are present the round resolves
// synchronously.
func (e *Engine) Apply(identity string, action game.Action) any {
	if e.over {
		return e.Snapshot()
	}

	card := action.Card
	switch identity {
	case e.p1.name:
		if !e.p1.moved && slices.Contains(e.p1.hand, card) {
			e.p1.move = card
			e.p1.moved = true
		}
	case e.p2.name:
		if !e.p2Bot && !e.p2.moved && slices.Contains(e.p2.hand, card) {
			e.p2.move = card
			e.p2.moved = true
		}
	}

	if e.p2Bot && e.p1.moved && !e.p2.moved {
		pot := e.currentPrize + e.carryOver
		e.p2.move = e.bot.Decide(e.p2.hand, e.p1.hand, pot, e.prizes, e.p2.score, e.p1.score)
		e.p2.moved = true
		e.bot.RecordMove(e.currentPrize, e.p1.move)
	}

	if e.p1.moved && e.p2.moved {
		e.resolveRound()
	}

	return e.Snapshot()
}

// resolveRound settles the committed moves against the prize pot. Reaching
// here with a missing move is a programmer error: the public surface only
// resolves once both slots are set.
func (e *Engine) resolveRound() {
	if !e.p1.moved || !e.p2.moved {
		panic("bidwiser: resolveRound called with a missing move")
	}

	p1Card, p2Card := e.p1.move, e.p2.move
	pot := e.currentPrize + e.carryOver

	e.p1.hand = removeCard(e.p1.hand, p1Card)
	e.p2.hand = removeCard(e.p2.hand, p2Card)

	p1Points, p2Points, tie := scoring.ResolveRound(p1Card, p2Card, pot)

	result := "Tie"
	if !tie {
		if p1Points > 0 {
			e.p1.score += float64(p1Points)
			result = fmt.Sprintf("%s Wins", e.p1.name)
		} else {
			e.p2.score += float64(p2Points)
			result = fmt.Sprintf("%s Wins", e.p2.name)
		}
		e.carryOver = 0
	} else {
		e.carryOver += e.currentPrize
		if len(e.prizes) == 0 {
			// Final round: nothing left to fight for, split the pot evenly.
			split := float64(pot) / 2.0
			e.p1.score += split
			e.p2.score += split
			e.carryOver = 0
			result = "Split"
		}
	}

	e.history = append(e.history, Round{
		Prize:  e.currentPrize,
		P1Card: p1Card,
		P2Card: p2Card,
		Result: result,
	})

	e.p1.move, e.p1.moved = 0, false
	e.p2.move, e.p2.moved = 0, false

	if len(e.prizes) == 0 {
		e.over = true
		e.currentPrize = 0
	} else {
		e.currentPrize = e.prizes[0]
		e.prizes = e.prizes[1:]
	}

	e.logger.Debug("round resolved",
		"prize", e.history[len(e.history)-1].Prize,
		"p1Card", p1Card,
		"p2Card", p2Card,
		"result", result,
		"carryOver", e.carryOver)
}

func removeCard(hand []int, card int) []int {
	if i := slices.Index(hand, card); i >= 0 {
		return append(hand[:i], hand[i+1:]...)
	}
	return hand
}
