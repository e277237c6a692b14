package pickpass

import (
	"slices"

	"github.com/hexagrid/parlour/internal/scoring"
)

// Tuning constants for the bot's utility model. These are calibrated for
// play-feel against humans, not solver-optimal.
const (
	neighborInHandEquity = 15.0 // a connector we already hold saves its face value later
	neighborDeadEquity   = -2.0
	hiddenNeighborWeight = 0.4
	greedBiasThreshold   = 8
	greedBias            = 3.0
)

// decideTake runs the decision matrix for the current (bot) player and
// reports whether it should take the face-up card.
func (e *Engine) decideTake() bool {
	me := e.players[e.current]
	card := e.currentCard

	// A bankrupt bot has no choice.
	if me.Chips == 0 {
		return true
	}

	// Economic impact of taking now: marginal points minus the pot valued at
	// the chip multiplier. Chips are worth more the fewer we have.
	pointDelta := scoring.Score(append(slices.Clone(me.Cards), card)) - scoring.Score(me.Cards)
	chipValue := 1.0 + 12.0/float64(me.Chips+1)
	economicImpact := float64(pointDelta) - float64(e.pot)*chipValue

	// Future equity of completing a run with this card, given what is
	// visible in every won pile.
	visible := make(map[int]bool)
	for _, p := range e.players {
		for _, c := range p.Cards {
			visible[c] = true
		}
	}
	gapBonus := e.runEquity(card, me.Cards, visible)
	adjustedCost := economicImpact - gapBonus

	// Orbit simulation: compose opponents' take probabilities in seat order
	// to estimate the chance the card dies before coming back around.
	probDies := 0.0
	numPlayers := len(e.players)
	for i := 1; i < numPlayers; i++ {
		opponent := e.players[(e.current+i)%numPlayers]
		pTake := e.predictOpponentAction(opponent, card, e.pot+i)
		probDies += (1.0 - probDies) * pTake
	}
	probReturn := 1.0 - probDies

	uTake := -adjustedCost

	// If the card survives the orbit it returns with one more chip per seat.
	futurePot := e.pot + numPlayers
	economicImpactFuture := float64(pointDelta) - float64(futurePot)*chipValue
	uReturn := -(economicImpactFuture - gapBonus)
	uLoss := -chipValue
	uPass := uReturn*probReturn + uLoss*probDies

	// Chip-rich bots prefer to milk the pot.
	bias := 0.0
	if me.Chips > greedBiasThreshold {
		bias = greedBias
	}

	diff := uTake - (uPass - bias)

	e.logger.Debug("bot decision",
		"bot", me.Name,
		"card", card,
		"pot", e.pot,
		"pointDelta", pointDelta,
		"gapBonus", gapBonus,
		"probReturn", probReturn,
		"uTake", uTake,
		"uPass", uPass,
		"take", diff > 0)

	return diff > 0
}

// runEquity estimates the future value of the card's rank neighbors: +15 for
// a neighbor already in hand, -2 for a dead neighbor in someone's pile,
// otherwise a probability-weighted partial value discounted by the chance
// the neighbor sits in the face-down removed pile.
func (e *Engine) runEquity(card int, hand []int, visible map[int]bool) float64 {
	equity := 0.0
	for _, n := range []int{card - 1, card + 1} {
		switch {
		case slices.Contains(hand, n):
			equity += neighborInHandEquity
		case visible[n]:
			equity += neighborDeadEquity
		default:
			unknowns := len(e.deck) + e.cfg.CardsRemoved
			probInPlay := 1.0
			if unknowns > 0 {
				probInPlay = 1.0 - float64(e.cfg.CardsRemoved)/float64(unknowns)
			}
			equity += float64(n) * hiddenNeighborWeight * probInPlay
		}
	}
	return equity
}

// predictOpponentAction estimates the probability an opponent takes the card
// at the projected pot size. This is a calibrated lookup table, not a derived
// probability; the exact values matter for behavioral parity.
func (e *Engine) predictOpponentAction(opponent *Player, card, projectedPot int) float64 {
	if opponent.Chips == 0 {
		return 1.0 // forced
	}

	// A card that lowers their score is one they want.
	oppScore := scoring.Score(opponent.Cards)
	oppNewScore := scoring.Score(append(slices.Clone(opponent.Cards), card))
	if oppNewScore < oppScore {
		if opponent.Chips < 3 {
			return 1.0
		}
		return 0.8
	}

	// Chip desperation: nearly broke players grab a pot to survive.
	if opponent.Chips <= 2 && projectedPot >= 3 {
		return 0.9
	}

	// A pot covering half the card's points is tempting on its own.
	if float64(projectedPot) > float64(card)/2.0 {
		return 0.6
	}

	return 0.1
}
