package bidwiser

import (
	"math"
	rand "math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/hexagrid/parlour/internal/scoring"
)

// Endgame threshold: at or below this many cards the decision space is small
// enough to search adversarially instead of estimating.
const endgameHandSize = 6

// SmartBot picks the card to commit for a round. In the endgame it searches
// for the move with the best worst-case outcome; earlier it maximises
// expected value against a weighted prediction of the opponent's reply.
type SmartBot struct {
	rng     *rand.Rand
	logger  *log.Logger
	history map[int][]int
}

// NewSmartBot creates a bot with an empty opponent-move memory.
func NewSmartBot(rng *rand.Rand, logger *log.Logger) *SmartBot {
	history := make(map[int][]int, handSize)
	for prize := 1; prize <= handSize; prize++ {
		history[prize] = []int{}
	}
	return &SmartBot{
		rng:     rng,
		logger:  logger.WithPrefix("smartbot"),
		history: history,
	}
}

// RecordMove stores the opponent's play for the given prize. The memory is
// not consumed by Decide yet; it is kept as the data point future opponent
// modelling will read.
func (b *SmartBot) RecordMove(prize, opponentCard int) {
	b.history[prize] = append(b.history[prize], opponentCard)
}

// OpponentMoves returns the recorded opponent plays for a prize value.
func (b *SmartBot) OpponentMoves(prize int) []int {
	return append([]int{}, b.history[prize]...)
}

// Decide returns the card to play from hand against the opponent's remaining
// hand, given the pot at stake (prize plus carry-over), the prizes still to
// come and both running scores.
func (b *SmartBot) Decide(hand, opponentHand []int, pot int, remainingPrizes []int, ownScore, opponentScore float64) int {
	if len(hand) <= endgameHandSize {
		return b.minimaxMove(hand, opponentHand, pot, remainingPrizes, ownScore, opponentScore)
	}
	return b.heuristicMove(hand, opponentHand, pot)
}

// minimaxMove picks the candidate whose worst-case outcome across every
// opponent reply is best. The outcome of a hypothetical round is the running
// score differential plus the immediate payoff differential plus the
// difference of remaining hand sums once both hypothetical cards are gone.
// Ties among equally good candidates are broken uniformly at random.
func (b *SmartBot) minimaxMove(hand, opponentHand []int, pot int, remainingPrizes []int, ownScore, opponentScore float64) int {
	candidates := slices.Clone(hand)
	slices.SortFunc(candidates, func(a, b int) int { return b - a })

	handSum := sum(hand)
	opponentSum := sum(opponentHand)

	maxMinOutcome := math.Inf(-1)
	var bestOptions []int

	for _, candidate := range candidates {
		minOutcome := math.Inf(1)
		for _, reply := range opponentHand {
			ownWon, oppWon, tie := scoring.ResolveRound(candidate, reply, pot)
			currentDiff := float64(ownWon - oppWon)

			futureDiff := 0.0
			if len(remainingPrizes) > 0 {
				futureDiff = float64((handSum - candidate) - (opponentSum - reply))
			}

			// A tie on the very last round is worth nothing to either side.
			if tie && len(remainingPrizes) == 0 {
				currentDiff = 0
			}

			outcome := (ownScore - opponentScore) + currentDiff + futureDiff
			if outcome < minOutcome {
				minOutcome = outcome
			}
		}

		if minOutcome > maxMinOutcome {
			maxMinOutcome = minOutcome
			bestOptions = []int{candidate}
		} else if minOutcome == maxMinOutcome {
			bestOptions = append(bestOptions, candidate)
		}
	}

	choice := bestOptions[b.rng.IntN(len(bestOptions))]
	b.logger.Debug("minimax move", "card", choice, "worstCase", maxMinOutcome, "options", len(bestOptions))
	return choice
}

// heuristicMove weights the opponent's plausible replies (big pots pull their
// bids toward their top cards; small pots toward cards near the pot's value)
// and maximises the probability-weighted utility of each candidate. A small
// random jitter keeps the bot from being perfectly predictable.
func (b *SmartBot) heuristicMove(hand, opponentHand []int, pot int) int {
	effectiveValue := min(pot, 15)
	maxOpponent := slices.Max(opponentHand)

	weights := make(map[int]float64, len(opponentHand))
	totalWeight := 0.0
	for _, card := range opponentHand {
		w := 1.0
		if pot > 10 {
			if card >= maxOpponent-1 {
				w += 3.0
			}
			if card < 5 {
				w *= 0.1
			}
		} else if abs(card-effectiveValue) <= 1 {
			w += 2.0
		}
		weights[card] = w
		totalWeight += w
	}

	bestCard := hand[0]
	bestEV := math.Inf(-1)

	for _, myCard := range hand {
		ev := 0.0
		for _, oppCard := range opponentHand {
			prob := weights[oppCard] / totalWeight
			ownWon, oppWon, tie := scoring.ResolveRound(myCard, oppCard, pot)

			cost := float64(myCard)
			var utility float64
			if tie {
				// A tie burns the card for no score at all.
				utility = -(cost * 0.9)
			} else {
				utility = float64(ownWon-oppWon) - cost*0.8
			}
			ev += utility * prob
		}
		ev += b.rng.Float64()*0.2 - 0.1

		if ev > bestEV {
			bestEV = ev
			bestCard = myCard
		}
	}

	b.logger.Debug("heuristic move", "card", bestCard, "ev", bestEV, "pot", pot)
	return bestCard
}

func sum(cards []int) int {
	total := 0
	for _, c := range cards {
		total += c
	}
	return total
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
