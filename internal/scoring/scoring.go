// Package scoring holds the pure scoring rules shared by the game engines.
package scoring

import "sort"

// Score computes the run-aware point total of a card collection: cards are
// considered in ascending order and a card only counts when it does not
// extend an unbroken run, so 5-6-7 scores 5 while 5 and 7 score 12. The
// input order is irrelevant and the input slice is not modified.
func Score(cards []int) int {
	if len(cards) == 0 {
		return 0
	}

	sorted := make([]int, len(cards))
	copy(sorted, cards)
	sort.Ints(sorted)

	score := 0
	previous := -1
	for _, card := range sorted {
		if card != previous+1 {
			score += card
		}
		previous = card
	}
	return score
}

// ResolveRound awards the pot to the higher of two simultaneously revealed
// cards. Equal cards are a tie with zero payoff to either side; carrying the
// pot over is the caller's responsibility.
func ResolveRound(cardA, cardB, pot int) (aPoints, bPoints int, tie bool) {
	switch {
	case cardA > cardB:
		return pot, 0, false
	case cardB > cardA:
		return 0, pot, false
	default:
		return 0, 0, true
	}
}
