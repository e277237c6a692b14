// Package game defines the shared contract between the room layer and the
// concrete game engines. The orchestrator only ever sees this interface; it
// dispatches by variant tag and never inspects a concrete engine.
package game

// Variant identifies a game engine implementation.
type Variant string

const (
	VariantPickPass Variant = "pickpass"
	VariantBidWiser Variant = "bidwiser"
)

// String returns the string representation of the variant.
func (v Variant) String() string {
	return string(v)
}

// Action is the single action shape shared by all variants. PickPass reads
// Move ("take" or "pass"); BidWiser reads Card.
type Action struct {
	Move string `json:"move,omitempty"`
	Card int    `json:"card,omitempty"`
}

// PickPass move values.
const (
	MoveTake = "take"
	MovePass = "pass"
)

// Engine is the polymorphic slot a room holds while a game is running.
//
// Apply validates the claimed identity against the engine's own notion of
// whose turn it is and returns the (possibly unchanged) state snapshot. An
// empty identity is reserved for the orchestrator's own bot moves and skips
// the turn check; external events always carry a name.
type Engine interface {
	Variant() Variant
	State() any
	Apply(identity string, action Action) any
	Over() bool

	// BotTurn reports whether the engine is waiting on an autonomous move
	// that the orchestrator must drive. Engines whose bots act synchronously
	// inside Apply always report false.
	BotTurn() bool
	BotAction() Action
}
