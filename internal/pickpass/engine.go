// Package pickpass implements the pick-or-pass card game: a face-up card is
// offered around the table, each player either takes it with the pot or pays
// a chip to pass, and the lowest run-aware score wins once the deck runs out.
package pickpass

import (
	"fmt"
	rand "math/rand/v2"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/hexagrid/parlour/internal/game"
	"github.com/hexagrid/parlour/internal/scoring"
)

// Config holds the table rules. The defaults match the classic setup.
type Config struct {
	MinCard      int
	MaxCard      int
	CardsRemoved int
	StartChips   int
	Seats        int
}

// DefaultConfig returns the standard rules: cards 3-35, nine removed at deal,
// eleven starting chips, five seats.
func DefaultConfig() Config {
	return Config{
		MinCard:      3,
		MaxCard:      35,
		CardsRemoved: 9,
		StartChips:   11,
		Seats:        5,
	}
}

// Player is one seat at the table. Mutated only through Apply.
type Player struct {
	Name  string `json:"name"`
	Cards []int  `json:"cards"`
	Chips int    `json:"chips"`
	Human bool   `json:"is_human"`
}

// Standing is one leaderboard row, computed once at game end.
type Standing struct {
	Name       string `json:"name"`
	CardTotal  int    `json:"card_total"`
	Chips      int    `json:"chips"`
	FinalScore int    `json:"final_score"`
	Human      bool   `json:"is_human"`
}

// State is the full snapshot broadcast to clients after every transition.
type State struct {
	Pot               int        `json:"pot"`
	CurrentCard       int        `json:"current_card"`
	CurrentPlayer     int        `json:"current_player"`
	CurrentPlayerName string     `json:"current_player_name"`
	DeckCount         int        `json:"deck_count"`
	GameOver          bool       `json:"game_over"`
	Players           []Player   `json:"players"`
	Leaderboard       []Standing `json:"leaderboard"`
}

// Seats left over after the humans are seated are filled with bots.
var botRoster = [...]string{"Vector", "Matrix", "Tensor", "Scalar", "Logit"}

// Engine is the pick-or-pass state machine. Not safe for concurrent use;
// the room layer serialises all mutations.
type Engine struct {
	cfg         Config
	players     []*Player
	deck        []int
	pot         int
	currentCard int
	current     int
	over        bool
	leaderboard []Standing
	rng         *rand.Rand
	logger      *log.Logger
}

// New deals a fresh game for the given human players, filling the remaining
// seats with bots. The deck is shuffled, cfg.CardsRemoved cards are set aside
// face down, the first card is flipped and a random seat starts.
func New(humans []string, cfg Config, rng *rand.Rand, logger *log.Logger) *Engine {
	e := &Engine{
		cfg:    cfg,
		rng:    rng,
		logger: logger.WithPrefix("pickpass"),
	}

	for _, name := range humans {
		e.players = append(e.players, &Player{Name: name, Cards: []int{}, Chips: cfg.StartChips, Human: true})
	}
	for i := 0; len(e.players) < cfg.Seats; i++ {
		name := fmt.Sprintf("Bot-%d", i)
		if i < len(botRoster) {
			name = botRoster[i]
		}
		e.players = append(e.players, &Player{Name: name, Cards: []int{}, Chips: cfg.StartChips, Human: false})
	}

	full := make([]int, 0, cfg.MaxCard-cfg.MinCard+1)
	for c := cfg.MinCard; c <= cfg.MaxCard; c++ {
		full = append(full, c)
	}
	rng.Shuffle(len(full), func(i, j int) {
		full[i], full[j] = full[j], full[i]
	})
	e.deck = full[cfg.CardsRemoved:]

	e.currentCard = e.deck[0]
	e.deck = e.deck[1:]
	e.current = rng.IntN(len(e.players))

	e.logger.Debug("dealt new game",
		"players", len(e.players),
		"deck", len(e.deck),
		"firstCard", e.currentCard,
		"startingSeat", e.current)

	return e
}

// Variant implements game.Engine.
func (e *Engine) Variant() game.Variant {
	return game.VariantPickPass
}

// Over implements game.Engine.
func (e *Engine) Over() bool {
	return e.over
}

// State implements game.Engine.
func (e *Engine) State() any {
	return e.Snapshot()
}

// Snapshot returns a deep copy of the current game state.
func (e *Engine) Snapshot() State {
	players := make([]Player, len(e.players))
	for i, p := range e.players {
		players[i] = Player{
			Name:  p.Name,
			Cards: append([]int{}, p.Cards...),
			Chips: p.Chips,
			Human: p.Human,
		}
	}

	return State{
		Pot:               e.pot,
		CurrentCard:       e.currentCard,
		CurrentPlayer:     e.current,
		CurrentPlayerName: e.players[e.current].Name,
		DeckCount:         len(e.deck),
		GameOver:          e.over,
		Players:           players,
		Leaderboard:       append([]Standing{}, e.leaderboard...),
	}
}

// Apply implements game.Engine. An action whose identity does not match the
// current player is a silent no-op that returns the unchanged snapshot; this
// is the sole turn-ownership guard. An empty identity skips the check and is
// only used by the orchestrator when driving bot moves.
func (e *Engine) Apply(identity string, action game.Action) any {
	if e.over {
		return e.Snapshot()
	}
	if identity != "" && e.players[e.current].Name != identity {
		return e.Snapshot()
	}
	return e.apply(action.Move)
}

func (e *Engine) apply(move string) State {
	actor := e.players[e.current]

	switch move {
	case game.MoveTake:
		actor.Cards = append(actor.Cards, e.currentCard)
		actor.Chips += e.pot
		e.pot = 0
		e.current = (e.current + 1) % len(e.players)

		if len(e.deck) == 0 {
			e.endGame()
		} else {
			e.currentCard = e.deck[0]
			e.deck = e.deck[1:]
		}

	case game.MovePass:
		if actor.Chips > 0 {
			actor.Chips--
			e.pot++
			e.current = (e.current + 1) % len(e.players)
		} else {
			// A player with no chips can never pass.
			return e.apply(game.MoveTake)
		}
	}

	return e.Snapshot()
}

// endGame freezes the leaderboard: final score is the run-aware card total
// minus remaining chips, ranked ascending. Ties keep seat order.
func (e *Engine) endGame() {
	e.over = true
	e.leaderboard = make([]Standing, 0, len(e.players))
	for _, p := range e.players {
		cardTotal := scoring.Score(p.Cards)
		e.leaderboard = append(e.leaderboard, Standing{
			Name:       p.Name,
			CardTotal:  cardTotal,
			Chips:      p.Chips,
			FinalScore: cardTotal - p.Chips,
			Human:      p.Human,
		})
	}
	sort.SliceStable(e.leaderboard, func(i, j int) bool {
		return e.leaderboard[i].FinalScore < e.leaderboard[j].FinalScore
	})

	e.logger.Debug("game over", "winner", e.leaderboard[0].Name, "score", e.leaderboard[0].FinalScore)
}

// BotTurn implements game.Engine.
func (e *Engine) BotTurn() bool {
	return !e.over && !e.players[e.current].Human
}

// BotAction implements game.Engine. It must only be called when BotTurn
// reports true.
func (e *Engine) BotAction() game.Action {
	if e.decideTake() {
		return game.Action{Move: game.MoveTake}
	}
	return game.Action{Move: game.MovePass}
}
