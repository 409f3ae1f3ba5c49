package effects

// Kind identifies the category of an effect. The driver loop is the only
// component that interprets kinds; everything else treats effects as opaque
// command records.
type Kind int

const (
	KindDrawCard Kind = iota
	KindDiscardCard
	KindGainCard
	KindMoveCard
	KindTrashCard
	KindRevealCard
	KindGainAction
	KindGainBuy
	KindGainTreasure
	KindSelectCard
	KindUserPrompt
	KindShuffleDeck
	KindCardPlayed
	KindEndTurn
	KindModifyCost
)

var kindNames = map[Kind]string{
	KindDrawCard:     "DRAW_CARD",
	KindDiscardCard:  "DISCARD_CARD",
	KindGainCard:     "GAIN_CARD",
	KindMoveCard:     "MOVE_CARD",
	KindTrashCard:    "TRASH_CARD",
	KindRevealCard:   "REVEAL_CARD",
	KindGainAction:   "GAIN_ACTION",
	KindGainBuy:      "GAIN_BUY",
	KindGainTreasure: "GAIN_TREASURE",
	KindSelectCard:   "SELECT_CARD",
	KindUserPrompt:   "USER_PROMPT",
	KindShuffleDeck:  "SHUFFLE_DECK",
	KindCardPlayed:   "CARD_PLAYED",
	KindEndTurn:      "END_TURN",
	KindModifyCost:   "MODIFY_COST",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// CostExpiry controls how long a cost modification registered by a
// ModifyCost effect stays in force.
type CostExpiry int

const (
	// ExpireTurnEnd removes the rule when the current turn ends.
	ExpireTurnEnd CostExpiry = iota
	// ExpireNever keeps the rule until explicitly unregistered.
	ExpireNever
)

// Restriction constrains which cards satisfy a SelectCard request.
// A zero field means "no constraint on that axis".
type Restriction struct {
	Zone    string   // zone to pick from (hand, discard, supply, ...)
	MaxCost int      // maximum card cost, -1 for unlimited
	Types   []string // required type tags, any match qualifies
	Count   int      // number of cards to pick
	Exact   bool     // player must pick exactly Count (when possible)
}

// Effect is an immutable, tagged description of one atomic game-state change
// or input request. Effects are created by card procedures and the action
// dispatch table, yielded to the driver loop, and consumed exactly once.
type Effect struct {
	Kind   Kind
	Player string // acting or affected player
	CardID string // card instance, when the effect targets a specific card
	Key    string // card key, for supply-level effects (gain) and play markers
	Count  int    // numeric argument (cards to draw, counters to add, ...)

	// Zone movement.
	From string
	To   string

	// Input requests.
	Prompt   string
	Options  []string
	Content  string
	Restrict Restriction

	// Cost modification.
	Amount int
	Filter []string // type tags the modification applies to; empty means all
	Expiry CostExpiry

	// Trigger annotations.
	WasPurchase bool

	// Logging flags. Constructors default both to true so a procedure that
	// never thinks about logging still produces an auditable trail.
	Log     bool
	RootLog bool
}

// Answer carries a player's response to an input-requesting effect. The
// zero value means "nothing chosen", which procedures must treat as a valid
// empty selection, never an error.
type Answer struct {
	CardIDs  []string
	Option   string
	Declined bool
}

// Yielder is the single channel through which procedures communicate with
// the driver loop. State-mutating effects return a zero Answer; input
// requests block until the owning player has answered.
type Yielder interface {
	Yield(Effect) (Answer, error)
}

// DrawCard draws count cards for the player.
func DrawCard(player string, count int) Effect {
	return Effect{Kind: KindDrawCard, Player: player, Count: count, Log: true, RootLog: true}
}

// DiscardCard discards one card instance from the given zone.
func DiscardCard(player, cardID, from string) Effect {
	return Effect{Kind: KindDiscardCard, Player: player, CardID: cardID, From: from, Log: true, RootLog: true}
}

// GainCard gains a new copy of key from the supply into the destination zone.
func GainCard(player, key, to string) Effect {
	return Effect{Kind: KindGainCard, Player: player, Key: key, To: to, Log: true, RootLog: true}
}

// GainPurchasedCard gains a card flagged as a purchase, so reactions can
// distinguish buys from other gains.
func GainPurchasedCard(player, key, to string) Effect {
	e := GainCard(player, key, to)
	e.WasPurchase = true
	return e
}

// MoveCard moves one card instance between zones.
func MoveCard(player, cardID, from, to string) Effect {
	return Effect{Kind: KindMoveCard, Player: player, CardID: cardID, From: from, To: to, Log: true, RootLog: true}
}

// TrashCard removes one card instance from the game.
func TrashCard(player, cardID, from string) Effect {
	return Effect{Kind: KindTrashCard, Player: player, CardID: cardID, From: from, Log: true, RootLog: true}
}

// RevealCard shows one card instance to all players.
func RevealCard(player, cardID, from string) Effect {
	return Effect{Kind: KindRevealCard, Player: player, CardID: cardID, From: from, Log: true, RootLog: true}
}

// GainAction adjusts the player's action counter by count (may be negative).
func GainAction(player string, count int) Effect {
	return Effect{Kind: KindGainAction, Player: player, Count: count, Log: true, RootLog: true}
}

// GainBuy adjusts the player's buy counter by count.
func GainBuy(player string, count int) Effect {
	return Effect{Kind: KindGainBuy, Player: player, Count: count, Log: true, RootLog: true}
}

// GainTreasure adjusts the player's treasure counter by count.
func GainTreasure(player string, count int) Effect {
	return Effect{Kind: KindGainTreasure, Player: player, Count: count, Log: true, RootLog: true}
}

// SelectCard asks the player to choose cards subject to a restriction.
func SelectCard(player, prompt string, r Restriction) Effect {
	return Effect{Kind: KindSelectCard, Player: player, Prompt: prompt, Restrict: r, Log: true, RootLog: true}
}

// UserPrompt asks the player a free-form question with fixed options.
func UserPrompt(player, prompt string, options []string, content string) Effect {
	return Effect{Kind: KindUserPrompt, Player: player, Prompt: prompt, Options: options, Content: content, Log: true, RootLog: true}
}

// ShuffleDeck shuffles the player's deck.
func ShuffleDeck(player string) Effect {
	return Effect{Kind: KindShuffleDeck, Player: player, Log: true, RootLog: true}
}

// CardPlayed marks that a card has been played; the driver records play
// statistics and raises the cardPlayed trigger when it interprets this.
func CardPlayed(player, cardID, key string) Effect {
	return Effect{Kind: KindCardPlayed, Player: player, CardID: cardID, Key: key, Log: true, RootLog: true}
}

// EndTurn marks the end of the player's turn in the game log.
func EndTurn(player string) Effect {
	return Effect{Kind: KindEndTurn, Player: player, Log: true, RootLog: true}
}

// ModifyCost registers a temporary cost adjustment for cards whose type tags
// match the filter. An empty filter matches every card.
func ModifyCost(amount int, filter []string, expiry CostExpiry) Effect {
	return Effect{Kind: KindModifyCost, Amount: amount, Filter: filter, Expiry: expiry, Log: true, RootLog: true}
}

// Quiet returns a copy of the effect with logging suppressed.
func (e Effect) Quiet() Effect {
	e.Log = false
	e.RootLog = false
	return e
}

// Nested returns a copy attributed to a nested resolution rather than the
// top-level action in the game log.
func (e Effect) Nested() Effect {
	e.RootLog = false
	return e
}

// IsInput reports whether the effect suspends the procedure for player input.
func (e Effect) IsInput() bool {
	return e.Kind == KindSelectCard || e.Kind == KindUserPrompt
}
