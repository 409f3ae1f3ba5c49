package engine

import (
	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
)

// Zone names used throughout the engine. Zones are owned by the match
// aggregate; the engine only ever names them.
const (
	ZoneDeck    = "deck"
	ZoneHand    = "hand"
	ZoneDiscard = "discard"
	ZonePlay    = "play"
	ZoneSupply  = "supply"
	ZoneTrash   = "trash"
)

// Card type tags recognized by the engine's phase logic.
const (
	TypeAction   = "action"
	TypeTreasure = "treasure"
	TypeVictory  = "victory"
	TypeCurse    = "curse"
	TypeAttack   = "attack"
	TypeReaction = "reaction"
)

// CardSpec is the catalog entry for a card key.
type CardSpec struct {
	Key   string
	Name  string
	Cost  int
	Types []string
	// Basic grants applied when the card is played, before any scripted
	// procedure runs.
	Cards    int
	Actions  int
	Buys     int
	Coins    int
	VP       int
	Supply   int // starting supply pile size
}

// HasType reports whether the spec carries the given type tag.
func (c CardSpec) HasType(tag string) bool {
	for _, t := range c.Types {
		if t == tag {
			return true
		}
	}
	return false
}

// CardInfo describes one card instance in a match.
type CardInfo struct {
	ID    string
	Owner string
	Spec  CardSpec
}

// CardLibrary resolves card instances and catalog keys to metadata.
type CardLibrary interface {
	// Card resolves a card instance id.
	Card(id string) (CardInfo, error)
	// ByKey resolves a catalog key.
	ByKey(key string) (CardSpec, error)
	// AllCards lists the full catalog.
	AllCards() []CardSpec
}

// CardSourceController owns the ordered card lists of every zone. The engine
// reads zones freely but mutates them only while interpreting effects.
type CardSourceController interface {
	// GetSource returns the ordered card instance ids in the zone.
	GetSource(zone, playerID string) []string
	// MoveCard relocates one instance between zones.
	MoveCard(playerID, cardID, from, to string) error
	// DrawOne moves the top deck card to hand, reshuffling the discard pile
	// into the deck first when the deck is empty. It reports the drawn id,
	// whether a reshuffle happened, and whether a card was available at all.
	DrawOne(playerID string) (cardID string, reshuffled, ok bool)
	// Shuffle randomizes the player's deck.
	Shuffle(playerID string)
	// GainFromSupply takes one copy of key from the supply pile and places a
	// new instance in the destination zone. ok is false when the pile is
	// empty.
	GainFromSupply(playerID, key, to string) (cardID string, ok bool)
	// SupplyCount returns the remaining pile size for key.
	SupplyCount(key string) int
	// TrashCard removes the instance from the game.
	TrashCard(playerID, cardID, from string) error
}

// PriceQuote is the outcome of evaluating all active cost rules for a card.
type PriceQuote struct {
	Cost       int
	Restricted bool
}

// PriceRule adjusts a card's cost. Rules run in registration order, each
// seeing the output of the previous one; returning restricted forbids
// buying the card while the rule is active.
type PriceRule func(card CardSpec, cost int) (newCost int, restricted bool)

// CardPriceController evaluates card prices under the currently registered
// rules.
type CardPriceController interface {
	// ApplyRules computes the effective price of the card.
	ApplyRules(card CardSpec) PriceQuote
	// RegisterRule adds a rule and returns its unsubscribe function.
	RegisterRule(rule PriceRule) (unsubscribe func())
}

// CardFilter narrows a find-cards query. MaxCost < 0 means unlimited.
type CardFilter struct {
	MaxCost int
	Types   []string
}

// CardFinder answers zone queries used to build selection restrictions.
type CardFinder interface {
	// Find returns the instance ids (or, for the supply zone, card keys) in
	// the zone that satisfy the filter.
	Find(zone, playerID string, filter CardFilter) []string
}

// LogEntry is one game-log record produced while interpreting an effect.
type LogEntry struct {
	Player  string
	Kind    effects.Kind
	Message string
}

// LogManager records the game log. Entries flagged as root logs are
// attributed to the top-level action; others to nested resolutions.
type LogManager interface {
	RootLog(entry LogEntry)
	Log(entry LogEntry)
}

// InputHandler delivers input-requesting effects to the owning player and
// blocks until an answer arrives. The engine requires only that a request
// eventually resolves to an answer matching the requested shape; timeout and
// disconnect handling live behind this interface.
type InputHandler interface {
	Ask(playerID string, req effects.Effect) (effects.Answer, error)
}
