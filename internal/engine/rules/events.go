package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a trigger event.
type EventType string

const (
	EventCardPlayed    EventType = "CARD_PLAYED"
	EventCardGained    EventType = "CARD_GAINED"
	EventCardDrawn     EventType = "CARD_DRAWN"
	EventCardDiscarded EventType = "CARD_DISCARDED"
	EventCardTrashed   EventType = "CARD_TRASHED"
	EventCardRevealed  EventType = "CARD_REVEALED"
	EventStartTurn     EventType = "START_TURN"
	EventEndTurn       EventType = "END_TURN"
)

// Outcome records what a fired reaction decided for a player within one
// resolution episode.
type Outcome string

// OutcomeImmunity marks a player as immune to the triggering action for the
// rest of the current resolution episode.
const OutcomeImmunity Outcome = "immunity"

// ReactionContext accumulates per-player outcomes across all reactions fired
// for one triggering event. It is scoped to a single top-level action
// invocation and discarded afterwards.
type ReactionContext map[string]Outcome

// NewReactionContext creates an empty reaction context.
func NewReactionContext() ReactionContext {
	return make(ReactionContext)
}

// SetImmune marks the player as immune for this episode.
func (rc ReactionContext) SetImmune(playerID string) {
	rc[playerID] = OutcomeImmunity
}

// Immune reports whether the player gained immunity this episode.
func (rc ReactionContext) Immune(playerID string) bool {
	return rc[playerID] == OutcomeImmunity
}

// Trigger is an ephemeral event record raised when a state-changing effect
// is applied. It is consumed synchronously by the reaction engine and never
// persisted.
type Trigger struct {
	Type        EventType
	PlayerID    string // acting player
	CardID      string // affected card instance, if any
	CardKey     string // catalog key of the affected card
	FromZone    string
	ToZone      string
	WasPurchase bool
	Amount      int
	Timestamp   time.Time
}

// NewTrigger creates a trigger with the timestamp populated.
func NewTrigger(eventType EventType, playerID string) Trigger {
	return Trigger{Type: eventType, PlayerID: playerID, Timestamp: time.Now()}
}

// Listener defines a callback that observes raised triggers. Listeners are
// observation-only: they run after the reaction engine and must not mutate
// match state.
type Listener func(Trigger)

// EventBus provides a synchronous publish/subscribe fan-out used by the
// server shell to mirror engine activity to connected clients.
type EventBus struct {
	mu         sync.RWMutex
	listeners  map[int]Listener
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[int]Listener)}
}

// Subscribe registers a listener for all triggers and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
}

// Publish delivers the trigger to all registered listeners synchronously.
func (bus *EventBus) Publish(trigger Trigger) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, listener := range bus.listeners {
		listener(trigger)
	}
}
