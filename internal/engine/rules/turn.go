package rules

import "fmt"

// Phase represents the phases of a deck-building turn.
type Phase int

const (
	PhaseAction Phase = iota
	PhaseBuy
	PhaseCleanup
)

var phaseNames = map[Phase]string{
	PhaseAction:  "ACTION",
	PhaseBuy:     "BUY",
	PhaseCleanup: "CLEANUP",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// phaseSequence is the fixed turn structure; it wraps back to the action
// phase of the next player's turn after cleanup.
var phaseSequence = [3]Phase{PhaseAction, PhaseBuy, PhaseCleanup}

// PhaseCount is the number of phases in one turn.
const PhaseCount = len(phaseSequence)

// TurnManager tracks the shared turn/phase state of one match: phase cursor,
// turn number, active player and the per-turn counters. It is owned by the
// match aggregate and mutated only through the engine's phase-advance
// procedure.
type TurnManager struct {
	phaseIndex  int
	turnNumber  int
	playerIndex int
	players     []string

	actions  int
	buys     int
	treasure int
}

// NewTurnManager creates a turn manager at turn 1, action phase, with the
// first listed player active and counters reset.
func NewTurnManager(players []string) *TurnManager {
	tm := &TurnManager{turnNumber: 1, players: players}
	tm.ResetCounters()
	return tm
}

// CurrentPhase returns the phase currently in progress.
func (tm *TurnManager) CurrentPhase() Phase {
	return phaseSequence[tm.phaseIndex]
}

// TurnNumber returns the current turn number (1-based).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// ActivePlayer returns the player whose turn it is.
func (tm *TurnManager) ActivePlayer() string {
	if len(tm.players) == 0 {
		return ""
	}
	return tm.players[tm.playerIndex]
}

// Players returns all player ids in table order.
func (tm *TurnManager) Players() []string {
	return tm.players
}

// OrderFrom returns all player ids in table order starting with the given
// player. An unknown id yields the plain table order.
func (tm *TurnManager) OrderFrom(playerID string) []string {
	start := 0
	for i, id := range tm.players {
		if id == playerID {
			start = i
			break
		}
	}
	order := make([]string, 0, len(tm.players))
	for i := 0; i < len(tm.players); i++ {
		order = append(order, tm.players[(start+i)%len(tm.players)])
	}
	return order
}

// Others returns all player ids except the given one, in table order
// starting from the player to their left.
func (tm *TurnManager) Others(playerID string) []string {
	order := tm.OrderFrom(playerID)
	if len(order) > 0 && order[0] == playerID {
		return order[1:]
	}
	return order
}

// Actions returns the active player's remaining action points.
func (tm *TurnManager) Actions() int { return tm.actions }

// Buys returns the active player's remaining buys.
func (tm *TurnManager) Buys() int { return tm.buys }

// Treasure returns the active player's accumulated treasure.
func (tm *TurnManager) Treasure() int { return tm.treasure }

// AddActions adjusts the action counter by delta.
func (tm *TurnManager) AddActions(delta int) { tm.actions += delta }

// AddBuys adjusts the buy counter by delta.
func (tm *TurnManager) AddBuys(delta int) { tm.buys += delta }

// AddTreasure adjusts the treasure counter by delta.
func (tm *TurnManager) AddTreasure(delta int) { tm.treasure += delta }

// ResetCounters restores the start-of-turn counter values.
func (tm *TurnManager) ResetCounters() {
	tm.actions = 1
	tm.buys = 1
	tm.treasure = 0
}

// AdvancePhase moves the phase cursor one step. When the cursor wraps past
// cleanup it rotates the active player, resets the counters, and increments
// the turn number if the rotation wrapped past the last player. It returns
// the phase entered and whether the advance started a new turn.
func (tm *TurnManager) AdvancePhase() (Phase, bool) {
	tm.phaseIndex++
	if tm.phaseIndex < len(phaseSequence) {
		return tm.CurrentPhase(), false
	}

	tm.phaseIndex = 0
	tm.ResetCounters()
	if len(tm.players) > 0 {
		tm.playerIndex++
		if tm.playerIndex >= len(tm.players) {
			tm.playerIndex = 0
			tm.turnNumber++
		}
	}
	return tm.CurrentPhase(), true
}
