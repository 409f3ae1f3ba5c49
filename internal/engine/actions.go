package engine

import (
	"fmt"

	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
	"github.com/kingdomhq/kingdom-server-go/internal/engine/rules"
)

// ActionKind identifies a built-in procedure in the dispatch table.
type ActionKind int

const (
	ActionPlayCard ActionKind = iota
	ActionDrawCard
	ActionDiscardCard
	ActionBuyCard
	ActionGainCard
	ActionTrashCard
	ActionNextPhase
)

var actionNames = map[ActionKind]string{
	ActionPlayCard:    "playCard",
	ActionDrawCard:    "drawCard",
	ActionDiscardCard: "discardCard",
	ActionBuyCard:     "buyCard",
	ActionGainCard:    "gainCard",
	ActionTrashCard:   "trashCard",
	ActionNextPhase:   "nextPhase",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("action_%d", int(k))
}

// ActionKindByName resolves the wire-level action name used by clients.
func ActionKindByName(name string) (ActionKind, bool) {
	for kind, n := range actionNames {
		if n == name {
			return kind, true
		}
	}
	return 0, false
}

// InvokeContext carries the parameters of one action invocation.
type InvokeContext struct {
	PlayerID string
	CardID   string // target card instance, when the action needs one
	CardKey  string // target catalog key (buy/gain)
	Count    int    // numeric argument (cards to draw)
	From     string // source zone override
	To       string // destination zone override

	// Behavioral overrides.
	ActionCost *int // action points to spend playing the card; nil means 1
	NoRelocate bool // skip moving the card to the play area
	NoStats    bool // skip recording the play for statistics

	// Reactions is the resolution episode's shared context. Nil at the top
	// level; populated for nested invocations so inner effects see the same
	// immunity outcomes.
	Reactions rules.ReactionContext
}

type actionProc func(e *Engine, run *Run, ictx InvokeContext) error

// buildDispatchTable constructs the closed action registry. The table is
// built once at engine startup; every name the server accepts maps here.
func buildDispatchTable() map[ActionKind]actionProc {
	return map[ActionKind]actionProc{
		ActionPlayCard:    playCard,
		ActionDrawCard:    drawCard,
		ActionDiscardCard: discardCard,
		ActionBuyCard:     buyCard,
		ActionGainCard:    gainCard,
		ActionTrashCard:   trashCard,
		ActionNextPhase:   nextPhase,
	}
}

// playCard resolves playing one card: relocate it to the play area, spend an
// action point, record the play, raise the cardPlayed trigger, then run the
// card's own procedure. Reactions run before the card's scripted effect so a
// reaction can grant immunity before an attack resolves.
func playCard(e *Engine, run *Run, ictx InvokeContext) error {
	if ictx.CardID == "" {
		return fmt.Errorf("%w: playCard", ErrMissingCard)
	}
	info, err := e.collab.Library.Card(ictx.CardID)
	if err != nil {
		return err
	}

	if !ictx.NoRelocate {
		from := ictx.From
		if from == "" {
			from = ZoneHand
		}
		if _, err := run.Yield(effects.MoveCard(ictx.PlayerID, ictx.CardID, from, ZonePlay)); err != nil {
			return err
		}
	}

	cost := 1
	if ictx.ActionCost != nil {
		cost = *ictx.ActionCost
	}
	if cost != 0 && info.Spec.HasType(TypeAction) {
		if _, err := run.Yield(effects.GainAction(ictx.PlayerID, -cost)); err != nil {
			return err
		}
	}

	if !ictx.NoStats {
		e.recordPlay(info.Spec.Key)
	}

	if _, err := run.Yield(effects.CardPlayed(ictx.PlayerID, ictx.CardID, info.Spec.Key)); err != nil {
		return err
	}

	return e.runCardProc(run, info.Spec.Key, ictx.PlayerID, ictx.CardID)
}

func drawCard(e *Engine, run *Run, ictx InvokeContext) error {
	count := ictx.Count
	if count <= 0 {
		count = 1
	}
	_, err := run.Yield(effects.DrawCard(ictx.PlayerID, count))
	return err
}

func discardCard(e *Engine, run *Run, ictx InvokeContext) error {
	if ictx.CardID == "" {
		return fmt.Errorf("%w: discardCard", ErrMissingCard)
	}
	from := ictx.From
	if from == "" {
		from = ZoneHand
	}
	_, err := run.Yield(effects.DiscardCard(ictx.PlayerID, ictx.CardID, from))
	return err
}

// buyCard spends a buy and the card's effective price, then gains the card
// flagged as a purchase.
func buyCard(e *Engine, run *Run, ictx InvokeContext) error {
	if ictx.CardKey == "" {
		return fmt.Errorf("%w: buyCard", ErrMissingCard)
	}
	spec, err := e.collab.Library.ByKey(ictx.CardKey)
	if err != nil {
		return err
	}
	if e.turn.Buys() <= 0 {
		return fmt.Errorf("%w: no buys remaining", ErrNotAllowed)
	}
	if e.collab.Sources.SupplyCount(spec.Key) <= 0 {
		return fmt.Errorf("%w: %s pile is empty", ErrNotAllowed, spec.Key)
	}
	quote := e.collab.Prices.ApplyRules(spec)
	if quote.Restricted {
		return fmt.Errorf("%w: %s cannot be bought now", ErrNotAllowed, spec.Key)
	}
	if quote.Cost > e.turn.Treasure() {
		return fmt.Errorf("%w: %s costs %d", ErrNotAllowed, spec.Key, quote.Cost)
	}

	if quote.Cost > 0 {
		if _, err := run.Yield(effects.GainTreasure(ictx.PlayerID, -quote.Cost)); err != nil {
			return err
		}
	}
	if _, err := run.Yield(effects.GainBuy(ictx.PlayerID, -1)); err != nil {
		return err
	}
	_, err = run.Yield(effects.GainPurchasedCard(ictx.PlayerID, spec.Key, ZoneDiscard))
	return err
}

func gainCard(e *Engine, run *Run, ictx InvokeContext) error {
	if ictx.CardKey == "" {
		return fmt.Errorf("%w: gainCard", ErrMissingCard)
	}
	to := ictx.To
	if to == "" {
		to = ZoneDiscard
	}
	_, err := run.Yield(effects.GainCard(ictx.PlayerID, ictx.CardKey, to))
	return err
}

func trashCard(e *Engine, run *Run, ictx InvokeContext) error {
	if ictx.CardID == "" {
		return fmt.Errorf("%w: trashCard", ErrMissingCard)
	}
	from := ictx.From
	if from == "" {
		from = ZoneHand
	}
	_, err := run.Yield(effects.TrashCard(ictx.PlayerID, ictx.CardID, from))
	return err
}

// nextPhase advances the turn state machine one transition. Entering the
// action phase starts the next player's turn; the cleanup phase discards the
// play area and hand, redraws, and immediately recurses into the action
// transition because cleanup is not player-actionable. After every
// transition the auto-skip check runs.
func nextPhase(e *Engine, run *Run, ictx InvokeContext) error {
	phase, newTurn := e.turn.AdvancePhase()
	active := e.turn.ActivePlayer()

	if phase == rules.PhaseCleanup {
		if err := cleanupTurn(e, run, active); err != nil {
			return err
		}
		return nextPhase(e, run, InvokeContext{PlayerID: e.turn.ActivePlayer(), Reactions: run.rctx})
	}

	if e.collab.GameLog != nil {
		e.collab.GameLog.RootLog(LogEntry{
			Player:  active,
			Message: fmt.Sprintf("turn %d, %s phase", e.turn.TurnNumber(), phase),
		})
	}

	if newTurn {
		if err := run.raise(rules.NewTrigger(rules.EventStartTurn, active)); err != nil {
			return err
		}
	}

	return e.checkForPlayerActions(run)
}

// cleanupTurn discards the active player's play area and hand, draws the new
// hand of five, and emits the end-of-turn marker.
func cleanupTurn(e *Engine, run *Run, player string) error {
	for _, zone := range []string{ZonePlay, ZoneHand} {
		for _, id := range e.collab.Sources.GetSource(zone, player) {
			if _, err := run.Yield(effects.DiscardCard(player, id, zone).Nested()); err != nil {
				return err
			}
		}
	}
	if _, err := run.Yield(effects.DrawCard(player, 5).Nested()); err != nil {
		return err
	}
	_, err := run.Yield(effects.EndTurn(player))
	return err
}

// checkForPlayerActions auto-advances past a phase the active player cannot
// use: an action phase with no action cards or no action points, or a buy
// phase with no buys, no treasure, and no treasure cards. The check is
// re-entrant; one skip can cascade into another. The cascade is bounded to
// one full round of fully-skipped turns: past that point no player can act
// at all, and the match parks where it is instead of advancing forever.
func (e *Engine) checkForPlayerActions(run *Run) error {
	if run.autoSkips >= rules.PhaseCount*len(e.turn.Players()) {
		return nil
	}
	active := e.turn.ActivePlayer()
	skip := func() error {
		run.autoSkips++
		return e.invoke(run, ActionNextPhase, InvokeContext{PlayerID: active, Reactions: run.rctx})
	}
	switch e.turn.CurrentPhase() {
	case rules.PhaseAction:
		hand := e.collab.Finder.Find(ZoneHand, active, CardFilter{MaxCost: -1, Types: []string{TypeAction}})
		if e.turn.Actions() <= 0 || len(hand) == 0 {
			return skip()
		}
	case rules.PhaseBuy:
		if e.turn.Buys() <= 0 {
			return skip()
		}
		hand := e.collab.Finder.Find(ZoneHand, active, CardFilter{MaxCost: -1, Types: []string{TypeTreasure}})
		if e.turn.Treasure() == 0 && len(hand) == 0 {
			return skip()
		}
	}
	return nil
}
