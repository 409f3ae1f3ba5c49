package engine

import (
	"fmt"

	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
	"github.com/kingdomhq/kingdom-server-go/internal/engine/rules"
)

// Run is the driver loop for one resolution episode. It consumes every
// yielded effect exactly once: state-mutating effects are applied through
// the collaborators and then offered to the reaction engine; input requests
// suspend the calling procedure until the owning player answers. Nested
// procedures share the Run, so an inner resolution fully unwinds before the
// outer one resumes.
type Run struct {
	engine *Engine
	rctx   rules.ReactionContext

	// autoSkips counts phase auto-advances within this episode so a match
	// where nobody can act parks instead of cascading forever.
	autoSkips int
}

var _ effects.Yielder = (*Run)(nil)

// ReactionCtx returns the episode's shared reaction context.
func (r *Run) ReactionCtx() rules.ReactionContext { return r.rctx }

// Yield interprets one effect. For input requests the returned answer is
// the player's response; for everything else it is the zero Answer.
func (r *Run) Yield(e effects.Effect) (effects.Answer, error) {
	if e.IsInput() {
		r.record(e, "")
		return r.engine.collab.Input.Ask(e.Player, e)
	}
	if err := r.apply(e); err != nil {
		return effects.Answer{}, err
	}
	return effects.Answer{}, nil
}

func (r *Run) apply(e effects.Effect) error {
	eng := r.engine
	src := eng.collab.Sources

	switch e.Kind {
	case effects.KindDrawCard:
		drawn := 0
		for i := 0; i < e.Count; i++ {
			_, reshuffled, ok := src.DrawOne(e.Player)
			if reshuffled {
				r.record(effects.ShuffleDeck(e.Player).Nested(), "reshuffles")
			}
			if !ok {
				break
			}
			drawn++
		}
		r.record(e, fmt.Sprintf("draws %d", drawn))
		if drawn > 0 {
			t := rules.NewTrigger(rules.EventCardDrawn, e.Player)
			t.Amount = drawn
			return r.raise(t)
		}
		return nil

	case effects.KindDiscardCard:
		if e.CardID == "" {
			return fmt.Errorf("%w: discard", ErrMissingCard)
		}
		if err := src.MoveCard(e.Player, e.CardID, e.From, ZoneDiscard); err != nil {
			return err
		}
		r.record(e, "discards a card")
		t := rules.NewTrigger(rules.EventCardDiscarded, e.Player)
		t.CardID = e.CardID
		t.FromZone = e.From
		return r.raise(t)

	case effects.KindGainCard:
		id, ok := src.GainFromSupply(e.Player, e.Key, e.To)
		if !ok {
			// Empty supply pile is not an error; the dependent steps are
			// simply skipped.
			return nil
		}
		r.record(e, fmt.Sprintf("gains %s", e.Key))
		t := rules.NewTrigger(rules.EventCardGained, e.Player)
		t.CardID = id
		t.CardKey = e.Key
		t.ToZone = e.To
		t.WasPurchase = e.WasPurchase
		return r.raise(t)

	case effects.KindMoveCard:
		if e.CardID == "" {
			return fmt.Errorf("%w: move", ErrMissingCard)
		}
		if err := src.MoveCard(e.Player, e.CardID, e.From, e.To); err != nil {
			return err
		}
		r.record(e, "")
		return nil

	case effects.KindTrashCard:
		if e.CardID == "" {
			return fmt.Errorf("%w: trash", ErrMissingCard)
		}
		if err := src.TrashCard(e.Player, e.CardID, e.From); err != nil {
			return err
		}
		r.record(e, "trashes a card")
		t := rules.NewTrigger(rules.EventCardTrashed, e.Player)
		t.CardID = e.CardID
		t.FromZone = e.From
		return r.raise(t)

	case effects.KindRevealCard:
		r.record(e, "reveals a card")
		t := rules.NewTrigger(rules.EventCardRevealed, e.Player)
		t.CardID = e.CardID
		t.FromZone = e.From
		return r.raise(t)

	case effects.KindGainAction:
		eng.turn.AddActions(e.Count)
		r.record(e, fmt.Sprintf("actions %+d", e.Count))
		return nil

	case effects.KindGainBuy:
		eng.turn.AddBuys(e.Count)
		r.record(e, fmt.Sprintf("buys %+d", e.Count))
		return nil

	case effects.KindGainTreasure:
		eng.turn.AddTreasure(e.Count)
		r.record(e, fmt.Sprintf("treasure %+d", e.Count))
		return nil

	case effects.KindShuffleDeck:
		src.Shuffle(e.Player)
		r.record(e, "shuffles their deck")
		return nil

	case effects.KindCardPlayed:
		r.record(e, fmt.Sprintf("plays %s", e.Key))
		t := rules.NewTrigger(rules.EventCardPlayed, e.Player)
		t.CardID = e.CardID
		t.CardKey = e.Key
		return r.raise(t)

	case effects.KindEndTurn:
		r.record(e, "ends their turn")
		eng.expireTurnRules()
		t := rules.NewTrigger(rules.EventEndTurn, e.Player)
		return r.raise(t)

	case effects.KindModifyCost:
		amount, filter := e.Amount, e.Filter
		unsubscribe := eng.collab.Prices.RegisterRule(func(card CardSpec, cost int) (int, bool) {
			if len(filter) > 0 {
				matched := false
				for _, tag := range filter {
					if card.HasType(tag) {
						matched = true
						break
					}
				}
				if !matched {
					return cost, false
				}
			}
			cost += amount
			if cost < 0 {
				cost = 0
			}
			return cost, false
		})
		if e.Expiry == effects.ExpireTurnEnd {
			eng.deferUntilTurnEnd(unsubscribe)
		}
		r.record(e, fmt.Sprintf("card costs %+d", e.Amount))
		return nil

	default:
		return fmt.Errorf("%w: effect kind %s", ErrUnknownAction, e.Kind)
	}
}

// raise offers a trigger to the reaction engine (which may run further
// procedures through this same Run) and then mirrors it on the event bus.
func (r *Run) raise(t rules.Trigger) error {
	err := r.engine.reactions.RunTrigger(r, rules.TriggerRequest{
		Trigger:     t,
		Ctx:         r.rctx,
		PlayerOrder: r.engine.turn.OrderFrom(t.PlayerID),
	})
	r.engine.bus.Publish(t)
	return err
}

// record writes the effect to the game log honoring its logging flags.
func (r *Run) record(e effects.Effect, message string) {
	if !e.Log || r.engine.collab.GameLog == nil {
		return
	}
	entry := LogEntry{Player: e.Player, Kind: e.Kind, Message: message}
	if e.RootLog {
		r.engine.collab.GameLog.RootLog(entry)
		return
	}
	r.engine.collab.GameLog.Log(entry)
}
