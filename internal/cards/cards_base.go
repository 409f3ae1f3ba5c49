package cards

import (
	"fmt"

	"github.com/kingdomhq/kingdom-server-go/internal/engine"
	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
)

func free() *int {
	zero := 0
	return &zero
}

// cellar: discard any number of cards, then draw that many. The +1 action is
// a catalog grant.
func cellar(ctx *engine.Context) error {
	hand := ctx.Sources().GetSource(engine.ZoneHand, ctx.PlayerID)
	if len(hand) == 0 {
		return nil
	}
	answer, err := ctx.Yield(effects.SelectCard(ctx.PlayerID, "Discard any number of cards", effects.Restriction{
		Zone:    engine.ZoneHand,
		MaxCost: -1,
		Count:   len(hand),
	}))
	if err != nil {
		return err
	}
	for _, id := range answer.CardIDs {
		if _, err := ctx.Yield(effects.DiscardCard(ctx.PlayerID, id, engine.ZoneHand)); err != nil {
			return err
		}
	}
	if n := len(answer.CardIDs); n > 0 {
		if _, err := ctx.Yield(effects.DrawCard(ctx.PlayerID, n)); err != nil {
			return err
		}
	}
	return nil
}

// chapel: trash up to four cards from hand.
func chapel(ctx *engine.Context) error {
	answer, err := ctx.Yield(effects.SelectCard(ctx.PlayerID, "Trash up to 4 cards", effects.Restriction{
		Zone:    engine.ZoneHand,
		MaxCost: -1,
		Count:   4,
	}))
	if err != nil {
		return err
	}
	for _, id := range answer.CardIDs {
		if _, err := ctx.Yield(effects.TrashCard(ctx.PlayerID, id, engine.ZoneHand)); err != nil {
			return err
		}
	}
	return nil
}

// chancellor: may immediately put the deck into the discard pile.
func chancellor(ctx *engine.Context) error {
	deck := ctx.Sources().GetSource(engine.ZoneDeck, ctx.PlayerID)
	if len(deck) == 0 {
		return nil
	}
	answer, err := ctx.Yield(effects.UserPrompt(ctx.PlayerID, "Put your deck into your discard pile?", []string{"yes", "no"}, ""))
	if err != nil {
		return err
	}
	if answer.Option != "yes" {
		return nil
	}
	for _, id := range deck {
		if _, err := ctx.Yield(effects.MoveCard(ctx.PlayerID, id, engine.ZoneDeck, engine.ZoneDiscard).Nested()); err != nil {
			return err
		}
	}
	return nil
}

// workshop: gain a card costing up to four.
func workshop(ctx *engine.Context) error {
	return pickGain(ctx, 4)
}

// militia: each other player discards down to three cards in hand.
func militia(ctx *engine.Context) error {
	for _, target := range ctx.Targets() {
		hand := ctx.Sources().GetSource(engine.ZoneHand, target)
		excess := len(hand) - 3
		if excess <= 0 {
			continue
		}
		answer, err := ctx.Yield(effects.SelectCard(target, fmt.Sprintf("Discard %d cards", excess), effects.Restriction{
			Zone:    engine.ZoneHand,
			MaxCost: -1,
			Count:   excess,
			Exact:   true,
		}))
		if err != nil {
			return err
		}
		for _, id := range answer.CardIDs {
			if _, err := ctx.Yield(effects.DiscardCard(target, id, engine.ZoneHand)); err != nil {
				return err
			}
		}
	}
	return nil
}

// moneylender: may trash a copper from hand for +3 treasure.
func moneylender(ctx *engine.Context) error {
	var copperID string
	for _, id := range ctx.Sources().GetSource(engine.ZoneHand, ctx.PlayerID) {
		info, err := ctx.Library().Card(id)
		if err != nil {
			return err
		}
		if info.Spec.Key == "copper" {
			copperID = id
			break
		}
	}
	if copperID == "" {
		return nil
	}
	if _, err := ctx.Yield(effects.TrashCard(ctx.PlayerID, copperID, engine.ZoneHand)); err != nil {
		return err
	}
	_, err := ctx.Yield(effects.GainTreasure(ctx.PlayerID, 3))
	return err
}

// remodel: trash a card from hand, gain one costing up to two more.
func remodel(ctx *engine.Context) error {
	answer, err := ctx.Yield(effects.SelectCard(ctx.PlayerID, "Trash a card from your hand", effects.Restriction{
		Zone:    engine.ZoneHand,
		MaxCost: -1,
		Count:   1,
		Exact:   true,
	}))
	if err != nil {
		return err
	}
	if len(answer.CardIDs) == 0 {
		return nil
	}
	info, err := ctx.Library().Card(answer.CardIDs[0])
	if err != nil {
		return err
	}
	if _, err := ctx.Yield(effects.TrashCard(ctx.PlayerID, info.ID, engine.ZoneHand)); err != nil {
		return err
	}
	quote := ctx.Prices().ApplyRules(info.Spec)
	return pickGain(ctx, quote.Cost+2)
}

// throneRoom: play an action card from hand twice. Neither play spends an
// action point; the second play leaves the card where it is and is excluded
// from play statistics.
func throneRoom(ctx *engine.Context) error {
	answer, err := ctx.Yield(effects.SelectCard(ctx.PlayerID, "Play an action card twice", effects.Restriction{
		Zone:    engine.ZoneHand,
		MaxCost: -1,
		Types:   []string{engine.TypeAction},
		Count:   1,
		Exact:   true,
	}))
	if err != nil {
		return err
	}
	if len(answer.CardIDs) == 0 {
		return nil
	}
	cardID := answer.CardIDs[0]
	if err := ctx.Invoke(engine.ActionPlayCard, engine.InvokeContext{
		PlayerID:   ctx.PlayerID,
		CardID:     cardID,
		ActionCost: free(),
	}); err != nil {
		return err
	}
	return ctx.Invoke(engine.ActionPlayCard, engine.InvokeContext{
		PlayerID:   ctx.PlayerID,
		CardID:     cardID,
		ActionCost: free(),
		NoRelocate: true,
		NoStats:    true,
	})
}

// bridge: every card costs one less for the rest of the turn.
func bridge(ctx *engine.Context) error {
	_, err := ctx.Yield(effects.ModifyCost(-1, nil, effects.ExpireTurnEnd))
	return err
}

// councilRoom: each other player draws a card. Not an attack, so immunity
// does not apply.
func councilRoom(ctx *engine.Context) error {
	for _, other := range ctx.Turn().Others(ctx.PlayerID) {
		if _, err := ctx.Yield(effects.DrawCard(other, 1).Nested()); err != nil {
			return err
		}
	}
	return nil
}

// witch: each other player gains a curse.
func witch(ctx *engine.Context) error {
	for _, target := range ctx.Targets() {
		if err := ctx.Invoke(engine.ActionGainCard, engine.InvokeContext{
			PlayerID: target,
			CardKey:  "curse",
		}); err != nil {
			return err
		}
	}
	return nil
}

// pickGain lets the player gain a card from the supply costing up to
// maxCost. No eligible pile is a graceful no-op.
func pickGain(ctx *engine.Context, maxCost int) error {
	eligible := ctx.Finder().Find(engine.ZoneSupply, ctx.PlayerID, engine.CardFilter{MaxCost: maxCost})
	if len(eligible) == 0 {
		return nil
	}
	answer, err := ctx.Yield(effects.SelectCard(ctx.PlayerID, fmt.Sprintf("Gain a card costing up to %d", maxCost), effects.Restriction{
		Zone:    engine.ZoneSupply,
		MaxCost: maxCost,
		Count:   1,
		Exact:   true,
	}))
	if err != nil {
		return err
	}
	if len(answer.CardIDs) == 0 {
		return nil
	}
	return ctx.Invoke(engine.ActionGainCard, engine.InvokeContext{
		PlayerID: ctx.PlayerID,
		CardKey:  answer.CardIDs[0],
	})
}
