package cards

import (
	"github.com/kingdomhq/kingdom-server-go/internal/engine"
	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
)

// scripts maps card keys to the scripted part of their procedure. Cards not
// listed here are fully described by their catalog grants.
var scripts = map[string]engine.CardProc{
	"cellar":       cellar,
	"chapel":       chapel,
	"chancellor":   chancellor,
	"workshop":     workshop,
	"militia":      militia,
	"moneylender":  moneylender,
	"remodel":      remodel,
	"throne_room":  throneRoom,
	"bridge":       bridge,
	"council_room": councilRoom,
	"witch":        witch,
}

// BuildRegistry produces a card procedure for every catalog entry: the
// catalog's basic grants first (+cards, +actions, +buys, +coins), then the
// card's script if it has one. Every key in the catalog gets a procedure, so
// a missing key at play time is always a contract violation rather than an
// unscripted card.
func BuildRegistry(catalog []engine.CardSpec) map[string]engine.CardProc {
	procs := make(map[string]engine.CardProc, len(catalog))
	for _, spec := range catalog {
		spec := spec
		script := scripts[spec.Key]
		procs[spec.Key] = func(ctx *engine.Context) error {
			if err := applyGrants(ctx, spec); err != nil {
				return err
			}
			if script != nil {
				return script(ctx)
			}
			return nil
		}
	}
	return procs
}

func applyGrants(ctx *engine.Context, spec engine.CardSpec) error {
	if spec.Cards > 0 {
		if _, err := ctx.Yield(effects.DrawCard(ctx.PlayerID, spec.Cards)); err != nil {
			return err
		}
	}
	if spec.Actions > 0 {
		if _, err := ctx.Yield(effects.GainAction(ctx.PlayerID, spec.Actions)); err != nil {
			return err
		}
	}
	if spec.Buys > 0 {
		if _, err := ctx.Yield(effects.GainBuy(ctx.PlayerID, spec.Buys)); err != nil {
			return err
		}
	}
	if spec.Coins > 0 {
		if _, err := ctx.Yield(effects.GainTreasure(ctx.PlayerID, spec.Coins)); err != nil {
			return err
		}
	}
	return nil
}
