package engine

import (
	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
	"github.com/kingdomhq/kingdom-server-go/internal/engine/rules"
)

// Context is the invocation context handed to a card procedure: the acting
// player, the card instance being resolved, and the accessors the procedure
// may consult. All communication back to the engine goes through Yield.
type Context struct {
	run    *Run
	engine *Engine

	PlayerID string
	CardID   string
}

// Yield hands one effect to the driver loop. Input-requesting effects block
// until the owning player has answered; the procedure must treat the answer
// as opaque input rather than re-derive it from state.
func (c *Context) Yield(e effects.Effect) (effects.Answer, error) {
	return c.run.Yield(e)
}

// Reactions returns the resolution episode's shared reaction context, so a
// procedure can honor immunity outcomes earlier reactions recorded.
func (c *Context) Reactions() rules.ReactionContext {
	return c.run.rctx
}

// Invoke runs another named action inside this resolution. The inner action
// runs to completion, including its own reactions, before control returns.
func (c *Context) Invoke(kind ActionKind, ictx InvokeContext) error {
	if ictx.Reactions == nil {
		ictx.Reactions = c.run.rctx
	}
	return c.engine.invoke(c.run, kind, ictx)
}

// Library exposes the card library collaborator.
func (c *Context) Library() CardLibrary { return c.engine.collab.Library }

// Sources exposes the card source collaborator.
func (c *Context) Sources() CardSourceController { return c.engine.collab.Sources }

// Finder exposes the find-cards collaborator.
func (c *Context) Finder() CardFinder { return c.engine.collab.Finder }

// Prices exposes the card price collaborator.
func (c *Context) Prices() CardPriceController { return c.engine.collab.Prices }

// Turn exposes the turn state machine.
func (c *Context) Turn() *rules.TurnManager { return c.engine.turn }

// RegisterReaction registers a reaction template with the reaction engine.
func (c *Context) RegisterReaction(template rules.ReactionTemplate) {
	c.engine.reactions.Register(template)
}

// UnregisterReaction removes a reaction template by id. Idempotent.
func (c *Context) UnregisterReaction(id string) {
	c.engine.reactions.Unregister(id)
}

// Targets returns the other players in table order starting from the acting
// player's left, excluding anyone who gained immunity this episode. Attack
// procedures loop over this list.
func (c *Context) Targets() []string {
	var targets []string
	for _, id := range c.engine.turn.Others(c.PlayerID) {
		if c.run.rctx.Immune(id) {
			continue
		}
		targets = append(targets, id)
	}
	return targets
}
