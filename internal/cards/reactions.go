package cards

import (
	"fmt"

	"github.com/kingdomhq/kingdom-server-go/internal/engine"
	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
	"github.com/kingdomhq/kingdom-server-go/internal/engine/rules"
)

// reactionProviders maps card keys to builders for the reaction template
// that becomes live while one instance of the card sits in its owner's hand.
var reactionProviders = map[string]func(lib engine.CardLibrary, owner, cardID string) rules.ReactionTemplate{
	"moat": moatReaction,
}

// moatReaction: when another player plays an attack, the owner may reveal
// the moat to be unaffected by it.
func moatReaction(lib engine.CardLibrary, owner, cardID string) rules.ReactionTemplate {
	return rules.ReactionTemplate{
		ID:           templateID("moat", cardID, rules.EventCardPlayed),
		CardKey:      "moat",
		PlayerID:     owner,
		ListeningFor: rules.EventCardPlayed,
		Condition: func(t rules.Trigger) bool {
			if t.PlayerID == owner {
				return false
			}
			spec, err := lib.ByKey(t.CardKey)
			if err != nil {
				return false
			}
			return spec.HasType(engine.TypeAttack)
		},
		Proc: func(y effects.Yielder, t rules.Trigger, rctx rules.ReactionContext) error {
			if _, err := y.Yield(effects.RevealCard(owner, cardID, engine.ZoneHand).Nested()); err != nil {
				return err
			}
			rctx.SetImmune(owner)
			return nil
		},
	}
}

func templateID(key, cardID string, event rules.EventType) string {
	return fmt.Sprintf("%s:%s:%s", key, cardID, event)
}

// ReactionBinder keeps the reaction registry in step with card movement:
// a template is live exactly while its card sits in a zone where the ability
// applies. Sync is called after every resolved action.
type ReactionBinder struct {
	synced map[string]bool
}

// NewReactionBinder creates a binder with nothing synced.
func NewReactionBinder() *ReactionBinder {
	return &ReactionBinder{synced: make(map[string]bool)}
}

// Sync registers templates for reactive cards that entered a live zone and
// unregisters those whose cards left it. Templates registered by other means
// are untouched.
func (b *ReactionBinder) Sync(eng *engine.Engine) error {
	lib := eng.Library()
	desired := make(map[string]rules.ReactionTemplate)

	for _, player := range eng.Turn().Players() {
		for _, cardID := range eng.Sources().GetSource(engine.ZoneHand, player) {
			info, err := lib.Card(cardID)
			if err != nil {
				return err
			}
			provider, ok := reactionProviders[info.Spec.Key]
			if !ok {
				continue
			}
			template := provider(lib, player, cardID)
			desired[template.ID] = template
		}
	}

	for id := range b.synced {
		if _, ok := desired[id]; !ok {
			eng.Reactions().Unregister(id)
			delete(b.synced, id)
		}
	}
	for id, template := range desired {
		if !b.synced[id] {
			eng.Reactions().Register(template)
			b.synced[id] = true
		}
	}
	return nil
}
