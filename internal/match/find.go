package match

import (
	"github.com/kingdomhq/kingdom-server-go/internal/engine"
	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
)

// Find implements engine.CardFinder. For the supply zone it returns card
// keys of non-empty piles; for every other zone it returns card instance
// ids. Cost filtering uses the effective price under the active cost rules.
func (s *State) Find(zone, playerID string, filter engine.CardFilter) []string {
	var out []string
	for _, ref := range s.GetSource(zone, playerID) {
		var spec engine.CardSpec
		if zone == engine.ZoneSupply {
			sp, err := s.ByKey(ref)
			if err != nil {
				continue
			}
			spec = sp
		} else {
			info, err := s.Card(ref)
			if err != nil {
				continue
			}
			spec = info.Spec
		}
		if !s.matches(spec, filter) {
			continue
		}
		out = append(out, ref)
	}
	return out
}

func (s *State) matches(spec engine.CardSpec, filter engine.CardFilter) bool {
	if filter.MaxCost >= 0 {
		quote := s.prices.ApplyRules(spec)
		if quote.Cost > filter.MaxCost {
			return false
		}
	}
	if len(filter.Types) == 0 {
		return true
	}
	for _, tag := range filter.Types {
		if spec.HasType(tag) {
			return true
		}
	}
	return false
}

// ValidSelection reports whether a set of answers satisfies a selection
// restriction: every pick must come from the restricted zone and pass the
// cost and type filters, the pick count must not exceed the restriction,
// and an exact restriction must be met in full when enough cards qualify.
func (s *State) ValidSelection(playerID string, r effects.Restriction, picks []string) bool {
	eligible := s.Find(r.Zone, playerID, engine.CardFilter{MaxCost: r.MaxCost, Types: r.Types})
	allowed := make(map[string]int, len(eligible))
	for _, id := range eligible {
		allowed[id]++
	}
	if len(picks) > r.Count {
		return false
	}
	if r.Exact && len(picks) < r.Count && len(eligible) >= r.Count {
		return false
	}
	for _, id := range picks {
		if allowed[id] == 0 {
			return false
		}
		allowed[id]--
	}
	return true
}
