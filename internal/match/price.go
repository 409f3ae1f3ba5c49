package match

import (
	"sync"

	"github.com/kingdomhq/kingdom-server-go/internal/engine"
)

type priceRule struct {
	id   int
	rule engine.PriceRule
}

// PriceController evaluates card prices under the currently registered cost
// rules. Rules run in registration order, each seeing the previous rule's
// output; any rule may also mark the card as restricted.
type PriceController struct {
	mu     sync.Mutex
	rules  []priceRule
	nextID int
}

// NewPriceController creates a controller with no rules registered.
func NewPriceController() *PriceController {
	return &PriceController{}
}

// ApplyRules implements engine.CardPriceController. Effective cost never
// drops below zero.
func (pc *PriceController) ApplyRules(card engine.CardSpec) engine.PriceQuote {
	pc.mu.Lock()
	rules := append([]priceRule(nil), pc.rules...)
	pc.mu.Unlock()

	quote := engine.PriceQuote{Cost: card.Cost}
	for _, r := range rules {
		cost, restricted := r.rule(card, quote.Cost)
		if cost < 0 {
			cost = 0
		}
		quote.Cost = cost
		if restricted {
			quote.Restricted = true
		}
	}
	return quote
}

// RegisterRule implements engine.CardPriceController. The returned
// unsubscribe function is idempotent.
func (pc *PriceController) RegisterRule(rule engine.PriceRule) func() {
	pc.mu.Lock()
	id := pc.nextID
	pc.nextID++
	pc.rules = append(pc.rules, priceRule{id: id, rule: rule})
	pc.mu.Unlock()

	return func() {
		pc.mu.Lock()
		defer pc.mu.Unlock()
		for i, r := range pc.rules {
			if r.id == id {
				pc.rules = append(pc.rules[:i], pc.rules[i+1:]...)
				return
			}
		}
	}
}
