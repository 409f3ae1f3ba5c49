package rules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
)

// ReactionProc is the coroutine body of a reaction. It communicates with the
// driver loop only by yielding effects, exactly like a card procedure.
type ReactionProc func(y effects.Yielder, trigger Trigger, rctx ReactionContext) error

// ReactionTemplate is a registered, conditional listener for one event type,
// scoped to a player. Templates are created when a card's reactive ability
// becomes live and removed when the card leaves that zone, or after firing
// when Once is set.
type ReactionTemplate struct {
	// ID identifies the registration for targeted removal, conventionally
	// "<cardKey>:<cardInstanceID>:<eventType>".
	ID           string
	CardKey      string
	PlayerID     string // owner; empty means match-wide
	ListeningFor EventType

	// Once removes the template after it fires, whether or not the owner
	// declined it.
	Once bool
	// Compulsory reactions cannot be declined by the owner.
	Compulsory bool
	// AllowMultipleInstances permits duplicate registrations under the same
	// ID, e.g. two copies of the same card in play.
	AllowMultipleInstances bool

	Condition func(Trigger) bool
	Proc      ReactionProc
}

type reactionEntry struct {
	seq      uint64
	template ReactionTemplate
}

// TriggerRequest carries one raised trigger plus the episode state the
// reaction engine needs to resolve it.
type TriggerRequest struct {
	Trigger Trigger
	Ctx     ReactionContext
	// PlayerOrder lists all player ids in table order starting with the
	// triggering player. Simultaneous reactions resolve in this order,
	// matching how physical card games break ties.
	PlayerOrder []string
}

// ReactionManager stores reaction templates and resolves raised triggers
// against them.
type ReactionManager struct {
	mu      sync.Mutex
	entries []reactionEntry
	nextSeq uint64
}

// NewReactionManager creates an empty reaction manager.
func NewReactionManager() *ReactionManager {
	return &ReactionManager{}
}

// Register adds a template. When the id collides with an existing
// registration and AllowMultipleInstances is false, the new registration
// replaces the old one.
func (rm *ReactionManager) Register(template ReactionTemplate) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if !template.AllowMultipleInstances {
		rm.removeLocked(template.ID)
	}
	rm.entries = append(rm.entries, reactionEntry{seq: rm.nextSeq, template: template})
	rm.nextSeq++
}

// Unregister removes every registration under the id. Removing an unknown id
// is a no-op.
func (rm *ReactionManager) Unregister(id string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.removeLocked(id)
}

func (rm *ReactionManager) removeLocked(id string) {
	kept := rm.entries[:0]
	for _, e := range rm.entries {
		if e.template.ID != id {
			kept = append(kept, e)
		}
	}
	rm.entries = kept
}

func (rm *ReactionManager) removeSeqLocked(seq uint64) {
	for i, e := range rm.entries {
		if e.seq == seq {
			rm.entries = append(rm.entries[:i], rm.entries[i+1:]...)
			return
		}
	}
}

// Registered reports whether any registration exists under the id.
func (rm *ReactionManager) Registered(id string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for _, e := range rm.entries {
		if e.template.ID == id {
			return true
		}
	}
	return false
}

// Len returns the number of effective registrations.
func (rm *ReactionManager) Len() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.entries)
}

// RunTrigger resolves one raised trigger: it snapshots the matching
// templates, orders them deterministically (triggering player first, then
// table order, registration order within a player), evaluates conditions,
// asks owners of non-compulsory reactions whether to fire, and runs the
// coroutines of those that do. Fired Once templates are removed whether or
// not they were declined.
//
// The snapshot makes it safe for a running reaction to register or
// unregister templates, including itself; entries removed mid-episode are
// skipped when their turn comes.
func (rm *ReactionManager) RunTrigger(y effects.Yielder, req TriggerRequest) error {
	snapshot := rm.match(req)

	for _, e := range snapshot {
		if !rm.alive(e.seq) {
			continue
		}
		t := e.template
		if t.Condition != nil && !t.Condition(req.Trigger) {
			continue
		}

		declined := false
		if !t.Compulsory {
			prompt := fmt.Sprintf("React with %s?", t.CardKey)
			answer, err := y.Yield(effects.UserPrompt(t.PlayerID, prompt, []string{"yes", "no"}, t.CardKey).Nested())
			if err != nil {
				return err
			}
			declined = answer.Declined || answer.Option != "yes"
		}

		if t.Once {
			rm.mu.Lock()
			rm.removeSeqLocked(e.seq)
			rm.mu.Unlock()
		}

		if declined || t.Proc == nil {
			continue
		}
		if err := t.Proc(y, req.Trigger, req.Ctx); err != nil {
			return err
		}
	}
	return nil
}

func (rm *ReactionManager) match(req TriggerRequest) []reactionEntry {
	rank := make(map[string]int, len(req.PlayerOrder))
	for i, id := range req.PlayerOrder {
		rank[id] = i
	}
	playerRank := func(id string) int {
		if r, ok := rank[id]; ok {
			return r
		}
		// Match-wide templates resolve with the triggering player's own.
		return 0
	}

	rm.mu.Lock()
	var matched []reactionEntry
	for _, e := range rm.entries {
		if e.template.ListeningFor == req.Trigger.Type {
			matched = append(matched, e)
		}
	}
	rm.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		ri, rj := playerRank(matched[i].template.PlayerID), playerRank(matched[j].template.PlayerID)
		if ri != rj {
			return ri < rj
		}
		return matched[i].seq < matched[j].seq
	})
	return matched
}

func (rm *ReactionManager) alive(seq uint64) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for _, e := range rm.entries {
		if e.seq == seq {
			return true
		}
	}
	return false
}
