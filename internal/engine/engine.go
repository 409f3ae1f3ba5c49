package engine

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kingdomhq/kingdom-server-go/internal/engine/rules"
)

// Contract violations abort the current top-level action. Already-applied
// effects stay committed; there is no rollback.
var (
	ErrUnknownAction  = errors.New("engine: unknown action")
	ErrUnknownCardKey = errors.New("engine: no procedure registered for card key")
	ErrMissingCard    = errors.New("engine: action requires a card")
	ErrNotAllowed     = errors.New("engine: action not allowed")
)

// CardProc is the scripted procedure for one card key. Procedures
// communicate with the driver loop only by yielding effects through the
// context; any call-and-get-a-result step is a yielded input request.
type CardProc func(ctx *Context) error

// Collaborators bundles the external contracts an engine consumes. The
// engine never reaches around them.
type Collaborators struct {
	Library CardLibrary
	Sources CardSourceController
	Prices  CardPriceController
	Finder  CardFinder
	GameLog LogManager
	Input   InputHandler
}

// Engine resolves actions for a single match: it owns the action dispatch
// table, the reaction engine, and the turn state machine. All resolution for
// one match runs strictly sequentially; concurrency exists only between
// independent matches.
type Engine struct {
	logger *zap.Logger
	collab Collaborators

	turn      *rules.TurnManager
	reactions *rules.ReactionManager
	bus       *rules.EventBus

	actions map[ActionKind]actionProc
	procs   map[string]CardProc

	mu        sync.Mutex
	playStats map[string]int
	expiring  []func() // cost-rule unsubscribes due at end of turn
}

// New creates an engine for the given players and card procedures. The
// dispatch table is built once here; invoking an action the table does not
// know is a contract violation.
func New(logger *zap.Logger, collab Collaborators, players []string, procs map[string]CardProc) *Engine {
	e := &Engine{
		logger:    logger,
		collab:    collab,
		turn:      rules.NewTurnManager(players),
		reactions: rules.NewReactionManager(),
		bus:       rules.NewEventBus(),
		procs:     procs,
		playStats: make(map[string]int),
	}
	e.actions = buildDispatchTable()
	return e
}

// Turn exposes the turn/phase state machine.
func (e *Engine) Turn() *rules.TurnManager { return e.turn }

// Reactions exposes the reaction template registry.
func (e *Engine) Reactions() *rules.ReactionManager { return e.reactions }

// Events exposes the observation-only trigger bus used by the server shell.
func (e *Engine) Events() *rules.EventBus { return e.bus }

// Library exposes the card library collaborator.
func (e *Engine) Library() CardLibrary { return e.collab.Library }

// Sources exposes the card source collaborator.
func (e *Engine) Sources() CardSourceController { return e.collab.Sources }

// Prices exposes the card price collaborator.
func (e *Engine) Prices() CardPriceController { return e.collab.Prices }

// Finder exposes the find-cards collaborator.
func (e *Engine) Finder() CardFinder { return e.collab.Finder }

// PlayCount returns how many times the card key has been played.
func (e *Engine) PlayCount(key string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playStats[key]
}

func (e *Engine) recordPlay(key string) {
	e.mu.Lock()
	e.playStats[key]++
	e.mu.Unlock()
}

func (e *Engine) deferUntilTurnEnd(unsubscribe func()) {
	e.mu.Lock()
	e.expiring = append(e.expiring, unsubscribe)
	e.mu.Unlock()
}

func (e *Engine) expireTurnRules() {
	e.mu.Lock()
	expiring := e.expiring
	e.expiring = nil
	e.mu.Unlock()
	for _, unsubscribe := range expiring {
		unsubscribe()
	}
}

// Invoke resolves one top-level action to completion, including every
// reaction and nested invocation it sets off. The reaction context created
// here is shared by the whole resolution episode and discarded afterwards.
func (e *Engine) Invoke(kind ActionKind, ictx InvokeContext) error {
	if ictx.Reactions == nil {
		ictx.Reactions = rules.NewReactionContext()
	}
	run := &Run{engine: e, rctx: ictx.Reactions}
	if err := e.invoke(run, kind, ictx); err != nil {
		e.logger.Error("action aborted",
			zap.String("action", kind.String()),
			zap.String("player", ictx.PlayerID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (e *Engine) invoke(run *Run, kind ActionKind, ictx InvokeContext) error {
	proc, ok := e.actions[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, kind)
	}
	if ictx.Reactions == nil {
		ictx.Reactions = run.rctx
	}
	return proc(e, run, ictx)
}

// runCardProc looks up and runs the procedure registered under the card key,
// sharing the caller's yield handle so nested effects join the same
// resolution episode.
func (e *Engine) runCardProc(run *Run, key, playerID, cardID string) error {
	proc, ok := e.procs[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCardKey, key)
	}
	ctx := &Context{run: run, engine: e, PlayerID: playerID, CardID: cardID}
	return proc(ctx)
}
