package server

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kingdomhq/kingdom-server-go/internal/cards"
	"github.com/kingdomhq/kingdom-server-go/internal/engine"
	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
	"github.com/kingdomhq/kingdom-server-go/internal/gamelog"
	"github.com/kingdomhq/kingdom-server-go/internal/match"
	"github.com/kingdomhq/kingdom-server-go/internal/storage"
)

// ErrResolutionInFlight is returned when an action arrives while the match
// is still resolving a previous one. Intermediate match state is not safe to
// re-enter, so concurrent requests are rejected rather than interleaved.
var ErrResolutionInFlight = errors.New("server: a resolution is already in flight")

// MatchPersister saves a finished match. Nil-able for unpersisted matches.
type MatchPersister interface {
	SaveMatch(ctx context.Context, record storage.MatchRecord, transcript []gamelog.Entry) error
}

type actionRequest struct {
	kind  engine.ActionKind
	ictx  engine.InvokeContext
	reply chan error
}

// Runner owns one running match: the engine, the match aggregate, the game
// log and the prompt broker. All resolution for the match happens on the
// runner's single goroutine; actions submitted while one is resolving are
// rejected.
type Runner struct {
	logger *zap.Logger

	matchID string
	eng     *engine.Engine
	state   *match.State
	glog    *gamelog.Manager
	binder  *cards.ReactionBinder
	broker  *PromptBroker
	repo    MatchPersister

	busy     atomic.Bool
	requests chan actionRequest
	done     chan struct{}
}

// NewRunner assembles a match and its engine from the card catalog.
func NewRunner(logger *zap.Logger, sender PromptSender, repo MatchPersister, matchID string, players []string, seed int64) (*Runner, error) {
	catalog, err := cards.Catalog()
	if err != nil {
		return nil, err
	}
	state, err := match.New(match.Config{
		MatchID: matchID,
		Players: players,
		Catalog: catalog,
		Seed:    seed,
	})
	if err != nil {
		return nil, err
	}

	glog := gamelog.NewManager(logger)
	r := &Runner{
		logger:   logger,
		matchID:  matchID,
		state:    state,
		glog:     glog,
		binder:   cards.NewReactionBinder(),
		repo:     repo,
		requests: make(chan actionRequest),
		done:     make(chan struct{}),
	}
	r.broker = NewPromptBroker(sender, r.validateAnswer)

	r.eng = engine.New(logger, engine.Collaborators{
		Library: state,
		Sources: state,
		Prices:  state.Prices(),
		Finder:  state,
		GameLog: glog,
		Input:   r.broker,
	}, players, cards.BuildRegistry(catalog))

	if err := r.binder.Sync(r.eng); err != nil {
		return nil, err
	}
	return r, nil
}

// Engine exposes the match engine, primarily for state views.
func (r *Runner) Engine() *engine.Engine { return r.eng }

// State exposes the match aggregate for read-only views.
func (r *Runner) State() *match.State { return r.state }

// Broker exposes the prompt broker for the transport's read loop.
func (r *Runner) Broker() *PromptBroker { return r.broker }

// Log exposes the game log transcript.
func (r *Runner) Log() *gamelog.Manager { return r.glog }

// Done is closed when the match has finished.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Submit hands an action to the match goroutine and waits for the
// resolution to finish. It fails fast with ErrResolutionInFlight when a
// resolution is already running: answers to outstanding prompts go through
// the broker, not here. Busy-ness is an explicit flag held for the whole
// resolution; channel readiness alone cannot distinguish a busy match from
// a runner goroutine between select iterations.
func (r *Runner) Submit(kind engine.ActionKind, ictx engine.InvokeContext) error {
	if !r.busy.CompareAndSwap(false, true) {
		return ErrResolutionInFlight
	}
	defer r.busy.Store(false)

	req := actionRequest{kind: kind, ictx: ictx, reply: make(chan error, 1)}
	select {
	case r.requests <- req:
		return <-req.reply
	case <-r.done:
		return ErrMatchClosed
	}
}

// Run processes actions until the match ends or the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	defer r.broker.Close()
	for {
		select {
		case <-ctx.Done():
			close(r.done)
			return
		case req := <-r.requests:
			err := r.resolve(req)
			req.reply <- err
			if r.finished() {
				r.persist(ctx)
				close(r.done)
				return
			}
		}
	}
}

func (r *Runner) resolve(req actionRequest) error {
	if req.ictx.PlayerID != r.eng.Turn().ActivePlayer() {
		return engine.ErrNotAllowed
	}
	if err := r.eng.Invoke(req.kind, req.ictx); err != nil {
		return err
	}
	return r.binder.Sync(r.eng)
}

// finished applies the standard end condition: the province pile empty, or
// three supply piles empty.
func (r *Runner) finished() bool {
	return r.state.SupplyCount("province") == 0 || r.state.EmptyPiles() >= 3
}

func (r *Runner) persist(ctx context.Context) {
	if r.repo == nil {
		return
	}
	record := storage.MatchRecord{
		MatchID:    r.matchID,
		Players:    r.state.Players(),
		Turns:      r.eng.Turn().TurnNumber(),
		FinishedAt: time.Now(),
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := r.repo.SaveMatch(saveCtx, record, r.glog.Entries()); err != nil {
		r.logger.Error("failed to persist match",
			zap.String("match_id", r.matchID),
			zap.Error(err),
		)
	}
}

// validateAnswer re-prompts on malformed selections so the engine only ever
// resumes with an answer matching the requested shape.
func (r *Runner) validateAnswer(playerID string, req effects.Effect, answer effects.Answer) bool {
	switch req.Kind {
	case effects.KindSelectCard:
		if answer.Declined {
			return true
		}
		return r.state.ValidSelection(playerID, req.Restrict, answer.CardIDs)
	case effects.KindUserPrompt:
		if answer.Declined || answer.Option == "" {
			return true
		}
		for _, opt := range req.Options {
			if opt == answer.Option {
				return true
			}
		}
		return false
	}
	return true
}
