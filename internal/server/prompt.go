package server

import (
	"errors"
	"sync"

	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
)

var (
	ErrNoPendingPrompt = errors.New("server: no pending prompt for player")
	ErrMatchClosed     = errors.New("server: match closed")
)

// PromptSender delivers an input request to a connected player.
type PromptSender interface {
	SendPrompt(playerID string, req effects.Effect) error
}

// AnswerValidator checks a selection answer against the request that asked
// for it; invalid answers cause a re-prompt rather than an engine error.
type AnswerValidator func(playerID string, req effects.Effect, answer effects.Answer) bool

type pendingPrompt struct {
	req    effects.Effect
	answer chan effects.Answer
}

// PromptBroker implements engine.InputHandler over whatever transport the
// hub provides. Ask parks the match goroutine until the owning player's
// answer arrives; the engine never sees timeouts or disconnects, only an
// eventual answer (a disconnect surfaces as an empty "no selection" answer
// when the match closes).
type PromptBroker struct {
	mu       sync.Mutex
	sender   PromptSender
	validate AnswerValidator
	pending  map[string]*pendingPrompt
	closed   chan struct{}
}

// NewPromptBroker creates a broker delivering prompts through sender.
func NewPromptBroker(sender PromptSender, validate AnswerValidator) *PromptBroker {
	return &PromptBroker{
		sender:   sender,
		validate: validate,
		pending:  make(map[string]*pendingPrompt),
		closed:   make(chan struct{}),
	}
}

// Ask implements engine.InputHandler.
func (pb *PromptBroker) Ask(playerID string, req effects.Effect) (effects.Answer, error) {
	for {
		p := &pendingPrompt{req: req, answer: make(chan effects.Answer, 1)}

		pb.mu.Lock()
		select {
		case <-pb.closed:
			pb.mu.Unlock()
			return effects.Answer{}, ErrMatchClosed
		default:
		}
		pb.pending[playerID] = p
		pb.mu.Unlock()

		if err := pb.sender.SendPrompt(playerID, req); err != nil {
			// The player is unreachable right now; keep the prompt pending
			// so a reconnecting client can still answer it.
			_ = err
		}

		select {
		case answer := <-p.answer:
			if pb.validate != nil && !pb.validate(playerID, req, answer) {
				continue
			}
			return answer, nil
		case <-pb.closed:
			return effects.Answer{}, ErrMatchClosed
		}
	}
}

// Answer resolves the player's outstanding prompt. Called from the
// transport's read loop.
func (pb *PromptBroker) Answer(playerID string, answer effects.Answer) error {
	pb.mu.Lock()
	p, ok := pb.pending[playerID]
	if ok {
		delete(pb.pending, playerID)
	}
	pb.mu.Unlock()
	if !ok {
		return ErrNoPendingPrompt
	}
	p.answer <- answer
	return nil
}

// Pending returns the player's outstanding request, if any, so a
// reconnecting client can be re-shown what it owes.
func (pb *PromptBroker) Pending(playerID string) (effects.Effect, bool) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	p, ok := pb.pending[playerID]
	if !ok {
		return effects.Effect{}, false
	}
	return p.req, true
}

// Close unblocks every waiting Ask with ErrMatchClosed. Idempotent.
func (pb *PromptBroker) Close() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	select {
	case <-pb.closed:
	default:
		close(pb.closed)
	}
}
