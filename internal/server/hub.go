package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kingdomhq/kingdom-server-go/internal/config"
	"github.com/kingdomhq/kingdom-server-go/internal/engine"
	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
	"github.com/kingdomhq/kingdom-server-go/internal/gamelog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// lobby gathers players for a match that has not started yet.
type lobby struct {
	players []string
	clients map[string]*Client // playerID -> connection
}

// matchEntry is one running match plus the clients attached to it.
type matchEntry struct {
	runner  *Runner
	clients map[string]*Client // playerID -> connection
	cancel  context.CancelFunc
}

// Hub routes websocket traffic between clients and their matches. It owns
// lobby assembly, match startup and per-player message delivery; all match
// resolution happens inside each match's Runner.
type Hub struct {
	logger   *zap.Logger
	cfg      *config.Config
	sessions *SessionManager
	repo     MatchPersister

	ctx context.Context

	mu      sync.Mutex
	lobbies map[string]*lobby
	matches map[string]*matchEntry
}

// NewHub creates a hub. Matches started by the hub inherit ctx: cancelling
// it shuts every match down.
func NewHub(ctx context.Context, logger *zap.Logger, cfg *config.Config, sessions *SessionManager, repo MatchPersister) *Hub {
	return &Hub{
		logger:   logger,
		cfg:      cfg,
		sessions: sessions,
		repo:     repo,
		ctx:      ctx,
		lobbies:  make(map[string]*lobby),
		matches:  make(map[string]*matchEntry),
	}
}

// ServeWS handles websocket upgrade requests and creates a new client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256)}
	go client.writePump()
	go client.readPump()
}

func (h *Hub) handleJoin(c *Client, msg JoinMsg) {
	if msg.MatchID == "" || msg.Name == "" {
		c.sendError("join requires matchId and name")
		return
	}
	if c.matchID != "" {
		c.sendError("already in a match")
		return
	}

	h.mu.Lock()
	if _, running := h.matches[msg.MatchID]; running {
		h.mu.Unlock()
		c.sendError("match already started")
		return
	}
	lb := h.lobbies[msg.MatchID]
	if lb == nil {
		lb = &lobby{clients: make(map[string]*Client)}
		h.lobbies[msg.MatchID] = lb
	}
	for _, name := range lb.players {
		if name == msg.Name {
			h.mu.Unlock()
			c.sendError("name already taken in this match")
			return
		}
	}
	if len(lb.players) >= h.cfg.Game.MaxPlayers {
		h.mu.Unlock()
		c.sendError("match is full")
		return
	}
	session, token, err := h.sessions.Create(msg.MatchID, msg.Name)
	if err != nil {
		h.mu.Unlock()
		c.sendError("could not create session")
		return
	}
	c.sessionID = session.ID
	c.matchID = msg.MatchID
	c.playerID = msg.Name
	lb.players = append(lb.players, msg.Name)
	lb.clients[msg.Name] = c
	players := append([]string(nil), lb.players...)
	start := len(lb.players) >= h.cfg.Game.MinPlayers
	var clients map[string]*Client
	if start {
		clients = lb.clients
		delete(h.lobbies, msg.MatchID)
	}
	h.mu.Unlock()

	c.enqueue(JoinedMsg{
		Type:        "joined",
		MatchID:     msg.MatchID,
		PlayerID:    msg.Name,
		SessionID:   session.ID,
		RejoinToken: token,
		Players:     players,
		Started:     start,
	})

	if start {
		if err := h.startMatch(msg.MatchID, players, clients); err != nil {
			h.logger.Error("failed to start match",
				zap.String("match_id", msg.MatchID),
				zap.Error(err),
			)
			c.sendError("could not start match")
		}
	}
}

func (h *Hub) startMatch(matchID string, players []string, clients map[string]*Client) error {
	sender := &matchSender{hub: h, matchID: matchID}
	runner, err := NewRunner(h.logger.With(zap.String("match_id", matchID)), sender, h.repo, matchID, players, time.Now().UnixNano())
	if err != nil {
		return err
	}

	h.mu.Lock()
	entry := &matchEntry{runner: runner, clients: clients}
	ctx, cancel := context.WithCancel(h.ctx)
	entry.cancel = cancel
	h.matches[matchID] = entry
	h.mu.Unlock()

	runner.Log().Observe(func(entry gamelog.Entry) {
		h.broadcast(matchID, logMessage(entry))
	})

	go runner.Run(ctx)
	go h.watchMatch(matchID, runner, cancel)

	h.logger.Info("match started",
		zap.String("match_id", matchID),
		zap.Strings("players", players),
	)
	return nil
}

// watchMatch waits for the match to finish, announces the result and tears
// the entry down.
func (h *Hub) watchMatch(matchID string, runner *Runner, cancel context.CancelFunc) {
	<-runner.Done()
	cancel()

	h.broadcast(matchID, GameOverMsg{
		Type:    "game_over",
		MatchID: matchID,
		Turns:   runner.Engine().Turn().TurnNumber(),
	})

	h.mu.Lock()
	entry := h.matches[matchID]
	delete(h.matches, matchID)
	h.mu.Unlock()

	if entry != nil {
		for _, cl := range entry.clients {
			h.sessions.Remove(cl.sessionID)
		}
	}
	h.logger.Info("match finished", zap.String("match_id", matchID))
}

func (h *Hub) handleRejoin(c *Client, msg RejoinMsg) {
	session, err := h.sessions.Rejoin(msg.SessionID, msg.RejoinToken)
	if err != nil {
		c.sendError("rejoin rejected")
		return
	}
	c.sessionID = session.ID
	c.matchID = session.MatchID
	c.playerID = session.PlayerID

	h.mu.Lock()
	var runner *Runner
	attached := false
	if entry := h.matches[session.MatchID]; entry != nil {
		entry.clients[session.PlayerID] = c
		runner = entry.runner
		attached = true
	} else if lb := h.lobbies[session.MatchID]; lb != nil {
		lb.clients[session.PlayerID] = c
		attached = true
	}
	h.mu.Unlock()
	if !attached {
		c.sendError("match no longer running")
		return
	}

	c.enqueue(JoinedMsg{
		Type:     "joined",
		MatchID:  session.MatchID,
		PlayerID: session.PlayerID,
		Started:  runner != nil,
	})

	// Re-show the outstanding prompt so a refreshed client can resume.
	if runner != nil {
		if req, ok := runner.Broker().Pending(session.PlayerID); ok {
			c.enqueue(promptMessage(req))
		}
	}
}

func (h *Hub) handleAction(c *Client, msg ActionMsg) {
	runner := h.runnerFor(c)
	if runner == nil {
		c.sendError("not in a running match")
		return
	}
	kind, ok := engine.ActionKindByName(msg.Action)
	if !ok {
		c.sendError("unknown action: " + msg.Action)
		return
	}
	h.sessions.Touch(c.sessionID)

	ictx := engine.InvokeContext{
		PlayerID: c.playerID,
		CardID:   msg.CardID,
		CardKey:  msg.CardKey,
		Count:    msg.Count,
	}
	// Resolution can park on prompts answered over this same connection, so
	// it must not run on the read pump.
	go func() {
		if err := runner.Submit(kind, ictx); err != nil {
			c.sendError(actionError(err))
		}
	}()
}

func (h *Hub) handleAnswer(c *Client, msg AnswerMsg) {
	runner := h.runnerFor(c)
	if runner == nil {
		c.sendError("not in a running match")
		return
	}
	h.sessions.Touch(c.sessionID)
	err := runner.Broker().Answer(c.playerID, engineAnswer(msg))
	if err != nil {
		c.sendError("no prompt waiting for an answer")
	}
}

func (h *Hub) runnerFor(c *Client) *Runner {
	if c.matchID == "" {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	entry := h.matches[c.matchID]
	if entry == nil {
		return nil
	}
	return entry.runner
}

func (h *Hub) unregister(c *Client) {
	if c.matchID == "" {
		return
	}
	h.mu.Lock()
	if entry := h.matches[c.matchID]; entry != nil && entry.clients[c.playerID] == c {
		delete(entry.clients, c.playerID)
	}
	if lb := h.lobbies[c.matchID]; lb != nil && lb.clients[c.playerID] == c {
		delete(lb.clients, c.playerID)
	}
	h.mu.Unlock()
	// The session stays alive for its lease so the player can rejoin.
}

func (h *Hub) broadcast(matchID string, v any) {
	h.mu.Lock()
	entry := h.matches[matchID]
	var clients []*Client
	if entry != nil {
		for _, cl := range entry.clients {
			clients = append(clients, cl)
		}
	}
	h.mu.Unlock()
	for _, cl := range clients {
		cl.enqueue(v)
	}
}

// matchSender delivers prompts for one match through the hub's client map.
type matchSender struct {
	hub     *Hub
	matchID string
}

// SendPrompt implements PromptSender. A disconnected player is not fatal
// for the broker: the prompt is re-shown on rejoin.
func (s *matchSender) SendPrompt(playerID string, req effects.Effect) error {
	s.hub.mu.Lock()
	entry := s.hub.matches[s.matchID]
	var cl *Client
	if entry != nil {
		cl = entry.clients[playerID]
	}
	s.hub.mu.Unlock()
	if cl == nil {
		return fmt.Errorf("server: player %s not connected", playerID)
	}
	if !cl.enqueue(promptMessage(req)) {
		return errors.New("server: client send buffer full")
	}
	return nil
}

func engineAnswer(msg AnswerMsg) effects.Answer {
	return effects.Answer{
		CardIDs:  msg.CardIDs,
		Option:   msg.Option,
		Declined: msg.Declined,
	}
}

func actionError(err error) string {
	switch {
	case errors.Is(err, ErrResolutionInFlight):
		return "a resolution is already in flight"
	case errors.Is(err, engine.ErrNotAllowed):
		return "action not allowed"
	default:
		return err.Error()
	}
}
