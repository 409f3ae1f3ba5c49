package server

import (
	"encoding/json"

	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
	"github.com/kingdomhq/kingdom-server-go/internal/gamelog"
)

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON captures the raw payload alongside the routing type.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-server payloads ---

// JoinMsg enters the named lobby; the match starts when enough players have
// joined.
type JoinMsg struct {
	Type    string `json:"type"`
	MatchID string `json:"matchId"`
	Name    string `json:"name"`
}

// RejoinMsg resumes a session after a reconnect or page refresh.
type RejoinMsg struct {
	Type        string `json:"type"`
	SessionID   string `json:"sessionId"`
	RejoinToken string `json:"rejoinToken"`
}

// ActionMsg invokes one player-initiated action by its wire name.
type ActionMsg struct {
	Type    string `json:"type"`
	Action  string `json:"action"`
	CardID  string `json:"cardId,omitempty"`
	CardKey string `json:"cardKey,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// AnswerMsg answers the outstanding prompt for this player.
type AnswerMsg struct {
	Type     string   `json:"type"`
	CardIDs  []string `json:"cardIds,omitempty"`
	Option   string   `json:"option,omitempty"`
	Declined bool     `json:"declined,omitempty"`
}

// --- Server-to-client payloads ---

// ErrorMsg reports a rejected client message.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// JoinedMsg confirms lobby entry and carries the one-time rejoin credentials.
type JoinedMsg struct {
	Type        string   `json:"type"`
	MatchID     string   `json:"matchId"`
	PlayerID    string   `json:"playerId"`
	SessionID   string   `json:"sessionId"`
	RejoinToken string   `json:"rejoinToken"`
	Players     []string `json:"players"`
	Started     bool     `json:"started"`
}

// PromptMsg asks the player for input. Kind tells the client which widget to
// show; for selections the restriction describes the eligible cards.
type PromptMsg struct {
	Type     string              `json:"type"`
	Kind     string              `json:"kind"`
	Prompt   string              `json:"prompt"`
	Options  []string            `json:"options,omitempty"`
	Restrict *RestrictionPayload `json:"restrict,omitempty"`
}

// RestrictionPayload mirrors the selection constraints over the wire.
type RestrictionPayload struct {
	Zone    string   `json:"zone"`
	MaxCost int      `json:"maxCost"`
	Types   []string `json:"types,omitempty"`
	Count   int      `json:"count"`
	Exact   bool     `json:"exact"`
}

// LogMsg ships one game-log line to spectators and players.
type LogMsg struct {
	Type    string `json:"type"`
	Player  string `json:"player"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Root    bool   `json:"root"`
}

// GameOverMsg announces the end of the match.
type GameOverMsg struct {
	Type    string `json:"type"`
	MatchID string `json:"matchId"`
	Turns   int    `json:"turns"`
}

func promptMessage(req effects.Effect) PromptMsg {
	msg := PromptMsg{
		Type:    "prompt",
		Kind:    req.Kind.String(),
		Prompt:  req.Prompt,
		Options: req.Options,
	}
	if req.Kind == effects.KindSelectCard {
		msg.Restrict = &RestrictionPayload{
			Zone:    req.Restrict.Zone,
			MaxCost: req.Restrict.MaxCost,
			Types:   req.Restrict.Types,
			Count:   req.Restrict.Count,
			Exact:   req.Restrict.Exact,
		}
	}
	return msg
}

func logMessage(entry gamelog.Entry) LogMsg {
	return LogMsg{
		Type:    "log",
		Player:  entry.Player,
		Kind:    entry.Kind,
		Message: entry.Message,
		Root:    entry.Root,
	}
}
