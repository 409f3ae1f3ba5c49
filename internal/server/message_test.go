package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
	"github.com/kingdomhq/kingdom-server-go/internal/gamelog"
)

func TestInboundEnvelopeCapturesRaw(t *testing.T) {
	data := []byte(`{"type":"action","action":"playCard","cardId":"c1"}`)

	var envelope InboundEnvelope
	require.NoError(t, json.Unmarshal(data, &envelope))
	require.Equal(t, "action", envelope.Type)

	var msg ActionMsg
	require.NoError(t, json.Unmarshal(envelope.Raw, &msg))
	require.Equal(t, "playCard", msg.Action)
	require.Equal(t, "c1", msg.CardID)
}

func TestPromptMessageCarriesRestriction(t *testing.T) {
	req := effects.SelectCard("alice", "Trash up to 4 cards", effects.Restriction{
		Zone:    "hand",
		MaxCost: -1,
		Count:   4,
	})

	msg := promptMessage(req)
	require.Equal(t, "prompt", msg.Type)
	require.Equal(t, effects.KindSelectCard.String(), msg.Kind)
	require.NotNil(t, msg.Restrict)
	require.Equal(t, "hand", msg.Restrict.Zone)
	require.Equal(t, 4, msg.Restrict.Count)
}

func TestPromptMessageOmitsRestrictionForPrompts(t *testing.T) {
	req := effects.UserPrompt("alice", "React with moat?", []string{"yes", "no"}, "moat")

	msg := promptMessage(req)
	require.Nil(t, msg.Restrict)
	require.Equal(t, []string{"yes", "no"}, msg.Options)
}

func TestLogMessageKeepsRootFlag(t *testing.T) {
	msg := logMessage(gamelog.Entry{Player: "alice", Kind: "CARD_PLAYED", Message: "plays smithy", Root: true})

	require.Equal(t, "log", msg.Type)
	require.Equal(t, "alice", msg.Player)
	require.True(t, msg.Root)
}
