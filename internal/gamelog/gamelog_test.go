package gamelog

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kingdomhq/kingdom-server-go/internal/engine"
	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
)

func TestManagerRecordsEntries(t *testing.T) {
	m := NewManager(zap.NewNop())

	m.RootLog(engine.LogEntry{Player: "alice", Kind: effects.KindCardPlayed, Message: "plays smithy"})
	m.Log(engine.LogEntry{Player: "alice", Kind: effects.KindDrawCard, Message: "draws 3"})

	entries := m.Entries()
	require.Len(t, entries, 2)

	require.Equal(t, "alice", entries[0].Player)
	require.Equal(t, effects.KindCardPlayed.String(), entries[0].Kind)
	require.True(t, entries[0].Root)
	require.False(t, entries[0].Timestamp.IsZero())

	require.False(t, entries[1].Root)
	require.Equal(t, "draws 3", entries[1].Message)
}

func TestObserverSeesEveryEntry(t *testing.T) {
	m := NewManager(zap.NewNop())

	var seen []Entry
	m.Observe(func(e Entry) { seen = append(seen, e) })

	m.RootLog(engine.LogEntry{Player: "alice", Kind: effects.KindCardPlayed, Message: "plays smithy"})
	m.Log(engine.LogEntry{Player: "alice", Kind: effects.KindDrawCard, Message: "draws 3"})

	require.Len(t, seen, 2)
	require.True(t, seen[0].Root)
	require.False(t, seen[1].Root)
	require.Equal(t, "draws 3", seen[1].Message)
}

func TestEntriesReturnsCopy(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.RootLog(engine.LogEntry{Player: "alice", Message: "turn 1"})

	entries := m.Entries()
	entries[0].Message = "mutated"

	require.Equal(t, "turn 1", m.Entries()[0].Message)
}
