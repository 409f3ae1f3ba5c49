package cards_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kingdomhq/kingdom-server-go/internal/cards"
	"github.com/kingdomhq/kingdom-server-go/internal/engine"
	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
	"github.com/kingdomhq/kingdom-server-go/internal/match"
)

// scriptedInput answers input requests from a fixed queue and declines once
// drained.
type scriptedInput struct {
	answers []effects.Answer
}

func (s *scriptedInput) Ask(playerID string, req effects.Effect) (effects.Answer, error) {
	if len(s.answers) == 0 {
		return effects.Answer{Declined: true}, nil
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

type table struct {
	eng   *engine.Engine
	state *match.State
	input *scriptedInput
}

func newTable(t *testing.T, players []string, startingDeck []string) *table {
	t.Helper()
	catalog := cards.MustCatalog()
	state, err := match.New(match.Config{
		MatchID:      "m1",
		Players:      players,
		Catalog:      catalog,
		StartingDeck: startingDeck,
		Seed:         11,
	})
	require.NoError(t, err)

	input := &scriptedInput{}
	eng := engine.New(zap.NewNop(), engine.Collaborators{
		Library: state,
		Sources: state,
		Prices:  state.Prices(),
		Finder:  state,
		Input:   input,
	}, players, cards.BuildRegistry(catalog))
	return &table{eng: eng, state: state, input: input}
}

func (tb *table) hand(player string) []string {
	return tb.state.GetSource(engine.ZoneHand, player)
}

// findInHand returns an instance of the key from the player's hand.
func (tb *table) findInHand(t *testing.T, player, key string) string {
	t.Helper()
	for _, id := range tb.hand(player) {
		info, err := tb.state.Card(id)
		require.NoError(t, err)
		if info.Spec.Key == key {
			return id
		}
	}
	t.Fatalf("no %s in %s's hand", key, player)
	return ""
}

// ensureInHand pulls a copy of the key from the player's deck into their
// hand when the deal left none there, so mixed-deck tests stay deterministic.
func (tb *table) ensureInHand(t *testing.T, player, key string) string {
	t.Helper()
	for _, id := range tb.hand(player) {
		info, err := tb.state.Card(id)
		require.NoError(t, err)
		if info.Spec.Key == key {
			return id
		}
	}
	for _, id := range tb.state.GetSource(engine.ZoneDeck, player) {
		info, err := tb.state.Card(id)
		require.NoError(t, err)
		if info.Spec.Key == key {
			require.NoError(t, tb.state.MoveCard(player, id, engine.ZoneDeck, engine.ZoneHand))
			return id
		}
	}
	t.Fatalf("no %s available for %s", key, player)
	return ""
}

// keepSingleInHand moves every copy of the key beyond the first from the
// player's hand back to their deck, so reaction scenarios register exactly
// one template regardless of the deal.
func (tb *table) keepSingleInHand(t *testing.T, player, key string) {
	t.Helper()
	kept := false
	for _, id := range append([]string(nil), tb.hand(player)...) {
		info, err := tb.state.Card(id)
		require.NoError(t, err)
		if info.Spec.Key != key {
			continue
		}
		if !kept {
			kept = true
			continue
		}
		require.NoError(t, tb.state.MoveCard(player, id, engine.ZoneHand, engine.ZoneDeck))
	}
}

func (tb *table) play(t *testing.T, player, key string) {
	t.Helper()
	id := tb.findInHand(t, player, key)
	require.NoError(t, tb.eng.Invoke(engine.ActionPlayCard, engine.InvokeContext{PlayerID: player, CardID: id}))
}

func (tb *table) keysIn(t *testing.T, zone, player string) []string {
	t.Helper()
	var keys []string
	for _, id := range tb.state.GetSource(zone, player) {
		info, err := tb.state.Card(id)
		require.NoError(t, err)
		keys = append(keys, info.Spec.Key)
	}
	return keys
}

func TestSmithyDrawsThree(t *testing.T) {
	tb := newTable(t, []string{"alice"}, repeat("smithy", 10))

	tb.play(t, "alice", "smithy")
	require.Len(t, tb.hand("alice"), 7) // 5 - 1 played + 3 drawn
	require.Equal(t, 0, tb.eng.Turn().Actions())
}

func TestVillageGrants(t *testing.T) {
	tb := newTable(t, []string{"alice"}, repeat("village", 10))

	tb.play(t, "alice", "village")
	require.Len(t, tb.hand("alice"), 5) // -1 played, +1 drawn
	require.Equal(t, 2, tb.eng.Turn().Actions())
}

func TestFestivalGrants(t *testing.T) {
	tb := newTable(t, []string{"alice"}, repeat("festival", 10))

	tb.play(t, "alice", "festival")
	require.Equal(t, 2, tb.eng.Turn().Actions())
	require.Equal(t, 2, tb.eng.Turn().Buys())
	require.Equal(t, 2, tb.eng.Turn().Treasure())
}

func TestCellarDiscardsAndRedraws(t *testing.T) {
	tb := newTable(t, []string{"alice"}, repeat("cellar", 10))

	hand := tb.hand("alice")
	tb.input.answers = []effects.Answer{{CardIDs: []string{hand[1], hand[2]}}}

	tb.play(t, "alice", "cellar")
	require.Len(t, tb.hand("alice"), 4)                                    // -1 played, -2 discarded, +2 drawn
	require.Len(t, tb.state.GetSource(engine.ZoneDiscard, "alice"), 2)
	require.Equal(t, 1, tb.eng.Turn().Actions(), "+1 action grant offsets the play cost")
}

func TestChapelTrashes(t *testing.T) {
	tb := newTable(t, []string{"alice"}, repeat("chapel", 10))

	hand := tb.hand("alice")
	tb.input.answers = []effects.Answer{{CardIDs: []string{hand[1], hand[2], hand[3]}}}

	tb.play(t, "alice", "chapel")
	require.Len(t, tb.hand("alice"), 1)
	require.Len(t, tb.state.GetSource(engine.ZoneTrash, ""), 3)
}

func TestWorkshopGains(t *testing.T) {
	tb := newTable(t, []string{"alice"}, repeat("workshop", 10))

	tb.input.answers = []effects.Answer{{CardIDs: []string{"silver"}}}
	tb.play(t, "alice", "workshop")

	require.Equal(t, []string{"silver"}, tb.keysIn(t, engine.ZoneDiscard, "alice"))
	require.Equal(t, 39, tb.state.SupplyCount("silver"))
}

func TestMoneylenderTrashesCopper(t *testing.T) {
	deck := append(repeat("moneylender", 5), repeat("copper", 5)...)
	tb := newTable(t, []string{"alice"}, deck)

	tb.ensureInHand(t, "alice", "copper")
	tb.ensureInHand(t, "alice", "moneylender")

	tb.play(t, "alice", "moneylender")
	require.Equal(t, []string{"copper"}, tb.keysIn(t, engine.ZoneTrash, ""))
	require.Equal(t, 3, tb.eng.Turn().Treasure())
}

func TestMoneylenderWithoutCopperIsNoOp(t *testing.T) {
	tb := newTable(t, []string{"alice"}, repeat("moneylender", 10))

	tb.play(t, "alice", "moneylender")
	require.Empty(t, tb.state.GetSource(engine.ZoneTrash, ""))
	require.Equal(t, 0, tb.eng.Turn().Treasure())
}

func TestRemodelTrashAndGain(t *testing.T) {
	deck := append(repeat("remodel", 5), repeat("estate", 5)...)
	tb := newTable(t, []string{"alice"}, deck)

	estate := tb.ensureInHand(t, "alice", "estate")
	tb.ensureInHand(t, "alice", "remodel")
	tb.input.answers = []effects.Answer{
		{CardIDs: []string{estate}},   // trash the estate (cost 2)
		{CardIDs: []string{"smithy"}}, // gain up to 4
	}

	tb.play(t, "alice", "remodel")
	require.Equal(t, []string{"estate"}, tb.keysIn(t, engine.ZoneTrash, ""))
	require.Equal(t, []string{"smithy"}, tb.keysIn(t, engine.ZoneDiscard, "alice"))
}

func TestThroneRoomPlaysTwice(t *testing.T) {
	deck := append(repeat("throne_room", 5), repeat("smithy", 10)...)
	tb := newTable(t, []string{"alice"}, deck)

	smithy := tb.ensureInHand(t, "alice", "smithy")
	tb.ensureInHand(t, "alice", "throne_room")
	tb.input.answers = []effects.Answer{{CardIDs: []string{smithy}}}

	before := len(tb.hand("alice"))
	tb.play(t, "alice", "throne_room")

	// Throne room and the smithy leave the hand; six cards are drawn.
	require.Len(t, tb.hand("alice"), before-2+6)
	// Neither doubled play spends an action point beyond the throne room's.
	require.Equal(t, 0, tb.eng.Turn().Actions())
	// The doubled card is counted once for statistics.
	require.Equal(t, 1, tb.eng.PlayCount("smithy"))
	require.Equal(t, 1, tb.eng.PlayCount("throne_room"))
}

func TestBridgeReducesCostsUntilTurnEnd(t *testing.T) {
	tb := newTable(t, []string{"alice", "bob"}, repeat("bridge", 10))

	province, err := tb.state.ByKey("province")
	require.NoError(t, err)

	tb.play(t, "alice", "bridge")
	require.Equal(t, 7, tb.state.Prices().ApplyRules(province).Cost)
	require.Equal(t, 2, tb.eng.Turn().Buys())
	require.Equal(t, 1, tb.eng.Turn().Treasure())

	// End the turn; the discount lapses.
	require.NoError(t, tb.eng.Invoke(engine.ActionNextPhase, engine.InvokeContext{PlayerID: "alice"}))
	require.NoError(t, tb.eng.Invoke(engine.ActionNextPhase, engine.InvokeContext{PlayerID: "alice"}))
	require.Equal(t, 8, tb.state.Prices().ApplyRules(province).Cost)
}

func TestMilitiaForcesDiscards(t *testing.T) {
	tb := newTable(t, []string{"alice", "bob"}, repeat("militia", 10))

	bobHand := tb.hand("bob")
	tb.input.answers = []effects.Answer{
		{CardIDs: []string{bobHand[0], bobHand[1]}},
	}

	tb.play(t, "alice", "militia")
	require.Len(t, tb.hand("bob"), 3)
	require.Equal(t, 2, tb.eng.Turn().Treasure())
}

func TestWitchDealsCurses(t *testing.T) {
	tb := newTable(t, []string{"alice", "bob", "carol"}, repeat("witch", 10))

	tb.play(t, "alice", "witch")
	require.Equal(t, []string{"curse"}, tb.keysIn(t, engine.ZoneDiscard, "bob"))
	require.Equal(t, []string{"curse"}, tb.keysIn(t, engine.ZoneDiscard, "carol"))
	require.Equal(t, 28, tb.state.SupplyCount("curse"))
}

func TestCouncilRoomDrawsForEveryone(t *testing.T) {
	tb := newTable(t, []string{"alice", "bob"}, repeat("council_room", 10))

	tb.play(t, "alice", "council_room")
	require.Len(t, tb.hand("alice"), 8) // -1 played, +4 drawn
	require.Len(t, tb.hand("bob"), 6)
	require.Equal(t, 2, tb.eng.Turn().Buys())
}

func TestMoatBlocksAttack(t *testing.T) {
	deck := append(repeat("militia", 5), repeat("moat", 5)...)
	tb := newTable(t, []string{"alice", "bob"}, deck)

	militia := tb.ensureInHand(t, "alice", "militia")
	tb.ensureInHand(t, "bob", "moat")
	tb.keepSingleInHand(t, "bob", "moat")
	binder := cards.NewReactionBinder()
	require.NoError(t, binder.Sync(tb.eng))

	// Bob accepts the moat reveal when asked.
	tb.input.answers = []effects.Answer{{Option: "yes"}}

	bobHandSize := len(tb.hand("bob"))
	require.NoError(t, tb.eng.Invoke(engine.ActionPlayCard, engine.InvokeContext{PlayerID: "alice", CardID: militia}))
	require.Len(t, tb.hand("bob"), bobHandSize, "immune player discards nothing")
}

func TestMoatDeclinedDoesNotProtect(t *testing.T) {
	deck := append(repeat("militia", 5), repeat("moat", 5)...)
	tb := newTable(t, []string{"alice", "bob"}, deck)

	militia := tb.ensureInHand(t, "alice", "militia")
	tb.ensureInHand(t, "bob", "moat")
	tb.keepSingleInHand(t, "bob", "moat")
	binder := cards.NewReactionBinder()
	require.NoError(t, binder.Sync(tb.eng))

	bobHand := tb.hand("bob")
	picks := append([]string(nil), bobHand[:len(bobHand)-3]...)
	tb.input.answers = []effects.Answer{
		{Option: "no"}, // decline the moat
		{CardIDs: picks},
	}

	require.NoError(t, tb.eng.Invoke(engine.ActionPlayCard, engine.InvokeContext{PlayerID: "alice", CardID: militia}))
	require.Len(t, tb.hand("bob"), 3)
}

func TestReactionBinderTracksHand(t *testing.T) {
	deck := append(repeat("moat", 5), repeat("copper", 5)...)
	tb := newTable(t, []string{"alice", "bob"}, deck)

	binder := cards.NewReactionBinder()
	require.NoError(t, binder.Sync(tb.eng))

	count := func() int { return tb.eng.Reactions().Len() }
	moatsInHands := 0
	for _, player := range []string{"alice", "bob"} {
		for _, key := range tb.keysIn(t, engine.ZoneHand, player) {
			if key == "moat" {
				moatsInHands++
			}
		}
	}
	require.Equal(t, moatsInHands, count())

	// Discard every moat in alice's hand; her templates go away on sync.
	for {
		var moatID string
		for _, id := range tb.hand("alice") {
			info, err := tb.state.Card(id)
			require.NoError(t, err)
			if info.Spec.Key == "moat" {
				moatID = id
				break
			}
		}
		if moatID == "" {
			break
		}
		require.NoError(t, tb.state.MoveCard("alice", moatID, engine.ZoneHand, engine.ZoneDiscard))
	}
	require.NoError(t, binder.Sync(tb.eng))

	bobMoats := 0
	for _, key := range tb.keysIn(t, engine.ZoneHand, "bob") {
		if key == "moat" {
			bobMoats++
		}
	}
	require.Equal(t, bobMoats, count())
}

func repeat(key string, n int) []string {
	deck := make([]string, n)
	for i := range deck {
		deck[i] = key
	}
	return deck
}
