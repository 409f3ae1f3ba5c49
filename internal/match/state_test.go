package match

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kingdomhq/kingdom-server-go/internal/engine"
	"github.com/kingdomhq/kingdom-server-go/internal/engine/effects"
)

var testCatalog = []engine.CardSpec{
	{Key: "copper", Name: "Copper", Cost: 0, Types: []string{engine.TypeTreasure}, Coins: 1, Supply: 60},
	{Key: "estate", Name: "Estate", Cost: 2, Types: []string{engine.TypeVictory}, VP: 1, Supply: 12},
	{Key: "smithy", Name: "Smithy", Cost: 4, Types: []string{engine.TypeAction}, Cards: 3, Supply: 10},
	{Key: "province", Name: "Province", Cost: 8, Types: []string{engine.TypeVictory}, VP: 6, Supply: 12},
	{Key: "tiny", Name: "Tiny", Cost: 1, Types: []string{engine.TypeAction}, Supply: 1},
}

func newState(t *testing.T, players ...string) *State {
	t.Helper()
	s, err := New(Config{
		MatchID: "m1",
		Players: players,
		Catalog: testCatalog,
		Seed:    7,
	})
	require.NoError(t, err)
	return s
}

func TestNewDealsStartingHands(t *testing.T) {
	s := newState(t, "alice", "bob")

	for _, player := range []string{"alice", "bob"} {
		hand := s.GetSource(engine.ZoneHand, player)
		deck := s.GetSource(engine.ZoneDeck, player)
		require.Len(t, hand, 5)
		require.Len(t, deck, 5)
		require.Empty(t, s.GetSource(engine.ZoneDiscard, player))

		// Default start: seven copper, three estates across deck and hand.
		counts := map[string]int{}
		for _, id := range append(append([]string(nil), hand...), deck...) {
			info, err := s.Card(id)
			require.NoError(t, err)
			counts[info.Spec.Key]++
		}
		require.Equal(t, 7, counts["copper"])
		require.Equal(t, 3, counts["estate"])
	}
}

func TestNewRejectsUnknownStartingCard(t *testing.T) {
	_, err := New(Config{
		MatchID:      "m1",
		Players:      []string{"alice"},
		Catalog:      testCatalog,
		StartingDeck: []string{"moonstone"},
	})
	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestNewRequiresPlayers(t *testing.T) {
	_, err := New(Config{MatchID: "m1", Catalog: testCatalog})
	require.Error(t, err)
}

func TestMoveCard(t *testing.T) {
	s := newState(t, "alice")
	hand := s.GetSource(engine.ZoneHand, "alice")
	id := hand[0]

	require.NoError(t, s.MoveCard("alice", id, engine.ZoneHand, engine.ZonePlay))
	require.Len(t, s.GetSource(engine.ZoneHand, "alice"), 4)
	require.Equal(t, []string{id}, s.GetSource(engine.ZonePlay, "alice"))

	// Moving a card that is not in the source zone fails.
	err := s.MoveCard("alice", id, engine.ZoneHand, engine.ZoneDiscard)
	require.ErrorIs(t, err, ErrNotInZone)

	err = s.MoveCard("mallory", id, engine.ZoneHand, engine.ZonePlay)
	require.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestDrawOneReshufflesDiscard(t *testing.T) {
	s := newState(t, "alice")

	// Drain the deck.
	for i := 0; i < 5; i++ {
		_, reshuffled, ok := s.DrawOne("alice")
		require.True(t, ok)
		require.False(t, reshuffled)
	}
	require.Empty(t, s.GetSource(engine.ZoneDeck, "alice"))

	// Nothing left anywhere: draw fails without a reshuffle.
	_, reshuffled, ok := s.DrawOne("alice")
	require.False(t, ok)
	require.False(t, reshuffled)

	// Discard two cards; the next draw reshuffles them into the deck.
	hand := s.GetSource(engine.ZoneHand, "alice")
	require.NoError(t, s.MoveCard("alice", hand[0], engine.ZoneHand, engine.ZoneDiscard))
	require.NoError(t, s.MoveCard("alice", hand[1], engine.ZoneHand, engine.ZoneDiscard))

	id, reshuffled, ok := s.DrawOne("alice")
	require.True(t, ok)
	require.True(t, reshuffled)
	require.NotEmpty(t, id)
	require.Empty(t, s.GetSource(engine.ZoneDiscard, "alice"))
	require.Len(t, s.GetSource(engine.ZoneDeck, "alice"), 1)
}

func TestGainFromSupply(t *testing.T) {
	s := newState(t, "alice")

	id, ok := s.GainFromSupply("alice", "smithy", engine.ZoneDiscard)
	require.True(t, ok)
	require.Equal(t, 9, s.SupplyCount("smithy"))
	require.Equal(t, []string{id}, s.GetSource(engine.ZoneDiscard, "alice"))

	info, err := s.Card(id)
	require.NoError(t, err)
	require.Equal(t, "smithy", info.Spec.Key)
	require.Equal(t, "alice", info.Owner)

	// Empty pile refuses.
	_, ok = s.GainFromSupply("alice", "tiny", engine.ZoneDiscard)
	require.True(t, ok)
	_, ok = s.GainFromSupply("alice", "tiny", engine.ZoneDiscard)
	require.False(t, ok)
}

func TestTrashCard(t *testing.T) {
	s := newState(t, "alice")
	id := s.GetSource(engine.ZoneHand, "alice")[0]

	require.NoError(t, s.TrashCard("alice", id, engine.ZoneHand))
	require.Len(t, s.GetSource(engine.ZoneHand, "alice"), 4)
	require.Equal(t, []string{id}, s.GetSource(engine.ZoneTrash, ""))

	err := s.TrashCard("alice", id, engine.ZoneHand)
	require.ErrorIs(t, err, ErrNotInZone)
}

func TestSupplyZoneListsNonEmptyPiles(t *testing.T) {
	s := newState(t, "alice")

	keys := s.GetSource(engine.ZoneSupply, "")
	require.Contains(t, keys, "copper")
	require.Contains(t, keys, "tiny")

	s.GainFromSupply("alice", "tiny", engine.ZoneDiscard)
	keys = s.GetSource(engine.ZoneSupply, "")
	require.NotContains(t, keys, "tiny")
}

func TestEmptyPiles(t *testing.T) {
	s := newState(t, "alice")
	require.Equal(t, 0, s.EmptyPiles())

	s.GainFromSupply("alice", "tiny", engine.ZoneDiscard)
	require.Equal(t, 1, s.EmptyPiles())
}

func TestPriceControllerRules(t *testing.T) {
	pc := NewPriceController()
	smithy := testCatalog[2]

	require.Equal(t, 4, pc.ApplyRules(smithy).Cost)

	unsub := pc.RegisterRule(func(card engine.CardSpec, cost int) (int, bool) {
		return cost - 1, false
	})
	pc.RegisterRule(func(card engine.CardSpec, cost int) (int, bool) {
		return cost - 1, false
	})
	require.Equal(t, 2, pc.ApplyRules(smithy).Cost)

	// Cost floors at zero.
	copper := testCatalog[0]
	require.Equal(t, 0, pc.ApplyRules(copper).Cost)

	// Unsubscribe is idempotent.
	unsub()
	unsub()
	require.Equal(t, 3, pc.ApplyRules(smithy).Cost)
}

func TestPriceControllerRestriction(t *testing.T) {
	pc := NewPriceController()
	pc.RegisterRule(func(card engine.CardSpec, cost int) (int, bool) {
		return cost, card.Key == "province"
	})

	require.True(t, pc.ApplyRules(testCatalog[3]).Restricted)
	require.False(t, pc.ApplyRules(testCatalog[0]).Restricted)
}

func TestFindFiltersByTypeAndCost(t *testing.T) {
	s := newState(t, "alice")

	actions := s.Find(engine.ZoneSupply, "", engine.CardFilter{MaxCost: -1, Types: []string{engine.TypeAction}})
	require.ElementsMatch(t, []string{"smithy", "tiny"}, actions)

	cheap := s.Find(engine.ZoneSupply, "", engine.CardFilter{MaxCost: 2})
	require.ElementsMatch(t, []string{"copper", "estate", "tiny"}, cheap)

	// Cost filtering honors active price rules.
	s.Prices().RegisterRule(func(card engine.CardSpec, cost int) (int, bool) {
		return cost - 2, false
	})
	cheap = s.Find(engine.ZoneSupply, "", engine.CardFilter{MaxCost: 2})
	require.ElementsMatch(t, []string{"copper", "estate", "tiny", "smithy"}, cheap)
}

func TestValidSelection(t *testing.T) {
	s, err := New(Config{
		MatchID:      "m1",
		Players:      []string{"alice"},
		Catalog:      testCatalog,
		StartingDeck: []string{"copper", "copper", "copper", "copper", "copper", "estate", "estate", "estate", "estate", "estate"},
		Seed:         7,
	})
	require.NoError(t, err)

	hand := s.GetSource(engine.ZoneHand, "alice")

	// Any subset within the count is valid when not exact.
	anyTwo := s.ValidSelection("alice", restriction(engine.ZoneHand, -1, nil, 2, false), hand[:1])
	require.True(t, anyTwo)
	require.True(t, s.ValidSelection("alice", restriction(engine.ZoneHand, -1, nil, 2, false), nil))

	// Too many picks.
	require.False(t, s.ValidSelection("alice", restriction(engine.ZoneHand, -1, nil, 1, false), hand[:2]))

	// Exact restrictions must be met in full while enough cards qualify.
	require.False(t, s.ValidSelection("alice", restriction(engine.ZoneHand, -1, nil, 2, true), hand[:1]))
	require.True(t, s.ValidSelection("alice", restriction(engine.ZoneHand, -1, nil, 2, true), hand[:2]))

	// Picks outside the zone are rejected.
	deck := s.GetSource(engine.ZoneDeck, "alice")
	require.False(t, s.ValidSelection("alice", restriction(engine.ZoneHand, -1, nil, 1, false), deck[:1]))

	// Duplicate picks of the same instance are rejected.
	require.False(t, s.ValidSelection("alice", restriction(engine.ZoneHand, -1, nil, 2, false), []string{hand[0], hand[0]}))
}

func restriction(zone string, maxCost int, types []string, count int, exact bool) effects.Restriction {
	return effects.Restriction{Zone: zone, MaxCost: maxCost, Types: types, Count: count, Exact: exact}
}
