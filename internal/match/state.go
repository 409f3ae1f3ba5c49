package match

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/kingdomhq/kingdom-server-go/internal/engine"
)

var (
	ErrUnknownCard   = errors.New("match: unknown card instance")
	ErrUnknownKey    = errors.New("match: unknown card key")
	ErrUnknownPlayer = errors.New("match: unknown player")
	ErrNotInZone     = errors.New("match: card not in zone")
)

// Instance is one physical card in a match.
type Instance struct {
	ID    string
	Key   string
	Owner string
}

type playerState struct {
	id      string
	deck    []string // instance ids, index 0 is the top of the deck
	hand    []string
	discard []string
	play    []string
}

func (p *playerState) zone(name string) (*[]string, bool) {
	switch name {
	case engine.ZoneDeck:
		return &p.deck, true
	case engine.ZoneHand:
		return &p.hand, true
	case engine.ZoneDiscard:
		return &p.discard, true
	case engine.ZonePlay:
		return &p.play, true
	}
	return nil, false
}

// Config describes a new match.
type Config struct {
	MatchID string
	Players []string
	Catalog []engine.CardSpec
	// StartingDeck lists the card keys every player begins with. Empty means
	// the standard seven copper and three estates.
	StartingDeck []string
	Seed         int64
}

// State is the match aggregate: every card instance, every zone, the supply
// piles and the trash. It implements the engine's card library, card source
// and find-cards collaborator contracts; the price controller is built
// alongside and exposed through Prices.
type State struct {
	mu sync.Mutex

	id          string
	catalog     map[string]engine.CardSpec
	catalogList []engine.CardSpec
	instances   map[string]*Instance
	players     map[string]*playerState
	playerOrder []string
	supply      map[string]int
	trash       []string
	prices      *PriceController
	rng         *rand.Rand
}

// New builds a match with full supply piles and each player's starting deck
// shuffled and dealt to a hand of five.
func New(cfg Config) (*State, error) {
	if len(cfg.Players) == 0 {
		return nil, errors.New("match: no players")
	}
	s := &State{
		id:          cfg.MatchID,
		catalog:     make(map[string]engine.CardSpec, len(cfg.Catalog)),
		catalogList: cfg.Catalog,
		instances:   make(map[string]*Instance),
		players:     make(map[string]*playerState, len(cfg.Players)),
		playerOrder: append([]string(nil), cfg.Players...),
		supply:      make(map[string]int, len(cfg.Catalog)),
		prices:      NewPriceController(),
		rng:         rand.New(rand.NewSource(cfg.Seed)),
	}
	for _, spec := range cfg.Catalog {
		s.catalog[spec.Key] = spec
		s.supply[spec.Key] = spec.Supply
	}

	starting := cfg.StartingDeck
	if len(starting) == 0 {
		starting = defaultStartingDeck()
	}
	for _, key := range starting {
		if _, ok := s.catalog[key]; !ok {
			return nil, fmt.Errorf("%w: starting deck card %q", ErrUnknownKey, key)
		}
	}

	for _, pid := range cfg.Players {
		ps := &playerState{id: pid}
		for _, key := range starting {
			ps.deck = append(ps.deck, s.newInstance(key, pid))
		}
		s.players[pid] = ps
		s.shuffleLocked(ps)
		s.drawLocked(ps, 5)
	}
	return s, nil
}

func defaultStartingDeck() []string {
	deck := make([]string, 0, 10)
	for i := 0; i < 7; i++ {
		deck = append(deck, "copper")
	}
	for i := 0; i < 3; i++ {
		deck = append(deck, "estate")
	}
	return deck
}

func (s *State) newInstance(key, owner string) string {
	id := uuid.NewString()
	s.instances[id] = &Instance{ID: id, Key: key, Owner: owner}
	return id
}

// ID returns the match id.
func (s *State) ID() string { return s.id }

// Players returns the player ids in table order.
func (s *State) Players() []string { return s.playerOrder }

// Prices returns the match's card price controller.
func (s *State) Prices() *PriceController { return s.prices }

// Card implements engine.CardLibrary.
func (s *State) Card(id string) (engine.CardInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok {
		return engine.CardInfo{}, fmt.Errorf("%w: %s", ErrUnknownCard, id)
	}
	spec, ok := s.catalog[inst.Key]
	if !ok {
		return engine.CardInfo{}, fmt.Errorf("%w: %s", ErrUnknownKey, inst.Key)
	}
	return engine.CardInfo{ID: inst.ID, Owner: inst.Owner, Spec: spec}, nil
}

// ByKey implements engine.CardLibrary.
func (s *State) ByKey(key string) (engine.CardSpec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spec, ok := s.catalog[key]
	if !ok {
		return engine.CardSpec{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return spec, nil
}

// AllCards implements engine.CardLibrary.
func (s *State) AllCards() []engine.CardSpec {
	return append([]engine.CardSpec(nil), s.catalogList...)
}

// GetSource implements engine.CardSourceController. The supply zone lists
// the keys of non-empty piles; the trash zone ignores the player id.
func (s *State) GetSource(zone, playerID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch zone {
	case engine.ZoneSupply:
		var keys []string
		for _, spec := range s.catalogList {
			if s.supply[spec.Key] > 0 {
				keys = append(keys, spec.Key)
			}
		}
		return keys
	case engine.ZoneTrash:
		return append([]string(nil), s.trash...)
	}
	ps, ok := s.players[playerID]
	if !ok {
		return nil
	}
	cards, ok := ps.zone(zone)
	if !ok {
		return nil
	}
	return append([]string(nil), (*cards)...)
}

// MoveCard implements engine.CardSourceController.
func (s *State) MoveCard(playerID, cardID, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.players[playerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	src, ok := ps.zone(from)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotInZone, from, cardID)
	}
	dst, ok := ps.zone(to)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotInZone, to, cardID)
	}
	if !removeID(src, cardID) {
		return fmt.Errorf("%w: %s/%s", ErrNotInZone, from, cardID)
	}
	*dst = append(*dst, cardID)
	return nil
}

// DrawOne implements engine.CardSourceController.
func (s *State) DrawOne(playerID string) (string, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.players[playerID]
	if !ok {
		return "", false, false
	}
	reshuffled := false
	if len(ps.deck) == 0 && len(ps.discard) > 0 {
		ps.deck, ps.discard = ps.discard, nil
		s.shuffleLocked(ps)
		reshuffled = true
	}
	if len(ps.deck) == 0 {
		return "", reshuffled, false
	}
	id := ps.deck[0]
	ps.deck = ps.deck[1:]
	ps.hand = append(ps.hand, id)
	return id, reshuffled, true
}

// Shuffle implements engine.CardSourceController.
func (s *State) Shuffle(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ps, ok := s.players[playerID]; ok {
		s.shuffleLocked(ps)
	}
}

func (s *State) shuffleLocked(ps *playerState) {
	s.rng.Shuffle(len(ps.deck), func(i, j int) {
		ps.deck[i], ps.deck[j] = ps.deck[j], ps.deck[i]
	})
}

func (s *State) drawLocked(ps *playerState, n int) {
	for i := 0; i < n && len(ps.deck) > 0; i++ {
		ps.hand = append(ps.hand, ps.deck[0])
		ps.deck = ps.deck[1:]
	}
}

// GainFromSupply implements engine.CardSourceController.
func (s *State) GainFromSupply(playerID, key, to string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.players[playerID]
	if !ok {
		return "", false
	}
	if s.supply[key] <= 0 {
		return "", false
	}
	dst, ok := ps.zone(to)
	if !ok {
		return "", false
	}
	s.supply[key]--
	id := s.newInstance(key, playerID)
	*dst = append(*dst, id)
	return id, true
}

// SupplyCount implements engine.CardSourceController.
func (s *State) SupplyCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.supply[key]
}

// TrashCard implements engine.CardSourceController.
func (s *State) TrashCard(playerID, cardID, from string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.players[playerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	src, ok := ps.zone(from)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotInZone, from, cardID)
	}
	if !removeID(src, cardID) {
		return fmt.Errorf("%w: %s/%s", ErrNotInZone, from, cardID)
	}
	s.trash = append(s.trash, cardID)
	return nil
}

// EmptyPiles returns how many supply piles have run out.
func (s *State) EmptyPiles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	empty := 0
	for _, spec := range s.catalogList {
		if spec.Supply > 0 && s.supply[spec.Key] == 0 {
			empty++
		}
	}
	return empty
}

func removeID(zone *[]string, id string) bool {
	for i, v := range *zone {
		if v == id {
			*zone = append((*zone)[:i], (*zone)[i+1:]...)
			return true
		}
	}
	return false
}
