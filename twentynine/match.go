package twentynine

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"taash29/card"
)

// Match is one deal of 29: four seats, eight tricks.
type Match struct {
	cfg Config
	rng *rand.Rand

	mu sync.Mutex

	id      string
	players [NumSeats]*Player
	phase   Phase

	order     [NumSeats]Seat
	turnIndex int
	teams     Teams

	trump      card.Suit
	initialBid int
	bid        int

	currentTrick []Play
	history      []Trick

	declarerPile card.CardList
	opponentPile card.CardList

	result *MatchResult
}

func NewMatch(cfg Config) (*Match, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Match{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
		phase: PhaseSeating,
	}, nil
}

// SitDown places a player at seat before the deal.
func (m *Match) SitDown(seat Seat, id, name string, robot bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !seat.Valid() {
		return fmt.Errorf("invalid seat %d", seat)
	}
	if m.phase != PhaseSeating {
		return ErrAlreadyDealt
	}
	if m.players[seat] != nil {
		return fmt.Errorf("seat %d: %w", seat, ErrSeatTaken)
	}
	m.players[seat] = &Player{ID: id, Name: name, Seat: seat, Robot: robot}
	return nil
}

// Player returns the player at seat, nil if empty.
func (m *Match) Player(seat Seat) *Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !seat.Valid() {
		return nil
	}
	return m.players[seat]
}

// Deal shuffles a fresh deck and hands 8 cards to each seat round-robin
// starting at leader, then fixes teams, trump and the Pyar-adjusted bid.
func (m *Match) Deal(leader Seat) (*DealResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseSeating {
		return nil, ErrAlreadyDealt
	}
	if !leader.Valid() {
		return nil, fmt.Errorf("invalid leader seat %d", leader)
	}
	for _, p := range m.players {
		if p == nil {
			return nil, ErrSeatsNotFull
		}
	}

	id, err := uuid.NewRandomFromReader(m.rng)
	if err != nil {
		return nil, fmt.Errorf("match id: %w", err)
	}
	m.id = id.String()

	for i := 0; i < NumSeats; i++ {
		m.order[i] = (leader + Seat(i)) % NumSeats
	}
	m.turnIndex = 0
	m.teams = Teams{
		Declarer: [2]Seat{m.order[0], m.order[2]},
		Opponent: [2]Seat{m.order[1], m.order[3]},
	}

	deck := m.buildDeckLocked()
	for _, p := range m.players {
		p.resetHand()
	}
	for i := 0; deck.Count() > 0; i++ {
		c, _ := deck.PopCards(1)
		m.players[m.order[i%NumSeats]].hand.Add(c...)
		if deck.Count() == 0 && m.cfg.TrumpPolicy == TrumpLastDealt {
			m.trump = c[0].Suit()
		}
	}
	if m.cfg.TrumpPolicy != TrumpLastDealt {
		m.trump = m.cfg.Trump
	}

	m.initialBid = m.cfg.Bid
	if m.initialBid == 0 {
		m.initialBid = DefaultBid
	}

	var hands [NumSeats][]card.Card
	for seat, p := range m.players {
		hands[seat] = p.Hand()
	}
	var adjustments []PyarAdjustment
	m.bid, adjustments = EvaluatePyar(hands, m.teams, m.trump, m.initialBid)

	m.phase = PhasePlaying
	if err := m.checkInvariantsLocked(); err != nil {
		return nil, err
	}

	return &DealResult{
		MatchID:    m.id,
		Order:      m.order,
		Hands:      hands,
		Teams:      m.teams,
		Trump:      m.trump,
		InitialBid: m.initialBid,
		Bid:        m.bid,
		Pyar:       adjustments,
		Leader:     leader,
	}, nil
}

func (m *Match) buildDeckLocked() card.CardList {
	var deck card.CardList
	if len(m.cfg.Deck) > 0 {
		deck.Init(m.cfg.Deck)
		return deck
	}
	deck = card.NewDeck()
	deck.Shuffle(m.rng)
	return deck
}

// Turn is the seat expected to play, InvalidSeat outside play.
func (m *Match) Turn() Seat {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhasePlaying {
		return InvalidSeat
	}
	return m.order[m.turnIndex]
}

// LegalCards lists the cards seat may play right now. Seats other than the
// one to act get an empty slice.
func (m *Match) LegalCards(seat Seat) ([]card.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.phase {
	case PhaseSeating:
		return nil, ErrNotDealt
	case PhaseComplete:
		return nil, ErrMatchEnded
	}
	if !seat.Valid() {
		return nil, fmt.Errorf("invalid seat %d", seat)
	}
	if m.order[m.turnIndex] != seat {
		return []card.Card{}, nil
	}
	return LegalCards(m.players[seat].hand, m.leadLocked()), nil
}

func (m *Match) leadLocked() *card.Suit {
	if len(m.currentTrick) == 0 {
		return nil
	}
	lead := m.currentTrick[0].Card.Suit()
	return &lead
}

// Play lays c from seat onto the current trick. A rejected play leaves the
// match untouched.
func (m *Match) Play(seat Seat, c card.Card) (*PlayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.phase {
	case PhaseSeating:
		return nil, ErrNotDealt
	case PhaseComplete:
		return nil, ErrMatchEnded
	}
	if !seat.Valid() || m.order[m.turnIndex] != seat {
		return nil, ErrNotYourTurn
	}
	p := m.players[seat]
	if !p.hand.Contains(c) {
		return nil, fmt.Errorf("%s: %w", c, ErrCardNotInHand)
	}
	if lead := m.leadLocked(); lead != nil && c.Suit() != *lead && p.hand.HasSuit(*lead) {
		return nil, fmt.Errorf("%s on %s lead: %w", c, lead.Name(), ErrIllegalPlay)
	}

	p.hand.Remove(c)
	m.currentTrick = append(m.currentTrick, Play{Seat: seat, Card: c})
	res := &PlayResult{Seat: seat, Card: c}

	if len(m.currentTrick) < NumSeats {
		m.turnIndex = (m.turnIndex + 1) % NumSeats
		res.Next = m.order[m.turnIndex]
		return res, m.checkInvariantsLocked()
	}

	trick := m.resolveTrickLocked()
	res.Trick = &trick

	if len(m.history) == TricksPerMatch {
		res.Final = m.finishLocked()
		res.Next = InvalidSeat
		return res, m.checkInvariantsLocked()
	}
	res.Next = m.order[m.turnIndex]
	return res, m.checkInvariantsLocked()
}

func (m *Match) resolveTrickLocked() Trick {
	plays := m.currentTrick
	winner := ResolveTrick(plays, m.trump)
	trick := Trick{
		Index:  len(m.history),
		Plays:  plays,
		Lead:   plays[0].Card.Suit(),
		Winner: winner,
		Points: trickPoints(plays),
	}
	m.history = append(m.history, trick)
	m.currentTrick = nil

	cards := trick.Cards()
	if m.teams.SideOf(winner) == Declarer {
		m.declarerPile.Add(cards...)
	} else {
		m.opponentPile.Add(cards...)
	}
	for i, s := range m.order {
		if s == winner {
			m.turnIndex = i
			break
		}
	}
	return trick
}

func (m *Match) finishLocked() *MatchResult {
	last := m.history[len(m.history)-1].Winner
	r := &MatchResult{
		DeclarerPoints:  m.declarerPile.Points(),
		OpponentPoints:  m.opponentPile.Points(),
		LastTrickWinner: last,
		Bid:             m.bid,
	}
	if m.teams.SideOf(last) == Declarer {
		r.DeclarerPoints += LastTrickBonus
	} else {
		r.OpponentPoints += LastTrickBonus
	}
	for _, t := range m.history {
		if m.teams.SideOf(t.Winner) == Declarer {
			r.DeclarerTricks++
		} else {
			r.OpponentTricks++
		}
	}
	r.DeclarerMadeBid = r.DeclarerPoints >= m.bid
	m.result = r
	m.phase = PhaseComplete
	return r
}

// Result is the final score, nil until the match completes.
func (m *Match) Result() *MatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.result == nil {
		return nil
	}
	r := *m.result
	return &r
}

// checkInvariantsLocked verifies card conservation and turn sanity.
func (m *Match) checkInvariantsLocked() error {
	if m.phase == PhaseSeating {
		return nil
	}
	seen := make(map[card.Card]bool, card.DeckSize)
	count := func(cards []card.Card) error {
		for _, c := range cards {
			if seen[c] {
				return ErrInvalidState(fmt.Sprintf("card %s seen twice", c))
			}
			seen[c] = true
		}
		return nil
	}
	for _, p := range m.players {
		if err := count(p.hand); err != nil {
			return err
		}
	}
	for _, pl := range m.currentTrick {
		if err := count([]card.Card{pl.Card}); err != nil {
			return err
		}
	}
	for _, t := range m.history {
		if err := count(t.Cards()); err != nil {
			return err
		}
	}
	if len(seen) != card.DeckSize {
		return ErrInvalidState(fmt.Sprintf("card count %d != %d", len(seen), card.DeckSize))
	}
	if len(m.currentTrick) >= NumSeats {
		return ErrInvalidState("current trick not cleared")
	}
	if m.declarerPile.Count()+m.opponentPile.Count() != len(m.history)*NumSeats {
		return ErrInvalidState("piles do not match trick history")
	}
	if m.phase == PhasePlaying && m.players[m.order[m.turnIndex]].hand.Count() == 0 {
		return ErrInvalidState(fmt.Sprintf("seat %d to act with empty hand", m.order[m.turnIndex]))
	}
	return nil
}
