package twentynine

import "taash29/card"

type PlayerSnapshot struct {
	ID        string
	Name      string
	Seat      Seat
	Robot     bool
	Side      Side
	HandCount int
	HandCards []card.Card
}

type Snapshot struct {
	MatchID string
	Phase   Phase

	Order      [NumSeats]Seat
	Teams      Teams
	ActionSeat Seat

	Trump      card.Suit
	InitialBid int
	Bid        int

	CurrentTrick []Play
	Tricks       []Trick

	DeclarerPile []card.Card
	OpponentPile []card.Card

	Players []PlayerSnapshot
	Result  *MatchResult
}

// Snapshot returns a read-only copy of the match state, hands included.
// Callers must strip HandCards before publishing it.
func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		MatchID:      m.id,
		Phase:        m.phase,
		Order:        m.order,
		Teams:        m.teams,
		ActionSeat:   InvalidSeat,
		Trump:        m.trump,
		InitialBid:   m.initialBid,
		Bid:          m.bid,
		CurrentTrick: append([]Play{}, m.currentTrick...),
		DeclarerPile: append([]card.Card{}, m.declarerPile...),
		OpponentPile: append([]card.Card{}, m.opponentPile...),
	}
	if m.phase == PhasePlaying {
		s.ActionSeat = m.order[m.turnIndex]
	}
	for _, t := range m.history {
		t.Plays = append([]Play{}, t.Plays...)
		s.Tricks = append(s.Tricks, t)
	}
	if m.result != nil {
		r := *m.result
		s.Result = &r
	}
	for seat := Seat(0); seat < NumSeats; seat++ {
		p := m.players[seat]
		if p == nil {
			continue
		}
		s.Players = append(s.Players, PlayerSnapshot{
			ID:        p.ID,
			Name:      p.Name,
			Seat:      p.Seat,
			Robot:     p.Robot,
			Side:      m.teams.SideOf(p.Seat),
			HandCount: p.hand.Count(),
			HandCards: p.Hand(),
		})
	}
	return s
}
