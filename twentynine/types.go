package twentynine

import "taash29/card"

// Seat is a fixed position at the table, 0..3.
type Seat uint8

const (
	NumSeats       = 4
	HandSize       = 8
	TricksPerMatch = 8
	LastTrickBonus = 1

	InvalidSeat Seat = 0xFF
)

func (s Seat) Valid() bool { return s < NumSeats }

// Next is the seat after s in rotation.
func (s Seat) Next() Seat { return (s + 1) % NumSeats }

type Phase uint8

const (
	PhaseSeating Phase = iota
	PhasePlaying
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseSeating:
		return "seating"
	case PhasePlaying:
		return "playing"
	case PhaseComplete:
		return "complete"
	}
	return "unknown"
}

type Side uint8

const (
	Declarer Side = iota
	Opponent
)

func (s Side) String() string {
	if s == Declarer {
		return "declarer"
	}
	return "opponent"
}

// Teams holds the two partnerships, each in rotation order.
type Teams struct {
	Declarer [2]Seat
	Opponent [2]Seat
}

// SideOf returns which partnership seat belongs to.
func (t Teams) SideOf(seat Seat) Side {
	if t.Declarer[0] == seat || t.Declarer[1] == seat {
		return Declarer
	}
	return Opponent
}

// Play is one card laid into a trick.
type Play struct {
	Seat Seat
	Card card.Card
}

// Trick is a completed trick.
type Trick struct {
	Index  int
	Plays  []Play
	Lead   card.Suit
	Winner Seat
	Points int
}

// Cards returns the four cards of the trick in play order.
func (t Trick) Cards() []card.Card {
	out := make([]card.Card, 0, len(t.Plays))
	for _, p := range t.Plays {
		out = append(out, p.Card)
	}
	return out
}

// PlayResult describes what an accepted play caused.
type PlayResult struct {
	Seat Seat
	Card card.Card

	// Set once the fourth card of a trick lands.
	Trick *Trick

	// Seat to act next; InvalidSeat when the match is complete.
	Next Seat

	Final *MatchResult
}

// MatchResult is the score of a completed match.
type MatchResult struct {
	DeclarerPoints  int
	OpponentPoints  int
	DeclarerTricks  int
	OpponentTricks  int
	LastTrickWinner Seat
	Bid             int
	DeclarerMadeBid bool
}

// DealResult is what Deal produced: the private hands plus public match facts.
type DealResult struct {
	MatchID    string
	Order      [NumSeats]Seat
	Hands      [NumSeats][]card.Card
	Teams      Teams
	Trump      card.Suit
	InitialBid int
	Bid        int
	Pyar       []PyarAdjustment
	Leader     Seat
}
