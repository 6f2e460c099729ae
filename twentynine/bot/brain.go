package bot

import (
	"fmt"

	"taash29/card"
	"taash29/twentynine"
)

// GameView is a read-only projection of the match visible to one bot seat.
type GameView struct {
	Seat       twentynine.Seat
	Hand       []card.Card
	Legal      []card.Card
	Trick      []twentynine.Play
	Trump      card.Suit
	Bid        int
	TrickIndex int
}

// Partner is the seat across the table.
func (v GameView) Partner() twentynine.Seat {
	return (v.Seat + 2) % twentynine.NumSeats
}

// Brain is the interface every bot strategy implements.
type Brain interface {
	// Decide returns one card from view.Legal.
	Decide(view GameView) card.Card
	// Name returns a human-readable identifier for debugging.
	Name() string
}

const (
	BrainRandom = "random"
	BrainGreedy = "greedy"
)

// NewBrain builds the named strategy.
func NewBrain(kind string, seed int64) (Brain, error) {
	switch kind {
	case "", BrainRandom:
		return NewRandomBrain(seed), nil
	case BrainGreedy:
		return NewGreedyBrain(), nil
	}
	return nil, fmt.Errorf("unknown bot brain %q", kind)
}

// BuildView projects a match snapshot for seat.
func BuildView(seat twentynine.Seat, snap twentynine.Snapshot, legal []card.Card) GameView {
	view := GameView{
		Seat:       seat,
		Legal:      legal,
		Trick:      snap.CurrentTrick,
		Trump:      snap.Trump,
		Bid:        snap.Bid,
		TrickIndex: len(snap.Tricks),
	}
	for _, ps := range snap.Players {
		if ps.Seat == seat {
			view.Hand = ps.HandCards
			break
		}
	}
	return view
}
