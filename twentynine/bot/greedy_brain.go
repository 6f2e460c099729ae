package bot

import (
	"taash29/card"
	"taash29/twentynine"
)

// GreedyBrain takes a trick with the cheapest winning card when the
// partner is not already winning it, and otherwise throws its cheapest card.
type GreedyBrain struct{}

func NewGreedyBrain() *GreedyBrain { return &GreedyBrain{} }

func (b *GreedyBrain) Name() string { return BrainGreedy }

func (b *GreedyBrain) Decide(view GameView) card.Card {
	if len(view.Legal) == 0 {
		return card.CardInvalid
	}
	if len(view.Trick) == 0 {
		return cheapest(view.Legal, view.Trump)
	}

	if twentynine.ResolveTrick(view.Trick, view.Trump) == view.Partner() {
		// last to play: feed points to the partner
		if len(view.Trick) == twentynine.NumSeats-1 {
			return richest(view.Legal, view.Trump)
		}
		return cheapest(view.Legal, view.Trump)
	}

	var winners []card.Card
	plays := make([]twentynine.Play, len(view.Trick), len(view.Trick)+1)
	copy(plays, view.Trick)
	for _, c := range view.Legal {
		if twentynine.ResolveTrick(append(plays, twentynine.Play{Seat: view.Seat, Card: c}), view.Trump) == view.Seat {
			winners = append(winners, c)
		}
	}
	if len(winners) > 0 {
		return cheapest(winners, view.Trump)
	}
	return cheapest(view.Legal, view.Trump)
}

// cost ranks cards by how much it hurts to give them away.
func cost(c card.Card, trump card.Suit) int {
	v := c.Points()*10 + c.Strength()
	if c.Suit() == trump {
		v += 100
	}
	return v
}

func cheapest(cards []card.Card, trump card.Suit) card.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if cost(c, trump) < cost(best, trump) {
			best = c
		}
	}
	return best
}

func richest(cards []card.Card, trump card.Suit) card.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if c.Suit() == trump {
			continue
		}
		if best.Suit() == trump || c.Points() > best.Points() {
			best = c
		}
	}
	return best
}
