package twentynine

import "taash29/card"

type Player struct {
	ID    string
	Name  string
	Seat  Seat
	Robot bool

	hand card.CardList
}

// Hand returns a copy of the player's cards.
func (p *Player) Hand() []card.Card {
	if p == nil {
		return nil
	}
	out := make([]card.Card, len(p.hand))
	copy(out, p.hand)
	return out
}

func (p *Player) HandCount() int { return p.hand.Count() }

func (p *Player) resetHand() {
	p.hand = make(card.CardList, 0, HandSize)
}
