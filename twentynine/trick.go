package twentynine

import "taash29/card"

// ResolveTrick returns the seat that wins plays. The highest trump wins if
// any trump was played, otherwise the highest card of the lead suit.
func ResolveTrick(plays []Play, trump card.Suit) Seat {
	if len(plays) == 0 {
		return InvalidSeat
	}
	lead := plays[0].Card.Suit()
	best := plays[0]
	for _, p := range plays[1:] {
		if outranks(p.Card, best.Card, lead, trump) {
			best = p
		}
	}
	return best.Seat
}

func outranks(c, best card.Card, lead, trump card.Suit) bool {
	cTrump := c.Suit() == trump
	bestTrump := best.Suit() == trump
	switch {
	case cTrump && !bestTrump:
		return true
	case !cTrump && bestTrump:
		return false
	case cTrump && bestTrump:
		return c.Strength() > best.Strength()
	}
	if c.Suit() != lead {
		return false
	}
	return best.Suit() != lead || c.Strength() > best.Strength()
}

// LegalCards filters hand down to the cards that may be played on a trick
// led with lead. A nil lead means the seat is leading and anything goes.
func LegalCards(hand []card.Card, lead *card.Suit) []card.Card {
	out := make([]card.Card, 0, len(hand))
	if lead != nil && card.CardList(hand).HasSuit(*lead) {
		out = append(out, card.CardList(hand).OfSuit(*lead)...)
		return out
	}
	return append(out, hand...)
}

func trickPoints(plays []Play) int {
	total := 0
	for _, p := range plays {
		total += p.Card.Points()
	}
	return total
}
