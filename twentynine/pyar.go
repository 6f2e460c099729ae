package twentynine

import "taash29/card"

const pyarDelta = 4

// PyarShow is a same-colour Queen+King pair found in one hand.
type PyarShow struct {
	Seat  Seat
	Side  Side
	Color card.Color
}

// PyarAdjustment is one Pyar notification: who showed it and how the bid moved.
type PyarAdjustment struct {
	Seat   Seat
	Side   Side
	Color  card.Color
	OldBid int
	NewBid int
}

// FindPyar lists every (seat, colour) Pyar in hands, seats in ascending order.
func FindPyar(hands [NumSeats][]card.Card, teams Teams) []PyarShow {
	var shows []PyarShow
	for seat := Seat(0); seat < NumSeats; seat++ {
		for _, color := range []card.Color{card.Red, card.Black} {
			if hasPyar(hands[seat], color) {
				shows = append(shows, PyarShow{Seat: seat, Side: teams.SideOf(seat), Color: color})
			}
		}
	}
	return shows
}

func hasPyar(hand []card.Card, color card.Color) bool {
	var queen, king bool
	for _, c := range hand {
		if c.Suit().Color() != color {
			continue
		}
		switch c.Rank() {
		case card.RankQ:
			queen = true
		case card.RankK:
			king = true
		}
	}
	return queen && king
}

// EvaluatePyar applies the Pyar rule to bid and returns the adjusted bid with
// one adjustment per applied clause.
//
// Exactly one declarer seat holding Pyar lowers the bid by 4, except 19 which
// drops to 16. A seat holding both colours is still one holder. Any opponent Pyar in the trump colour then raises it by 4. When Pyar was
// shown but neither clause applied a single unchanged adjustment is returned.
func EvaluatePyar(hands [NumSeats][]card.Card, teams Teams, trump card.Suit, bid int) (int, []PyarAdjustment) {
	shows := FindPyar(hands, teams)
	if len(shows) == 0 {
		return bid, nil
	}

	var declarer []PyarShow // first show per declarer seat
	var opponentTrump *PyarShow
	for i := range shows {
		s := shows[i]
		if s.Side == Declarer {
			if len(declarer) == 0 || declarer[len(declarer)-1].Seat != s.Seat {
				declarer = append(declarer, s)
			}
		} else if s.Color == trump.Color() && opponentTrump == nil {
			opponentTrump = &shows[i]
		}
	}

	var adjustments []PyarAdjustment
	if len(declarer) == 1 {
		next := bid - pyarDelta
		if bid == 19 {
			next = 16
		}
		adjustments = append(adjustments, PyarAdjustment{
			Seat: declarer[0].Seat, Side: Declarer, Color: declarer[0].Color,
			OldBid: bid, NewBid: next,
		})
		bid = next
	}
	if opponentTrump != nil {
		adjustments = append(adjustments, PyarAdjustment{
			Seat: opponentTrump.Seat, Side: Opponent, Color: opponentTrump.Color,
			OldBid: bid, NewBid: bid + pyarDelta,
		})
		bid += pyarDelta
	}
	if len(adjustments) == 0 {
		adjustments = append(adjustments, PyarAdjustment{
			Seat: shows[0].Seat, Side: shows[0].Side, Color: shows[0].Color,
			OldBid: bid, NewBid: bid,
		})
	}
	return bid, adjustments
}
