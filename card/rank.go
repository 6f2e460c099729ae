package card

import "strconv"

// Rank is the face value stored in the low nibble of a Card.
type Rank byte

const (
	RankA Rank = 0x01
	Rank7 Rank = 0x07
	Rank8 Rank = 0x08
	Rank9 Rank = 0x09
	RankT Rank = 0x0A
	RankJ Rank = 0x0B
	RankQ Rank = 0x0C
	RankK Rank = 0x0D
)

// Ranks lists the 29 ranks from strongest to weakest.
var Ranks = []Rank{RankJ, Rank9, RankA, RankT, RankK, RankQ, Rank8, Rank7}

var rankStrength = map[Rank]int{
	RankJ: 8,
	Rank9: 7,
	RankA: 6,
	RankT: 5,
	RankK: 4,
	RankQ: 3,
	Rank8: 2,
	Rank7: 1,
}

var rankPoints = map[Rank]int{
	RankJ: 3,
	Rank9: 2,
	RankA: 1,
	RankT: 1,
}

func (r Rank) Valid() bool {
	_, ok := rankStrength[r]
	return ok
}

// Strength is 1 (7) to 8 (J); 0 for ranks outside the deck.
func (r Rank) Strength() int { return rankStrength[r] }

func (r Rank) Points() int { return rankPoints[r] }

func (r Rank) String() string {
	switch r {
	case RankA:
		return "A"
	case RankT:
		return "10"
	case RankJ:
		return "J"
	case RankQ:
		return "Q"
	case RankK:
		return "K"
	}
	return strconv.Itoa(int(r))
}
