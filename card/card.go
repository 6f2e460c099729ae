package card

import (
	"fmt"
	"strings"
)

// Card 牌枚举
//
// Encoding:
// - high 4 bits: suit (0:Spade, 1:Heart, 2:Club, 3:Diamond)
// - low 4 bits: rank (1:A, 7, 8, 9, 10:T, 11:J, 12:Q, 13:K)
type Card byte

func (c Card) String() string {
	if c == CardInvalid {
		return "Invalid"
	}
	if c == CardRear {
		return "Rear"
	}
	return c.Rank().String() + c.Suit().Letter()
}

// Rank returns the face value encoded in the low nibble.
func (c Card) Rank() Rank {
	if c == CardInvalid || c == CardRear {
		return 0
	}
	return Rank(c & 0x0F)
}

// Suit 花色 (0:Spades, 1:Hearts, 2:Clubs, 3:Diamonds)
func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

// Valid reports whether c is one of the 32 cards of the deck.
func (c Card) Valid() bool {
	if c == CardInvalid || c == CardRear {
		return false
	}
	return c.Suit() <= Diamond && c.Rank().Valid()
}

// Strength orders cards inside one suit: J > 9 > A > 10 > K > Q > 8 > 7.
func (c Card) Strength() int {
	return c.Rank().Strength()
}

// Points is the scoring value of the card: J=3, 9=2, A=1, 10=1, rest 0.
func (c Card) Points() int {
	return c.Rank().Points()
}

// Beats reports whether c outranks other inside the same suit.
func (c Card) Beats(other Card) bool {
	return c.Suit() == other.Suit() && c.Strength() > other.Strength()
}

// New builds a card from a rank and a suit.
func New(r Rank, s Suit) Card {
	return Card(byte(s)<<4 | byte(r))
}

// MarshalText encodes the card as "JH", "10S", ...
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid card: 0x%02x", byte(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts anything Parse accepts.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Parse converts strings such as "JH", "10s", "Td" or "J♥" to a Card.
func Parse(raw string) (Card, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return CardInvalid, fmt.Errorf("invalid card string: %q", raw)
	}

	suit, rankStr, ok := splitSuit(s)
	if !ok {
		return CardInvalid, fmt.Errorf("invalid suit in card %q", raw)
	}

	var rank Rank
	switch strings.ToUpper(rankStr) {
	case "A":
		rank = RankA
	case "7":
		rank = Rank7
	case "8":
		rank = Rank8
	case "9":
		rank = Rank9
	case "T", "10":
		rank = RankT
	case "J":
		rank = RankJ
	case "Q":
		rank = RankQ
	case "K":
		rank = RankK
	default:
		return CardInvalid, fmt.Errorf("invalid rank in card %q", raw)
	}
	return New(rank, suit), nil
}

func splitSuit(s string) (Suit, string, bool) {
	s = strings.TrimSuffix(s, "\uFE0F")
	if s == "" {
		return 0, "", false
	}
	for _, glyph := range []struct {
		text string
		suit Suit
	}{
		{"♠", Spade}, {"♥", Heart}, {"♣", Club}, {"♦", Diamond},
	} {
		if strings.HasSuffix(s, glyph.text) {
			return glyph.suit, strings.TrimSuffix(s, glyph.text), true
		}
	}
	switch s[len(s)-1] {
	case 's', 'S':
		return Spade, s[:len(s)-1], true
	case 'h', 'H':
		return Heart, s[:len(s)-1], true
	case 'c', 'C':
		return Club, s[:len(s)-1], true
	case 'd', 'D':
		return Diamond, s[:len(s)-1], true
	}
	return 0, "", false
}

// MustParse is Parse for literals in tests and tables.
func MustParse(raw string) Card {
	c, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseList parses a slice of card strings.
func ParseList(raw []string) ([]Card, error) {
	out := make([]Card, 0, len(raw))
	for _, s := range raw {
		c, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Strings is the inverse of ParseList.
func Strings(cards []Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.String())
	}
	return out
}
