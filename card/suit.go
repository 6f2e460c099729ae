package card

import "fmt"

type Suit byte

const (
	Spade   Suit = iota // ♠️
	Heart               // ♥️
	Club                // ♣️
	Diamond             // ♦️
)

// Suits lists every suit in encoding order.
var Suits = []Suit{Spade, Heart, Club, Diamond}

func (s Suit) String() string {
	switch s {
	case Diamond:
		return "♦️"
	case Club:
		return "♣️"
	case Heart:
		return "♥️"
	case Spade:
		return "♠️"
	}
	return "?"
}

// Letter is the single-letter wire form of the suit.
func (s Suit) Letter() string {
	switch s {
	case Spade:
		return "S"
	case Heart:
		return "H"
	case Club:
		return "C"
	case Diamond:
		return "D"
	}
	return "?"
}

// Name is the long English name, used in notifications.
func (s Suit) Name() string {
	switch s {
	case Spade:
		return "spades"
	case Heart:
		return "hearts"
	case Club:
		return "clubs"
	case Diamond:
		return "diamonds"
	}
	return "unknown"
}

// ParseSuit accepts a letter, a long name or a glyph.
func ParseSuit(raw string) (Suit, error) {
	switch raw {
	case "S", "s", "spades", "Spades", "♠", "♠️":
		return Spade, nil
	case "H", "h", "hearts", "Hearts", "♥", "♥️":
		return Heart, nil
	case "C", "c", "clubs", "Clubs", "♣", "♣️":
		return Club, nil
	case "D", "d", "diamonds", "Diamonds", "♦", "♦️":
		return Diamond, nil
	}
	return 0, fmt.Errorf("invalid suit: %q", raw)
}

// Color groups suits into the two Pyar colour classes.
type Color byte

const (
	Black Color = iota // spades, clubs
	Red                // hearts, diamonds
)

func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "black"
}

// Color returns the colour class of the suit.
func (s Suit) Color() Color {
	if s == Heart || s == Diamond {
		return Red
	}
	return Black
}

// Suits returns the two suits of the colour class.
func (c Color) Suits() [2]Suit {
	if c == Red {
		return [2]Suit{Heart, Diamond}
	}
	return [2]Suit{Spade, Club}
}
