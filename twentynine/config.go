package twentynine

import (
	"fmt"

	"taash29/card"
)

// TrumpPolicy selects where the initial trump comes from.
type TrumpPolicy string

const (
	TrumpFixed     TrumpPolicy = "fixed"      // Config.Trump
	TrumpLastDealt TrumpPolicy = "last-dealt" // suit of the final card dealt
)

const DefaultBid = 16

type Config struct {
	// Starting bid before Pyar adjustment (0 => DefaultBid)
	Bid int

	TrumpPolicy TrumpPolicy
	Trump       card.Suit

	// Deck overrides the shuffled deck when non-empty. Card i goes to
	// rotation offset i%4. Used by tests and replays.
	Deck []card.Card

	// RNG seed (0 => time-based)
	Seed int64
}

func (c Config) validate() error {
	if c.Bid < 0 {
		return fmt.Errorf("Bid must be >= 0")
	}
	switch c.TrumpPolicy {
	case "", TrumpFixed, TrumpLastDealt:
	default:
		return fmt.Errorf("unknown trump policy %q", c.TrumpPolicy)
	}
	if c.Trump > card.Diamond {
		return fmt.Errorf("invalid trump suit %d", c.Trump)
	}
	if len(c.Deck) > 0 {
		if len(c.Deck) != card.DeckSize {
			return fmt.Errorf("deck override must have %d cards, got %d", card.DeckSize, len(c.Deck))
		}
		seen := make(map[card.Card]bool, card.DeckSize)
		for _, cd := range c.Deck {
			if !cd.Valid() || seen[cd] {
				return fmt.Errorf("deck override has invalid or duplicate card %s", cd)
			}
			seen[cd] = true
		}
	}
	return nil
}

// ParseTrumpPolicy maps a config string to a TrumpPolicy.
func ParseTrumpPolicy(raw string) (TrumpPolicy, error) {
	switch TrumpPolicy(raw) {
	case "", TrumpFixed:
		return TrumpFixed, nil
	case TrumpLastDealt:
		return TrumpLastDealt, nil
	}
	return "", fmt.Errorf("unknown trump policy %q", raw)
}
