package card

import "math/rand"

type CardList []Card

func (ds *CardList) Init(cards []Card) {
	*ds = make([]Card, len(cards))
	copy(*ds, cards)
}

// Count 获取总牌数
func (ds CardList) Count() int {
	return len(ds)
}

func (ds CardList) Strings() []string {
	return Strings(ds)
}

// Shuffle permutes the list in place with the given source.
func (ds CardList) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(ds), func(i, j int) {
		ds[i], ds[j] = ds[j], ds[i]
	})
}

func (ds *CardList) Add(cards ...Card) {
	*ds = append(*ds, cards...)
}

func (ds *CardList) PopCard() Card {
	totalCount := ds.Count()
	if totalCount == 0 {
		return CardInvalid
	}
	card := (*ds)[totalCount-1]
	*ds = (*ds)[:totalCount-1]
	return card
}

func (ds *CardList) PopCards(size int) ([]Card, bool) {
	if size > ds.Count() {
		return nil, false
	}
	cards := make([]Card, size)
	copy(cards, (*ds)[:size])
	*ds = (*ds)[size:]
	return cards, true
}

// Contains reports whether c is in the list.
func (ds CardList) Contains(c Card) bool {
	return ds.IndexOf(c) >= 0
}

func (ds CardList) IndexOf(c Card) int {
	for i, x := range ds {
		if x == c {
			return i
		}
	}
	return -1
}

// Remove deletes the first occurrence of c, preserving order.
func (ds *CardList) Remove(c Card) bool {
	i := ds.IndexOf(c)
	if i < 0 {
		return false
	}
	*ds = append((*ds)[:i], (*ds)[i+1:]...)
	return true
}

// HasSuit reports whether any card of suit s is present.
func (ds CardList) HasSuit(s Suit) bool {
	for _, c := range ds {
		if c.Suit() == s {
			return true
		}
	}
	return false
}

// OfSuit returns the cards of suit s in list order.
func (ds CardList) OfSuit(s Suit) []Card {
	out := make([]Card, 0, len(ds))
	for _, c := range ds {
		if c.Suit() == s {
			out = append(out, c)
		}
	}
	return out
}

// Points sums card points.
func (ds CardList) Points() int {
	total := 0
	for _, c := range ds {
		total += c.Points()
	}
	return total
}
