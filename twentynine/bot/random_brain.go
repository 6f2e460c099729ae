package bot

import (
	"math/rand"

	"taash29/card"
)

// RandomBrain plays a uniformly random legal card.
type RandomBrain struct {
	rng *rand.Rand
}

func NewRandomBrain(seed int64) *RandomBrain {
	return &RandomBrain{rng: rand.New(rand.NewSource(seed))}
}

func (b *RandomBrain) Name() string { return BrainRandom }

func (b *RandomBrain) Decide(view GameView) card.Card {
	if len(view.Legal) == 0 {
		return card.CardInvalid
	}
	return view.Legal[b.rng.Intn(len(view.Legal))]
}
