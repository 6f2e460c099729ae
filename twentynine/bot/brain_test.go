package bot

import (
	"testing"

	"go.uber.org/zap"

	"taash29/card"
	"taash29/twentynine"
)

func TestRandomBrainOnlyPlaysLegalCards(t *testing.T) {
	brain := NewRandomBrain(42)
	legal := []card.Card{card.CardHeartJ, card.CardHeart7}
	view := GameView{
		Seat:  1,
		Hand:  []card.Card{card.CardHeartJ, card.CardHeart7, card.CardSpadeA},
		Legal: legal,
	}
	counts := map[card.Card]int{}
	for i := 0; i < 1000; i++ {
		c := brain.Decide(view)
		if !card.CardList(legal).Contains(c) {
			t.Fatalf("illegal card %s", c)
		}
		counts[c]++
	}
	for _, c := range legal {
		if counts[c] < 400 {
			t.Fatalf("choice not uniform enough: %v", counts)
		}
	}
}

func TestGreedyBrainWinsCheaply(t *testing.T) {
	view := GameView{
		Seat:  1,
		Trump: card.Club,
		Trick: []twentynine.Play{{Seat: 0, Card: card.CardHeartA}},
		Legal: []card.Card{card.CardHeartJ, card.CardHeart9, card.CardHeart7},
	}
	if got := NewGreedyBrain().Decide(view); got != card.CardHeart9 {
		t.Fatalf("Decide = %s, want 9H", got)
	}
}

func TestGreedyBrainFeedsWinningPartner(t *testing.T) {
	view := GameView{
		Seat:  3,
		Trump: card.Club,
		Trick: []twentynine.Play{
			{Seat: 0, Card: card.CardHeart7},
			{Seat: 1, Card: card.CardHeartJ},
			{Seat: 2, Card: card.CardHeart8},
		},
		Legal: []card.Card{card.CardHeartA, card.CardHeartQ},
	}
	if got := NewGreedyBrain().Decide(view); got != card.CardHeartA {
		t.Fatalf("Decide = %s, want AH", got)
	}
}

func TestGreedyBrainDiscardsWhenItCannotWin(t *testing.T) {
	view := GameView{
		Seat:  2,
		Trump: card.Spade,
		Trick: []twentynine.Play{
			{Seat: 0, Card: card.CardHeart7},
			{Seat: 1, Card: card.CardHeartJ},
		},
		Legal: []card.Card{card.CardHeart9, card.CardHeartK},
	}
	if got := NewGreedyBrain().Decide(view); got != card.CardHeartK {
		t.Fatalf("Decide = %s, want KH", got)
	}
}

func TestNewBrainRejectsUnknownKind(t *testing.T) {
	if _, err := NewBrain("clever", 1); err == nil {
		t.Fatalf("expected error")
	}
}

func TestManagerPlaysLegalCardsThroughAMatch(t *testing.T) {
	mgr, err := NewManager(ManagerConfig{Brain: BrainGreedy, Seed: 3}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewManager err: %v", err)
	}
	m, err := twentynine.NewMatch(twentynine.Config{Seed: 3})
	if err != nil {
		t.Fatalf("NewMatch err: %v", err)
	}
	bots := make([]*Instance, twentynine.NumSeats)
	for seat := twentynine.Seat(0); seat < twentynine.NumSeats; seat++ {
		bots[seat] = mgr.Spawn(seat)
		if err := m.SitDown(seat, bots[seat].ID, bots[seat].Name, true); err != nil {
			t.Fatalf("SitDown err: %v", err)
		}
	}
	if _, err := m.Deal(0); err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	for {
		seat := m.Turn()
		if seat == twentynine.InvalidSeat {
			break
		}
		legal, err := m.LegalCards(seat)
		if err != nil {
			t.Fatalf("LegalCards err: %v", err)
		}
		c, err := mgr.OnTurn(bots[seat].ID, m.Snapshot(), legal)
		if err != nil {
			t.Fatalf("OnTurn err: %v", err)
		}
		if _, err := m.Play(seat, c); err != nil {
			t.Fatalf("Play err: %v", err)
		}
	}
	if r := m.Result(); r == nil || r.DeclarerPoints+r.OpponentPoints != 29 {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestThinkDelayWithinJitter(t *testing.T) {
	mgr, err := NewManager(ManagerConfig{ThinkDelay: 100, Jitter: 50, Seed: 1}, nil)
	if err != nil {
		t.Fatalf("NewManager err: %v", err)
	}
	for i := 0; i < 100; i++ {
		d := mgr.ThinkDelay()
		if d < 100 || d >= 150 {
			t.Fatalf("delay %v out of range", d)
		}
	}
}
