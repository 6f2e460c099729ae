package replay

import (
	"fmt"

	"taash29/card"
	"taash29/twentynine"
	"taash29/twentynine/bot"
)

type normalizedSeat struct {
	seat  twentynine.Seat
	id    string
	name  string
	robot bool
}

type normalizedPlay struct {
	seat twentynine.Seat
	card card.Card
}

type normalizedSpec struct {
	cfg    twentynine.Config
	leader twentynine.Seat
	brain  string
	seats  [twentynine.NumSeats]normalizedSeat
	plays  []normalizedPlay
}

func seedFromSpec(rng *RNGSpec) int64 {
	if rng == nil || rng.Seed == 0 {
		return 1
	}
	return rng.Seed
}

func normalizeSpec(spec MatchSpec) (normalizedSpec, error) {
	var out normalizedSpec

	out.leader = twentynine.Seat(spec.Leader)
	if !out.leader.Valid() {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_leader", Message: "leader out of range"}
	}
	if _, err := bot.NewBrain(spec.Brain, 1); err != nil {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_brain", Message: err.Error()}
	}
	out.brain = spec.Brain

	policy, err := twentynine.ParseTrumpPolicy(spec.TrumpPolicy)
	if err != nil {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_trump_policy", Message: err.Error()}
	}
	trump := card.Heart
	if spec.Trump != "" {
		if trump, err = card.ParseSuit(spec.Trump); err != nil {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_trump", Message: err.Error()}
		}
	}
	deck, err := card.ParseList(spec.Deck)
	if err != nil {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_deck", Message: err.Error()}
	}
	out.cfg = twentynine.Config{
		Bid:         spec.Bid,
		TrumpPolicy: policy,
		Trump:       trump,
		Deck:        deck,
		Seed:        seedFromSpec(spec.RNG),
	}

	var seated [twentynine.NumSeats]bool
	for i, s := range spec.Seats {
		seat := twentynine.Seat(s.Seat)
		if !seat.Valid() {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_seat", Message: fmt.Sprintf("seat %d out of range", i)}
		}
		if seated[seat] {
			return out, &ReplayError{StepIndex: -1, Reason: "duplicate_seat", Message: fmt.Sprintf("duplicate seat %d", seat)}
		}
		seated[seat] = true
		id := s.ID
		if id == "" {
			id = fmt.Sprintf("P%d", seat)
		}
		name := s.Name
		if name == "" {
			name = id
		}
		out.seats[seat] = normalizedSeat{seat: seat, id: id, name: name}
	}
	for seat := twentynine.Seat(0); seat < twentynine.NumSeats; seat++ {
		if !seated[seat] {
			out.seats[seat] = normalizedSeat{seat: seat, robot: true}
		}
	}

	for i, p := range spec.Plays {
		c, err := card.Parse(p.Card)
		if err != nil {
			return out, &ReplayError{StepIndex: int32(i), Reason: "invalid_card", Message: err.Error()}
		}
		out.plays = append(out.plays, normalizedPlay{seat: twentynine.Seat(p.Seat), card: c})
	}
	return out, nil
}
