package replay

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"taash29/card"
	"taash29/twentynine"
	"taash29/twentynine/bot"
)

type tapeBuilder struct {
	seq    uint64
	events []ReplayEvent
}

func (b *tapeBuilder) add(typ string, value map[string]any) {
	b.seq++
	b.events = append(b.events, ReplayEvent{Type: typ, Seq: b.seq, Value: value})
}

// GenerateReplayTape plays a match described by spec and records every
// notification the server would send, hands included.
func GenerateReplayTape(spec MatchSpec) (*ReplayTape, error) {
	ns, err := normalizeSpec(spec)
	if err != nil {
		return nil, err
	}

	if len(ns.plays) > card.DeckSize {
		return nil, &ReplayError{StepIndex: card.DeckSize, Reason: "trailing_plays", Message: "more plays than cards in the deck"}
	}

	match, err := twentynine.NewMatch(ns.cfg)
	if err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "engine_init_failed", Message: err.Error()}
	}
	bots, err := bot.NewManager(bot.ManagerConfig{Brain: ns.brain, Seed: ns.cfg.Seed}, zap.NewNop())
	if err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "engine_init_failed", Message: err.Error()}
	}

	// Every seat gets a bot to fall back on once the script runs out.
	var autopilot [twentynine.NumSeats]*bot.Instance
	for seat := twentynine.Seat(0); seat < twentynine.NumSeats; seat++ {
		autopilot[seat] = bots.Spawn(seat)
		s := ns.seats[seat]
		id, name := s.id, s.name
		if s.robot {
			id, name = autopilot[seat].ID, autopilot[seat].Name
		}
		if err := match.SitDown(seat, id, name, s.robot); err != nil {
			return nil, &ReplayError{StepIndex: -1, Reason: "seat_init_failed", Message: err.Error()}
		}
	}

	deal, err := match.Deal(ns.leader)
	if err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "deal_failed", Message: err.Error()}
	}

	builder := &tapeBuilder{}
	for seat := twentynine.Seat(0); seat < twentynine.NumSeats; seat++ {
		builder.add("dealPrivate", map[string]any{
			"seat":    int(seat),
			"cards":   card.Strings(deal.Hands[seat]),
			"matchId": deal.MatchID,
			"trump":   deal.Trump.Letter(),
		})
	}
	for _, adj := range deal.Pyar {
		builder.add("pyarActivated", map[string]any{
			"seat":   int(adj.Seat),
			"side":   adj.Side.String(),
			"color":  adj.Color.String(),
			"oldBid": adj.OldBid,
			"newBid": adj.NewBid,
		})
	}
	builder.add("matchStart", map[string]any{
		"matchId":  deal.MatchID,
		"trump":    deal.Trump.Letter(),
		"bid":      deal.Bid,
		"leader":   int(deal.Leader),
		"declarer": []int{int(deal.Teams.Declarer[0]), int(deal.Teams.Declarer[1])},
	})

	for step := 0; ; step++ {
		seat := match.Turn()
		if seat == twentynine.InvalidSeat {
			break
		}

		var c card.Card
		if step < len(ns.plays) {
			play := ns.plays[step]
			if play.seat != seat {
				return nil, &ReplayError{
					StepIndex: int32(step),
					Reason:    "out_of_turn",
					Message:   fmt.Sprintf("expected seat %d, got %d", seat, play.seat),
					Expected:  expectedStateForSeat(match, seat),
				}
			}
			c = play.card
		} else {
			legal, err := match.LegalCards(seat)
			if err != nil {
				return nil, &ReplayError{StepIndex: int32(step), Reason: "legal_cards_failed", Message: err.Error()}
			}
			if c, err = bots.OnTurn(autopilot[seat].ID, match.Snapshot(), legal); err != nil {
				return nil, &ReplayError{StepIndex: int32(step), Reason: "bot_failed", Message: err.Error()}
			}
		}

		result, err := match.Play(seat, c)
		if err != nil {
			return nil, &ReplayError{
				StepIndex: int32(step),
				Reason:    playErrorReason(err),
				Message:   err.Error(),
				Expected:  expectedStateForSeat(match, seat),
			}
		}

		builder.add("cardPlayed", map[string]any{"seat": int(seat), "card": c.String()})
		if result.Trick != nil {
			builder.add("trickWon", map[string]any{
				"trick":  result.Trick.Index,
				"winner": int(result.Trick.Winner),
				"points": result.Trick.Points,
				"cards":  card.Strings(result.Trick.Cards()),
			})
		}
		if result.Final != nil {
			builder.add("matchEnd", map[string]any{
				"declarerPoints": result.Final.DeclarerPoints,
				"opponentPoints": result.Final.OpponentPoints,
			})
			break
		}
		builder.add("turnRequest", map[string]any{"seat": int(result.Next)})
	}

	tape := &ReplayTape{
		TapeVersion: 1,
		MatchID:     deal.MatchID,
		Events:      builder.events,
	}
	if r := match.Result(); r != nil {
		tape.Result = &ResultView{
			DeclarerPoints:  r.DeclarerPoints,
			OpponentPoints:  r.OpponentPoints,
			DeclarerTricks:  r.DeclarerTricks,
			OpponentTricks:  r.OpponentTricks,
			LastTrickWinner: uint8(r.LastTrickWinner),
			Bid:             r.Bid,
			DeclarerMadeBid: r.DeclarerMadeBid,
		}
	}
	return tape, nil
}

func playErrorReason(err error) string {
	switch {
	case errors.Is(err, twentynine.ErrNotYourTurn):
		return "out_of_turn"
	case errors.Is(err, twentynine.ErrCardNotInHand):
		return "card_not_in_hand"
	case errors.Is(err, twentynine.ErrIllegalPlay):
		return "illegal_play"
	case errors.Is(err, twentynine.ErrMatchEnded):
		return "match_ended"
	}
	var stateErr twentynine.InvalidStateError
	if errors.As(err, &stateErr) {
		return "invalid_state"
	}
	return "play_failed"
}

func expectedStateForSeat(m *twentynine.Match, seat twentynine.Seat) *ExpectedState {
	legal, err := m.LegalCards(seat)
	if err != nil {
		return &ExpectedState{ActionSeat: uint8(seat)}
	}
	return &ExpectedState{
		ActionSeat: uint8(seat),
		LegalCards: card.Strings(legal),
		Trick:      len(m.Snapshot().Tricks),
	}
}
