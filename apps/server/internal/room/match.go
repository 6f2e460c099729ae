package room

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"taash29/apps/server/internal/codec"
	"taash29/card"
	"taash29/twentynine"
)

// startMatchLocked fills empty seats with bots, deals and starts play.
func (r *Room) startMatchLocked() error {
	r.cancelBackfillLocked()

	for len(r.seats) < twentynine.NumSeats {
		if r.bots == nil {
			return fmt.Errorf("no bot manager to fill seat %d", len(r.seats))
		}
		inst := r.bots.Spawn(twentynine.Seat(len(r.seats)))
		r.seats = append(r.seats, &Seat{Identity: inst.ID, Name: inst.Name, Bot: true})
		r.log.Info("bot seated", zap.String("bot", inst.ID), zap.Int("seat", len(r.seats)-1))
	}

	var seed int64
	if r.cfg.Seed != 0 {
		seed = r.cfg.Seed + int64(r.matches)
	}
	m, err := twentynine.NewMatch(twentynine.Config{
		Bid:         r.cfg.Bid,
		TrumpPolicy: r.cfg.TrumpPolicy,
		Trump:       r.cfg.Trump,
		Seed:        seed,
	})
	if err != nil {
		return err
	}
	for i, s := range r.seats {
		if err := m.SitDown(twentynine.Seat(i), s.Identity, s.Name, s.Bot); err != nil {
			return err
		}
	}
	leader := twentynine.Seat(r.matches % twentynine.NumSeats)
	deal, err := m.Deal(leader)
	if err != nil {
		return err
	}

	r.match = m
	r.status = StatusPlaying
	r.matches++
	r.log.Info("match started",
		zap.String("match", deal.MatchID),
		zap.Uint8("leader", uint8(leader)),
		zap.String("trump", deal.Trump.Name()),
		zap.Int("bid", deal.Bid))

	for i, s := range r.seats {
		if s.Bot {
			continue
		}
		r.sendLocked(s.Identity, codec.TypeDealPrivate, codec.Payload{
			"matchId": deal.MatchID,
			"seat":    i,
			"cards":   codec.CardList(deal.Hands[i]),
			"trump":   deal.Trump.Letter(),
		})
	}
	for _, adj := range deal.Pyar {
		r.broadcastLocked(codec.TypePyarActivated, codec.Payload{
			"by":     r.seats[adj.Seat].Name,
			"seat":   int(adj.Seat),
			"side":   adj.Side.String(),
			"color":  adj.Color.String(),
			"oldBid": adj.OldBid,
			"newBid": adj.NewBid,
		})
	}
	r.broadcastLocked(codec.TypeMatchStart, codec.Payload{
		"matchId": deal.MatchID,
		"players": r.playersPayloadLocked(),
		"trump":   deal.Trump.Letter(),
		"bid":     deal.Bid,
		"leader":  int(deal.Leader),
		"declarer": codec.List([]int{
			int(deal.Teams.Declarer[0]), int(deal.Teams.Declarer[1]),
		}),
		"opponent": codec.List([]int{
			int(deal.Teams.Opponent[0]), int(deal.Teams.Opponent[1]),
		}),
	})

	r.driveLocked(deal.Leader)
	return nil
}

func (r *Room) handlePlayCard(identity string, c card.Card) error {
	if r.status != StatusPlaying || r.match == nil {
		return ErrNoMatch
	}
	idx := r.seatOfLocked(identity)
	if idx < 0 {
		return ErrNotSeated
	}
	return r.playLocked(twentynine.Seat(idx), c)
}

func (r *Room) handleBotTurn(gen uint64) error {
	if gen != r.turnGen || r.status != StatusPlaying || r.match == nil {
		return nil
	}
	seat := r.match.Turn()
	if !seat.Valid() || !r.seats[seat].Bot {
		return nil
	}
	legal, err := r.match.LegalCards(seat)
	if err != nil {
		return err
	}
	choice, err := r.bots.OnTurn(r.seats[seat].Identity, r.match.Snapshot(), legal)
	if err != nil {
		return err
	}
	return r.playLocked(seat, choice)
}

// playLocked is the single play path for humans and bots.
func (r *Room) playLocked(seat twentynine.Seat, c card.Card) error {
	res, err := r.match.Play(seat, c)
	if err != nil {
		var invalid twentynine.InvalidStateError
		if !errors.As(err, &invalid) {
			r.log.Debug("play rejected", zap.Uint8("seat", uint8(seat)), zap.Stringer("card", c), zap.Error(err))
		}
		return err
	}
	r.turnGen++

	r.broadcastLocked(codec.TypeCardPlayed, codec.Payload{
		"seat":     int(seat),
		"username": r.seats[seat].Name,
		"card":     c.String(),
	})
	if res.Trick != nil {
		r.broadcastLocked(codec.TypeTrickWon, codec.Payload{
			"winnerSeat": int(res.Trick.Winner),
			"winner":     r.seats[res.Trick.Winner].Name,
			"trick":      res.Trick.Index,
			"points":     res.Trick.Points,
			"cards":      codec.CardList(res.Trick.Cards()),
		})
	}
	if res.Final != nil {
		r.finishMatchLocked(res.Final)
		return nil
	}
	r.driveLocked(res.Next)
	return nil
}

// driveLocked prompts the seat to act: a bot gets a scheduled turn, a
// present human a turnRequest, a vacant seat nothing.
func (r *Room) driveLocked(seat twentynine.Seat) {
	s := r.seats[seat]
	switch {
	case s.Bot:
		r.scheduleBotLocked()
	case s.Vacant:
		r.log.Info("waiting on unattended seat", zap.Uint8("seat", uint8(seat)))
	default:
		legal, err := r.match.LegalCards(seat)
		if err != nil {
			r.log.Warn("legal cards failed", zap.Error(err))
			return
		}
		for _, other := range r.seats {
			if other.Bot || other.Vacant {
				continue
			}
			p := codec.Payload{"seat": int(seat), "username": s.Name}
			if other == s {
				p["legal"] = codec.CardList(legal)
			}
			r.sendLocked(other.Identity, codec.TypeTurnRequest, p)
		}
	}
}

func (r *Room) scheduleBotLocked() {
	r.turnGen++
	gen := r.turnGen
	delay := r.bots.ThinkDelay()
	time.AfterFunc(delay, func() {
		err := r.SubmitEvent(Event{Type: EventBotTurn, Gen: gen})
		if err != nil && !errors.Is(err, ErrRoomClosed) {
			r.log.Warn("bot turn failed", zap.Error(err))
		}
	})
}

func (r *Room) finishMatchLocked(res *twentynine.MatchResult) {
	snap := r.match.Snapshot()
	r.broadcastLocked(codec.TypeMatchEnd, codec.Payload{
		"matchId":         snap.MatchID,
		"declarerPoints":  res.DeclarerPoints,
		"opponentPoints":  res.OpponentPoints,
		"declarerTricks":  res.DeclarerTricks,
		"opponentTricks":  res.OpponentTricks,
		"lastTrickWinner": int(res.LastTrickWinner),
		"bid":             res.Bid,
		"declarerMadeBid": res.DeclarerMadeBid,
	})
	r.log.Info("match ended",
		zap.String("match", snap.MatchID),
		zap.Int("declarer", res.DeclarerPoints),
		zap.Int("opponent", res.OpponentPoints),
		zap.Bool("made_bid", res.DeclarerMadeBid))

	r.releaseBotsLocked()
	kept := r.seats[:0]
	for _, s := range r.seats {
		if !s.Bot && !s.Vacant {
			kept = append(kept, s)
		}
	}
	r.seats = kept
	r.match = nil
	r.status = StatusWaiting
	r.turnGen++

	r.broadcastRoomUpdateLocked()
	if r.humansLocked() > 0 {
		r.restartBackfillLocked()
	}
}
