package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taash29/apps/server/internal/codec"
	"taash29/apps/server/internal/wallet"
	"taash29/card"
	"taash29/twentynine"
	"taash29/twentynine/bot"
)

type delivery struct {
	to  string
	env codec.Envelope
}

// recorder keeps envelopes as a client would see them, after a trip
// through the wire codec.
type recorder struct {
	ch chan delivery

	mu   sync.Mutex
	all  []delivery
	errs []error
}

func newRecorder(t *testing.T) *recorder {
	rec := &recorder{ch: make(chan delivery, 4096)}
	t.Cleanup(func() {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		for _, err := range rec.errs {
			t.Errorf("codec round trip: %v", err)
		}
	})
	return rec
}

func (r *recorder) Notify(identity string, env codec.Envelope) {
	data, err := codec.Encode(env, codec.FormatBinary)
	if err == nil {
		env, err = codec.Decode(data, codec.FormatBinary)
	}
	if err != nil {
		r.mu.Lock()
		r.errs = append(r.errs, err)
		r.mu.Unlock()
		return
	}
	d := delivery{to: identity, env: env}
	r.mu.Lock()
	r.all = append(r.all, d)
	r.mu.Unlock()
	r.ch <- d
}

func (r *recorder) ofType(msgType string) []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []delivery
	for _, d := range r.all {
		if d.env.Type == msgType {
			out = append(out, d)
		}
	}
	return out
}

// waitFor reads deliveries until match returns true.
func (r *recorder) waitFor(t *testing.T, match func(delivery) bool) delivery {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case d := <-r.ch:
			if match(d) {
				return d
			}
		case <-timeout:
			t.Fatal("timed out waiting for delivery")
			return delivery{}
		}
	}
}

func isType(to, msgType string) func(delivery) bool {
	return func(d delivery) bool { return d.to == to && d.env.Type == msgType }
}

func newBots(t *testing.T) *bot.Manager {
	t.Helper()
	m, err := bot.NewManager(bot.ManagerConfig{Brain: bot.BrainRandom, ThinkDelay: time.Millisecond, Seed: 7}, zap.NewNop())
	require.NoError(t, err)
	return m
}

func newTestRoom(t *testing.T, cfg Config, rec Notifier, w Wallet, bots *bot.Manager) *Room {
	t.Helper()
	if cfg.BackfillDelay == 0 {
		cfg.BackfillDelay = time.Hour
	}
	if cfg.Trump == 0 && cfg.TrumpPolicy == "" {
		cfg.TrumpPolicy = twentynine.TrumpFixed
		cfg.Trump = card.Heart
	}
	r := New("TEST01", cfg, rec, w, bots, zap.NewNop())
	t.Cleanup(r.Stop)
	return r
}

func TestQuickJoinBackfillPlaysFullMatch(t *testing.T) {
	rec := newRecorder(t)
	r := newTestRoom(t, Config{BackfillDelay: 20 * time.Millisecond, Seed: 42}, rec, nil, newBots(t))

	require.NoError(t, r.Join("human", "Hu", false))

	deal := rec.waitFor(t, isType("human", codec.TypeDealPrivate))
	hand, err := codec.Strings(deal.env.Payload, "cards")
	require.NoError(t, err)
	require.Len(t, hand, twentynine.HandSize)

	start := rec.waitFor(t, isType("human", codec.TypeMatchStart))
	players := start.env.Payload["players"].([]any)
	require.Len(t, players, twentynine.NumSeats)
	bots := 0
	for _, p := range players {
		if p.(map[string]any)["bot"].(bool) {
			bots++
		}
	}
	require.Equal(t, 3, bots)

	var end delivery
	for {
		d := rec.waitFor(t, func(d delivery) bool {
			return d.to == "human" && (d.env.Type == codec.TypeMatchEnd ||
				(d.env.Type == codec.TypeTurnRequest && d.env.Payload["legal"] != nil))
		})
		if d.env.Type == codec.TypeMatchEnd {
			end = d
			break
		}
		legal, err := codec.Strings(d.env.Payload, "legal")
		require.NoError(t, err)
		require.NotEmpty(t, legal)
		c, err := card.Parse(legal[0])
		require.NoError(t, err)
		require.NoError(t, r.Play("human", c))
	}
	r.Stop()

	declarer, err := codec.Int(end.env.Payload, "declarerPoints")
	require.NoError(t, err)
	opponent, err := codec.Int(end.env.Payload, "opponentPoints")
	require.NoError(t, err)
	require.Equal(t, int64(29), declarer+opponent)
	require.Len(t, rec.ofType(codec.TypeMatchEnd), 1)

	// the room may have dealt again after matchEnd; count up to it
	before := func(msgType string) []delivery {
		var out []delivery
		for _, d := range rec.ofType(msgType) {
			if d.env.Seq < end.env.Seq {
				out = append(out, d)
			}
		}
		return out
	}
	seen := make(map[string]bool)
	plays := before(codec.TypeCardPlayed)
	require.Len(t, plays, card.DeckSize)
	for _, p := range plays {
		c := p.env.Payload["card"].(string)
		require.False(t, seen[c], "card %s played twice", c)
		seen[c] = true
	}
	require.Len(t, before(codec.TypeTrickWon), twentynine.TricksPerMatch)
}

func TestFourHumansDealImmediately(t *testing.T) {
	rec := newRecorder(t)
	r := newTestRoom(t, Config{Seed: 3}, rec, nil, nil)

	for _, id := range []string{"p0", "p1", "p2", "p3"} {
		require.NoError(t, r.Join(id, "", false))
	}
	require.Equal(t, StatusPlaying, r.Summary().Status)
	require.ErrorIs(t, r.Join("p4", "", false), ErrRoomInPlay)

	hands := make(map[string]bool)
	for _, id := range []string{"p0", "p1", "p2", "p3"} {
		d := rec.waitFor(t, isType(id, codec.TypeDealPrivate))
		cards, err := codec.Strings(d.env.Payload, "cards")
		require.NoError(t, err)
		require.Len(t, cards, twentynine.HandSize)
		for _, c := range cards {
			require.False(t, hands[c])
			hands[c] = true
		}
	}
	require.Len(t, hands, card.DeckSize)

	// seat 0 leads the first match
	req := rec.waitFor(t, func(d delivery) bool {
		return d.to == "p0" && d.env.Type == codec.TypeTurnRequest
	})
	legal, err := codec.Strings(req.env.Payload, "legal")
	require.NoError(t, err)
	c, err := card.Parse(legal[0])
	require.NoError(t, err)

	require.ErrorIs(t, r.Play("p1", c), twentynine.ErrNotYourTurn)
	require.ErrorIs(t, r.Play("nobody", c), ErrNotSeated)
	notMine, err := card.Parse(handOf(t, rec, "p1")[0])
	require.NoError(t, err)
	require.ErrorIs(t, r.Play("p0", notMine), twentynine.ErrCardNotInHand)
	require.NoError(t, r.Play("p0", c))
	require.ErrorIs(t, r.Play("p0", c), twentynine.ErrNotYourTurn)
}

func handOf(t *testing.T, rec *recorder, id string) []string {
	t.Helper()
	for _, d := range rec.ofType(codec.TypeDealPrivate) {
		if d.to == id {
			cards, err := codec.Strings(d.env.Payload, "cards")
			require.NoError(t, err)
			return cards
		}
	}
	return nil
}

func TestJoinIsIdempotent(t *testing.T) {
	rec := newRecorder(t)
	r := newTestRoom(t, Config{}, rec, nil, nil)

	require.NoError(t, r.Join("a", "Alice", true))
	require.NoError(t, r.Join("a", "Alice", false))
	s := r.Summary()
	require.Len(t, s.Seats, 1)
	require.Equal(t, "a", s.Creator)
	require.Len(t, rec.ofType(codec.TypeRoomCreated), 1)
}

func TestLeaveWhileWaitingCancelsBackfill(t *testing.T) {
	rec := newRecorder(t)
	r := newTestRoom(t, Config{BackfillDelay: 30 * time.Millisecond}, rec, nil, newBots(t))

	require.NoError(t, r.Join("a", "", false))
	require.NoError(t, r.Leave("a"))
	require.ErrorIs(t, r.Leave("a"), ErrNotSeated)

	time.Sleep(100 * time.Millisecond)
	s := r.Summary()
	require.Equal(t, StatusWaiting, s.Status)
	require.Empty(t, s.Seats)
	require.Empty(t, s.MatchID)
}

func TestStartGameForcesBackfill(t *testing.T) {
	rec := newRecorder(t)
	r := newTestRoom(t, Config{}, rec, nil, newBots(t))

	require.NoError(t, r.Join("a", "", false))
	require.NoError(t, r.Start())
	s := r.Summary()
	require.Equal(t, StatusPlaying, s.Status)
	require.Len(t, s.Seats, twentynine.NumSeats)
	require.Equal(t, 1, s.Humans)
	require.NotEmpty(t, s.MatchID)
	require.ErrorIs(t, r.Start(), ErrRoomInPlay)
}

func TestLeaveMidMatchLeavesSeatUnattended(t *testing.T) {
	rec := newRecorder(t)
	r := newTestRoom(t, Config{}, rec, nil, nil)
	for _, id := range []string{"p0", "p1", "p2", "p3"} {
		require.NoError(t, r.Join(id, "", false))
	}
	require.NoError(t, r.Leave("p0"))

	s := r.Summary()
	require.Equal(t, StatusPlaying, s.Status)
	require.True(t, s.Seats[0].Vacant)
	require.Equal(t, 3, s.Humans)

	time.Sleep(20 * time.Millisecond)
	require.Empty(t, rec.ofType(codec.TypeCardPlayed))
}

func TestBotTakeoverOnLeave(t *testing.T) {
	rec := newRecorder(t)
	r := newTestRoom(t, Config{BotTakeoverOnLeave: true}, rec, nil, newBots(t))
	for _, id := range []string{"p0", "p1", "p2", "p3"} {
		require.NoError(t, r.Join(id, "", false))
	}
	require.NoError(t, r.Leave("p0"))

	played := rec.waitFor(t, isType("p1", codec.TypeCardPlayed))
	seat, err := codec.Int(played.env.Payload, "seat")
	require.NoError(t, err)
	require.Equal(t, int64(0), seat)
	require.True(t, r.Summary().Seats[0].Bot)
}

type panicNotifier struct{}

func (panicNotifier) Notify(string, codec.Envelope) { panic("boom") }

func TestPanicClosesOnlyThatRoom(t *testing.T) {
	broken := newTestRoom(t, Config{}, panicNotifier{}, nil, nil)
	healthy := newTestRoom(t, Config{}, newRecorder(t), nil, nil)

	err := broken.Join("a", "", false)
	require.ErrorIs(t, err, ErrRoomClosed)
	require.True(t, broken.IsClosed())
	require.ErrorIs(t, broken.Join("b", "", false), ErrRoomClosed)

	require.NoError(t, healthy.Join("a", "", false))
	require.False(t, healthy.IsClosed())
}

func TestPlayWithoutMatch(t *testing.T) {
	r := newTestRoom(t, Config{}, newRecorder(t), nil, nil)
	require.NoError(t, r.Join("a", "", false))
	require.ErrorIs(t, r.Play("a", card.CardHeartJ), ErrNoMatch)
}

func fund(t *testing.T, w wallet.Service, balances map[string]int64) {
	t.Helper()
	for id, coins := range balances {
		_, err := w.Ensure(context.Background(), id, coins, false)
		require.NoError(t, err)
	}
}
