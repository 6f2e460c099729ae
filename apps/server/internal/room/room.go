package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"taash29/apps/server/internal/codec"
	"taash29/apps/server/internal/logging"
	"taash29/card"
	"taash29/twentynine"
	"taash29/twentynine/bot"
)

// Status is the room lifecycle state.
type Status uint8

const (
	StatusWaiting Status = iota
	StatusPlaying
)

func (s Status) String() string {
	if s == StatusPlaying {
		return "playing"
	}
	return "waiting"
}

// Notifier delivers an envelope to one identity. It must not block.
type Notifier interface {
	Notify(identity string, env codec.Envelope)
}

// Wallet is the coin store consulted by stake settlement.
type Wallet interface {
	GetBalance(ctx context.Context, identity string) (int64, error)
	Debit(ctx context.Context, identity string, amount int64) (int64, error)
	Credit(ctx context.Context, identity string, amount int64) (int64, error)
}

type Config struct {
	BackfillDelay time.Duration

	Bid         int
	TrumpPolicy twentynine.TrumpPolicy
	Trump       card.Suit

	HouseIdentity      string
	BotTakeoverOnLeave bool

	// RNG seed for deals (0 => time-based)
	Seed int64
}

// Seat is one occupied position. Seats are ordered; the index is the
// match seat.
type Seat struct {
	Identity string
	Name     string
	Bot      bool

	// Vacant marks a human who left mid-match. The seat stays in the
	// match but nobody plays for it.
	Vacant bool
}

// Room is a four-seat game room driven by a single actor goroutine.
type Room struct {
	Code string

	cfg      Config
	log      *zap.Logger
	notifier Notifier
	wallet   Wallet
	bots     *bot.Manager

	mu       sync.RWMutex
	seats    []*Seat
	creator  string
	status   Status
	match    *twentynine.Match
	stake    *Stake
	matches  int
	closed   bool
	stopOnce sync.Once

	backfill    *time.Timer
	backfillGen uint64
	turnGen     uint64

	serverSeq uint64

	events chan Event
	done   chan struct{}
}

type EventType int

const (
	EventJoin EventType = iota
	EventLeave
	EventStartGame
	EventPlayCard
	EventStartBid
	EventResolveRound
	EventBackfill
	EventBotTurn
	EventClose
)

// Event is a message to the room actor.
type Event struct {
	Type     EventType
	Identity string
	Name     string
	Created  bool
	Card     card.Card
	Team     []string
	Amount   int64
	Gen      uint64

	Timestamp time.Time
	Response  chan error
}

const (
	walletTimeout = 5 * time.Second

	DefaultHouseIdentity = "admin"
)

func New(code string, cfg Config, notifier Notifier, wallet Wallet, bots *bot.Manager, log *zap.Logger) *Room {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Bid == 0 {
		cfg.Bid = twentynine.DefaultBid
	}
	if cfg.HouseIdentity == "" {
		cfg.HouseIdentity = DefaultHouseIdentity
	}
	r := &Room{
		Code:     code,
		cfg:      cfg,
		log:      logging.Room(log, code),
		notifier: notifier,
		wallet:   wallet,
		bots:     bots,
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
	}
	go r.run()
	r.log.Info("room created")
	return r
}

func (r *Room) run() {
	for {
		select {
		case e := <-r.events:
			err := r.safeHandle(e)
			if e.Response != nil {
				e.Response <- err
			}
		case <-r.done:
			r.log.Info("room actor stopped")
			return
		}
	}
}

// safeHandle turns a panic or a broken engine invariant into a closed room.
// Other rooms keep running.
func (r *Room) safeHandle(e Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("room handler panicked", zap.Any("panic", p), zap.Int("event", int(e.Type)), zap.Stack("stack"))
			r.Stop()
			err = fmt.Errorf("internal error: %w", ErrRoomClosed)
		}
	}()
	err = r.handleEvent(e)
	var invalid twentynine.InvalidStateError
	if errors.As(err, &invalid) {
		r.log.Error("engine invariant broken, closing room", zap.Error(err))
		r.Stop()
		return fmt.Errorf("internal error: %w", ErrRoomClosed)
	}
	return err
}

func (r *Room) handleEvent(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed && e.Type != EventClose {
		return ErrRoomClosed
	}

	switch e.Type {
	case EventJoin:
		return r.handleJoin(e.Identity, e.Name, e.Created)
	case EventLeave:
		return r.handleLeave(e.Identity)
	case EventStartGame:
		return r.handleStartGame()
	case EventPlayCard:
		return r.handlePlayCard(e.Identity, e.Card)
	case EventStartBid:
		return r.handleStartBid(e.Team, e.Amount)
	case EventResolveRound:
		return r.handleResolveRound(e.Team)
	case EventBackfill:
		return r.handleBackfill(e.Gen)
	case EventBotTurn:
		return r.handleBotTurn(e.Gen)
	case EventClose:
		r.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

// SubmitEvent sends an event to the actor and waits for its outcome.
func (r *Room) SubmitEvent(e Event) error {
	e.Timestamp = time.Now()
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrRoomClosed
	}

	select {
	case r.events <- e:
	case <-r.done:
		return ErrRoomClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

func (r *Room) Join(identity, name string, created bool) error {
	return r.SubmitEvent(Event{Type: EventJoin, Identity: identity, Name: name, Created: created})
}

func (r *Room) Leave(identity string) error {
	return r.SubmitEvent(Event{Type: EventLeave, Identity: identity})
}

func (r *Room) Start() error {
	return r.SubmitEvent(Event{Type: EventStartGame})
}

func (r *Room) Play(identity string, c card.Card) error {
	return r.SubmitEvent(Event{Type: EventPlayCard, Identity: identity, Card: c})
}

func (r *Room) StartBid(team []string, amount int64) error {
	return r.SubmitEvent(Event{Type: EventStartBid, Team: team, Amount: amount})
}

func (r *Room) ResolveRound(winners []string) error {
	return r.SubmitEvent(Event{Type: EventResolveRound, Team: winners})
}

// Stop shuts the room actor down.
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Room) stopLocked() {
	r.closed = true
	r.cancelBackfillLocked()
	r.turnGen++
	r.releaseBotsLocked()
	r.stopOnce.Do(func() {
		close(r.done)
	})
}

func (r *Room) IsClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Summary is a read-only view of a room for listings.
type Summary struct {
	Code    string
	Status  Status
	Creator string
	Seats   []Seat
	Humans  int
	MatchID string
	Stake   *Stake
}

func (r *Room) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Summary{Code: r.Code, Status: r.status, Creator: r.creator}
	for _, seat := range r.seats {
		s.Seats = append(s.Seats, *seat)
		if !seat.Bot && !seat.Vacant {
			s.Humans++
		}
	}
	if r.match != nil {
		s.MatchID = r.match.Snapshot().MatchID
	}
	if r.stake != nil {
		st := *r.stake
		st.Team = append([]string(nil), r.stake.Team...)
		st.Shares = append([]int64(nil), r.stake.Shares...)
		s.Stake = &st
	}
	return s
}

// Open reports whether a quick join may be placed here.
func (r *Room) Open() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.closed && r.status == StatusWaiting && len(r.seats) < twentynine.NumSeats
}

// InPlay reports whether a match is running.
func (r *Room) InPlay() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.closed && r.status == StatusPlaying
}

func (r *Room) handleJoin(identity, name string, created bool) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return fmt.Errorf("empty identity: %w", ErrNotSeated)
	}
	name = normalizeName(name, identity)

	if r.seatOfLocked(identity) >= 0 {
		// already seated, just resend the membership
		r.sendJoinedLocked(identity, created)
		r.broadcastRoomUpdateLocked()
		return nil
	}
	if r.status == StatusPlaying {
		return ErrRoomInPlay
	}
	if len(r.seats) >= twentynine.NumSeats {
		return ErrRoomFull
	}

	r.seats = append(r.seats, &Seat{Identity: identity, Name: name})
	if r.creator == "" {
		r.creator = identity
	}
	r.log.Info("player joined", zap.String("identity", identity), zap.Int("seats", len(r.seats)))

	r.sendJoinedLocked(identity, created)
	r.broadcastRoomUpdateLocked()

	if len(r.seats) == twentynine.NumSeats {
		return r.startMatchLocked()
	}
	r.restartBackfillLocked()
	return nil
}

func (r *Room) handleLeave(identity string) error {
	idx := r.seatOfLocked(identity)
	if idx < 0 {
		return ErrNotSeated
	}
	seat := r.seats[idx]

	if r.status == StatusWaiting {
		r.seats = append(r.seats[:idx], r.seats[idx+1:]...)
		if r.creator == identity {
			r.creator = ""
			if len(r.seats) > 0 {
				r.creator = r.seats[0].Identity
			}
		}
		if r.humansLocked() == 0 {
			r.cancelBackfillLocked()
		}
		r.log.Info("player left", zap.String("identity", identity), zap.Int("seats", len(r.seats)))
		r.broadcastRoomUpdateLocked()
		return nil
	}

	if r.cfg.BotTakeoverOnLeave && r.bots != nil {
		inst := r.bots.Spawn(twentynine.Seat(idx))
		seat.Identity, seat.Name, seat.Bot = inst.ID, inst.Name, true
		r.log.Info("bot took over vacated seat", zap.String("identity", identity), zap.String("bot", inst.ID), zap.Int("seat", idx))
		r.broadcastRoomUpdateLocked()
		if r.match.Turn() == twentynine.Seat(idx) {
			r.scheduleBotLocked()
		}
		return nil
	}

	seat.Vacant = true
	r.log.Info("player left mid-match, seat unattended", zap.String("identity", identity), zap.Int("seat", idx))
	r.broadcastRoomUpdateLocked()
	return nil
}

func (r *Room) handleStartGame() error {
	if r.status == StatusPlaying {
		return ErrRoomInPlay
	}
	return r.startMatchLocked()
}

func (r *Room) handleBackfill(gen uint64) error {
	if gen != r.backfillGen || r.status != StatusWaiting {
		return nil
	}
	r.backfill = nil
	if r.humansLocked() == 0 {
		return nil
	}
	return r.startMatchLocked()
}

func (r *Room) restartBackfillLocked() {
	r.cancelBackfillLocked()
	gen := r.backfillGen
	r.backfill = time.AfterFunc(r.cfg.BackfillDelay, func() {
		err := r.SubmitEvent(Event{Type: EventBackfill, Gen: gen})
		if err != nil && !errors.Is(err, ErrRoomClosed) {
			r.log.Warn("backfill failed", zap.Error(err))
		}
	})
}

func (r *Room) cancelBackfillLocked() {
	r.backfillGen++
	if r.backfill != nil {
		r.backfill.Stop()
		r.backfill = nil
	}
}

func (r *Room) seatOfLocked(identity string) int {
	for i, s := range r.seats {
		if s.Identity == identity && !s.Vacant {
			return i
		}
	}
	return -1
}

func (r *Room) humansLocked() int {
	n := 0
	for _, s := range r.seats {
		if !s.Bot && !s.Vacant {
			n++
		}
	}
	return n
}

func (r *Room) releaseBotsLocked() {
	if r.bots == nil {
		return
	}
	for _, s := range r.seats {
		if s.Bot {
			r.bots.Despawn(s.Identity)
		}
	}
}

func normalizeName(raw, identity string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return identity
	}
	return name
}
