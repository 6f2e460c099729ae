package lobby

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"taash29/apps/server/internal/room"
	"taash29/twentynine/bot"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrInvalidRoomCode = errors.New("invalid room code")
	ErrNotInRoom       = errors.New("not in a room")
	ErrInMatch         = errors.New("already playing a match")
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6

	// quick join retries when a picked room fills or starts first
	maxJoinAttempts = 8
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]{1,16}$`)

// Lobby is the room registry. Rooms live until Shutdown.
type Lobby struct {
	mu      sync.Mutex
	rooms   map[string]*room.Room
	order   []string          // creation order, quick join fills oldest first
	members map[string]string // identity -> room code

	cfg      room.Config
	notifier room.Notifier
	wallet   room.Wallet
	bots     *bot.Manager
	log      *zap.Logger
	roomLog  *zap.Logger
	rng      *rand.Rand
}

func New(cfg room.Config, notifier room.Notifier, wallet room.Wallet, bots *bot.Manager, log *zap.Logger) *Lobby {
	if log == nil {
		log = zap.NewNop()
	}
	return &Lobby{
		rooms:    make(map[string]*room.Room),
		members:  make(map[string]string),
		cfg:      cfg,
		notifier: notifier,
		wallet:   wallet,
		bots:     bots,
		log:      log.Named("lobby"),
		roomLog:  log.Named("room"),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// QuickJoin seats identity in the oldest open room, creating one if none.
// A player already waiting stays where they are.
func (l *Lobby) QuickJoin(identity, name string) (*room.Room, error) {
	if r := l.RoomOf(identity); r != nil {
		if r.InPlay() {
			return nil, fmt.Errorf("%s: %w", r.Code, ErrInMatch)
		}
		if r.Open() {
			return r, r.Join(identity, name, false)
		}
	}

	for attempt := 0; attempt < maxJoinAttempts; attempt++ {
		r := l.findOpen()
		if r == nil {
			break
		}
		err := l.moveTo(identity, name, r, false)
		if err == nil {
			l.log.Info("quick join", zap.String("identity", identity), zap.String("room", r.Code))
			return r, nil
		}
		if !errors.Is(err, room.ErrRoomFull) && !errors.Is(err, room.ErrRoomInPlay) && !errors.Is(err, room.ErrRoomClosed) {
			return nil, err
		}
	}

	r, _ := l.create("")
	if err := l.moveTo(identity, name, r, false); err != nil {
		return nil, err
	}
	l.log.Info("quick join opened room", zap.String("identity", identity), zap.String("room", r.Code))
	return r, nil
}

// CreateRoom opens a room under code (generated when blank) and seats
// identity. An existing code is joined instead.
func (l *Lobby) CreateRoom(identity, name, code string) (*room.Room, error) {
	code = NormalizeCode(code)
	if code != "" && !codePattern.MatchString(code) {
		return nil, fmt.Errorf("%q: %w", code, ErrInvalidRoomCode)
	}
	if cur := l.RoomOf(identity); cur != nil && cur.Code != code && cur.InPlay() {
		return nil, fmt.Errorf("%s: %w", cur.Code, ErrInMatch)
	}
	r, created := l.create(code)
	if err := l.moveTo(identity, name, r, created); err != nil {
		return nil, err
	}
	l.log.Info("create room", zap.String("identity", identity), zap.String("room", r.Code), zap.Bool("created", created))
	return r, nil
}

// JoinRoom seats identity in an existing room.
func (l *Lobby) JoinRoom(identity, name, code string) (*room.Room, error) {
	r, err := l.Room(code)
	if err != nil {
		return nil, err
	}
	if err := l.moveTo(identity, name, r, false); err != nil {
		return nil, err
	}
	return r, nil
}

// StartGame backfills and deals immediately.
func (l *Lobby) StartGame(code string) error {
	r, err := l.Room(code)
	if err != nil {
		return err
	}
	return r.Start()
}

// Leave takes identity out of its room. The room itself stays.
func (l *Lobby) Leave(identity string) error {
	l.mu.Lock()
	code, ok := l.members[identity]
	delete(l.members, identity)
	r := l.rooms[code]
	l.mu.Unlock()

	if !ok || r == nil {
		return ErrNotInRoom
	}
	err := r.Leave(identity)
	if errors.Is(err, room.ErrNotSeated) || errors.Is(err, room.ErrRoomClosed) {
		return nil
	}
	return err
}

// Room looks a room up by code.
func (l *Lobby) Room(code string) (*room.Room, error) {
	code = NormalizeCode(code)
	l.mu.Lock()
	r := l.rooms[code]
	l.mu.Unlock()
	if r == nil || r.IsClosed() {
		return nil, fmt.Errorf("%s: %w", code, ErrRoomNotFound)
	}
	return r, nil
}

// RoomOf returns the room identity sits in, or nil.
func (l *Lobby) RoomOf(identity string) *room.Room {
	l.mu.Lock()
	r := l.rooms[l.members[identity]]
	l.mu.Unlock()
	if r == nil || r.IsClosed() {
		return nil
	}
	return r
}

// ListRooms summarizes live rooms ordered by code.
func (l *Lobby) ListRooms() []room.Summary {
	l.mu.Lock()
	rooms := make([]*room.Room, 0, len(l.rooms))
	for _, r := range l.rooms {
		rooms = append(rooms, r)
	}
	l.mu.Unlock()

	out := make([]room.Summary, 0, len(rooms))
	for _, r := range rooms {
		if r.IsClosed() {
			continue
		}
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Shutdown stops every room.
func (l *Lobby) Shutdown() {
	l.mu.Lock()
	rooms := l.rooms
	l.rooms = make(map[string]*room.Room)
	l.order = nil
	l.members = make(map[string]string)
	l.mu.Unlock()

	for _, r := range rooms {
		r.Stop()
	}
	l.log.Info("lobby shut down", zap.Int("rooms", len(rooms)))
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (l *Lobby) findOpen() *room.Room {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked()
	for _, code := range l.order {
		if r := l.rooms[code]; r.Open() {
			return r
		}
	}
	return nil
}

// create returns the room under code, opening it if needed.
func (l *Lobby) create(code string) (*room.Room, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked()
	if code != "" {
		if r := l.rooms[code]; r != nil {
			return r, false
		}
	} else {
		code = l.generateCodeLocked()
	}
	r := room.New(code, l.cfg, l.notifier, l.wallet, l.bots, l.roomLog)
	l.rooms[code] = r
	l.order = append(l.order, code)
	return r, true
}

func (l *Lobby) generateCodeLocked() string {
	buf := make([]byte, codeLength)
	for {
		for i := range buf {
			buf[i] = codeAlphabet[l.rng.Intn(len(codeAlphabet))]
		}
		if _, taken := l.rooms[string(buf)]; !taken {
			return string(buf)
		}
	}
}

// pruneLocked drops rooms that closed themselves after an internal error.
func (l *Lobby) pruneLocked() {
	kept := l.order[:0]
	for _, code := range l.order {
		if r := l.rooms[code]; r != nil && !r.IsClosed() {
			kept = append(kept, code)
			continue
		}
		delete(l.rooms, code)
		l.log.Warn("dropped closed room", zap.String("room", code))
	}
	l.order = kept
}

// moveTo seats identity in r and only then takes it out of its previous
// room, so a refused join leaves the caller where it was. A player in a
// running match cannot move.
func (l *Lobby) moveTo(identity, name string, r *room.Room, created bool) error {
	cur := l.RoomOf(identity)
	if cur == r {
		cur = nil
	}
	if cur != nil && cur.InPlay() {
		return fmt.Errorf("%s: %w", cur.Code, ErrInMatch)
	}
	if err := r.Join(identity, name, created); err != nil {
		return err
	}
	l.remember(identity, r.Code)
	if cur != nil {
		err := cur.Leave(identity)
		if err != nil && !errors.Is(err, room.ErrNotSeated) && !errors.Is(err, room.ErrRoomClosed) {
			l.log.Warn("leave previous room", zap.String("identity", identity), zap.String("room", cur.Code), zap.Error(err))
		}
	}
	return nil
}

func (l *Lobby) remember(identity, code string) {
	l.mu.Lock()
	l.members[identity] = code
	l.mu.Unlock()
}
