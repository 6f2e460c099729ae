package bot

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"taash29/card"
	"taash29/twentynine"
)

// Instance is an active bot seated in a room.
type Instance struct {
	ID    string
	Name  string
	Seat  twentynine.Seat
	Brain Brain
}

type ManagerConfig struct {
	Brain string

	// Think delay: base plus random jitter in [0, Jitter).
	ThinkDelay time.Duration
	Jitter     time.Duration

	// RNG seed (0 => time-based)
	Seed int64
}

// Manager manages bot identities and decisions.
type Manager struct {
	cfg       ManagerConfig
	log       *zap.Logger
	instances map[string]*Instance
	mu        sync.RWMutex
	rng       *rand.Rand
	nextID    uint64
}

var botNames = []string{"Ravi", "Meera", "Kabir", "Tara", "Arjun", "Nila", "Dev", "Asha"}

func NewManager(cfg ManagerConfig, log *zap.Logger) (*Manager, error) {
	if _, err := NewBrain(cfg.Brain, 1); err != nil {
		return nil, err
	}
	if cfg.ThinkDelay < 0 || cfg.Jitter < 0 {
		return nil, fmt.Errorf("bot think delays must be >= 0")
	}
	if log == nil {
		log = zap.NewNop()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Manager{
		cfg:       cfg,
		log:       log.Named("bot"),
		instances: make(map[string]*Instance),
		rng:       rand.New(rand.NewSource(seed)),
		nextID:    9_000_000, // bot IDs start from 9M to stay clear of guest numbering
	}, nil
}

// Spawn creates a bot identity for seat.
func (m *Manager) Spawn(seat twentynine.Seat) *Instance {
	m.mu.Lock()
	m.nextID++
	id := fmt.Sprintf("bot-%d", m.nextID)
	name := fmt.Sprintf("%s (bot)", botNames[m.rng.Intn(len(botNames))])
	seed := m.rng.Int63()
	m.mu.Unlock()

	// cfg.Brain was validated in NewManager
	brain, _ := NewBrain(m.cfg.Brain, seed)
	inst := &Instance{ID: id, Name: name, Seat: seat, Brain: brain}

	m.mu.Lock()
	m.instances[id] = inst
	m.mu.Unlock()

	m.log.Debug("spawned bot", zap.String("id", id), zap.String("name", name), zap.Uint8("seat", uint8(seat)))
	return inst
}

// Despawn forgets a bot.
func (m *Manager) Despawn(id string) {
	m.mu.Lock()
	inst := m.instances[id]
	delete(m.instances, id)
	m.mu.Unlock()

	if inst != nil {
		m.log.Debug("despawned bot", zap.String("id", id))
	}
}

func (m *Manager) Get(id string) *Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[id]
}

func (m *Manager) IsBot(id string) bool {
	return m.Get(id) != nil
}

// ThinkDelay returns how long a bot pauses before playing.
func (m *Manager) ThinkDelay() time.Duration {
	if m.cfg.Jitter <= 0 {
		return m.cfg.ThinkDelay
	}
	m.mu.Lock()
	jitter := time.Duration(m.rng.Int63n(int64(m.cfg.Jitter)))
	m.mu.Unlock()
	return m.cfg.ThinkDelay + jitter
}

// OnTurn asks the bot's brain for a card. The choice is always one of
// legal; a misbehaving brain falls back to the first legal card.
func (m *Manager) OnTurn(id string, snap twentynine.Snapshot, legal []card.Card) (card.Card, error) {
	inst := m.Get(id)
	if inst == nil {
		return card.CardInvalid, fmt.Errorf("unknown bot %s", id)
	}
	if len(legal) == 0 {
		return card.CardInvalid, fmt.Errorf("bot %s has no legal card", id)
	}
	choice := inst.Brain.Decide(BuildView(inst.Seat, snap, legal))
	if !card.CardList(legal).Contains(choice) {
		m.log.Warn("brain chose illegal card", zap.String("id", id), zap.Stringer("card", choice))
		choice = legal[0]
	}
	return choice, nil
}
