package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"taash29/card"
	"taash29/twentynine"
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
)

// Config is the server configuration, read from the environment.
type Config struct {
	HTTPAddr string
	LogLevel string
	LogDev   bool

	AuthMode          string
	WalletMode        string
	LocalDatabasePath string
	DatabaseURL       string
	SessionTTL        time.Duration

	BackfillDelay      time.Duration
	BotThinkDelay      time.Duration
	BotThinkJitter     time.Duration
	BotBrain           string
	BotTakeoverOnLeave bool

	DefaultBid   int
	TrumpPolicy  string
	DefaultTrump string

	HouseIdentity string
	StartingCoins int64
}

func Default() Config {
	return Config{
		HTTPAddr:       ":8080",
		LogLevel:       "info",
		AuthMode:       ModeMemory,
		WalletMode:     ModeMemory,
		SessionTTL:     30 * 24 * time.Hour,
		BackfillDelay:  5 * time.Second,
		BotThinkDelay:  800 * time.Millisecond,
		BotThinkJitter: 700 * time.Millisecond,
		BotBrain:       "random",
		DefaultBid:     16,
		TrumpPolicy:    "fixed",
		DefaultTrump:   "H",
		HouseIdentity:  "admin",
		StartingCoins:  100,
	}
}

// Load reads .env files (if present) into the process environment and then
// builds a Config from it.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, starting from Default.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	r := reader{getenv: getenv}

	r.str("HTTP_ADDR", &cfg.HTTPAddr)
	r.str("LOG_LEVEL", &cfg.LogLevel)
	r.boolean("LOG_DEV", &cfg.LogDev)

	r.str("AUTH_MODE", &cfg.AuthMode)
	r.str("WALLET_MODE", &cfg.WalletMode)
	r.str("LOCAL_DATABASE_PATH", &cfg.LocalDatabasePath)
	r.str("DATABASE_URL", &cfg.DatabaseURL)
	r.str("WALLET_DATABASE_DSN", &cfg.DatabaseURL)
	r.duration("AUTH_SESSION_TTL", &cfg.SessionTTL)

	r.duration("BACKFILL_DELAY", &cfg.BackfillDelay)
	r.duration("BOT_THINK_DELAY", &cfg.BotThinkDelay)
	r.duration("BOT_THINK_JITTER", &cfg.BotThinkJitter)
	r.str("BOT_BRAIN", &cfg.BotBrain)
	r.boolean("BOT_TAKEOVER_ON_LEAVE", &cfg.BotTakeoverOnLeave)

	r.integer("DEFAULT_BID", &cfg.DefaultBid)
	r.str("TRUMP_POLICY", &cfg.TrumpPolicy)
	r.str("DEFAULT_TRUMP", &cfg.DefaultTrump)

	r.str("HOUSE_IDENTITY", &cfg.HouseIdentity)
	r.int64("STARTING_COINS", &cfg.StartingCoins)

	if r.err != nil {
		return Config{}, r.err
	}
	cfg.AuthMode = strings.ToLower(cfg.AuthMode)
	cfg.WalletMode = strings.ToLower(cfg.WalletMode)
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.AuthMode {
	case ModeMemory, ModeSQLite, ModePostgres:
	default:
		return fmt.Errorf("invalid AUTH_MODE %q (supported: %s, %s, %s)", c.AuthMode, ModeMemory, ModeSQLite, ModePostgres)
	}
	switch c.WalletMode {
	case ModeMemory, ModeSQLite, ModePostgres:
	default:
		return fmt.Errorf("invalid WALLET_MODE %q (supported: %s, %s, %s)", c.WalletMode, ModeMemory, ModeSQLite, ModePostgres)
	}
	if (c.AuthMode == ModePostgres || c.WalletMode == ModePostgres) && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for postgres mode")
	}
	if c.BackfillDelay <= 0 {
		return fmt.Errorf("BACKFILL_DELAY must be > 0")
	}
	if c.BotThinkDelay < 0 || c.BotThinkJitter < 0 {
		return fmt.Errorf("bot think delays must be >= 0")
	}
	if c.DefaultBid <= 0 {
		return fmt.Errorf("DEFAULT_BID must be > 0")
	}
	if _, _, err := c.Deal(); err != nil {
		return err
	}
	if strings.TrimSpace(c.HouseIdentity) == "" {
		return fmt.Errorf("HOUSE_IDENTITY must not be empty")
	}
	if c.StartingCoins < 0 {
		return fmt.Errorf("STARTING_COINS must be >= 0")
	}
	return nil
}

// Deal resolves TRUMP_POLICY and DEFAULT_TRUMP into engine types.
func (c Config) Deal() (twentynine.TrumpPolicy, card.Suit, error) {
	policy, err := twentynine.ParseTrumpPolicy(strings.ToLower(c.TrumpPolicy))
	if err != nil {
		return "", 0, fmt.Errorf("TRUMP_POLICY: %w", err)
	}
	trump, err := card.ParseSuit(c.DefaultTrump)
	if err != nil {
		return "", 0, fmt.Errorf("DEFAULT_TRUMP: %w", err)
	}
	return policy, trump, nil
}

type reader struct {
	getenv func(string) string
	err    error
}

func (r *reader) raw(key string) (string, bool) {
	v := strings.TrimSpace(r.getenv(key))
	return v, v != ""
}

func (r *reader) fail(key, v string, err error) {
	r.err = errors.Join(r.err, fmt.Errorf("%s=%q: %w", key, v, err))
}

func (r *reader) str(key string, dst *string) {
	if v, ok := r.raw(key); ok {
		*dst = v
	}
}

func (r *reader) boolean(key string, dst *bool) {
	v, ok := r.raw(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = b
}

func (r *reader) integer(key string, dst *int) {
	v, ok := r.raw(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = n
}

func (r *reader) int64(key string, dst *int64) {
	v, ok := r.raw(key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = n
}

func (r *reader) duration(key string, dst *time.Duration) {
	v, ok := r.raw(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = d
}
