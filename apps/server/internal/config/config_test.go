package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taash29/card"
	"taash29/twentynine"
)

func envMap(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 5*time.Second, cfg.BackfillDelay)
	require.Equal(t, int64(100), cfg.StartingCoins)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"HTTP_ADDR":             ":9000",
		"AUTH_MODE":             "SQLite",
		"BACKFILL_DELAY":        "250ms",
		"BOT_TAKEOVER_ON_LEAVE": "true",
		"DEFAULT_BID":           "18",
		"STARTING_COINS":        "500",
	}))
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddr)
	require.Equal(t, ModeSQLite, cfg.AuthMode)
	require.Equal(t, 250*time.Millisecond, cfg.BackfillDelay)
	require.True(t, cfg.BotTakeoverOnLeave)
	require.Equal(t, 18, cfg.DefaultBid)
	require.Equal(t, int64(500), cfg.StartingCoins)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{"BACKFILL_DELAY": "soon", "DEFAULT_BID": "x"}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "BACKFILL_DELAY")
	require.Contains(t, err.Error(), "DEFAULT_BID")

	_, err = FromEnv(envMap(map[string]string{"WALLET_MODE": "postgres"}))
	require.ErrorContains(t, err, "DATABASE_URL")

	_, err = FromEnv(envMap(map[string]string{"AUTH_MODE": "ldap"}))
	require.ErrorContains(t, err, "AUTH_MODE")
}

func TestDealSettings(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"TRUMP_POLICY": "Last-Dealt", "DEFAULT_TRUMP": "♠"}))
	require.NoError(t, err)
	policy, trump, err := cfg.Deal()
	require.NoError(t, err)
	require.Equal(t, twentynine.TrumpLastDealt, policy)
	require.Equal(t, card.Spade, trump)

	_, err = FromEnv(envMap(map[string]string{"DEFAULT_TRUMP": "X"}))
	require.ErrorContains(t, err, "DEFAULT_TRUMP")
	_, err = FromEnv(envMap(map[string]string{"TRUMP_POLICY": "auction"}))
	require.ErrorContains(t, err, "TRUMP_POLICY")
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HOUSE_IDENTITY=bank\n"), 0o600))
	t.Setenv("HOUSE_IDENTITY", "")
	os.Unsetenv("HOUSE_IDENTITY")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "bank", cfg.HouseIdentity)
}

func TestLoadIgnoresMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}
