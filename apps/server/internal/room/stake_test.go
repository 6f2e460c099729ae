package room

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"taash29/apps/server/internal/codec"
	"taash29/apps/server/internal/wallet"
)

func balance(t *testing.T, w wallet.Service, id string) int64 {
	t.Helper()
	bal, err := w.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return bal
}

func seatedRoom(t *testing.T, w Wallet) (*Room, *recorder) {
	t.Helper()
	rec := newRecorder(t)
	r := newTestRoom(t, Config{HouseIdentity: "admin"}, rec, w, nil)
	require.NoError(t, r.Join("watcher", "", false))
	return r, rec
}

func TestStartBidCancelledWhenOneMemberShort(t *testing.T) {
	w := wallet.NewMemoryService()
	fund(t, w, map[string]int64{"A": 5, "B": 50})
	r, rec := seatedRoom(t, w)

	err := r.StartBid([]string{"A", "B"}, 20)
	var short *InsufficientFundsError
	require.ErrorAs(t, err, &short)
	require.Equal(t, []string{"A"}, short.Identities())
	require.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	require.Equal(t, int64(5), balance(t, w, "A"))
	require.Equal(t, int64(50), balance(t, w, "B"))

	logs := rec.ofType(codec.TypeLogMessage)
	require.Len(t, logs, 1)
	require.Equal(t, "Bid cancelled: A (insufficient)", logs[0].env.Payload["message"])
	require.Empty(t, rec.ofType(codec.TypeBidStarted))
	require.Empty(t, rec.ofType(codec.TypeWalletUpdate))

	require.ErrorIs(t, r.ResolveRound([]string{"B"}), ErrNoActiveBid)
}

func TestStartBidNamesMissingWallet(t *testing.T) {
	w := wallet.NewMemoryService()
	fund(t, w, map[string]int64{"A": 100})
	r, rec := seatedRoom(t, w)

	err := r.StartBid([]string{"A", "C"}, 20)
	require.Error(t, err)
	require.Equal(t, int64(100), balance(t, w, "A"))
	require.Equal(t, "Bid cancelled: C (no wallet)", rec.ofType(codec.TypeLogMessage)[0].env.Payload["message"])
}

func TestStakeDebitAndPayout(t *testing.T) {
	w := wallet.NewMemoryService()
	fund(t, w, map[string]int64{"A": 100, "B": 100})
	r, rec := seatedRoom(t, w)

	require.NoError(t, r.StartBid([]string{"A", "B"}, 100))
	require.Equal(t, int64(50), balance(t, w, "A"))
	require.Equal(t, int64(50), balance(t, w, "B"))
	require.Len(t, rec.ofType(codec.TypeWalletUpdate), 2)
	require.Len(t, rec.ofType(codec.TypeBidStarted), 1)

	s := r.Summary()
	require.NotNil(t, s.Stake)
	require.Equal(t, int64(100), s.Stake.Amount)

	require.ErrorIs(t, r.StartBid([]string{"A", "B"}, 10), ErrBidActive)

	require.NoError(t, r.ResolveRound([]string{"W"}))
	require.Equal(t, int64(80), balance(t, w, "W"))
	require.Equal(t, int64(20), balance(t, w, "admin"))

	resolved := rec.ofType(codec.TypeRoundResolved)
	require.Len(t, resolved, 1)
	require.EqualValues(t, 80, resolved[0].env.Payload["perWinner"])
	require.EqualValues(t, 20, resolved[0].env.Payload["adminCut"])
	require.EqualValues(t, 0, resolved[0].env.Payload["houseRemainder"])

	require.Nil(t, r.Summary().Stake)
	require.ErrorIs(t, r.ResolveRound([]string{"W"}), ErrNoActiveBid)
}

func TestStartBidRejectsInvalidData(t *testing.T) {
	w := wallet.NewMemoryService()
	fund(t, w, map[string]int64{"A": 100, "B": 100})
	r, _ := seatedRoom(t, w)

	cases := []struct {
		team   []string
		amount int64
	}{
		{nil, 20},
		{[]string{"A", "B"}, 0},
		{[]string{"A", "B"}, -4},
		{[]string{"A", "A"}, 20},
		{[]string{"A", " "}, 20},
		{[]string{"A", "B"}, 1},
	}
	for _, tc := range cases {
		require.ErrorIs(t, r.StartBid(tc.team, tc.amount), ErrInvalidBidData, "team=%v amount=%d", tc.team, tc.amount)
	}
	require.Equal(t, int64(100), balance(t, w, "A"))
}

func TestSplitPayout(t *testing.T) {
	require.Equal(t, Payout{PerWinner: 80, AdminCut: 20}, SplitPayout(100, 1))
	require.Equal(t, Payout{PerWinner: 40, AdminCut: 20}, SplitPayout(100, 2))
	// 80 over 3 leaves 2 for the house
	require.Equal(t, Payout{PerWinner: 26, AdminCut: 20, Remainder: 2}, SplitPayout(100, 3))
	require.Equal(t, Payout{PerWinner: 16, AdminCut: 4}, SplitPayout(20, 1))
}

func TestSplitShares(t *testing.T) {
	require.Equal(t, []int64{10, 10}, SplitShares(20, 2))
	require.Equal(t, []int64{13, 12}, SplitShares(25, 2))
	require.Equal(t, []int64{1, 1, 0}, SplitShares(2, 3))
}

func TestUnevenStakeSplitsAndPaysOut(t *testing.T) {
	w := wallet.NewMemoryService()
	fund(t, w, map[string]int64{"A": 100, "B": 100})
	r, rec := seatedRoom(t, w)

	require.NoError(t, r.StartBid([]string{"A", "B"}, 25))
	require.Equal(t, int64(87), balance(t, w, "A"))
	require.Equal(t, int64(88), balance(t, w, "B"))

	started := rec.ofType(codec.TypeBidStarted)
	require.Len(t, started, 1)
	require.EqualValues(t, 12.5, started[0].env.Payload["perPlayer"])
	require.Equal(t, []int64{13, 12}, r.Summary().Stake.Shares)

	// 25 -> admin 5, pool 20 over 3 winners: 6 each, 2 left for the house
	require.NoError(t, r.ResolveRound([]string{"X", "Y", "Z"}))
	for _, id := range []string{"X", "Y", "Z"} {
		require.Equal(t, int64(6), balance(t, w, id))
	}
	require.Equal(t, int64(7), balance(t, w, "admin"))

	resolved := rec.ofType(codec.TypeRoundResolved)
	require.Len(t, resolved, 1)
	require.EqualValues(t, 5, resolved[0].env.Payload["adminCut"])
	require.EqualValues(t, 2, resolved[0].env.Payload["houseRemainder"])
}

// racyWallet reports enough coins for everyone but refuses to debit one
// identity, as if it was spent between the check and the debit.
type racyWallet struct {
	*wallet.MemoryService
	refuse string
}

func (w racyWallet) Debit(ctx context.Context, id string, amount int64) (int64, error) {
	if id == w.refuse {
		return 0, wallet.ErrInsufficientFunds
	}
	return w.MemoryService.Debit(ctx, id, amount)
}

func TestStartBidRefundsWhenLaterDebitFails(t *testing.T) {
	mem := wallet.NewMemoryService()
	fund(t, mem, map[string]int64{"A": 100, "B": 100})
	r, _ := seatedRoom(t, racyWallet{MemoryService: mem, refuse: "B"})

	err := r.StartBid([]string{"A", "B"}, 40)
	var short *InsufficientFundsError
	require.True(t, errors.As(err, &short))
	require.Equal(t, []string{"B"}, short.Identities())
	require.Equal(t, int64(100), balance(t, mem, "A"))
	require.Equal(t, int64(100), balance(t, mem, "B"))
	require.Nil(t, r.Summary().Stake)
}
