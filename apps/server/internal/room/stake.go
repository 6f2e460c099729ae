package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"taash29/apps/server/internal/codec"
	"taash29/apps/server/internal/wallet"
)

const adminCutPercent = 20

// Stake is the room's active bid: coins escrowed from the bidding team.
type Stake struct {
	Team      []string
	Amount    int64
	Shares    []int64 // debited per team member, same order as Team
	StartedAt time.Time
}

// PerPlayer is the even share of the stake, fractional when the amount
// does not split evenly.
func (s Stake) PerPlayer() float64 {
	return float64(s.Amount) / float64(len(s.Team))
}

// Shortfall names an identity that cannot cover its share.
type Shortfall struct {
	Identity string
	NoWallet bool
}

func (s Shortfall) String() string {
	if s.NoWallet {
		return s.Identity + " (no wallet)"
	}
	return s.Identity + " (insufficient)"
}

// InsufficientFundsError cancels a bid. No coins moved.
type InsufficientFundsError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientFundsError) Error() string {
	parts := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		parts[i] = s.String()
	}
	return "bid cancelled: " + strings.Join(parts, ", ")
}

func (e *InsufficientFundsError) Unwrap() error { return wallet.ErrInsufficientFunds }

// Identities lists the identities that were short.
func (e *InsufficientFundsError) Identities() []string {
	out := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		out[i] = s.Identity
	}
	return out
}

// Payout is how a resolved stake was split. The house is credited
// AdminCut plus Remainder.
type Payout struct {
	PerWinner int64
	AdminCut  int64
	Remainder int64
}

// SplitPayout divides amount: 20% to the house, the rest evenly across
// winners. Coins left over from the even split are the Remainder.
func SplitPayout(amount int64, winners int) Payout {
	adminCut := amount * adminCutPercent / 100
	pool := amount - adminCut
	per := pool / int64(winners)
	return Payout{PerWinner: per, AdminCut: adminCut, Remainder: pool - per*int64(winners)}
}

// SplitShares divides a stake across n players. The first amount%n
// players pay one coin more, so the shares always sum to amount.
func SplitShares(amount int64, n int) []int64 {
	shares := make([]int64, n)
	base, extra := amount/int64(n), amount%int64(n)
	for i := range shares {
		shares[i] = base
		if int64(i) < extra {
			shares[i]++
		}
	}
	return shares
}

func normalizeTeam(team []string) ([]string, error) {
	if len(team) == 0 {
		return nil, fmt.Errorf("empty team: %w", ErrInvalidBidData)
	}
	seen := make(map[string]bool, len(team))
	out := make([]string, 0, len(team))
	for _, raw := range team {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, fmt.Errorf("blank identity: %w", ErrInvalidBidData)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate identity %s: %w", id, ErrInvalidBidData)
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func (r *Room) handleStartBid(team []string, amount int64) error {
	if r.stake != nil {
		return ErrBidActive
	}
	if r.wallet == nil {
		return errors.New("no wallet configured")
	}
	team, err := normalizeTeam(team)
	if err != nil {
		return err
	}
	if amount < int64(len(team)) {
		// every member stakes at least one coin
		return fmt.Errorf("amount %d for %d players: %w", amount, len(team), ErrInvalidBidData)
	}
	shares := SplitShares(amount, len(team))

	ctx, cancel := context.WithTimeout(context.Background(), walletTimeout)
	defer cancel()

	var short []Shortfall
	for i, id := range team {
		bal, err := r.wallet.GetBalance(ctx, id)
		switch {
		case errors.Is(err, wallet.ErrWalletNotFound):
			short = append(short, Shortfall{Identity: id, NoWallet: true})
		case err != nil:
			return fmt.Errorf("balance of %s: %w", id, err)
		case bal < shares[i]:
			short = append(short, Shortfall{Identity: id})
		}
	}
	if len(short) > 0 {
		return r.cancelBidLocked(short)
	}

	balances := make([]int64, 0, len(team))
	for i, id := range team {
		bal, err := r.wallet.Debit(ctx, id, shares[i])
		if err == nil {
			balances = append(balances, bal)
			continue
		}
		// balance moved since the check; put back what was taken
		r.refundLocked(ctx, team[:i], shares[:i])
		switch {
		case errors.Is(err, wallet.ErrInsufficientFunds):
			return r.cancelBidLocked([]Shortfall{{Identity: id}})
		case errors.Is(err, wallet.ErrWalletNotFound):
			return r.cancelBidLocked([]Shortfall{{Identity: id, NoWallet: true}})
		default:
			return fmt.Errorf("debit %s: %w", id, err)
		}
	}

	r.stake = &Stake{Team: team, Amount: amount, Shares: shares, StartedAt: time.Now()}
	for i, id := range team {
		r.broadcastLocked(codec.TypeWalletUpdate, codec.Payload{"username": id, "coins": balances[i]})
	}
	r.broadcastLocked(codec.TypeBidStarted, codec.Payload{
		"biddingTeam": codec.List(team),
		"amount":      amount,
		"perPlayer":   r.stake.PerPlayer(),
		"shares":      codec.List(shares),
	})
	r.log.Info("bid started", zap.Strings("team", team), zap.Int64("amount", amount))
	return nil
}

func (r *Room) cancelBidLocked(short []Shortfall) error {
	err := &InsufficientFundsError{Shortfalls: short}
	parts := make([]string, len(short))
	for i, s := range short {
		parts[i] = s.String()
	}
	r.logMessageLocked("Bid cancelled: " + strings.Join(parts, ", "))
	r.log.Info("bid cancelled", zap.Strings("short", err.Identities()))
	return err
}

func (r *Room) refundLocked(ctx context.Context, ids []string, shares []int64) {
	for i, id := range ids {
		if _, err := r.wallet.Credit(ctx, id, shares[i]); err != nil {
			r.log.Error("refund failed", zap.String("identity", id), zap.Int64("coins", shares[i]), zap.Error(err))
		}
	}
}

func (r *Room) handleResolveRound(winners []string) error {
	if r.stake == nil {
		return ErrNoActiveBid
	}
	winners, err := normalizeTeam(winners)
	if err != nil {
		return err
	}
	stake := r.stake
	payout := SplitPayout(stake.Amount, len(winners))

	ctx, cancel := context.WithTimeout(context.Background(), walletTimeout)
	defer cancel()

	// a stake pays out at most once, failed credits included
	r.stake = nil
	var errs []error
	credit := func(id string, coins int64) {
		if coins <= 0 {
			return
		}
		bal, err := r.wallet.Credit(ctx, id, coins)
		if err != nil {
			r.log.Error("payout credit failed", zap.String("identity", id), zap.Int64("coins", coins), zap.Error(err))
			errs = append(errs, fmt.Errorf("credit %s: %w", id, err))
			return
		}
		r.broadcastLocked(codec.TypeWalletUpdate, codec.Payload{"username": id, "coins": bal})
	}
	for _, id := range winners {
		credit(id, payout.PerWinner)
	}
	credit(r.cfg.HouseIdentity, payout.AdminCut+payout.Remainder)

	r.broadcastLocked(codec.TypeRoundResolved, codec.Payload{
		"winningTeam":    codec.List(winners),
		"perWinner":      payout.PerWinner,
		"adminCut":       payout.AdminCut,
		"houseRemainder": payout.Remainder,
	})
	r.log.Info("round resolved",
		zap.Strings("winners", winners),
		zap.Int64("per_winner", payout.PerWinner),
		zap.Int64("admin_cut", payout.AdminCut),
		zap.Int64("house_remainder", payout.Remainder))
	return errors.Join(errs...)
}
