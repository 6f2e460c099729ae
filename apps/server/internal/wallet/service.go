package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be > 0")
	ErrInvalidUsername   = errors.New("invalid username")
)

// Wallet is a coin balance keyed by username.
type Wallet struct {
	Username  string    `json:"username"`
	Coins     int64     `json:"coins"`
	IsAdmin   bool      `json:"is_admin"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service is the durable coin store. Debit never takes a balance below
// zero; Credit creates a zero-balance wallet when none exists.
type Service interface {
	GetBalance(ctx context.Context, username string) (int64, error)
	Get(ctx context.Context, username string) (Wallet, error)
	// Ensure creates the wallet with initial coins if it does not exist.
	Ensure(ctx context.Context, username string, initial int64, isAdmin bool) (Wallet, error)
	Debit(ctx context.Context, username string, amount int64) (int64, error)
	Credit(ctx context.Context, username string, amount int64) (int64, error)
	// Deduct subtracts up to amount, flooring the balance at zero.
	Deduct(ctx context.Context, username string, amount int64) (int64, error)
	Close() error
}

func normalize(username string) (string, error) {
	u := strings.TrimSpace(username)
	if u == "" {
		return "", ErrInvalidUsername
	}
	return u, nil
}

func checkAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%d: %w", amount, ErrInvalidAmount)
	}
	return nil
}
