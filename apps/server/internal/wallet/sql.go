package wallet

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// sqlService implements Service over sqlite or postgres. Queries are
// written with ? placeholders and rebound for postgres.
type sqlService struct {
	db      *sql.DB
	dialect dialect
}

func (s *sqlService) q(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlService) Get(ctx context.Context, username string) (Wallet, error) {
	u, err := normalize(username)
	if err != nil {
		return Wallet{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		w         Wallet
		updatedMs int64
	)
	err = s.db.QueryRowContext(ctx, s.q(`
SELECT username, coins, is_admin, updated_at_ms FROM wallets WHERE username = ?
`), u).Scan(&w.Username, &w.Coins, &w.IsAdmin, &updatedMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.UpdatedAt = time.UnixMilli(updatedMs)
	return w, nil
}

func (s *sqlService) GetBalance(ctx context.Context, username string) (int64, error) {
	w, err := s.Get(ctx, username)
	if err != nil {
		return 0, err
	}
	return w.Coins, nil
}

func (s *sqlService) Ensure(ctx context.Context, username string, initial int64, isAdmin bool) (Wallet, error) {
	u, err := normalize(username)
	if err != nil {
		return Wallet{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, s.q(`
INSERT INTO wallets (username, coins, is_admin, updated_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT (username) DO NOTHING
`), u, initial, isAdmin, time.Now().UnixMilli()); err != nil {
		return Wallet{}, err
	}
	return s.Get(ctx, u)
}

func (s *sqlService) Debit(ctx context.Context, username string, amount int64) (int64, error) {
	u, err := normalize(username)
	if err != nil {
		return 0, err
	}
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	return s.mutate(ctx, u, -amount, "debit", s.q(`
UPDATE wallets SET coins = coins - ?, updated_at_ms = ?
WHERE username = ? AND coins >= ?
RETURNING coins
`), amount, time.Now().UnixMilli(), u, amount)
}

func (s *sqlService) Credit(ctx context.Context, username string, amount int64) (int64, error) {
	u, err := normalize(username)
	if err != nil {
		return 0, err
	}
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	return s.mutate(ctx, u, amount, "credit", s.q(`
INSERT INTO wallets (username, coins, is_admin, updated_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT (username) DO UPDATE
SET coins = wallets.coins + excluded.coins, updated_at_ms = excluded.updated_at_ms
RETURNING coins
`), u, amount, false, time.Now().UnixMilli())
}

func (s *sqlService) Deduct(ctx context.Context, username string, amount int64) (int64, error) {
	u, err := normalize(username)
	if err != nil {
		return 0, err
	}
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	return s.mutate(ctx, u, -amount, "deduct", s.q(`
UPDATE wallets SET coins = CASE WHEN coins > ? THEN coins - ? ELSE 0 END, updated_at_ms = ?
WHERE username = ?
RETURNING coins
`), amount, amount, time.Now().UnixMilli(), u)
}

// mutate runs one balance-changing statement and its journal row in a
// single transaction. A statement that matches no row is classified as a
// missing wallet or, when the wallet exists, as insufficient funds.
func (s *sqlService) mutate(ctx context.Context, username string, delta int64, kind, query string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var balance int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&balance); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		var coins int64
		err := tx.QueryRowContext(ctx, s.q(`SELECT coins FROM wallets WHERE username = ?`), username).Scan(&coins)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrWalletNotFound
		}
		if err != nil {
			return 0, err
		}
		return coins, ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, s.q(`
INSERT INTO wallet_transactions (username, kind, delta, balance, created_at_ms)
VALUES (?, ?, ?, ?, ?)
`), username, kind, delta, balance, time.Now().UnixMilli()); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *sqlService) ensureSchema(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	boolean := "INTEGER NOT NULL DEFAULT 0"
	if s.dialect == dialectPostgres {
		id = "BIGSERIAL PRIMARY KEY"
		boolean = "BOOLEAN NOT NULL DEFAULT FALSE"
	}
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS wallets (
    username TEXT PRIMARY KEY,
    coins BIGINT NOT NULL DEFAULT 0 CHECK (coins >= 0),
    is_admin ` + boolean + `,
    updated_at_ms BIGINT NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS wallet_transactions (
    id ` + id + `,
    username TEXT NOT NULL,
    kind TEXT NOT NULL,
    delta BIGINT NOT NULL,
    balance BIGINT NOT NULL,
    created_at_ms BIGINT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_wallet_transactions_user ON wallet_transactions(username, created_at_ms DESC)`,
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
