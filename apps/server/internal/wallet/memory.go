package wallet

import (
	"context"
	"sync"
	"time"
)

// MemoryService keeps wallets in process memory.
type MemoryService struct {
	mu      sync.Mutex
	wallets map[string]*Wallet
}

func NewMemoryService() *MemoryService {
	return &MemoryService{wallets: make(map[string]*Wallet)}
}

func (s *MemoryService) Close() error { return nil }

func (s *MemoryService) Get(_ context.Context, username string) (Wallet, error) {
	u, err := normalize(username)
	if err != nil {
		return Wallet{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.wallets[u]
	if w == nil {
		return Wallet{}, ErrWalletNotFound
	}
	return *w, nil
}

func (s *MemoryService) GetBalance(ctx context.Context, username string) (int64, error) {
	w, err := s.Get(ctx, username)
	if err != nil {
		return 0, err
	}
	return w.Coins, nil
}

func (s *MemoryService) Ensure(_ context.Context, username string, initial int64, isAdmin bool) (Wallet, error) {
	u, err := normalize(username)
	if err != nil {
		return Wallet{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if w := s.wallets[u]; w != nil {
		return *w, nil
	}
	w := &Wallet{Username: u, Coins: initial, IsAdmin: isAdmin, UpdatedAt: time.Now()}
	s.wallets[u] = w
	return *w, nil
}

func (s *MemoryService) Debit(_ context.Context, username string, amount int64) (int64, error) {
	u, err := normalize(username)
	if err != nil {
		return 0, err
	}
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.wallets[u]
	if w == nil {
		return 0, ErrWalletNotFound
	}
	if w.Coins < amount {
		return w.Coins, ErrInsufficientFunds
	}
	w.Coins -= amount
	w.UpdatedAt = time.Now()
	return w.Coins, nil
}

func (s *MemoryService) Credit(_ context.Context, username string, amount int64) (int64, error) {
	u, err := normalize(username)
	if err != nil {
		return 0, err
	}
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.wallets[u]
	if w == nil {
		w = &Wallet{Username: u}
		s.wallets[u] = w
	}
	w.Coins += amount
	w.UpdatedAt = time.Now()
	return w.Coins, nil
}

func (s *MemoryService) Deduct(_ context.Context, username string, amount int64) (int64, error) {
	u, err := normalize(username)
	if err != nil {
		return 0, err
	}
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.wallets[u]
	if w == nil {
		return 0, ErrWalletNotFound
	}
	w.Coins = max(0, w.Coins-amount)
	w.UpdatedAt = time.Now()
	return w.Coins, nil
}
