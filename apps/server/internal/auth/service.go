package auth

import "context"

// Session is an authenticated login. Username is the identity used for
// seats and wallets.
type Session struct {
	AccountID uint64
	Username  string
	Token     string
}

// Service is the auth/session contract consumed by gateway and HTTP handlers.
type Service interface {
	Register(ctx context.Context, username, password string) (Session, error)
	Login(ctx context.Context, username, password string) (Session, error)
	Resolve(ctx context.Context, token string) (Session, bool)
	Logout(ctx context.Context, token string)
	Close() error
}
