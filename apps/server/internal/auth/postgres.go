package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

type PostgresManager struct {
	db         *sql.DB
	sessionTTL time.Duration
}

func NewPostgresManager(ctx context.Context, db *sql.DB, sessionTTL time.Duration) (*PostgresManager, error) {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	if err := ensurePostgresAuthSchema(ctx, db); err != nil {
		return nil, err
	}
	return &PostgresManager{db: db, sessionTTL: sessionTTL}, nil
}

func (m *PostgresManager) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

func (m *PostgresManager) Register(ctx context.Context, username, password string) (Session, error) {
	if err := validateUsername(username); err != nil {
		return Session{}, err
	}
	if err := validatePassword(password); err != nil {
		return Session{}, err
	}

	normalized := normalizeUsername(username)
	passwordHash, err := hashPassword(password)
	if err != nil {
		return Session{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	var accountID uint64
	if err := tx.QueryRowContext(ctx, `
INSERT INTO accounts (username, password_hash, last_login_at)
VALUES ($1, $2, NOW())
RETURNING id
`, normalized, string(passwordHash)).Scan(&accountID); err != nil {
		if isUniqueViolation(err) {
			return Session{}, ErrUsernameTaken
		}
		return Session{}, err
	}

	token, err := m.issueSessionTx(ctx, tx, accountID)
	if err != nil {
		return Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	return Session{AccountID: accountID, Username: normalized, Token: token}, nil
}

func (m *PostgresManager) Login(ctx context.Context, username, password string) (Session, error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		accountID    uint64
		passwordHash string
	)
	if err := m.db.QueryRowContext(ctx, `
SELECT id, password_hash FROM accounts WHERE username = $1
`, normalized).Scan(&accountID, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := comparePassword(passwordHash, password); err != nil {
		return Session{}, err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
UPDATE accounts SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1
`, accountID); err != nil {
		return Session{}, err
	}
	token, err := m.issueSessionTx(ctx, tx, accountID)
	if err != nil {
		return Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	return Session{AccountID: accountID, Username: normalized, Token: token}, nil
}

func (m *PostgresManager) Resolve(ctx context.Context, token string) (Session, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s := Session{Token: token}
	err := m.db.QueryRowContext(ctx, `
UPDATE auth_sessions AS s
SET last_seen_at = NOW(),
    expires_at = $2
FROM accounts AS a
WHERE s.token = $1
  AND s.account_id = a.id
  AND s.revoked_at IS NULL
  AND s.expires_at > NOW()
RETURNING s.account_id, a.username
`, token, time.Now().Add(m.sessionTTL)).Scan(&s.AccountID, &s.Username)
	if err != nil {
		return Session{}, false
	}
	return s, true
}

func (m *PostgresManager) Logout(ctx context.Context, token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, _ = m.db.ExecContext(ctx, `
UPDATE auth_sessions SET revoked_at = NOW() WHERE token = $1 AND revoked_at IS NULL
`, token)
}

func (m *PostgresManager) issueSessionTx(ctx context.Context, tx *sql.Tx, accountID uint64) (string, error) {
	expiresAt := time.Now().Add(m.sessionTTL)
	for i := 0; i < 5; i++ {
		token := mustToken()
		if _, err := tx.ExecContext(ctx, `
INSERT INTO auth_sessions (token, account_id, expires_at)
VALUES ($1, $2, $3)
`, token, accountID, expiresAt); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return "", err
		}
		return token, nil
	}
	return "", fmt.Errorf("failed to generate unique session token")
}

func ensurePostgresAuthSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS accounts (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_login_at TIMESTAMPTZ
)`,
		`
CREATE TABLE IF NOT EXISTS auth_sessions (
    token TEXT PRIMARY KEY,
    account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    issued_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL,
    revoked_at TIMESTAMPTZ,
    last_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE INDEX IF NOT EXISTS idx_auth_sessions_account ON auth_sessions(account_id, expires_at DESC)`,
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
