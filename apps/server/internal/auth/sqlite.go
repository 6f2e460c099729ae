package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"taash29/apps/server/internal/store"
)

const (
	sessionCacheSize = 4096
	// A cached session is trusted for this long before the DB row is touched again.
	sessionCacheRefresh = time.Minute
)

type cachedSession struct {
	session  Session
	verified time.Time
}

type SQLiteManager struct {
	db         *sql.DB
	sessionTTL time.Duration
	cache      *lru.Cache[string, cachedSession]
}

func NewSQLiteManager(ctx context.Context, db *sql.DB, sessionTTL time.Duration) (*SQLiteManager, error) {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	if err := ensureSQLiteAuthSchema(ctx, db); err != nil {
		return nil, err
	}
	cache, err := lru.New[string, cachedSession](sessionCacheSize)
	if err != nil {
		return nil, err
	}
	return &SQLiteManager{db: db, sessionTTL: sessionTTL, cache: cache}, nil
}

func (m *SQLiteManager) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	m.cache.Purge()
	return m.db.Close()
}

func (m *SQLiteManager) Register(ctx context.Context, username, password string) (Session, error) {
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

	nowMs := time.Now().UTC().UnixMilli()
	res, err := tx.ExecContext(ctx, `
INSERT INTO accounts (username, password_hash, created_at_ms, updated_at_ms, last_login_at_ms)
VALUES (?, ?, ?, ?, ?)
`, normalized, string(passwordHash), nowMs, nowMs, nowMs)
	if err != nil {
		if store.IsSQLiteUniqueViolation(err) {
			return Session{}, ErrUsernameTaken
		}
		return Session{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Session{}, err
	}
	accountID := uint64(id)

	token, err := m.issueSessionTx(ctx, tx, accountID, nowMs)
	if err != nil {
		return Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	return Session{AccountID: accountID, Username: normalized, Token: token}, nil
}

func (m *SQLiteManager) Login(ctx context.Context, username, password string) (Session, error) {
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
	err := m.db.QueryRowContext(ctx, `
SELECT id, password_hash FROM accounts WHERE username = ?
`, normalized).Scan(&accountID, &passwordHash)
	if err != nil {
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

	nowMs := time.Now().UTC().UnixMilli()
	if _, err := tx.ExecContext(ctx, `
UPDATE accounts SET last_login_at_ms = ?, updated_at_ms = ? WHERE id = ?
`, nowMs, nowMs, accountID); err != nil {
		return Session{}, err
	}
	token, err := m.issueSessionTx(ctx, tx, accountID, nowMs)
	if err != nil {
		return Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	return Session{AccountID: accountID, Username: normalized, Token: token}, nil
}

func (m *SQLiteManager) Resolve(ctx context.Context, token string) (Session, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, false
	}
	now := time.Now()
	if cached, ok := m.cache.Get(token); ok && now.Sub(cached.verified) < sessionCacheRefresh {
		return cached.session, true
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	nowMs := now.UTC().UnixMilli()
	expiresAtMs := nowMs + m.sessionTTL.Milliseconds()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, false
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE auth_sessions
SET last_seen_at_ms = ?,
    expires_at_ms = ?
WHERE token = ?
  AND revoked_at_ms IS NULL
  AND expires_at_ms > ?
`, nowMs, expiresAtMs, token, nowMs)
	if err != nil {
		return Session{}, false
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		m.cache.Remove(token)
		return Session{}, false
	}

	s := Session{Token: token}
	if err := tx.QueryRowContext(ctx, `
SELECT s.account_id, a.username
FROM auth_sessions AS s
JOIN accounts AS a ON a.id = s.account_id
WHERE s.token = ?
`, token).Scan(&s.AccountID, &s.Username); err != nil {
		return Session{}, false
	}
	if err := tx.Commit(); err != nil {
		return Session{}, false
	}
	m.cache.Add(token, cachedSession{session: s, verified: now})
	return s, true
}

func (m *SQLiteManager) Logout(ctx context.Context, token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	m.cache.Remove(token)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, _ = m.db.ExecContext(ctx, `
UPDATE auth_sessions SET revoked_at_ms = ? WHERE token = ? AND revoked_at_ms IS NULL
`, time.Now().UTC().UnixMilli(), token)
}

func (m *SQLiteManager) issueSessionTx(ctx context.Context, tx *sql.Tx, accountID uint64, nowMs int64) (string, error) {
	expiresAtMs := nowMs + m.sessionTTL.Milliseconds()
	for i := 0; i < 5; i++ {
		token := mustToken()
		if _, err := tx.ExecContext(ctx, `
INSERT INTO auth_sessions (token, account_id, issued_at_ms, expires_at_ms, last_seen_at_ms)
VALUES (?, ?, ?, ?, ?)
`, token, accountID, nowMs, expiresAtMs, nowMs); err != nil {
			if store.IsSQLiteUniqueViolation(err) {
				continue
			}
			return "", err
		}
		return token, nil
	}
	return "", fmt.Errorf("failed to generate unique session token")
}

func ensureSQLiteAuthSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at_ms INTEGER NOT NULL,
    updated_at_ms INTEGER NOT NULL,
    last_login_at_ms INTEGER
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_accounts_username_ci ON accounts(lower(username))`,
		`
CREATE TABLE IF NOT EXISTS auth_sessions (
    token TEXT PRIMARY KEY,
    account_id INTEGER NOT NULL,
    issued_at_ms INTEGER NOT NULL,
    expires_at_ms INTEGER NOT NULL,
    revoked_at_ms INTEGER,
    last_seen_at_ms INTEGER NOT NULL,
    FOREIGN KEY(account_id) REFERENCES accounts(id) ON DELETE CASCADE
)`,
		`CREATE INDEX IF NOT EXISTS idx_auth_sessions_account ON auth_sessions(account_id, expires_at_ms DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
