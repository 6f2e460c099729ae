package wallet

import (
	"context"
	"database/sql"
)

type SQLiteService struct {
	sqlService
}

// NewSQLiteService stores wallets in a modernc sqlite database.
func NewSQLiteService(ctx context.Context, db *sql.DB) (*SQLiteService, error) {
	s := &SQLiteService{sqlService{db: db, dialect: dialectSQLite}}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
