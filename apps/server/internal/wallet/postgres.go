package wallet

import (
	"context"
	"database/sql"
)

type PostgresService struct {
	sqlService
}

// NewPostgresService stores wallets in postgres through lib/pq.
func NewPostgresService(ctx context.Context, db *sql.DB) (*PostgresService, error) {
	s := &PostgresService{sqlService{db: db, dialect: dialectPostgres}}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
