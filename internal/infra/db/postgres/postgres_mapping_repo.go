package postgres

import (
	"context"
	"errors"
	"fmt"

	"telegram-sms-bridge/internal/domain"
	"telegram-sms-bridge/internal/domain/model"
	"telegram-sms-bridge/internal/domain/ports/repository"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Ensure interface compliance
var _ repository.MappingRepository = (*PostgresMappingRepo)(nil)

const uniqueViolation = "23505"

type PostgresMappingRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMappingRepo(pool *pgxpool.Pool) *PostgresMappingRepo {
	return &PostgresMappingRepo{pool: pool}
}

func (r *PostgresMappingRepo) Save(ctx context.Context, m *model.Mapping) error {
	const sql = `
INSERT INTO sms_correspondents (id, number, alias, room, created_at)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := r.pool.Exec(ctx, sql, m.ID, m.Number, m.Alias, m.Room, m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("Save mapping: %w", err)
	}
	return nil
}

func (r *PostgresMappingRepo) Remove(ctx context.Context, room, identifier string) (bool, error) {
	// Aliases are not unique, so constrain the delete to the oldest match;
	// one remove command deletes at most one binding.
	const sql = `
DELETE FROM sms_correspondents
 WHERE id = (
        SELECT id
          FROM sms_correspondents
         WHERE room = $1 AND (number = $2 OR alias = $2)
         ORDER BY created_at, id
         LIMIT 1
 );
`
	ct, err := r.pool.Exec(ctx, sql, room, identifier)
	if err != nil {
		return false, fmt.Errorf("Remove mapping: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *PostgresMappingRepo) Find(ctx context.Context, number, room string) ([]*model.Mapping, error) {
	// No filters means no result, matching the store contract.
	if number == "" && room == "" {
		return []*model.Mapping{}, nil
	}

	sql := `SELECT id, number, alias, room, created_at FROM sms_correspondents WHERE 1=1`
	args := make([]interface{}, 0, 2)
	if number != "" {
		args = append(args, number)
		sql += fmt.Sprintf(" AND number = $%d", len(args))
	}
	if room != "" {
		args = append(args, room)
		sql += fmt.Sprintf(" AND room = $%d", len(args))
	}
	sql += " ORDER BY created_at, id;"

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("Find mappings: %w", err)
	}
	defer rows.Close()
	return scanMappings(rows)
}

func (r *PostgresMappingRepo) ListByRoom(ctx context.Context, room string) ([]*model.Mapping, error) {
	const sql = `
SELECT id, number, alias, room, created_at
  FROM sms_correspondents
 WHERE room = $1
 ORDER BY created_at, id;
`
	rows, err := r.pool.Query(ctx, sql, room)
	if err != nil {
		return nil, fmt.Errorf("ListByRoom mappings: %w", err)
	}
	defer rows.Close()
	return scanMappings(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanMappings(rows rowScanner) ([]*model.Mapping, error) {
	out := []*model.Mapping{}
	for rows.Next() {
		var m model.Mapping
		if err := rows.Scan(&m.ID, &m.Number, &m.Alias, &m.Room, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
