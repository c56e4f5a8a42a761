package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"caretrust/internal/entity/models"
	"caretrust/pkg/domain"
	"caretrust/pkg/platform/sentinel"
)

// Postgres persists entities in PostgreSQL. Pure I/O; all verification rules
// live in the service layer.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const entityColumns = `
	id, kind, name, email, is_verified,
	verification_status_reason, verification_status_updated_at,
	created_at, updated_at
`

func (s *Postgres) Get(ctx context.Context, id domain.EntityID, kind domain.EntityKind) (*models.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE id = $1 AND kind = $2`
	e, err := scanEntity(s.db.QueryRowContext(ctx, query, id.String(), string(kind)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get entity: %w", err)
	}
	return e, nil
}

func (s *Postgres) ListIDs(ctx context.Context, kind domain.EntityKind) ([]domain.EntityID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM entities WHERE kind = $1 ORDER BY id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list entity ids: %w", err)
	}
	defer rows.Close()

	var ids []domain.EntityID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan entity id: %w", err)
		}
		id, err := domain.ParseEntityID(raw)
		if err != nil {
			return nil, fmt.Errorf("parse entity id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Postgres) List(ctx context.Context, kind domain.EntityKind) ([]*models.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE kind = $1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []*models.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Put upserts an entity. Entity creation belongs to the surrounding
// platform; this exists for seeding and tests.
func (s *Postgres) Put(ctx context.Context, e *models.Entity) error {
	query := `
		INSERT INTO entities (` + entityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			is_verified = EXCLUDED.is_verified,
			verification_status_reason = EXCLUDED.verification_status_reason,
			verification_status_updated_at = EXCLUDED.verification_status_updated_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID.String(), string(e.Kind), e.Name, e.Email, e.IsVerified,
		e.VerificationStatusReason, e.VerificationStatusUpdatedAt,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put entity: %w", err)
	}
	return nil
}

// UpdateVerification writes the three aggregate status fields and nothing else.
func (s *Postgres) UpdateVerification(ctx context.Context, id domain.EntityID, update models.VerificationUpdate) error {
	query := `
		UPDATE entities
		SET is_verified = $2,
		    verification_status_reason = $3,
		    verification_status_updated_at = $4,
		    updated_at = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, id.String(), update.IsVerified, update.Reason, update.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update entity verification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entity verification: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*models.Entity, error) {
	var (
		e       models.Entity
		rawID   string
		rawKind string
		reason  sql.NullString
		statsAt sql.NullTime
	)
	if err := row.Scan(
		&rawID, &rawKind, &e.Name, &e.Email, &e.IsVerified,
		&reason, &statsAt, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	id, err := domain.ParseEntityID(rawID)
	if err != nil {
		return nil, err
	}
	e.ID = id
	e.Kind = domain.EntityKind(rawKind)
	e.VerificationStatusReason = reason.String
	if statsAt.Valid {
		at := statsAt.Time
		e.VerificationStatusUpdatedAt = &at
	}
	return &e, nil
}
