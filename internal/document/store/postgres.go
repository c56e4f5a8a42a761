package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"caretrust/internal/document/models"
	"caretrust/pkg/domain"
	"caretrust/pkg/platform/sentinel"
)

// Postgres persists documents in PostgreSQL. Pure I/O; classification rules
// live in the expiry package.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const documentColumns = `
	id, entity_id, kind, document_type, verification_status,
	auto_expiry, issue_date, expiry_date, status, days_until_expiry,
	created_at, updated_at
`

func (s *Postgres) Get(ctx context.Context, id domain.DocumentID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

func (s *Postgres) ListByEntity(ctx context.Context, entityID domain.EntityID) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE entity_id = $1 ORDER BY created_at, id`
	return s.list(ctx, query, entityID.String())
}

func (s *Postgres) ListByKind(ctx context.Context, kind domain.EntityKind) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE kind = $1 ORDER BY created_at, id`
	return s.list(ctx, query, string(kind))
}

func (s *Postgres) list(ctx context.Context, query string, arg any) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateClassification persists a recomputed expiry classification.
func (s *Postgres) UpdateClassification(ctx context.Context, id domain.DocumentID, status models.DocStatus, daysUntilExpiry int, at time.Time) error {
	query := `
		UPDATE documents
		SET status = $2, days_until_expiry = $3, updated_at = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, id.String(), string(status), daysUntilExpiry, at)
	if err != nil {
		return fmt.Errorf("update document classification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document classification: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Put upserts a document row. Kept for seeding and integration tests; the
// production upload path lives in the surrounding platform.
func (s *Postgres) Put(ctx context.Context, d *models.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			verification_status = EXCLUDED.verification_status,
			auto_expiry = EXCLUDED.auto_expiry,
			issue_date = EXCLUDED.issue_date,
			expiry_date = EXCLUDED.expiry_date,
			status = EXCLUDED.status,
			days_until_expiry = EXCLUDED.days_until_expiry,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		d.ID.String(), d.EntityID.String(), string(d.Kind), d.Type,
		string(d.VerificationStatus), d.AutoExpiry, d.IssueDate, d.ExpiryDate,
		string(d.Status), d.DaysUntilExpiry, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		d         models.Document
		rawID     string
		rawEntity string
		rawKind   string
		rawVerif  sql.NullString
		rawStatus sql.NullString
		issue     sql.NullTime
		expiry    sql.NullTime
	)
	if err := row.Scan(
		&rawID, &rawEntity, &rawKind, &d.Type, &rawVerif,
		&d.AutoExpiry, &issue, &expiry, &rawStatus, &d.DaysUntilExpiry,
		&d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}

	id, err := domain.ParseDocumentID(rawID)
	if err != nil {
		return nil, err
	}
	entityID, err := domain.ParseEntityID(rawEntity)
	if err != nil {
		return nil, err
	}

	d.ID = id
	d.EntityID = entityID
	d.Kind = domain.EntityKind(rawKind)
	d.VerificationStatus = models.VerificationStatus(rawVerif.String)
	d.Status = models.DocStatus(rawStatus.String)
	if issue.Valid {
		t := issue.Time
		d.IssueDate = &t
	}
	if expiry.Valid {
		t := expiry.Time
		d.ExpiryDate = &t
	}
	return &d, nil
}
