package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ db queryable }

// NewRepoPG stores records in the scenario_documents table created by
// migrations/001_scenario_documents.sql.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{db: pool}
}

const recordCols = `id, sheet_name, scenario_name, bed_status, document, warnings, created_at`

func (r *repoPG) scanRow(row pgx.Row) (*Record, error) {
	var (
		rec      Record
		doc      []byte
		warnings []byte
	)
	if err := row.Scan(&rec.ID, &rec.SheetName, &rec.ScenarioName, &rec.BedStatus, &doc, &warnings, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.Document = json.RawMessage(doc)
	if err := json.Unmarshal(warnings, &rec.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings of %s: %w", rec.ID, err)
	}
	return &rec, nil
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	warnings, err := json.Marshal(rec.Warnings)
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO scenario_documents (id, sheet_name, scenario_name, bed_status, document, warnings)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		rec.ID, rec.SheetName, rec.ScenarioName, rec.BedStatus, []byte(rec.Document), warnings,
	).Scan(&rec.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return r.scanRow(r.db.QueryRow(ctx, `SELECT `+recordCols+` FROM scenario_documents WHERE id = $1`, id))
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM scenario_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM scenario_documents`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.list(ctx, `SELECT `+recordCols+` FROM scenario_documents
		ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	return items, total, err
}

func (r *repoPG) ListBySheet(ctx context.Context, sheet string, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM scenario_documents WHERE sheet_name = $1`, sheet).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.list(ctx, `SELECT `+recordCols+` FROM scenario_documents WHERE sheet_name = $3
		ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset, sheet)
	return items, total, err
}

func (r *repoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Record, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*Record{}
	for rows.Next() {
		rec, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}
