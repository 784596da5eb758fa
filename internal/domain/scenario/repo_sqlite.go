package scenario

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scenario_documents (
	id            TEXT PRIMARY KEY,
	sheet_name    TEXT NOT NULL,
	scenario_name TEXT NOT NULL,
	bed_status    TEXT NOT NULL,
	document      TEXT NOT NULL,
	warnings      TEXT NOT NULL DEFAULT '[]',
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scenario_documents_sheet ON scenario_documents (sheet_name, created_at);
`

// sqliteTime sorts lexically in the same order as the instants it encodes.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

type repoSQLite struct{ db *sql.DB }

// NewRepoSQLite creates the schema if needed and returns a repository over
// conn. Timestamps are stored as fixed-width UTC text.
func NewRepoSQLite(ctx context.Context, conn *sql.DB) (Repository, error) {
	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &repoSQLite{db: conn}, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *repoSQLite) scanRow(row scanner) (*Record, error) {
	var (
		rec              Record
		id, doc, created string
		warnings         string
	)
	if err := row.Scan(&id, &rec.SheetName, &rec.ScenarioName, &rec.BedStatus, &doc, &warnings, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("decode id %q: %w", id, err)
	}
	if rec.CreatedAt, err = time.Parse(sqliteTime, created); err != nil {
		return nil, fmt.Errorf("decode created_at of %s: %w", id, err)
	}
	rec.Document = json.RawMessage(doc)
	if err := json.Unmarshal([]byte(warnings), &rec.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings of %s: %w", id, err)
	}
	return &rec, nil
}

func (r *repoSQLite) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now().UTC()
	warnings, err := json.Marshal(rec.Warnings)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO scenario_documents (id, sheet_name, scenario_name, bed_status, document, warnings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.SheetName, rec.ScenarioName, rec.BedStatus, string(rec.Document), string(warnings),
		rec.CreatedAt.Format(sqliteTime),
	)
	return err
}

func (r *repoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return r.scanRow(r.db.QueryRowContext(ctx, `SELECT `+recordCols+` FROM scenario_documents WHERE id = ?`, id.String()))
}

func (r *repoSQLite) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scenario_documents WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoSQLite) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenario_documents`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.list(ctx, `SELECT `+recordCols+` FROM scenario_documents
		ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	return items, total, err
}

func (r *repoSQLite) ListBySheet(ctx context.Context, sheet string, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenario_documents WHERE sheet_name = ?`, sheet).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.list(ctx, `SELECT `+recordCols+` FROM scenario_documents WHERE sheet_name = ?
		ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, sheet, limit, offset)
	return items, total, err
}

func (r *repoSQLite) list(ctx context.Context, query string, args ...interface{}) ([]*Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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
