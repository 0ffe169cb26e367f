package historymap

import (
	"context"
	"log/slog"

	"github.com/yugabyte/pgx/v5/pgxpool"
)

const importAuditDDL = `CREATE TABLE IF NOT EXISTS import_audit (
    id           UUID PRIMARY KEY,
    imported_at  TIMESTAMPTZ NOT NULL,
    file_name    TEXT NOT NULL,
    byte_size    BIGINT NOT NULL,
    categories   INT NOT NULL,
    markers      INT NOT NULL,
    skipped      INT NOT NULL
)`

// Repository keeps the import audit trail.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, importAuditDDL); err != nil {
		return err
	}
	slog.Debug("Import audit table ready")
	return nil
}

func (r *Repository) RecordImport(ctx context.Context, audit ImportAudit) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO import_audit (id, imported_at, file_name, byte_size, categories, markers, skipped)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		audit.ID, audit.ImportedAt, audit.FileName, audit.Bytes, audit.Categories, audit.Markers, audit.Skipped)
	return err
}

// RecentImports returns the latest audit rows, newest first.
func (r *Repository) RecentImports(ctx context.Context, limit int) ([]ImportAudit, error) {
	rows, err := r.db.Query(ctx,
		`select id, imported_at, file_name, byte_size, categories, markers, skipped
           from import_audit
       order by imported_at desc
          limit $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []ImportAudit
	for rows.Next() {
		var a ImportAudit
		if err := rows.Scan(&a.ID, &a.ImportedAt, &a.FileName, &a.Bytes, &a.Categories, &a.Markers, &a.Skipped); err != nil {
			return nil, err
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}
