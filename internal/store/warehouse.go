package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"jobscout-engine/internal/domain"
)

// Dialect selects placeholder syntax for the warehouse's SQL driver.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// Warehouse is the analytical backend: one all-TEXT table, identity unique
// globally. Merges pre-filter against the loaded identity set and append new
// rows in a single transaction; ordering is a query-time concern, so there is
// no rewrite and no re-sort.
type Warehouse struct {
	db      *sql.DB
	dialect Dialect
}

func NewWarehouse(db *sql.DB, dialect Dialect) *Warehouse {
	return &Warehouse{db: db, dialect: dialect}
}

// warehouseColumns matches the declared field list; every column is string
// typed, identity first.
var warehouseColumns = []string{
	"identity", "title", "org", "location", "published_at", "posted_ago",
	"seniority_level", "employment_type", "job_function", "industries",
	"status", "notes", "added_at", "link", "org_link",
	"keyword", "country", "work_type", "contract_types",
	"needs_retry", "fit", "message", "description",
}

// Migrate creates the postings table. In rebuild mode the caller drops it
// first via Rebuild.
func (w *Warehouse) Migrate(ctx context.Context) error {
	cols := make([]string, len(warehouseColumns))
	for i, c := range warehouseColumns {
		if c == "identity" {
			cols[i] = c + " TEXT PRIMARY KEY"
			continue
		}
		cols[i] = c + " TEXT NOT NULL DEFAULT ''"
	}
	_, err := w.db.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS postings (%s);", strings.Join(cols, ", ")))
	if err != nil {
		return fmt.Errorf("warehouse migrate: %w", err)
	}
	return nil
}

// Rebuild drops and recreates the table, leaving only the schema.
func (w *Warehouse) Rebuild(ctx context.Context) error {
	if _, err := w.db.ExecContext(ctx, "DROP TABLE IF EXISTS postings;"); err != nil {
		return fmt.Errorf("warehouse drop: %w", err)
	}
	return w.Migrate(ctx)
}

func (w *Warehouse) loadIDs(ctx context.Context) (mapset.Set[string], error) {
	rows, err := w.db.QueryContext(ctx, "SELECT identity FROM postings;")
	if err != nil {
		return nil, fmt.Errorf("warehouse load ids: %w", err)
	}
	defer rows.Close()

	ids := mapset.NewSet[string]()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids.Add(id)
	}
	return ids, rows.Err()
}

// Merge inserts records whose identity is not yet present. The partition key
// is recorded as dimension columns only; uniqueness here is global, so a
// record already inserted by another search combination is discarded.
func (w *Warehouse) Merge(ctx context.Context, key PartitionKey, records []*domain.Posting) (int, error) {
	ids, err := w.loadIDs(ctx)
	if err != nil {
		return 0, err
	}

	var fresh []*domain.Posting
	for _, rec := range records {
		if rec.Identity == "" || ids.Contains(rec.Identity) {
			continue
		}
		stampDefaults(rec, timeNow())
		fresh = append(fresh, rec)
		ids.Add(rec.Identity)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("warehouse begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf("INSERT INTO postings (%s) VALUES (%s);",
		strings.Join(warehouseColumns, ", "), w.placeholders(len(warehouseColumns)))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("warehouse prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range fresh {
		vals := encodeRow(rec)
		args := make([]any, len(vals))
		for i, v := range vals {
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("warehouse insert %s: %w", rec.Identity, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("warehouse commit: %w", err)
	}
	return len(fresh), nil
}

func (w *Warehouse) ListIncomplete(ctx context.Context) ([]*domain.Posting, error) {
	query := fmt.Sprintf("SELECT %s FROM postings WHERE needs_retry = '1';",
		strings.Join(warehouseColumns, ", "))
	rows, err := w.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("warehouse list incomplete: %w", err)
	}
	defer rows.Close()

	var out []*domain.Posting
	for rows.Next() {
		rec := make([]string, len(warehouseColumns))
		args := make([]any, len(rec))
		for i := range rec {
			args[i] = &rec[i]
		}
		if err := rows.Scan(args...); err != nil {
			return nil, err
		}
		out = append(out, decodeRow(rec))
	}
	return out, rows.Err()
}

func (w *Warehouse) Update(ctx context.Context, p *domain.Posting) error {
	vals := encodeRow(p)
	sets := make([]string, 0, len(warehouseColumns)-1)
	args := make([]any, 0, len(warehouseColumns))
	n := 1
	for i, col := range warehouseColumns {
		if col == "identity" {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", col, w.placeholder(n)))
		args = append(args, vals[i])
		n++
	}
	args = append(args, p.Identity)
	query := fmt.Sprintf("UPDATE postings SET %s WHERE identity = %s;",
		strings.Join(sets, ", "), w.placeholder(n))

	res, err := w.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("warehouse update %s: %w", p.Identity, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("update: identity %s not present in warehouse", p.Identity)
	}
	return nil
}

func (w *Warehouse) Close() error {
	return w.db.Close()
}

func (w *Warehouse) placeholder(n int) string {
	if w.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (w *Warehouse) placeholders(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = w.placeholder(i + 1)
	}
	return strings.Join(out, ", ")
}
