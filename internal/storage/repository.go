package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/taxonomy"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// StoredTransaction pairs a persisted transaction with its row id and the
// import it arrived in, so reclassification can write categories back in
// place and requeue the touched imports for export.
type StoredTransaction struct {
	ID       int64
	ImportID int64
	core.Transaction
}

// PendingImport is the minimal record the sync queue needs to schedule an
// export batch.
type PendingImport struct {
	ID        int64
	RowCount  int64
	CreatedAt time.Time
}

// CategoryUpdate assigns a category to one stored transaction.
type CategoryUpdate struct {
	ID       int64
	Category core.CategoryID
}

// CreateImport stores one parsed ledger as an import plus its transactions
// and returns the new import id.
func (r *SQLiteRepository) CreateImport(ctx context.Context, txs []core.Transaction, skipped int) (int64, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import transaction: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx,
		`INSERT INTO imports (row_count, skipped_count) VALUES (?, ?)`,
		len(txs), skipped)
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	importID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read import id: %w", err)
	}

	stmt, err := dbTx.PrepareContext(ctx,
		`INSERT INTO transactions
		   (import_id, date_unix_ms, activity_type, activity_name, amount_cents,
		    currency, locality, actor, category)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare transaction insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		if _, err := stmt.ExecContext(ctx,
			importID, t.Date.UnixMilli(), t.ActivityType.String(), t.ActivityName,
			t.Amount.Cents, t.Currency, t.Locality, t.Actor, string(t.Category),
		); err != nil {
			return 0, fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Import saved to SQLite",
		"import_id", importID,
		"rows", len(txs),
		"skipped", skipped)

	return importID, nil
}

const transactionColumns = `id, import_id, date_unix_ms, activity_type, activity_name,
	amount_cents, currency, locality, actor, category`

// ListByImport returns the transactions of one import in insertion order.
func (r *SQLiteRepository) ListByImport(ctx context.Context, importID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE import_id = ? ORDER BY id`,
		importID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by import: %w", err)
	}
	defer rows.Close()

	stored, err := scanTransactions(rows)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, len(stored))
	for i, s := range stored {
		out[i] = s.Transaction
	}
	return out, nil
}

// ListTransactions returns every transaction dated inside the period, both
// ends inclusive, ordered by date.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, p core.TimePeriod) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE date_unix_ms BETWEEN ? AND ? ORDER BY date_unix_ms, id`,
		p.Start.UnixMilli(), p.End.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list transactions by period: %w", err)
	}
	defer rows.Close()

	stored, err := scanTransactions(rows)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, len(stored))
	for i, s := range stored {
		out[i] = s.Transaction
	}
	return out, nil
}

// AllStored returns every transaction with its row id, the working set for a
// full reclassification after a rule change.
func (r *SQLiteRepository) AllStored(ctx context.Context) ([]StoredTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list all transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// UpdateCategories writes a batch of category assignments in one database
// transaction.
func (r *SQLiteRepository) UpdateCategories(ctx context.Context, updates []CategoryUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin category update: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx,
		`UPDATE transactions SET category = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare category update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, string(u.Category), u.ID); err != nil {
			return fmt.Errorf("update category for transaction %d: %w", u.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit category update: %w", err)
	}

	slog.InfoContext(ctx, "Transaction categories updated", "count", len(updates))
	return nil
}

// SaveOverrides replaces the stored rule overrides with the given set.
// Phrase order within a category is kept via the position column.
func (r *SQLiteRepository) SaveOverrides(ctx context.Context, overrides taxonomy.Overrides) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin overrides save: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM rule_overrides`); err != nil {
		return fmt.Errorf("clear rule overrides: %w", err)
	}

	stmt, err := dbTx.PrepareContext(ctx,
		`INSERT INTO rule_overrides (category, phrase, position) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare override insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range core.AllCategoryIDs {
		for pos, phrase := range overrides[id] {
			if _, err := stmt.ExecContext(ctx, string(id), phrase, pos); err != nil {
				return fmt.Errorf("insert override for %s: %w", id, err)
			}
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit overrides save: %w", err)
	}

	return nil
}

// LoadOverrides reads the stored rule overrides. Every known category is
// present in the result, with an empty list when nothing is stored for it.
func (r *SQLiteRepository) LoadOverrides(ctx context.Context) (taxonomy.Overrides, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, phrase FROM rule_overrides ORDER BY category, position`)
	if err != nil {
		return nil, fmt.Errorf("load rule overrides: %w", err)
	}
	defer rows.Close()

	overrides := taxonomy.NewOverrides()
	for rows.Next() {
		var category, phrase string
		if err := rows.Scan(&category, &phrase); err != nil {
			return nil, fmt.Errorf("scan rule override: %w", err)
		}
		id := core.CategoryID(category)
		if !id.Valid() {
			slog.Warn("Dropping override for unknown category", "category", category)
			continue
		}
		overrides[id] = append(overrides[id], phrase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule overrides: %w", err)
	}

	return overrides, nil
}

// MarkImportSynced records that an import's transactions reached the export
// backend.
func (r *SQLiteRepository) MarkImportSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE imports SET synced_at = CURRENT_TIMESTAMP WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark import synced: %w", err)
	}

	slog.InfoContext(ctx, "Import marked as synced", "import_id", id)
	return nil
}

// ResetImportSync clears the synced state of the given imports so the sync
// worker exports them again.
func (r *SQLiteRepository) ResetImportSync(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sync reset: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx,
		`UPDATE imports SET synced_at = NULL WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare sync reset: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("reset sync for import %d: %w", id, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit sync reset: %w", err)
	}

	slog.InfoContext(ctx, "Imports requeued for export", "count", len(ids))
	return nil
}

// PendingImports returns imports that still await export, oldest first.
func (r *SQLiteRepository) PendingImports(ctx context.Context, limit int) ([]PendingImport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, row_count, created_at FROM imports
		 WHERE synced_at IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending imports: %w", err)
	}
	defer rows.Close()

	var pending []PendingImport
	for rows.Next() {
		var p PendingImport
		if err := rows.Scan(&p.ID, &p.RowCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending import: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending imports: %w", err)
	}

	return pending, nil
}

func scanTransactions(rows *sql.Rows) ([]StoredTransaction, error) {
	var out []StoredTransaction
	for rows.Next() {
		var (
			s            StoredTransaction
			dateUnixMs   int64
			activityType string
			category     string
		)
		if err := rows.Scan(&s.ID, &s.ImportID, &dateUnixMs, &activityType, &s.ActivityName,
			&s.Amount.Cents, &s.Currency, &s.Locality, &s.Actor, &category); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		s.Date = time.UnixMilli(dateUnixMs)
		s.Category = core.CategoryID(category)
		if activityType == core.Credit.String() {
			s.ActivityType = core.Credit
		} else {
			s.ActivityType = core.Debit
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
