package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/storage"
	"bilancio/internal/taxonomy"
)

func newTestService(t *testing.T) (*LedgerService, *storage.SQLiteRepository) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "bilancio.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}

	// No AMQP in unit tests; publishes degrade to a warning.
	svc := NewLedgerService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	return svc, repo
}

const sampleLedger = "Date;x;Name;Debit;DebitCur;Credit;CreditCur;x;Locality;DebitActor;CreditActor\n" +
	`01/03/2025;;"""TWINT""";-50.50;CHF;;;;"Zurich";"""SBB CFF FFS""";` + "\n" +
	`05/03/2025;;"""Salary""";;;10000.00;CHF;;"Zurich";;"""Google AG"""` + "\n" +
	"not a row\n" +
	`10/03/2025;;"""TWINT""";-12.00;CHF;;;;"Online";"""Real Estate Partners AG""";` + "\n"

func TestImportParsesClassifiesAndPersists(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Import(ctx, sampleLedger)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.RowCount != 3 {
		t.Fatalf("RowCount = %d, want 3", res.RowCount)
	}
	if res.SkippedRows != 2 {
		t.Errorf("SkippedRows = %d, want 2 (junk line and trailing blank)", res.SkippedRows)
	}

	if got := res.Transactions[0].Category; got != core.CategoryPublicTransport {
		t.Errorf("first transaction category = %q, want %q", got, core.CategoryPublicTransport)
	}
	if got := res.Transactions[1].Category; got != "" {
		t.Errorf("credit transaction category = %q, want empty", got)
	}
	if got := res.Transactions[2].Category; got != core.CategoryUncategorized {
		t.Errorf("unmatched debit category = %q, want %q", got, core.CategoryUncategorized)
	}
}

func TestTransactionsScopedByPeriod(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Import(ctx, sampleLedger)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	period := core.TimePeriod{
		Start: res.Transactions[0].Date,
		End:   res.Transactions[1].Date,
	}
	got, err := svc.Transactions(ctx, period)
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Transactions() returned %d rows, want 2", len(got))
	}
	if got[0].ActivityName != "TWINT" || got[1].ActivityName != "Salary" {
		t.Errorf("unexpected transactions in period: %+v", got)
	}
}

func TestUpdateRulesReclassifiesStoredTransactions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Import(ctx, sampleLedger)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Transactions[2].Category != core.CategoryUncategorized {
		t.Fatalf("precondition failed: third transaction should be uncategorized")
	}

	overrides := taxonomy.NewOverrides()
	overrides[core.CategoryRent] = []string{"real estate partners"}
	if err := svc.UpdateRules(ctx, overrides); err != nil {
		t.Fatalf("UpdateRules() error = %v", err)
	}

	period := core.TimePeriod{Start: res.Transactions[0].Date, End: res.Transactions[2].Date}
	got, err := svc.Transactions(ctx, period)
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}

	var reclassified bool
	for _, tx := range got {
		if strings.Contains(tx.Actor, "Real Estate Partners") && tx.Category == core.CategoryRent {
			reclassified = true
		}
	}
	if !reclassified {
		t.Error("expected uncategorized transaction to pick up the new rent rule")
	}

	// Rules round-trip through storage.
	stored, err := svc.Rules(ctx)
	if err != nil {
		t.Fatalf("Rules() error = %v", err)
	}
	if len(stored[core.CategoryRent]) != 1 || stored[core.CategoryRent][0] != "real estate partners" {
		t.Errorf("stored rent overrides = %v, want [real estate partners]", stored[core.CategoryRent])
	}
}

func TestUpdateRulesRequeuesSyncedImportsForExport(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	res, err := svc.Import(ctx, sampleLedger)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if err := repo.MarkImportSynced(ctx, res.ImportID); err != nil {
		t.Fatalf("MarkImportSynced() error = %v", err)
	}

	// A rule change that reclassifies a stored row must send its import
	// back through the export queue, or the backend keeps the old category.
	overrides := taxonomy.NewOverrides()
	overrides[core.CategoryRent] = []string{"real estate partners"}
	if err := svc.UpdateRules(ctx, overrides); err != nil {
		t.Fatalf("UpdateRules() error = %v", err)
	}

	pending, err := repo.PendingImports(ctx, 10)
	if err != nil {
		t.Fatalf("PendingImports() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != res.ImportID {
		t.Fatalf("PendingImports() = %+v, want the reclassified import requeued", pending)
	}

	// A no-op rule change leaves synced imports alone.
	if err := repo.MarkImportSynced(ctx, res.ImportID); err != nil {
		t.Fatalf("MarkImportSynced() error = %v", err)
	}
	if err := svc.UpdateRules(ctx, overrides); err != nil {
		t.Fatalf("UpdateRules() error = %v", err)
	}
	pending, err = repo.PendingImports(ctx, 10)
	if err != nil {
		t.Fatalf("PendingImports() error = %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("PendingImports() after no-op update = %+v, want empty", pending)
	}
}
