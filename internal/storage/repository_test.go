package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/taxonomy"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "bilancio.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testTransaction(day int, cents int64) core.Transaction {
	return core.Transaction{
		Date:         time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC),
		ActivityType: core.Debit,
		ActivityName: "Twint",
		Amount:       core.Money{Cents: cents},
		Currency:     "CHF",
		Actor:        "SBB CFF FFS",
		Category:     core.CategoryPublicTransport,
	}
}

func TestCreateImportAndListByImport(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	txs := []core.Transaction{testTransaction(1, 5050), testTransaction(15, 1200)}
	importID, err := repo.CreateImport(ctx, txs, 3)
	if err != nil {
		t.Fatalf("CreateImport() error = %v", err)
	}
	if importID == 0 {
		t.Fatal("CreateImport() returned zero id")
	}

	got, err := repo.ListByImport(ctx, importID)
	if err != nil {
		t.Fatalf("ListByImport() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByImport() returned %d transactions, want 2", len(got))
	}
	if got[0].Amount.Cents != 5050 || got[1].Amount.Cents != 1200 {
		t.Errorf("transactions out of order: %+v", got)
	}
	if got[0].Category != core.CategoryPublicTransport {
		t.Errorf("Category = %q, want %q", got[0].Category, core.CategoryPublicTransport)
	}
	if got[0].ActivityType != core.Debit {
		t.Errorf("ActivityType = %v, want Debit", got[0].ActivityType)
	}
	if !got[0].Date.Equal(txs[0].Date) {
		t.Errorf("Date = %v, want %v", got[0].Date, txs[0].Date)
	}
}

func TestListTransactionsPeriodBoundsInclusive(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	txs := []core.Transaction{testTransaction(1, 100), testTransaction(15, 200), testTransaction(31, 300)}
	if _, err := repo.CreateImport(ctx, txs, 0); err != nil {
		t.Fatalf("CreateImport() error = %v", err)
	}

	period := core.TimePeriod{Start: txs[0].Date, End: txs[1].Date}
	got, err := repo.ListTransactions(ctx, period)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListTransactions() returned %d transactions, want 2", len(got))
	}
	if got[0].Amount.Cents != 100 || got[1].Amount.Cents != 200 {
		t.Errorf("wrong transactions in period: %+v", got)
	}
}

func TestUpdateCategories(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.CreateImport(ctx, []core.Transaction{testTransaction(1, 100)}, 0); err != nil {
		t.Fatalf("CreateImport() error = %v", err)
	}

	stored, err := repo.AllStored(ctx)
	if err != nil {
		t.Fatalf("AllStored() error = %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("AllStored() returned %d transactions, want 1", len(stored))
	}

	err = repo.UpdateCategories(ctx, []CategoryUpdate{{ID: stored[0].ID, Category: core.CategoryTravel}})
	if err != nil {
		t.Fatalf("UpdateCategories() error = %v", err)
	}

	stored, err = repo.AllStored(ctx)
	if err != nil {
		t.Fatalf("AllStored() error = %v", err)
	}
	if stored[0].Category != core.CategoryTravel {
		t.Errorf("Category = %q, want %q", stored[0].Category, core.CategoryTravel)
	}
}

func TestOverridesRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	overrides := taxonomy.NewOverrides()
	overrides[core.CategoryGroceries] = []string{"volg", "farmers market"}
	overrides[core.CategoryTravel] = []string{"easyjet"}

	if err := repo.SaveOverrides(ctx, overrides); err != nil {
		t.Fatalf("SaveOverrides() error = %v", err)
	}

	got, err := repo.LoadOverrides(ctx)
	if err != nil {
		t.Fatalf("LoadOverrides() error = %v", err)
	}
	if len(got[core.CategoryGroceries]) != 2 || got[core.CategoryGroceries][0] != "volg" {
		t.Errorf("Groceries overrides = %v, want [volg farmers market]", got[core.CategoryGroceries])
	}
	if len(got[core.CategoryTravel]) != 1 || got[core.CategoryTravel][0] != "easyjet" {
		t.Errorf("Travel overrides = %v, want [easyjet]", got[core.CategoryTravel])
	}
	if len(got[core.CategoryRent]) != 0 {
		t.Errorf("Rent overrides = %v, want empty", got[core.CategoryRent])
	}

	// A second save fully replaces the stored set.
	overrides[core.CategoryGroceries] = []string{"volg"}
	overrides[core.CategoryTravel] = nil
	if err := repo.SaveOverrides(ctx, overrides); err != nil {
		t.Fatalf("SaveOverrides() error = %v", err)
	}
	got, err = repo.LoadOverrides(ctx)
	if err != nil {
		t.Fatalf("LoadOverrides() error = %v", err)
	}
	if len(got[core.CategoryGroceries]) != 1 {
		t.Errorf("Groceries overrides after replace = %v, want [volg]", got[core.CategoryGroceries])
	}
	if len(got[core.CategoryTravel]) != 0 {
		t.Errorf("Travel overrides after replace = %v, want empty", got[core.CategoryTravel])
	}
}

func TestResetImportSyncRequeuesImport(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	importID, err := repo.CreateImport(ctx, []core.Transaction{testTransaction(1, 100)}, 0)
	if err != nil {
		t.Fatalf("CreateImport() error = %v", err)
	}
	if err := repo.MarkImportSynced(ctx, importID); err != nil {
		t.Fatalf("MarkImportSynced() error = %v", err)
	}

	pending, err := repo.PendingImports(ctx, 10)
	if err != nil {
		t.Fatalf("PendingImports() error = %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("PendingImports() = %+v, want empty after sync", pending)
	}

	if err := repo.ResetImportSync(ctx, []int64{importID}); err != nil {
		t.Fatalf("ResetImportSync() error = %v", err)
	}

	pending, err = repo.PendingImports(ctx, 10)
	if err != nil {
		t.Fatalf("PendingImports() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != importID {
		t.Fatalf("PendingImports() after reset = %+v, want the requeued import", pending)
	}

	// No ids, no work.
	if err := repo.ResetImportSync(ctx, nil); err != nil {
		t.Errorf("ResetImportSync(nil) error = %v", err)
	}
}

func TestAllStoredCarriesImportID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first, err := repo.CreateImport(ctx, []core.Transaction{testTransaction(1, 100)}, 0)
	if err != nil {
		t.Fatalf("CreateImport() error = %v", err)
	}
	second, err := repo.CreateImport(ctx, []core.Transaction{testTransaction(2, 200)}, 0)
	if err != nil {
		t.Fatalf("CreateImport() error = %v", err)
	}

	stored, err := repo.AllStored(ctx)
	if err != nil {
		t.Fatalf("AllStored() error = %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("AllStored() returned %d transactions, want 2", len(stored))
	}
	if stored[0].ImportID != first || stored[1].ImportID != second {
		t.Errorf("ImportIDs = %d, %d, want %d, %d",
			stored[0].ImportID, stored[1].ImportID, first, second)
	}
}

func TestPendingImportsAndMarkSynced(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first, err := repo.CreateImport(ctx, []core.Transaction{testTransaction(1, 100)}, 0)
	if err != nil {
		t.Fatalf("CreateImport() error = %v", err)
	}
	second, err := repo.CreateImport(ctx, []core.Transaction{testTransaction(2, 200)}, 0)
	if err != nil {
		t.Fatalf("CreateImport() error = %v", err)
	}

	pending, err := repo.PendingImports(ctx, 10)
	if err != nil {
		t.Fatalf("PendingImports() error = %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first || pending[1].ID != second {
		t.Fatalf("PendingImports() = %+v, want both imports oldest first", pending)
	}

	if err := repo.MarkImportSynced(ctx, first); err != nil {
		t.Fatalf("MarkImportSynced() error = %v", err)
	}

	pending, err = repo.PendingImports(ctx, 10)
	if err != nil {
		t.Fatalf("PendingImports() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second {
		t.Fatalf("PendingImports() after sync = %+v, want only second import", pending)
	}
}
