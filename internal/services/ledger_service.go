package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"bilancio/internal/amqp"
	"bilancio/internal/classify"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/storage"
	"bilancio/internal/taxonomy"
)

// LedgerService orchestrates ledger imports and rule management across
// SQLite and AMQP.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// ImportResult reports what one ledger import produced.
type ImportResult struct {
	ImportID     int64              `json:"import_id"`
	Transactions []core.Transaction `json:"-"`
	RowCount     int                `json:"row_count"`
	SkippedRows  int                `json:"skipped_rows"`
}

// Import parses a raw ledger export, classifies the transactions with the
// stored rule overrides, persists the batch and schedules its export sync.
func (s *LedgerService) Import(ctx context.Context, raw string) (ImportResult, error) {
	txs, skipped := ledger.Parse(raw)

	overrides, err := s.storage.LoadOverrides(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("load rule overrides: %w", err)
	}
	classify.Transactions(txs, overrides)

	importID, err := s.storage.CreateImport(ctx, txs, skipped)
	if err != nil {
		return ImportResult{}, fmt.Errorf("save import: %w", err)
	}

	// Publish async sync message (non-blocking, version 1 for new import)
	if err := s.publishSyncMessage(ctx, importID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"import_id", importID, "error", err)
		// Don't fail the request - import is saved locally
	}

	return ImportResult{
		ImportID:     importID,
		Transactions: txs,
		RowCount:     len(txs),
		SkippedRows:  skipped,
	}, nil
}

// Rules returns the stored rule overrides, one phrase list per category.
func (s *LedgerService) Rules(ctx context.Context) (taxonomy.Overrides, error) {
	return s.storage.LoadOverrides(ctx)
}

// UpdateRules replaces the stored overrides and reclassifies every stored
// transaction that is still unclassified or uncategorized. Changed rows are
// written back and the affected imports are scheduled for re-export.
func (s *LedgerService) UpdateRules(ctx context.Context, overrides taxonomy.Overrides) error {
	if err := s.storage.SaveOverrides(ctx, overrides); err != nil {
		return fmt.Errorf("save rule overrides: %w", err)
	}

	stored, err := s.storage.AllStored(ctx)
	if err != nil {
		return fmt.Errorf("load stored transactions: %w", err)
	}

	txs := make([]core.Transaction, len(stored))
	for i, st := range stored {
		txs[i] = st.Transaction
	}
	classify.Transactions(txs, overrides)

	var updates []storage.CategoryUpdate
	touched := make(map[int64]struct{})
	for i, st := range stored {
		if txs[i].Category != st.Category {
			updates = append(updates, storage.CategoryUpdate{
				ID:       st.ID,
				Category: txs[i].Category,
			})
			touched[st.ImportID] = struct{}{}
		}
	}
	if err := s.storage.UpdateCategories(ctx, updates); err != nil {
		return fmt.Errorf("apply reclassification: %w", err)
	}

	// Imports with reclassified rows carry stale categories in the export
	// backend until the worker syncs them again.
	importIDs := make([]int64, 0, len(touched))
	for id := range touched {
		importIDs = append(importIDs, id)
	}
	sort.Slice(importIDs, func(i, j int) bool { return importIDs[i] < importIDs[j] })
	if err := s.storage.ResetImportSync(ctx, importIDs); err != nil {
		return fmt.Errorf("requeue imports for export: %w", err)
	}
	for _, id := range importIDs {
		if err := s.publishSyncMessage(ctx, id, 2); err != nil {
			slog.ErrorContext(ctx, "Failed to publish re-export message",
				"import_id", id, "error", err)
			// The pending-import scanner picks it up later
		}
	}

	slog.InfoContext(ctx, "Rule overrides updated",
		"reclassified", len(updates),
		"requeued_imports", len(importIDs),
		"total", len(stored))

	return nil
}

// Transactions returns every stored transaction dated inside the period.
func (s *LedgerService) Transactions(ctx context.Context, p core.TimePeriod) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, p)
}

func (s *LedgerService) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}

	return s.amqpClient.PublishImportSync(ctx, id, version)
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
