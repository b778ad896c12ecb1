package worker

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/export"
	"bilancio/internal/storage"
)

// SyncWorker copies imported transaction batches from SQLite to the export
// backend.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	writer    export.TransactionWriter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, writer export.TransactionWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single import sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ImportSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"import_id", msg.ID,
		"version", msg.Version)

	return w.exportImport(ctx, msg.ID)
}

// ProcessPendingImports exports any imports that haven't been synced yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingImports(ctx context.Context) error {
	pending, err := w.storage.PendingImports(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending imports: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending imports", "count", len(pending))

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.exportImport(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending import",
				"import_id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

func (w *SyncWorker) exportImport(ctx context.Context, importID int64) error {
	txs, err := w.storage.ListByImport(ctx, importID)
	if err != nil {
		return fmt.Errorf("load import %d: %w", importID, err)
	}

	for _, tx := range txs {
		ref, err := w.writer.Append(ctx, tx)
		if err != nil {
			return fmt.Errorf("append transaction to export backend: %w", err)
		}
		slog.DebugContext(ctx, "Transaction exported",
			"import_id", importID,
			"ref", ref)
	}

	if err := w.storage.MarkImportSynced(ctx, importID); err != nil {
		return fmt.Errorf("mark import synced: %w", err)
	}

	slog.InfoContext(ctx, "Import exported",
		"import_id", importID,
		"transactions", len(txs))

	return nil
}
