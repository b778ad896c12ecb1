package export

import (
	"context"

	"bilancio/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionWriter appends one classified transaction to the export
	// backend and returns a backend-specific row reference.
	TransactionWriter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}
)
