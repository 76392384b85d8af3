package sheets

import (
	"context"
	"sort"

	"spendwise/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseMirror keeps a read-only copy of the ledger somewhere outside the
	// database. Implementations must tolerate replays: appending an id that is
	// already present and removing one that is absent are both no-ops.
	ExpenseMirror interface {
		Append(ctx context.Context, e core.Expense) error
		Remove(ctx context.Context, id int64) error
		// Replace rewrites the whole mirror from items. Rows end up in id
		// order, the same order Append produces.
		Replace(ctx context.Context, items []core.Expense) error
	}
)

// Header is the first row written by Replace.
var Header = []string{"ID", "Item", "Amount", "Created At"}

// SortByID returns a copy of items ordered by ascending id.
func SortByID(items []core.Expense) []core.Expense {
	out := append([]core.Expense(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
