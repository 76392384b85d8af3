package worker

import (
	"context"
	"fmt"
	"log/slog"

	"spendwise/internal/amqp"
	applog "spendwise/internal/log"
	"spendwise/internal/sheets"
)

// SyncWorker applies expense events to the sheet mirror
type SyncWorker struct {
	mirror sheets.ExpenseMirror
}

func NewSyncWorker(mirror sheets.ExpenseMirror) *SyncWorker {
	return &SyncWorker{mirror: mirror}
}

// HandleEvent is an amqp.EventHandler. Returning an error nacks the delivery.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldOperation, applog.OpSync,
		applog.FieldEventType, ev.Type,
		applog.FieldExpenseID, ev.ID,
		"published_at", ev.Timestamp)

	switch ev.Type {
	case amqp.EventExpenseCreated:
		if err := w.mirror.Append(ctx, ev.Expense()); err != nil {
			return fmt.Errorf("mirror append %d: %w", ev.ID, err)
		}
	case amqp.EventExpenseDeleted:
		if err := w.mirror.Remove(ctx, ev.ID); err != nil {
			return fmt.Errorf("mirror remove %d: %w", ev.ID, err)
		}
	default:
		// Unknown types are acked and dropped; requeueing cannot help.
		slog.WarnContext(ctx, "Ignoring unknown event type",
			applog.FieldComponent, applog.ComponentWorker,
			applog.FieldEventType, ev.Type,
			applog.FieldExpenseID, ev.ID)
	}

	return nil
}
