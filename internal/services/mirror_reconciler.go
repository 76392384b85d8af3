package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/sheets"
)

// ExpenseLister is the read side of the ledger used for reconciliation.
type ExpenseLister interface {
	List(ctx context.Context) ([]core.Expense, error)
}

// mirrorReader is implemented by mirrors that can report what they hold.
type mirrorReader interface {
	ListMirrored(ctx context.Context) ([]core.Expense, error)
}

type ReconcilerConfig struct {
	// Interval between full passes. Zero disables the loop; ReconcileOnce
	// still works.
	Interval time.Duration
}

// MirrorReconciler rebuilds the sheet mirror from the database so events
// lost while the worker was down do not leave it stale.
type MirrorReconciler struct {
	source ExpenseLister
	mirror sheets.ExpenseMirror
	config ReconcilerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirrorReconciler(source ExpenseLister, mirror sheets.ExpenseMirror, config ReconcilerConfig) *MirrorReconciler {
	return &MirrorReconciler{
		source: source,
		mirror: mirror,
		config: config,
	}
}

// ReconcileOnce compares the mirror with the database and rewrites it when
// the id sets differ. Mirrors that cannot be read are always rewritten.
func (r *MirrorReconciler) ReconcileOnce(ctx context.Context) (bool, error) {
	items, err := r.source.List(ctx)
	if err != nil {
		return false, fmt.Errorf("list expenses: %w", err)
	}

	if reader, ok := r.mirror.(mirrorReader); ok {
		mirrored, err := reader.ListMirrored(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Could not read mirror, rebuilding", "error", err)
		} else if sameIDs(items, mirrored) {
			slog.DebugContext(ctx, "Mirror already in sync", "count", len(items))
			return false, nil
		}
	}

	if err := r.mirror.Replace(ctx, items); err != nil {
		return false, fmt.Errorf("replace mirror: %w", err)
	}
	slog.InfoContext(ctx, "Mirror reconciled", "count", len(items))
	return true, nil
}

func sameIDs(a, b []core.Expense) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int64]struct{}, len(a))
	for _, e := range a {
		seen[e.ID] = struct{}{}
	}
	for _, e := range b {
		if _, ok := seen[e.ID]; !ok {
			return false
		}
	}
	return true
}

// Start begins the periodic loop. Returns an error if already running.
func (r *MirrorReconciler) Start(ctx context.Context) error {
	if r.config.Interval <= 0 {
		return fmt.Errorf("reconcile interval must be positive, got %v", r.config.Interval)
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("mirror reconciler is already running")
	}
	r.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	r.stopCh, r.doneCh = stopCh, doneCh
	r.mu.Unlock()

	go r.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Mirror reconciler started", "interval", r.config.Interval)
	return nil
}

// Stop signals the loop and waits for it or for ctx.
func (r *MirrorReconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	close(r.stopCh)
	done := r.doneCh
	r.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Mirror reconciler stopped")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Mirror reconciler stop timed out")
		return ctx.Err()
	}
}

func (r *MirrorReconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *MirrorReconciler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.ReconcileOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "Mirror reconcile failed", "error", err)
			}
		}
	}
}
