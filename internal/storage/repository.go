package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
)

// ErrNotFound is returned when no expense has the requested id.
var ErrNotFound = errors.New("expense not found")

// Repository persists expenses in Postgres or SQLite.
type Repository struct {
	db      *sql.DB
	queries *Queries
	driver  Driver
}

// NewRepository wraps an open pool. The schema must already be migrated.
func NewRepository(db *sql.DB, driver Driver) *Repository {
	return &Repository{
		db:      db,
		queries: NewQueries(db, driver),
		driver:  driver,
	}
}

// Connect opens the pool, applies migrations and returns a ready repository.
func Connect(ctx context.Context, opts Options) (*Repository, error) {
	db, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(opts.Driver, opts.DSN); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewRepository(db, opts.Driver), nil
}

func (r *Repository) Driver() Driver {
	return r.driver
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create inserts a validated draft and returns the stored row.
func (r *Repository) Create(ctx context.Context, d core.Draft) (core.Expense, error) {
	e, err := r.queries.CreateExpense(ctx, d.ItemName, d.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense stored",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldExpenseID, e.ID,
		applog.FieldItemName, e.ItemName,
		applog.FieldAmount, e.Amount.String(),
		"driver", string(r.driver))

	return e, nil
}

// List returns every expense, newest first. The result is never nil.
func (r *Repository) List(ctx context.Context) ([]core.Expense, error) {
	items, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return items, nil
}

// Total returns the sum of all amounts, zero when the table is empty.
func (r *Repository) Total(ctx context.Context) (core.Amount, error) {
	total, err := r.queries.SumExpenses(ctx)
	if err != nil {
		return core.Amount{}, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// Get returns a single expense or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id int64) (core.Expense, error) {
	e, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// Delete removes the row with id and reports whether one was removed.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := r.queries.DeleteExpense(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete expense %d: %w", id, err)
	}

	slog.DebugContext(ctx, "Expense delete executed",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldExpenseID, id,
		"rows_affected", n)
	return n > 0, nil
}
