package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/storage"
)

// ErrExpenseNotFound is returned by Delete when the id does not exist.
var ErrExpenseNotFound = errors.New("expense not found")

// ExpenseStore is the persistence port used by ExpenseService.
type ExpenseStore interface {
	Create(ctx context.Context, d core.Draft) (core.Expense, error)
	List(ctx context.Context) ([]core.Expense, error)
	Total(ctx context.Context) (core.Amount, error)
	Get(ctx context.Context, id int64) (core.Expense, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// EventPublisher announces ledger changes. Failures never fail a request.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
	Close() error
}

// ExpenseService orchestrates expense operations across storage and AMQP
type ExpenseService struct {
	store     ExpenseStore
	publisher EventPublisher
}

// NewExpenseService wires the service. publisher may be nil.
func NewExpenseService(store ExpenseStore, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
	}
}

// CreateExpense stores a validated draft and announces it.
func (s *ExpenseService) CreateExpense(ctx context.Context, d core.Draft) (core.Expense, error) {
	e, err := s.store.Create(ctx, d)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, amqp.NewExpenseCreated(e))
	return e, nil
}

// ListExpenses returns all expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []core.Expense{}
	}
	return items, nil
}

// TotalSpending sums every stored amount.
func (s *ExpenseService) TotalSpending(ctx context.Context) (core.Amount, error) {
	return s.store.Total(ctx)
}

// DeleteExpense removes an expense after confirming it exists.
// A row that vanishes between the check and the delete still counts as deleted.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) (core.Expense, error) {
	existing, err := s.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Expense{}, ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("look up expense: %w", err)
	}

	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}
	if !removed {
		slog.WarnContext(ctx, "Expense disappeared before delete", "id", id)
	}

	s.publish(ctx, amqp.NewExpenseDeleted(existing))
	return existing, nil
}

// Ready reports whether the database answers.
func (s *ExpenseService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *ExpenseService) publish(ctx context.Context, ev *amqp.ExpenseEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", ev.Type,
			"id", ev.ID,
			"error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	return errors.Join(errs...)
}
