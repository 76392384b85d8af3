package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"spendwise/internal/core"
)

// EventType names a change to the expense ledger.
type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseDeleted EventType = "expense.deleted"
)

// ExpenseEvent carries a full snapshot of the expense so consumers never
// need to read the database.
type ExpenseEvent struct {
	Type      EventType   `json:"type"`
	ID        int64       `json:"id"`
	ItemName  string      `json:"item_name"`
	Amount    core.Amount `json:"amount"`
	CreatedAt time.Time   `json:"created_at"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewExpenseCreated(e core.Expense) *ExpenseEvent {
	return newExpenseEvent(EventExpenseCreated, e)
}

func NewExpenseDeleted(e core.Expense) *ExpenseEvent {
	return newExpenseEvent(EventExpenseDeleted, e)
}

func newExpenseEvent(t EventType, e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      t,
		ID:        e.ID,
		ItemName:  e.ItemName,
		Amount:    e.Amount,
		CreatedAt: e.CreatedAt,
		Timestamp: time.Now().UTC(),
	}
}

// Expense returns the snapshot as a domain value.
func (m *ExpenseEvent) Expense() core.Expense {
	return core.Expense{
		ID:        m.ID,
		ItemName:  m.ItemName,
		Amount:    m.Amount,
		CreatedAt: m.CreatedAt,
	}
}

func (m *ExpenseEvent) Validate() error {
	switch m.Type {
	case EventExpenseCreated, EventExpenseDeleted:
	default:
		return fmt.Errorf("unknown event type %q", m.Type)
	}
	if m.ID <= 0 {
		return fmt.Errorf("invalid expense id %d", m.ID)
	}
	return nil
}

func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and validates an event body.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
