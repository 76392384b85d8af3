package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"spendwise/internal/core"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the statements used by Repository. SQL is written with
// Postgres placeholders and rebound for SQLite.
type Queries struct {
	db     DBTX
	driver Driver
}

func NewQueries(db DBTX, driver Driver) *Queries {
	return &Queries{db: db, driver: driver}
}

var placeholderRe = regexp.MustCompile(`\$\d+`)

func (q *Queries) bind(query string) string {
	if q.driver != DriverSQLite {
		return query
	}
	return placeholderRe.ReplaceAllString(query, "?")
}

const createExpense = `
INSERT INTO expenses (item_name, amount)
VALUES ($1, $2)
RETURNING id, item_name, amount, created_at
`

func (q *Queries) CreateExpense(ctx context.Context, itemName string, amount core.Amount) (core.Expense, error) {
	row := q.db.QueryRowContext(ctx, q.bind(createExpense), itemName, amount.String())
	return scanExpense(row)
}

const listExpenses = `
SELECT id, item_name, amount, created_at
FROM expenses
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx, q.bind(listExpenses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getExpense = `
SELECT id, item_name, amount, created_at
FROM expenses
WHERE id = $1
`

func (q *Queries) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := q.db.QueryRowContext(ctx, q.bind(getExpense), id)
	return scanExpense(row)
}

const deleteExpense = `
DELETE FROM expenses
WHERE id = $1
`

func (q *Queries) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.bind(deleteExpense), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const sumExpenses = `
SELECT COALESCE(SUM(amount), 0)
FROM expenses
`

func (q *Queries) SumExpenses(ctx context.Context) (core.Amount, error) {
	var total core.Amount
	err := q.db.QueryRowContext(ctx, q.bind(sumExpenses)).Scan(&total)
	return total, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e  core.Expense
		ts timestamp
	)
	if err := row.Scan(&e.ID, &e.ItemName, &e.Amount, &ts); err != nil {
		return core.Expense{}, err
	}
	e.CreatedAt = ts.Time
	return e, nil
}

// timestamp accepts the shapes drivers hand back for a timestamp column:
// time.Time from lib/pq, text or time.Time from SQLite.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

func (t *timestamp) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", value)
	}
}

func (t *timestamp) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("scan timestamp: unrecognized format %q", s)
}
