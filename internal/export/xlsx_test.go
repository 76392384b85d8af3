package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"spendwise/internal/core"
)

func TestWriteXLSX(t *testing.T) {
	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	items := []core.Expense{
		{ID: 2, ItemName: "Taxi", Amount: core.AmountFromCents(510), CreatedAt: created.Add(time.Hour)},
		{ID: 1, ItemName: "Lunch", Amount: core.AmountFromCents(1230), CreatedAt: created},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, items, core.AmountFromCents(1740)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"ID", "Item", "Amount", "Created At"}, rows[0])
	assert.Equal(t, []string{"2", "Taxi", "5.1", "2024-05-01 10:30:00"}, rows[1])
	assert.Equal(t, "Lunch", rows[2][1])
	assert.Equal(t, "Total", rows[3][1])
	assert.Equal(t, "17.4", rows[3][2])
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil, core.Amount{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Total", rows[1][1])
}
