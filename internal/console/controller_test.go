package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
)

// fakeAPI is an in-memory ledger that records the order of calls.
type fakeAPI struct {
	mu        sync.Mutex
	calls     []string
	items     []core.Expense
	nextID    int64
	createErr error
	deleteErr error
	listErr   error
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) CreateExpense(ctx context.Context, itemName string, amount core.Amount) (core.Expense, error) {
	f.record("create")
	if f.createErr != nil {
		return core.Expense{}, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	e := core.Expense{ID: f.nextID, ItemName: itemName, Amount: amount}
	f.items = append([]core.Expense{e}, f.items...)
	return e, nil
}

func (f *fakeAPI) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	f.record("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Expense{}, f.items...), nil
}

func (f *fakeAPI) Total(ctx context.Context) (core.Amount, error) {
	f.record("total")
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum core.Amount
	for _, e := range f.items {
		sum = sum.Add(e.Amount)
	}
	return sum, nil
}

func (f *fakeAPI) DeleteExpense(ctx context.Context, id int64) error {
	f.record("delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.items {
		if e.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return &APIError{Status: 404, Message: "Expense not found"}
}

// manualTimer captures scheduled callbacks so tests fire them explicitly.
type manualTimer struct {
	mu    sync.Mutex
	delay []time.Duration
	funcs []func()
}

func (m *manualTimer) AfterFunc(d time.Duration, f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = append(m.delay, d)
	m.funcs = append(m.funcs, f)
}

func (m *manualTimer) fire(i int) { m.funcs[i]() }

func newTestController(api *fakeAPI) (*Controller, *manualTimer) {
	timer := &manualTimer{}
	return NewController(api, ControllerOptions{AfterFunc: timer.AfterFunc}), timer
}

func TestController_SubmitRefetchesAfterCreate(t *testing.T) {
	api := &fakeAPI{}
	ctrl, timer := newTestController(api)

	ctrl.SetForm("  Coffee ", "8.75")
	require.NoError(t, ctrl.Submit(context.Background()))

	calls := api.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "create", calls[0], "re-fetch starts after the mutation")
	assert.ElementsMatch(t, []string{"list", "total"}, calls[1:])

	s := ctrl.State()
	assert.Empty(t, s.ItemName)
	assert.Empty(t, s.Amount)
	assert.Equal(t, MsgAdded, s.Success)
	require.Len(t, s.Expenses, 1)
	assert.Equal(t, "Coffee", s.Expenses[0].ItemName)
	assert.Equal(t, "8.75", s.Total.String())

	require.Len(t, timer.funcs, 1)
	assert.Equal(t, 3*time.Second, timer.delay[0])
	timer.fire(0)
	assert.Empty(t, ctrl.State().Success)
}

func TestController_SubmitClientValidation(t *testing.T) {
	api := &fakeAPI{}
	ctrl, _ := newTestController(api)

	ctrl.SetForm("  ", "5")
	assert.ErrorIs(t, ctrl.Submit(context.Background()), ErrFormItemName)
	assert.Equal(t, "Item name cannot be empty", ctrl.State().Error)

	ctrl.SetForm("Tea", "-2")
	assert.ErrorIs(t, ctrl.Submit(context.Background()), ErrFormAmount)
	assert.Equal(t, "Amount must be a positive number", ctrl.State().Error)

	assert.Empty(t, api.Calls(), "nothing sent")
}

func TestController_SubmitErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &APIError{Status: 500, Message: "Failed to add expense to database"}, "Failed to add expense to database"},
		{"no message", &APIError{Status: 502}, "Failed to add expense"},
		{"network", errors.New("dial tcp: connection refused"), "Failed to add expense"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{createErr: tt.err}
			ctrl, timer := newTestController(api)
			ctrl.SetForm("Tea", "1")

			assert.Error(t, ctrl.Submit(context.Background()))
			s := ctrl.State()
			assert.Equal(t, tt.want, s.Error)
			assert.Equal(t, PhaseIdle, s.SubmitPhase)
			assert.Equal(t, "Tea", s.ItemName)
			assert.Equal(t, []string{"create"}, api.Calls(), "no re-fetch after failure")
			assert.Empty(t, timer.funcs)
		})
	}
}

func TestController_DeleteDeclined(t *testing.T) {
	api := &fakeAPI{items: []core.Expense{{ID: 1, ItemName: "Tea"}}}
	ctrl := NewController(api, ControllerOptions{Confirm: func(core.Expense) bool { return false }})
	before := ctrl.State()

	require.NoError(t, ctrl.Delete(context.Background(), core.Expense{ID: 1}))
	assert.Empty(t, api.Calls())
	assert.Equal(t, before, ctrl.State())
}

func TestController_DeleteRefetches(t *testing.T) {
	api := &fakeAPI{nextID: 2, items: []core.Expense{
		{ID: 2, ItemName: "Taxi", Amount: core.AmountFromCents(510)},
		{ID: 1, ItemName: "Lunch", Amount: core.AmountFromCents(1230)},
	}}
	var asked core.Expense
	timer := &manualTimer{}
	ctrl := NewController(api, ControllerOptions{
		AfterFunc: timer.AfterFunc,
		Confirm: func(e core.Expense) bool {
			asked = e
			return true
		},
	})

	require.NoError(t, ctrl.Delete(context.Background(), core.Expense{ID: 1, ItemName: "Lunch"}))
	assert.Equal(t, "Lunch", asked.ItemName)

	calls := api.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "delete", calls[0])

	s := ctrl.State()
	assert.Equal(t, MsgDeleted, s.Success)
	require.Len(t, s.Expenses, 1)
	assert.Equal(t, int64(2), s.Expenses[0].ID)
	assert.Equal(t, "5.10", s.Total.String())
}

func TestController_DeleteNotFound(t *testing.T) {
	api := &fakeAPI{}
	ctrl, _ := newTestController(api)

	assert.Error(t, ctrl.Delete(context.Background(), core.Expense{ID: 9}))
	s := ctrl.State()
	assert.Equal(t, "Expense not found", s.Error)
	assert.Zero(t, s.DeletingID)
	assert.Equal(t, LabelDelete, s.DeleteLabel(9))
}

func TestController_NewerBannerSurvivesOldClear(t *testing.T) {
	api := &fakeAPI{}
	ctrl, timer := newTestController(api)

	ctrl.SetForm("A", "1")
	require.NoError(t, ctrl.Submit(context.Background()))
	ctrl.SetForm("B", "2")
	require.NoError(t, ctrl.Submit(context.Background()))

	require.Len(t, timer.funcs, 2)
	timer.fire(0)
	assert.Equal(t, MsgAdded, ctrl.State().Success, "first timer must not clear the second banner")
	timer.fire(1)
	assert.Empty(t, ctrl.State().Success)
}

func TestController_RefreshFailure(t *testing.T) {
	api := &fakeAPI{listErr: &APIError{Status: 500, Message: "Failed to fetch expenses from database"}}
	ctrl, _ := newTestController(api)
	assert.Error(t, ctrl.Refresh(context.Background()))
	assert.Equal(t, "Failed to fetch expenses from database", ctrl.State().Error)

	api = &fakeAPI{listErr: errors.New("timeout")}
	ctrl, _ = newTestController(api)
	assert.Error(t, ctrl.Refresh(context.Background()))
	assert.Equal(t, "Failed to load expenses", ctrl.State().Error)
}

func TestController_OnChange(t *testing.T) {
	var states []ViewState
	ctrl := NewController(&fakeAPI{}, ControllerOptions{
		AfterFunc: func(time.Duration, func()) {},
		OnChange:  func(s ViewState) { states = append(states, s) },
	})

	ctrl.SetForm("Tea", "1")
	require.NoError(t, ctrl.Submit(context.Background()))

	require.GreaterOrEqual(t, len(states), 4)
	assert.Equal(t, PhaseSubmitting, states[1].SubmitPhase, "busy state is published")
}

// gatedAPI holds mutations until release is closed.
type gatedAPI struct {
	*fakeAPI
	entered chan struct{}
	release chan struct{}
}

func (g *gatedAPI) CreateExpense(ctx context.Context, itemName string, amount core.Amount) (core.Expense, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.fakeAPI.CreateExpense(ctx, itemName, amount)
}

func (g *gatedAPI) DeleteExpense(ctx context.Context, id int64) error {
	g.entered <- struct{}{}
	<-g.release
	return g.fakeAPI.DeleteExpense(ctx, id)
}

func countCalls(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}

func TestController_ConcurrentSubmitSendsOnce(t *testing.T) {
	const n = 16
	api := &gatedAPI{fakeAPI: &fakeAPI{}, entered: make(chan struct{}, n), release: make(chan struct{})}
	ctrl := NewController(api, ControllerOptions{AfterFunc: func(time.Duration, func()) {}})
	ctrl.SetForm("Tea", "1")

	start := make(chan struct{})
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			<-start
			results <- ctrl.Submit(context.Background())
		}()
	}
	close(start)

	<-api.entered
	for i := 0; i < n-1; i++ {
		select {
		case err := <-results:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("more than one submit reached the API")
		}
	}
	assert.Equal(t, PhaseSubmitting, ctrl.State().SubmitPhase)

	close(api.release)
	require.NoError(t, <-results)
	assert.Equal(t, 1, countCalls(api.Calls(), "create"))
	assert.Equal(t, MsgAdded, ctrl.State().Success)
}

func TestController_DeleteWhileDeletingIsIgnored(t *testing.T) {
	api := &gatedAPI{
		fakeAPI: &fakeAPI{items: []core.Expense{{ID: 1, ItemName: "Tea"}, {ID: 2, ItemName: "Bus"}}},
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	ctrl := NewController(api, ControllerOptions{AfterFunc: func(time.Duration, func()) {}})

	done := make(chan error, 1)
	go func() { done <- ctrl.Delete(context.Background(), core.Expense{ID: 1}) }()
	<-api.entered

	require.NoError(t, ctrl.Delete(context.Background(), core.Expense{ID: 2}))
	assert.Equal(t, int64(1), ctrl.State().DeletingID)

	close(api.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, countCalls(api.Calls(), "delete"))
	require.Len(t, ctrl.State().Expenses, 1)
	assert.Equal(t, int64(2), ctrl.State().Expenses[0].ID)
}
