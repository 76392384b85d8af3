package console

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/core"
)

const (
	successBannerTTL = 3 * time.Second

	fallbackAdd    = "Failed to add expense"
	fallbackDelete = "Failed to delete expense"
	fallbackLoad   = "Failed to load expenses"
)

// API is the subset of Client the controller uses.
type API interface {
	CreateExpense(ctx context.Context, itemName string, amount core.Amount) (core.Expense, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	Total(ctx context.Context) (core.Amount, error)
	DeleteExpense(ctx context.Context, id int64) error
}

// ControllerOptions holds the controller's side-effect hooks. Zero values get
// sensible defaults.
type ControllerOptions struct {
	// Confirm is asked before every delete. Nil confirms everything.
	Confirm func(e core.Expense) bool
	// AfterFunc schedules the success banner clear. Defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func())
	// OnChange is called with the new state after every transition.
	OnChange func(ViewState)
}

// Controller applies ViewState transitions around API calls. State updates
// are serialized behind a mutex.
type Controller struct {
	api  API
	opts ControllerOptions

	mu    sync.Mutex
	state ViewState
}

func NewController(api API, opts ControllerOptions) *Controller {
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return &Controller{api: api, opts: opts}
}

// State returns a snapshot of the view state.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetForm updates the form fields.
func (c *Controller) SetForm(itemName, amount string) {
	c.apply(func(s ViewState) ViewState {
		s.ItemName = itemName
		s.Amount = amount
		return s
	})
}

func (c *Controller) apply(fn func(ViewState) ViewState) ViewState {
	s, _ := c.update(func(s ViewState) (ViewState, bool) { return fn(s), true })
	return s
}

// update runs fn under the lock and keeps its result only when fn reports a
// change. OnChange fires for kept results.
func (c *Controller) update(fn func(ViewState) (ViewState, bool)) (ViewState, bool) {
	c.mu.Lock()
	next, changed := fn(c.state)
	if changed {
		c.state = next
	}
	s := c.state
	c.mu.Unlock()

	if changed && c.opts.OnChange != nil {
		c.opts.OnChange(s)
	}
	return s, changed
}

// Submit validates the form, creates the expense and re-fetches.
// It returns the error shown in the banner, if any.
func (c *Controller) Submit(ctx context.Context) error {
	var (
		name    string
		amount  core.Amount
		formErr error
	)
	_, started := c.update(func(s ViewState) (ViewState, bool) {
		if !s.CanSubmit() {
			return s, false
		}
		name, amount, formErr = ValidateForm(s.ItemName, s.Amount)
		if formErr != nil {
			return SubmitError(s, formErr.Error()), true
		}
		return SubmitStart(s), true
	})
	if formErr != nil {
		return formErr
	}
	if !started {
		return nil
	}

	if _, err := c.api.CreateExpense(ctx, name, amount); err != nil {
		c.apply(func(s ViewState) ViewState { return SubmitError(s, ServerMessage(err, fallbackAdd)) })
		return err
	}

	s := c.apply(SubmitSuccess)
	c.scheduleClear(s.BannerSeq)
	return c.Refresh(ctx)
}

// Delete asks for confirmation, deletes and re-fetches. Declining sends
// nothing and leaves the state untouched.
func (c *Controller) Delete(ctx context.Context, e core.Expense) error {
	if !c.State().CanDelete() {
		return nil
	}
	if c.opts.Confirm != nil && !c.opts.Confirm(e) {
		return nil
	}

	// Another delete may have started while the prompt was open.
	_, started := c.update(func(s ViewState) (ViewState, bool) {
		if !s.CanDelete() {
			return s, false
		}
		return DeleteStart(s, e.ID), true
	})
	if !started {
		return nil
	}
	if err := c.api.DeleteExpense(ctx, e.ID); err != nil {
		c.apply(func(s ViewState) ViewState { return DeleteError(s, ServerMessage(err, fallbackDelete)) })
		return err
	}

	s := c.apply(DeleteSuccess)
	c.scheduleClear(s.BannerSeq)
	return c.Refresh(ctx)
}

// Refresh fetches list and total concurrently.
func (c *Controller) Refresh(ctx context.Context) error {
	var (
		items []core.Expense
		total core.Amount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = c.api.ListExpenses(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = c.api.Total(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		c.apply(func(s ViewState) ViewState { return FetchError(s, ServerMessage(err, fallbackLoad)) })
		return err
	}

	c.apply(func(s ViewState) ViewState { return FetchSuccess(s, items, total) })
	return nil
}

func (c *Controller) scheduleClear(seq uint64) {
	c.opts.AfterFunc(successBannerTTL, func() {
		c.apply(func(s ViewState) ViewState { return ClearSuccess(s, seq) })
	})
}
