package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"spendwise/internal/core"
)

// Terminal is a line-oriented front end over Controller.
type Terminal struct {
	ctrl *Controller
	in   *bufio.Scanner
	out  io.Writer
}

// NewTerminal reads commands from in and renders to out. Delete confirmations
// are read from the same input.
func NewTerminal(api API, in io.Reader, out io.Writer, opts ControllerOptions) *Terminal {
	t := &Terminal{in: bufio.NewScanner(in), out: out}
	if opts.Confirm == nil {
		opts.Confirm = t.confirm
	}
	t.ctrl = NewController(api, opts)
	return t
}

func (t *Terminal) Controller() *Controller { return t.ctrl }

// Run loads the list and processes commands until quit or end of input.
func (t *Terminal) Run(ctx context.Context) error {
	_ = t.ctrl.Refresh(ctx)
	t.render()

	for {
		fmt.Fprint(t.out, "> ")
		line, ok := t.readLine()
		if !ok {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch strings.ToLower(cmd) {
		case "":
			continue
		case "add":
			t.add(ctx)
		case "delete", "rm":
			t.delete(ctx, strings.TrimSpace(arg))
		case "list", "refresh":
			_ = t.ctrl.Refresh(ctx)
		case "help", "?":
			t.help()
			continue
		case "quit", "exit", "q":
			return nil
		default:
			fmt.Fprintf(t.out, "unknown command %q, try help\n", cmd)
			continue
		}
		t.render()
	}
}

func (t *Terminal) add(ctx context.Context) {
	fmt.Fprint(t.out, "Item name: ")
	name, _ := t.readLine()
	fmt.Fprint(t.out, "Amount: ")
	amount, _ := t.readLine()

	t.ctrl.SetForm(name, amount)
	fmt.Fprintln(t.out, t.ctrl.State().SubmitLabel())
	_ = t.ctrl.Submit(ctx)
}

func (t *Terminal) delete(ctx context.Context, arg string) {
	id, err := core.ParseID(arg)
	if err != nil {
		fmt.Fprintln(t.out, err.Error())
		return
	}
	for _, e := range t.ctrl.State().Expenses {
		if e.ID == id {
			_ = t.ctrl.Delete(ctx, e)
			return
		}
	}
	fmt.Fprintf(t.out, "no expense with id %d in the list\n", id)
}

func (t *Terminal) confirm(e core.Expense) bool {
	fmt.Fprintf(t.out, "Delete %q (%s)? [y/N] ", e.ItemName, e.Amount)
	answer, _ := t.readLine()
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (t *Terminal) readLine() (string, bool) {
	if !t.in.Scan() {
		return "", false
	}
	return t.in.Text(), true
}

func (t *Terminal) render() {
	s := t.ctrl.State()
	if s.Error != "" {
		fmt.Fprintln(t.out, "error:", s.Error)
	}
	if s.Success != "" {
		fmt.Fprintln(t.out, s.Success)
	}
	RenderTable(t.out, s.Expenses)
	fmt.Fprintf(t.out, "Total spending: %s\n", s.Total)
}

func (t *Terminal) help() {
	fmt.Fprintln(t.out, "commands: add, delete <id>, list, help, quit")
}

// RenderTable prints expenses as an aligned table.
func RenderTable(out io.Writer, items []core.Expense) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No expenses yet.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tITEM\tAMOUNT\tCREATED")
	for _, e := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.ItemName, e.Amount, e.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}
