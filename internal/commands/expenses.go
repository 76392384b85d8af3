package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spendwise/internal/console"
	"spendwise/internal/core"
	"spendwise/internal/export"
)

func newAddCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "add <item name> <amount>",
		Short: "Record an expense",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, amount, err := console.ValidateForm(args[0], args[1])
			if err != nil {
				return err
			}
			e, err := rt.api().CreateExpense(cmd.Context(), name, amount)
			if err != nil {
				return errors.New(console.ServerMessage(err, "Failed to add expense"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s (%s)\n", e.ID, e.ItemName, e.Amount)
			return nil
		},
	}
}

func newListCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := rt.api().ListExpenses(cmd.Context())
			if err != nil {
				return errors.New(console.ServerMessage(err, "Failed to load expenses"))
			}
			console.RenderTable(cmd.OutOrStdout(), items)
			return nil
		},
	}
}

func newTotalCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Show total spending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := rt.api().Total(cmd.Context())
			if err != nil {
				return errors.New(console.ServerMessage(err, "Failed to load expenses"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total spending: %s\n", total)
			return nil
		},
	}
}

func newDeleteCommand(rt *runtime) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseID(args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd, rt, fmt.Sprintf("Delete expense #%d? [y/N] ", id)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			if err := rt.api().DeleteExpense(cmd.Context(), id); err != nil {
				return errors.New(console.ServerMessage(err, "Failed to delete expense"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func confirm(cmd *cobra.Command, rt *runtime, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, _ := bufio.NewReader(rt.opts.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func newExportCommand(rt *runtime) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export expenses and total to an .xlsx file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := rt.api()
			items, err := api.ListExpenses(cmd.Context())
			if err != nil {
				return errors.New(console.ServerMessage(err, "Failed to load expenses"))
			}
			total, err := api.Total(cmd.Context())
			if err != nil {
				return errors.New(console.ServerMessage(err, "Failed to load expenses"))
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := export.WriteXLSX(f, items, total); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d expenses to %s\n", len(items), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "expenses.xlsx", "output file")
	return cmd
}

func newConsoleCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive expense console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			term := console.NewTerminal(rt.api(), rt.opts.Stdin, cmd.OutOrStdout(), console.ControllerOptions{})
			return term.Run(cmd.Context())
		},
	}
}
