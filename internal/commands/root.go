// Package commands implements the spendwise-cli command tree.
package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"spendwise/internal/config"
	"spendwise/internal/console"
	applog "spendwise/internal/log"
)

// Options lets tests swap the API client and terminal streams.
type Options struct {
	NewAPI func(baseURL string) console.API
	Stdin  io.Reader
}

type runtime struct {
	opts     Options
	apiURL   string
	logLevel string
	logger   *applog.Logger
}

func (r *runtime) api() console.API {
	if r.opts.NewAPI != nil {
		return r.opts.NewAPI(r.apiURL)
	}
	return console.NewClient(r.apiURL, nil).WithLogger(r.logger)
}

// setupLogger sends console logs to stderr so stdout stays clean for output.
func (r *runtime) setupLogger(cmd *cobra.Command, _ []string) error {
	level, err := applog.ParseLevel(r.logLevel)
	if err != nil {
		return err
	}
	r.logger = applog.New(applog.Config{
		Level:     level,
		Format:    "text",
		Component: applog.ComponentConsole,
		Output:    cmd.ErrOrStderr(),
	})
	return nil
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	rt := &runtime{opts: opts}

	rootCmd := &cobra.Command{
		Use:   "spendwise-cli",
		Short: "Track daily expenses against a SpendWise API",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:      true,
		PersistentPreRunE: rt.setupLogger,
	}
	rootCmd.PersistentFlags().StringVar(&rt.apiURL, "api-url", config.Load().APIURL, "SpendWise API base URL (SPENDWISE_API_URL)")
	rootCmd.PersistentFlags().StringVar(&rt.logLevel, "log-level", "warn", "Log level for diagnostics on stderr (debug, info, warn, error)")

	rootCmd.AddCommand(
		newAddCommand(rt),
		newListCommand(rt),
		newTotalCommand(rt),
		newDeleteCommand(rt),
		newExportCommand(rt),
		newConsoleCommand(rt),
	)

	return rootCmd
}
