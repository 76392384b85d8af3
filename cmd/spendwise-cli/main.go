package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"spendwise/internal/cli"
	"spendwise/internal/commands"
)

func main() {
	cli.LoadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCommand(commands.Options{}).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
