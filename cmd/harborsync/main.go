package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/crmarques/harborsync/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, cli.NewDependencies(), os.Args[1:])
	stop()

	os.Exit(cli.ExitCodeForError(err))
}
