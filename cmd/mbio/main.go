// Command mbio encodes files into nucleotide sequences, simulates the
// storage channel and decodes them back.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mbiostore/mbio/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if ctx.Err() != nil && code == 0 {
		code = 130
	}

	stop()
	os.Exit(code)
}
