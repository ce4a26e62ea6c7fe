// Command sqlbind renders and runs YAML query definitions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/syssam/sqlbind/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
