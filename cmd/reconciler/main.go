package main

import (
	"fmt"
	"os"

	"github.com/wekeepgrowing/billing-reconciler/internal/cli"
	"github.com/wekeepgrowing/billing-reconciler/pkg/errors"
)

func main() {
	err := cli.NewRootCommand(cli.Options{}).Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconciler: %v\n", err)
	}
	os.Exit(errors.ExitCode(err))
}
