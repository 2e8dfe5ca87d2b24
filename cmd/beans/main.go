// Command beans stores and searches research findings for a project.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shinyobjectz/beans/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
