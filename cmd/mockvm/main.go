// Command mockvm runs mock VM scenarios and inspects stored records.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mockvm/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
