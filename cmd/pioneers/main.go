// Command pioneers runs the lobby server, the interactive client and the
// journal and scenario tooling.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pioneers/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
