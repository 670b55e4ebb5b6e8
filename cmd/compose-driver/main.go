// Command compose-driver serves a UI test harness over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/jdemeulenaere/compose-driver/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "compose-driver: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
