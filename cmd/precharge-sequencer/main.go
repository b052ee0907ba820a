// Command precharge-sequencer sizes contact arrays and runs the
// precharge safety sequencer for high-current DC buses.
package main

import (
	"log"

	"github.com/sweeney/precharge-sequencer/internal/cli"
)

func main() {
	if err := cli.BuildCLI().Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
